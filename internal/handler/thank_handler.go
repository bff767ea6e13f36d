package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/service"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// ThankHandler exposes thanks reaction endpoints.
type ThankHandler struct {
	service *service.ThankService
}

// NewThankHandler constructs a thank handler.
func NewThankHandler(svc *service.ThankService) *ThankHandler {
	return &ThankHandler{service: svc}
}

// Add godoc
// @Summary Thank review
// @Tags Thanks
// @Produce json
// @Param id path string true "Review ID"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /reviews/{id}/thanks [post]
func (h *ThankHandler) Add(c *gin.Context) {
	count, err := h.service.Add(c.Request.Context(), userIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"thanks_count": count}, nil)
}

// Remove godoc
// @Summary Withdraw thank
// @Tags Thanks
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reviews/{id}/thanks [delete]
func (h *ThankHandler) Remove(c *gin.Context) {
	count, err := h.service.Remove(c.Request.Context(), userIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"thanks_count": count}, nil)
}

// Status godoc
// @Summary Thank status
// @Tags Thanks
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reviews/{id}/thanks [get]
func (h *ThankHandler) Status(c *gin.Context) {
	thanked, err := h.service.Status(c.Request.Context(), userIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"thanked": thanked}, nil)
}
