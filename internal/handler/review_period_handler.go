package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/service"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// ReviewPeriodHandler exposes review period administration endpoints plus the
// public current-period lookup.
type ReviewPeriodHandler struct {
	service *service.ReviewPeriodService
}

// NewReviewPeriodHandler constructs a review period handler.
func NewReviewPeriodHandler(svc *service.ReviewPeriodService) *ReviewPeriodHandler {
	return &ReviewPeriodHandler{service: svc}
}

// GetCurrent godoc
// @Summary Get current review period
// @Description Returns the active review period, or null when none is configured
// @Tags ReviewPeriods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /review-periods/current [get]
func (h *ReviewPeriodHandler) GetCurrent(c *gin.Context) {
	period, err := h.service.GetCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// List godoc
// @Summary List review periods
// @Tags ReviewPeriods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/review-periods [get]
func (h *ReviewPeriodHandler) List(c *gin.Context) {
	periods, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Get godoc
// @Summary Get review period
// @Tags ReviewPeriods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /admin/review-periods/{id} [get]
func (h *ReviewPeriodHandler) Get(c *gin.Context) {
	period, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create review period
// @Tags ReviewPeriods
// @Accept json
// @Produce json
// @Param payload body service.CreateReviewPeriodRequest true "Period payload"
// @Success 201 {object} response.Envelope
// @Router /admin/review-periods [post]
func (h *ReviewPeriodHandler) Create(c *gin.Context) {
	var req service.CreateReviewPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Update review period
// @Tags ReviewPeriods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body service.UpdateReviewPeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /admin/review-periods/{id} [put]
func (h *ReviewPeriodHandler) Update(c *gin.Context) {
	var req service.UpdateReviewPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Activate godoc
// @Summary Activate review period
// @Description Makes the period the single active one, deactivating any other
// @Tags ReviewPeriods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /admin/review-periods/{id}/activate [post]
func (h *ReviewPeriodHandler) Activate(c *gin.Context) {
	period, err := h.service.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Deactivate godoc
// @Summary Deactivate review period
// @Tags ReviewPeriods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /admin/review-periods/{id}/deactivate [post]
func (h *ReviewPeriodHandler) Deactivate(c *gin.Context) {
	period, err := h.service.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Delete godoc
// @Summary Delete review period
// @Tags ReviewPeriods
// @Produce json
// @Param id path string true "Period ID"
// @Success 204
// @Router /admin/review-periods/{id} [delete]
func (h *ReviewPeriodHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
