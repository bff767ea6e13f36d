package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/models"
	"github.com/kougiview/kougiview-api/internal/service"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// LectureHandler exposes lecture catalogue endpoints.
type LectureHandler struct {
	service *service.LectureService
}

// NewLectureHandler constructs a lecture handler.
func NewLectureHandler(svc *service.LectureService) *LectureHandler {
	return &LectureHandler{service: svc}
}

// List godoc
// @Summary List lectures
// @Description List lectures with review aggregates
// @Tags Lectures
// @Produce json
// @Param faculty query string false "Filter by faculty"
// @Param title query string false "Filter by title substring"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lectures [get]
func (h *LectureHandler) List(c *gin.Context) {
	var filter models.LectureFilter
	filter.Faculty = c.Query("faculty")
	filter.Title = c.Query("title")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	lectures, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lectures, pagination)
}

// Get godoc
// @Summary Get lecture
// @Tags Lectures
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Router /lectures/{id} [get]
func (h *LectureHandler) Get(c *gin.Context) {
	lecture, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecture, nil)
}

// Create godoc
// @Summary Register lecture
// @Tags Lectures
// @Accept json
// @Produce json
// @Param payload body service.CreateLectureRequest true "Lecture payload"
// @Success 201 {object} response.Envelope
// @Router /lectures [post]
func (h *LectureHandler) Create(c *gin.Context) {
	var req service.CreateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lecture, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecture)
}
