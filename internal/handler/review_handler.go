package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/service"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// ReviewHandler exposes review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	metrics *service.MetricsService
}

// NewReviewHandler constructs a review handler.
func NewReviewHandler(svc *service.ReviewService, metrics *service.MetricsService) *ReviewHandler {
	return &ReviewHandler{service: svc, metrics: metrics}
}

// ListByLecture godoc
// @Summary List lecture reviews
// @Description List a lecture's reviews; content is redacted for callers without access
// @Tags Reviews
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Router /lectures/{id}/reviews [get]
func (h *ReviewHandler) ListByLecture(c *gin.Context) {
	reviews, decision, err := h.service.ListByLecture(c.Request.Context(), c.Param("id"), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !decision.Granted {
		h.metrics.RecordAccessDenied()
	}
	response.JSON(c, http.StatusOK, reviews, nil, map[string]interface{}{"access_granted": decision.Granted})
}

// Latest godoc
// @Summary Latest reviews
// @Description Newest reviews across all lectures, redacted for callers without access
// @Tags Reviews
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reviews/latest [get]
func (h *ReviewHandler) Latest(c *gin.Context) {
	reviews, err := h.service.Latest(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Total godoc
// @Summary Total review count
// @Tags Reviews
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reviews/total [get]
func (h *ReviewHandler) Total(c *gin.Context) {
	total, err := h.service.Total(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"total": total}, nil)
}

// Create godoc
// @Summary Submit review
// @Description Submit a review for a lecture; anonymous submissions are accepted
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Lecture ID"
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Router /lectures/{id}/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	review, err := h.service.Create(c.Request.Context(), c.Param("id"), userIDFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordReviewCreated()
	response.Created(c, review)
}

// Delete godoc
// @Summary Delete own review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 204
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), userIDFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordReviewDeleted()
	response.NoContent(c)
}
