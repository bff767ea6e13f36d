package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/service"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// MypageHandler exposes the authenticated user's dashboard endpoints.
type MypageHandler struct {
	service *service.MypageService
}

// NewMypageHandler constructs a mypage handler.
func NewMypageHandler(svc *service.MypageService) *MypageHandler {
	return &MypageHandler{service: svc}
}

// Profile godoc
// @Summary My profile
// @Tags Mypage
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /mypage/profile [get]
func (h *MypageHandler) Profile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Statistics godoc
// @Summary My statistics
// @Description Review count, average rating, thanks received, and leaderboard position
// @Tags Mypage
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /mypage/statistics [get]
func (h *MypageHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Reviews godoc
// @Summary My reviews
// @Tags Mypage
// @Produce json
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /mypage/reviews [get]
func (h *MypageHandler) Reviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	reviews, pagination, err := h.service.Reviews(c.Request.Context(), userIDFromContext(c), page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, pagination)
}

// Bookmarks godoc
// @Summary My bookmarks
// @Tags Mypage
// @Produce json
// @Param page query int false "Page"
// @Param per_page query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /mypage/bookmarks [get]
func (h *MypageHandler) Bookmarks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	bookmarks, pagination, err := h.service.Bookmarks(c.Request.Context(), userIDFromContext(c), page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookmarks, pagination)
}
