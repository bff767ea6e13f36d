package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/service"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// BookmarkHandler exposes bookmark endpoints.
type BookmarkHandler struct {
	service *service.BookmarkService
}

// NewBookmarkHandler constructs a bookmark handler.
func NewBookmarkHandler(svc *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{service: svc}
}

// Add godoc
// @Summary Bookmark lecture
// @Tags Bookmarks
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /lectures/{id}/bookmark [post]
func (h *BookmarkHandler) Add(c *gin.Context) {
	bookmark, err := h.service.Add(c.Request.Context(), userIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bookmark)
}

// Remove godoc
// @Summary Remove bookmark
// @Tags Bookmarks
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 204
// @Security BearerAuth
// @Router /lectures/{id}/bookmark [delete]
func (h *BookmarkHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), userIDFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Status godoc
// @Summary Bookmark status
// @Tags Bookmarks
// @Produce json
// @Param id path string true "Lecture ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /lectures/{id}/bookmark [get]
func (h *BookmarkHandler) Status(c *gin.Context) {
	bookmarked, err := h.service.Status(c.Request.Context(), userIDFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"bookmarked": bookmarked}, nil)
}
