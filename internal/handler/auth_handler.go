package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/service"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// GoogleLogin godoc
// @Summary Login with Google
// @Description Exchanges a Google ID token for an application access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body googleLoginRequest true "Google ID token"
// @Success 200 {object} response.Envelope
// @Router /auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	token, user, err := h.service.Login(c.Request.Context(), req.IDToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"token": token, "user": user.Info()}, nil)
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user.Info(), nil)
}

// Logout godoc
// @Summary Logout
// @Description Access tokens are stateless; the client discards its token.
// @Tags Auth
// @Success 204
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	response.NoContent(c)
}
