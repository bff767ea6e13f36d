package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kougiview/kougiview-api/internal/models"
)

func adminRouter(emails []string, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/ping", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, AdminOnly(emails), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestAdminOnlyAllowsListedEmail(t *testing.T) {
	r := adminRouter([]string{"admin@example.com"}, &models.JWTClaims{UserID: "u1", Email: "Admin@Example.com"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnlyRejectsUnlistedEmail(t *testing.T) {
	r := adminRouter([]string{"admin@example.com"}, &models.JWTClaims{UserID: "u1", Email: "student@example.com"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnlyRejectsMissingClaims(t *testing.T) {
	r := adminRouter([]string{"admin@example.com"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
