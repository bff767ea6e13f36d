package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
	"github.com/kougiview/kougiview-api/pkg/response"
)

// AdminOnly restricts a route to the configured administrator emails. It must
// run after JWT, which stores the claims it reads.
func AdminOnly(adminEmails []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		allowed[strings.ToLower(email)] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[strings.ToLower(claims.Email)]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "administrator access required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
