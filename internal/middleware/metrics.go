package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kougiview/kougiview-api/internal/service"
)

// Observability endpoints are scraped constantly and would dominate the
// histograms, so they are excluded.
var unobservedPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// Metrics records per-request duration and status counts.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if _, skip := unobservedPaths[path]; skip {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
