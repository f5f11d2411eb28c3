package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labportal/server/internal/utils/metrics"
)

// Metrics records request counts and latency. Requests are labelled by route
// template so path parameters do not explode cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
