package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/univops/timetable-api/internal/service"
)

// Metrics records per-request duration and counts. The route template, not
// the raw path, labels the series to keep cardinality bounded.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(started))
	}
}
