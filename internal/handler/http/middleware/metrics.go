package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ldgsmhrd/selfstar/internal/utils/metrics"
)

// MetricsMiddleware records request counts by status and handling time.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		metrics.RequestsTotal.WithLabelValues(strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.Observe(time.Since(start).Seconds())
	}
}
