package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dairy-backend-go/internal/metrics"
)

// Metrics records request count, latency and in-flight requests per matched route.
// Unmatched paths are grouped under "unmatched" to keep label cardinality bounded.
// A panicking handler is recorded as a 500 and the panic is passed on to the recovery middleware.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.RequestStarted()
		defer func() {
			status := c.Writer.Status()
			r := recover()
			if r != nil {
				status = http.StatusInternalServerError
			}
			done(c.Request.Method, routeLabel(c), status)
			if r != nil {
				panic(r)
			}
		}()
		c.Next()
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
