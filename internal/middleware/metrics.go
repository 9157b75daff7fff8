package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

const (
	unmatchedRoute = "unmatched"
	anonymousRole  = "anonymous"
)

type requestObserver interface {
	ObserveHTTPRequest(method, route, role string, status int, duration time.Duration)
}

// Metrics records every request against its route pattern and the role of
// the resolved actor. Requests that never reached JWT are labelled anonymous.
func Metrics(observer requestObserver) gin.HandlerFunc {
	if observer == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		role := anonymousRole
		if actor, ok := c.Get(ContextUserKey); ok {
			if a, ok := actor.(models.Actor); ok {
				role = string(a.Role)
			}
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, role, c.Writer.Status(), time.Since(start))
	}
}
