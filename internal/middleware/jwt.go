package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/models"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
	"github.com/noah-isme/trust-erp-api/pkg/logger"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved models.Actor.
const ContextUserKey = "currentUser"

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (models.Actor, error)
}

// JWT protects routes by requiring a valid access token and resolving the current actor.
func JWT(sessions sessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, appErrors.ErrUnauthenticated)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid authorization header"))
			return
		}

		actor, err := sessions.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserKey, actor)
		c.Set(logger.ActorIDKey, actor.ID)
		c.Next()
	}
}
