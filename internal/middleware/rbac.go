package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

// RequireAction rejects requests whose actor is inactive or whose role is not allow-listed for
// action. Resource-scoped rules are checked again by the service.
func RequireAction(action policy.Action) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, role := range policy.RolesFor(action) {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		actor, ok := value.(models.Actor)
		if !exists || !ok {
			response.Abort(c, appErrors.ErrUnauthenticated)
			return
		}
		if !actor.Active {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "account is inactive"))
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "role "+string(actor.Role)+" may not "+action.String()))
			return
		}
		c.Next()
	}
}
