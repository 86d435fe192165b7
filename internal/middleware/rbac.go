package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/alumni-survey-api/pkg/errors"
	"github.com/noah-isme/alumni-survey-api/pkg/response"
)

var errAdminRequired = appErrors.Clone(appErrors.ErrForbidden, "Admin privileges required.")

// RequireAdmin lets a request through only when its actor is an admin.
// It must run after Actor.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := ActorFromContext(c)
		if ac.IsAdmin() {
			c.Next()
			return
		}
		if ac.Identity == nil && !ac.TrustActingAdmin {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		response.Abort(c, errAdminRequired)
	}
}
