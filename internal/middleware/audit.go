package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/pkg/logger"
)

// Audit logs every successful write together with the actor that made it.
func Audit(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		ac := ActorFromContext(c)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("token_status", string(ac.TokenStatus)),
		}
		if ac.Identity != nil {
			fields = append(fields,
				zap.Int64("actor_id", ac.Identity.ID),
				zap.String("actor_role", ac.Identity.Role.String()),
			)
		}
		if ac.ActingRole != "" {
			fields = append(fields, zap.String("acting_role", ac.ActingRole))
		}
		logger.ForRequest(l, c).Info("audit", fields...)
	}
}
