package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-survey-api/internal/middleware"
	"github.com/noah-isme/alumni-survey-api/internal/service"
	"github.com/noah-isme/alumni-survey-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/alumni-survey-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/alumni-survey-api/pkg/middleware/requestid"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	APIPrefix        string
	AllowedOrigins   []string
	EnableDocs       bool
	TrustActingAdmin bool

	Logger      *zap.Logger
	Metrics     *service.MetricsService
	Tokens      middleware.TokenValidator
	LoginLimit  *middleware.RateLimiter
	ReadyChecks map[string]Pinger

	Auth           *AuthHandler
	Admins         *AdminHandler
	Alumni         *AlumniHandler
	ProgramHeads   *ProgramHeadHandler
	Programs       *ProgramHandler
	Surveys        *SurveyHandler
	ChangeRequests *ChangeRequestHandler
	Notifications  *NotificationHandler
	Posts          *PostHandler
	Mirror         *MirrorHandler
}

// NewRouter assembles the gin engine. Collection and item routes keep their
// trailing slash for compatibility with existing clients.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	ops := NewMetricsHandler(cfg.Metrics, cfg.ReadyChecks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}
	api := r.Group(prefix)
	api.Use(middleware.Actor(cfg.Tokens, cfg.TrustActingAdmin))
	api.Use(middleware.Audit(cfg.Logger))

	if h := cfg.Auth; h != nil {
		login := []gin.HandlerFunc{h.Login}
		if cfg.LoginLimit != nil {
			login = append([]gin.HandlerFunc{cfg.LoginLimit.Middleware()}, login...)
		}
		api.POST("/login/", login...)
		api.POST("/token/validate/", h.ValidateToken)
	}

	if h := cfg.Admins; h != nil {
		api.GET("/admins/", h.List)
		api.POST("/admins/", h.Create)
		api.GET("/admins/:id/", h.Get)
		api.PUT("/admins/:id/", h.Update)
		api.PATCH("/admins/:id/", h.Update)
		api.DELETE("/admins/:id/", h.Delete)
	}

	if h := cfg.Alumni; h != nil {
		api.GET("/alumni/", h.List)
		api.POST("/alumni/", h.Create)
		api.POST("/alumni/consent/", h.Consent)
		api.GET("/alumni/:id/", h.Get)
		api.PUT("/alumni/:id/", h.Update)
		api.PATCH("/alumni/:id/", h.Update)
		api.DELETE("/alumni/:id/", h.Delete)
		api.POST("/alumni/:id/change_password/", h.ChangePassword)
	}

	if h := cfg.ProgramHeads; h != nil {
		api.GET("/program-heads/", h.List)
		api.POST("/program-heads/", h.Create)
		api.GET("/program-heads/:id/", h.Get)
		api.PUT("/program-heads/:id/", h.Update)
		api.PATCH("/program-heads/:id/", h.Update)
		api.DELETE("/program-heads/:id/", h.Delete)
	}

	if h := cfg.Programs; h != nil {
		api.GET("/programs/", h.List)
		api.POST("/programs/", h.Create)
	}

	if h := cfg.Surveys; h != nil {
		for _, base := range []string{"/alumni-surveys", "/users_alumnisurvey"} {
			api.GET(base+"/", h.List)
			api.POST(base+"/", h.Create)
			api.GET(base+"/:id/", h.Get)
			api.PUT(base+"/:id/", h.Update)
			api.PATCH(base+"/:id/", h.Update)
			api.DELETE(base+"/:id/", h.Delete)
		}
		api.GET("/survey-aggregates/", h.Aggregates)
		api.GET("/survey-exports/", h.Export)
	}

	if h := cfg.ChangeRequests; h != nil {
		api.GET("/survey-change-requests/", h.List)
		api.POST("/survey-change-requests/", h.Create)
		api.PATCH("/survey-change-requests/:id/", h.UpdateStatus)
	}

	if h := cfg.Notifications; h != nil {
		api.GET("/notifications/", h.List)
		api.POST("/notifications/", h.Create)
		api.GET("/notifications/:id/", h.Get)
		api.DELETE("/notifications/:id/", h.Delete)
	}

	if h := cfg.Posts; h != nil {
		api.GET("/posts/", h.List)
		api.POST("/posts/", h.Create)
		api.GET("/posts/:id/", h.Get)
		api.PUT("/posts/:id/", h.Update)
		api.PATCH("/posts/:id/", h.Update)
		api.DELETE("/posts/:id/", h.Delete)
		api.GET("/posts/:id/comments/", h.ListComments)
		api.POST("/posts/:id/comments/", h.CreateComment)
		api.GET("/posts/:id/comments/:cid/", h.GetComment)
		api.DELETE("/posts/:id/comments/:cid/", h.DeleteComment)
		api.POST("/posts/:id/likes/toggle/", h.ToggleLike)
	}

	if h := cfg.Mirror; h != nil {
		admin := api.Group("/legacy-mirror", middleware.RequireAdmin())
		admin.GET("/outbox/", h.Outbox)
	}

	return r
}
