package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"readify-backend/internal/blobs"
	"readify-backend/internal/documents"
	"readify-backend/internal/services/health"
	"readify-backend/internal/shared/config"
	"readify-backend/internal/shared/metrics"
	"readify-backend/internal/shared/server/middleware"
	"readify-backend/internal/shared/server/respond"
	"readify-backend/internal/speech"
	"readify-backend/internal/users"
)

// Handlers groups the route owners mounted under /api/v1.
type Handlers struct {
	Documents *documents.Handler
	Users     *users.Handler
	Speech    *speech.Handler
	Blobs     *blobs.Handler
	Health    *health.Service
}

var defaultRateRules = map[string]middleware.RateLimitRule{
	middleware.RateGroupDefault:   {Rate: 10, Burst: 40},
	middleware.RateGroupUpload:    {Rate: 0.5, Burst: 5},
	middleware.RateGroupSynthesis: {Rate: 0.2, Burst: 3},
}

var routeRateGroups = map[string]string{
	http.MethodPost + " /api/v1/documents":           middleware.RateGroupUpload,
	http.MethodPost + " /api/v1/documents/:id/audio": middleware.RateGroupSynthesis,
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	if h.Blobs != nil {
		h.Blobs.RegisterRoutes(r)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := h.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())
	if h.Users != nil {
		h.Users.RegisterPublicRoutes(api)
	}

	secured := api.Group("",
		middleware.Identity(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    defaultRateRules,
			GroupFor: middleware.RouteGroups(routeRateGroups),
		}),
	)
	if h.Documents != nil {
		h.Documents.RegisterRoutes(secured)
	}
	if h.Users != nil {
		h.Users.RegisterRoutes(secured)
	}
	if h.Speech != nil {
		h.Speech.RegisterRoutes(secured)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
