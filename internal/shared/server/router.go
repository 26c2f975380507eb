package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"careerpilot-backend/internal/analyses"
	"careerpilot-backend/internal/bootstrap"
	"careerpilot-backend/internal/profile"
	"careerpilot-backend/internal/resumes"
	"careerpilot-backend/internal/shared/metrics"
	"careerpilot-backend/internal/shared/server/middleware"
	"careerpilot-backend/internal/shared/server/respond"
	"careerpilot-backend/internal/tailoring"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(corsOrigins(app.Config.Env)),
	)

	r.GET("/healthz", func(c *gin.Context) {
		status := gin.H{"ok": true}
		if app.DB != nil {
			if err := app.DB.PingContext(c.Request.Context()); err != nil {
				respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
				return
			}
		}
		respond.OK(c, status)
	})
	r.GET("/metrics", metrics.Handler())

	var limiter middleware.Limiter
	if app.Redis != nil {
		limiter = middleware.NewRedisLimiter(app.Redis, app.Config.RatePerMinute, time.Minute)
	} else {
		limiter = middleware.NewMemoryLimiter(app.Config.RatePerMinute, time.Minute)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.Identity(), middleware.RateLimit(limiter))

	resumes.NewHandler(app.ResumesService).RegisterRoutes(api)
	tailoring.NewHandler(app.TailoringService).RegisterRoutes(api)
	analyses.NewHandler(app.AnalysesService).RegisterRoutes(api)
	profile.NewHandler(app.ProfilesRepo).RegisterRoutes(api)

	return r
}

func corsOrigins(env string) []string {
	if env == "production" {
		return []string{"https://app.careerpilot.dev"}
	}
	return []string{"http://localhost:3000", "http://localhost:5173"}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
