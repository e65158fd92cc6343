package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartdoc-backend/internal/services/health"
	"smartdoc-backend/internal/shared/config"
	"smartdoc-backend/internal/shared/metrics"
	"smartdoc-backend/internal/shared/server/middleware"
	"smartdoc-backend/internal/shared/server/respond"
)

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// FileServer serves signed download links outside the authenticated API.
type FileServer interface {
	RegisterDownload(r gin.IRoutes)
}

// RouterDeps lists what NewRouter mounts.
type RouterDeps struct {
	Config config.Config
	Health *health.Service
	Files  FileServer
	Routes []RouteRegistrar
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.Files != nil {
		deps.Files.RegisterDownload(r)
	}

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		body, ok := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, body)
	})
	registerMeRoutes(api)
	for _, reg := range deps.Routes {
		if reg != nil {
			reg.RegisterRoutes(api)
		}
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
