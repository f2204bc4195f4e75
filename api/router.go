package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/followharvest/api/handler"
	"github.com/use-agent/followharvest/api/middleware"
	"github.com/use-agent/followharvest/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Harvest: Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(runner handler.Runner, stats handler.StatsSource, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/api/v1/health", handler.Health(stats, startTime))

	guard := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		guard = append(guard, middleware.Auth(cfg.Auth.APIKeys))
	}
	guard = append(guard, middleware.RateLimit(cfg.RateLimit))

	harvest := handler.Harvest(runner, cfg.Harvest)

	// Both paths share one limiter.
	root := r.Group("", guard...)
	root.POST("/follow-harvest", harvest)
	root.POST("/api/v1/follow-harvest", harvest)

	return r
}
