package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/linkengine/internal/config"
)

const corsMaxAge = 12 * time.Hour

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(cfg *config.Config, handlers *Handlers) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if len(cfg.Server.CORSOrigins) > 0 {
		router.Use(corsMiddleware(cfg.Server.CORSOrigins))
	}

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/items/:id/relink", handlers.Relink)
		v1.GET("/items/:id/links", handlers.GetLinks)
		v1.POST("/items/:id/links", handlers.PinLink)
		v1.GET("/items/:id/authority", handlers.GetAuthority)
		v1.POST("/verify", handlers.Verify)
		v1.DELETE("/discovery/cache", handlers.InvalidateDiscovery)
	}

	return router
}

// corsMiddleware builds the CORS policy from configuration.
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
}
