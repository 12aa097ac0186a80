// Package api serves pipeline runs over HTTP for review.
package api

import (
	"net/http"
	"time"

	"annual-plan/internal/api/handlers"
	"annual-plan/internal/api/middleware"
	"annual-plan/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	// Root is the directory scenario paths are resolved against.
	Root string
	// RunTTL bounds how long finished runs are kept.
	RunTTL         time.Duration
	AllowedOrigins []string
}

func NewRouter(cfg *config.Config, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	runs := handlers.NewRunHandler(cfg, opts.Root, logger, opts.RunTTL)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/scenarios", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"scenarios": cfg.ScenarioNames()})
		})
		api.POST("/runs", runs.CreateRun)
		api.GET("/runs/:id", runs.GetRun)
		api.GET("/runs/:id/targets", runs.GetTargets)
		api.GET("/runs/:id/ledger", runs.GetLedger)
		api.GET("/runs/:id/diagnostics", runs.GetDiagnostics)
		api.GET("/runs/:id/additions", runs.GetAdditions)
	}
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
