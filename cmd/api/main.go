package main

import (
	"fmt"
	"os"
	"strings"

	"annual-plan/internal/api"
	"annual-plan/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	root := os.Getenv("STUDY_ROOT")
	if root == "" {
		root = "."
	}

	logCfg := zap.NewDevelopmentConfig()
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
		logCfg = zap.NewProductionConfig()
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(os.Getenv("STUDY_CONFIG"))
	if err != nil {
		logger.Fatal("failed to load study config", zap.Error(err))
	}

	var origins []string
	if s := os.Getenv("CORS_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}
	router := api.NewRouter(cfg, api.Options{Root: root, AllowedOrigins: origins}, logger)

	addr := fmt.Sprintf(":%s", port)
	logger.Info("starting API server",
		zap.String("addr", addr),
		zap.String("root", root),
		zap.Strings("scenarios", cfg.ScenarioNames()),
	)
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
