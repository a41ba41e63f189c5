package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kurihiro0119/github-stars-analyzer/internal/api"
	"github.com/kurihiro0119/github-stars-analyzer/internal/config"
	"github.com/kurihiro0119/github-stars-analyzer/internal/dashboard"
	"github.com/kurihiro0119/github-stars-analyzer/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	// Initialize dashboard and its session store
	svc, store, err := dashboard.NewFromConfig(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize session store", zap.Error(err))
	}
	defer store.Close()

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize handler
	handler := api.NewHandler(svc)

	// Setup routes
	router := api.SetupRoutes(handler, log.Named("http"))

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.String("star_history", cfg.StarHistoryStrategy),
		zap.Bool("authenticated", cfg.GitHubToken != ""))

	if err := router.Run(addr); err != nil {
		log.Error("failed to start server", zap.Error(err))
		os.Exit(1)
	}
}
