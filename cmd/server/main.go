package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aviaskill/internal/config"
	"aviaskill/internal/handler"
	"aviaskill/internal/logger"
	"aviaskill/internal/repository"
	"aviaskill/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(&cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Avia skill webhook")

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Bootstrap the reference catalog. The skill cannot resolve a
	// single utterance without it, so a failure here aborts startup.
	bootstrapCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Catalog.Timeout)*time.Second)
	catalog, err := service.LoadCatalog(bootstrapCtx, &cfg.Catalog)
	cancel()
	if err != nil {
		logrus.Fatalf("Failed to bootstrap reference catalog: %v", err)
	}

	// Optional turn-log database
	var repo *repository.PostgresRepository
	if cfg.Postgres.DSN != "" {
		repo, err = repository.NewPostgresRepository(
			cfg.Postgres.DSN,
			cfg.Postgres.MaxConnections,
			cfg.Postgres.MaxIdleConnections,
		)
		if err != nil {
			logrus.Fatalf("Failed to connect to turn-log database: %v", err)
		}
		defer repo.Close()
		logrus.Info("Connected to turn-log database")
	} else {
		logrus.Info("Turn logging disabled - DATABASE_URL not set")
	}

	// Initialize services
	faresClient := service.NewFaresClient(&cfg.Travelpayouts)
	dialogService := service.NewDialogService(catalog, faresClient)

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(dialogService, repo)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":     "healthy",
			"service":    "avia-skill",
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Dialog webhook
	router.POST("/post", webhookHandler.Handle)

	// Diagnostics, only when the turn log is configured
	if repo != nil {
		turnsHandler := handler.NewTurnsHandler(repo)
		router.GET("/api/v1/turns", turnsHandler.List)
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logrus.WithField("addr", addr).Info("Starting server")

	go func() {
		if err := router.Run(addr); err != nil {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server")
}
