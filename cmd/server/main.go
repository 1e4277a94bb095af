package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicworks/idlewatch/internal/config"
	"github.com/civicworks/idlewatch/internal/database"
	"github.com/civicworks/idlewatch/internal/geocode"
	"github.com/civicworks/idlewatch/internal/handlers"
	"github.com/civicworks/idlewatch/internal/imghost"
	"github.com/civicworks/idlewatch/internal/logger"
	"github.com/civicworks/idlewatch/internal/middleware"
	"github.com/civicworks/idlewatch/internal/observability"
	"github.com/civicworks/idlewatch/internal/repository"
	"github.com/civicworks/idlewatch/internal/scheduler"
	"github.com/civicworks/idlewatch/internal/services"
	"github.com/civicworks/idlewatch/internal/weather"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Idlewatch API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Connect to the database
	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
	})

	// Metrics and upstream service adapters
	metrics := observability.NewMetrics()
	geocoder := geocode.NewCachedGeocoder(
		geocode.NewClient(cfg.Geocoder, metrics, log),
		cfg.Geocoder.CacheSize,
		metrics,
	)
	weatherClient := weather.NewClient(cfg.Weather, metrics, log)
	imageHost := imghost.NewClient(cfg.ImageHost, cfg.Server.AppName, metrics, log)

	// Job scheduler handle for background work
	jobs := scheduler.New(cfg.Redis, log)
	if err := jobs.Ping(ctx); err != nil {
		log.Warn("Job queue backend unreachable; background jobs disabled", map[string]interface{}{
			"host":  cfg.Redis.Host,
			"port":  cfg.Redis.Port,
			"error": err.Error(),
		})
	} else {
		// Workers retry geocoding for reports that never got coordinates.
		if err := jobs.Every("@hourly", scheduler.Job{Name: "geocode_retry"}); err != nil {
			log.Warn("Failed to schedule periodic job", map[string]interface{}{
				"job":   "geocode_retry",
				"error": err.Error(),
			})
		}
		jobs.Start()
		defer jobs.Stop()
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Health and metrics routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Repository and service layers
	reportRepo := repository.NewReportRepository(db)
	agencyRepo := repository.NewAgencyRepository(db)
	userRepo := repository.NewUserRepository(db)

	reportService := services.NewReportService(reportRepo, agencyRepo, geocoder, metrics, log)
	weatherService := services.NewWeatherService(reportService, weatherClient, log)

	reportHandler := handlers.NewReportHandler(reportService, weatherService)
	agencyHandler := handlers.NewAgencyHandler(agencyRepo)
	imageHandler := handlers.NewImageHandler(imageHost)

	// Register API v1 routes; everything below requires a resolved identity
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Identity(userRepo))
	{
		reports := v1.Group("/reports")
		{
			reports.GET("", reportHandler.List)
			reports.POST("", reportHandler.Create)
			reports.GET("/:id", reportHandler.Get)
			reports.PUT("/:id", reportHandler.Update)
			reports.GET("/:id/weather", reportHandler.Weather)
		}

		v1.GET("/agencies", agencyHandler.List)

		images := v1.Group("/images")
		{
			images.POST("", imageHandler.Upload)
			images.DELETE("/:deletehash", imageHandler.Delete)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
