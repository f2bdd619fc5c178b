package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/bytecroft/crewmeter/internal/configstore"
	"github.com/bytecroft/crewmeter/internal/database"
	"github.com/bytecroft/crewmeter/internal/errors"
	"github.com/bytecroft/crewmeter/internal/evaluation"
	"github.com/bytecroft/crewmeter/internal/middleware"
	"github.com/bytecroft/crewmeter/internal/monitoring"
	"github.com/bytecroft/crewmeter/internal/ratelimit"
	"github.com/bytecroft/crewmeter/internal/security"
	"github.com/bytecroft/crewmeter/internal/server"
)

func loadSettings() *viper.Viper {
	v := viper.New()

	v.SetDefault("data_dir", "./data")
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", gin.ReleaseMode)
	v.SetDefault("config_cache_ttl", "5m")
	v.SetDefault("evaluation_workers", 8)
	v.SetDefault("ip_rate_limit_per_min", 60)
	v.SetDefault("enable_hsts", false)
	v.SetDefault("allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetEnvPrefix("CREWMETER")
	v.AutomaticEnv()

	v.SetConfigName("crewmeter")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/crewmeter")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("Failed to read config file", "error", err)
		}
	}

	return v
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	settings := loadSettings()

	gin.SetMode(settings.GetString("gin_mode"))

	db, err := database.NewDB(settings.GetString("data_dir"))
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	store := configstore.NewStore(db,
		configstore.WithTTL(settings.GetDuration("config_cache_ttl")),
		configstore.WithMetrics(appMetrics))
	if err := store.SeedPresets(); err != nil {
		slog.Error("Failed to seed presets", "error", err)
		os.Exit(1)
	}

	evalService := evaluation.NewService(repo, store,
		evaluation.WithWorkers(settings.GetInt("evaluation_workers")),
		evaluation.WithMetrics(appMetrics),
		evaluation.WithLogger(appLogger))

	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.IPLimitPerMin = settings.GetInt("ip_rate_limit_per_min")
	limiter := ratelimit.NewRateLimiter(limiterConfig, appMetrics)

	compression := middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())

	r := gin.New()

	r.Use(compression.Handler())
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(monitoring.SecurityMonitoringMiddleware(appLogger))
	r.Use(monitoring.HealthMonitoringMiddleware(appMetrics))

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(security.SecurityHeadersMiddleware(settings.GetBool("enable_hsts")))
	r.Use(server.RequestIDMiddleware())
	r.Use(limiter.IPRateLimitMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = settings.GetStringSlice("allowed_origins")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	apiServer := server.NewServer(store, evalService, appMetrics, appLogger)
	apiServer.RegisterRoutes(r)

	port := settings.GetString("port")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
