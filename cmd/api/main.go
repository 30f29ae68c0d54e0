package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"marketplace-backend/internal/common/config"
	"marketplace-backend/internal/common/logger"
	"marketplace-backend/internal/common/middleware"
	giveawayhttp "marketplace-backend/internal/features/giveaway/delivery/http"
	giveawaypg "marketplace-backend/internal/features/giveaway/repository/postgres"
	"marketplace-backend/internal/features/giveaway/selection"
	"marketplace-backend/internal/features/giveaway/service"
	"marketplace-backend/internal/features/notifications"
	"marketplace-backend/internal/platform/db"
	redisplatform "marketplace-backend/internal/platform/redis"
)

func main() {
	cfg := config.Load()
	logger.Init("marketplace-backend", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()
	logger.Info().Msg("Database connection established")

	store := giveawaypg.New(pg)
	if cfg.Postgres.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		logger.Info().Msg("Migrations applied")
	}

	redisClient, err := redisplatform.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("Redis connection established")

	notifier := notifications.NewWebhookNotifier(
		cfg.Webhook.URL,
		time.Duration(cfg.Webhook.TimeoutSec)*time.Second,
	)
	selector := selection.NewSelector(store, notifier)

	sweeper := service.NewSweeper(
		store,
		selector,
		redisClient,
		time.Duration(cfg.Sweep.IntervalSec)*time.Second,
		time.Duration(cfg.Sweep.LockTTLSec)*time.Second,
	)
	sweeper.Start()
	defer sweeper.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	handler := giveawayhttp.NewGiveawayHandler(store, selector, redisClient)
	handler.RegisterRoutes(v1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "marketplace-backend",
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Msg("Server exited")
}
