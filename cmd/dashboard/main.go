package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"decision-ai/internal/artifact"
	"decision-ai/internal/config"
	apihttp "decision-ai/internal/http"
	"decision-ai/internal/repository"
	"decision-ai/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	runs, closeHistory, err := repository.OpenHistory(ctx, cfg)
	if err != nil {
		logger.Warn("run history disabled", zap.Error(err))
	}
	defer closeHistory()

	cache := service.NewMemoryResultsCache(time.Minute)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory cache", zap.Error(err))
		} else {
			cache = service.NewRedisResultsCache(redisClient, 10*time.Minute)
		}
		cancel()
	}

	var tokens *service.ViewerTokenService
	if cfg.DashboardJWTSecret != "" {
		tokens = service.NewViewerTokenService(cfg.DashboardJWTSecret, time.Duration(cfg.DashboardTokenTTLDays)*24*time.Hour)
	} else {
		logger.Warn("dashboard jwt secret not configured, dashboard is public")
	}

	dashSvc := service.NewDashboardService(logger, artifact.NewStore(cfg.ModelDir), cache, runs, cfg.Impact, cfg.DecisionThreshold)
	if _, err := dashSvc.Results(ctx); err != nil {
		logger.Warn("model artifacts not loaded yet", zap.String("dir", cfg.ModelDir), zap.Error(err))
	}
	router := apihttp.NewRouter(logger, apihttp.NewDashboardHandler(logger, dashSvc), tokens,
		apihttp.WithAPIRateLimit(cfg.DashboardRateLimit, cfg.DashboardRateBurst))

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting dashboard", zap.String("port", cfg.HTTPPort), zap.String("model_dir", cfg.ModelDir))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
