package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"decision-ai/internal/artifact"
	"decision-ai/internal/config"
	"decision-ai/internal/dataset"
	"decision-ai/internal/domain"
	"decision-ai/internal/email"
	"decision-ai/internal/repository"
	"decision-ai/internal/service"
)

// resultsPublishTTL acota cuánto vive en Redis el resultado publicado; el dashboard igual valida contra disco.
const resultsPublishTTL = 24 * time.Hour

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

	var cache service.ResultsCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, results will not be published", zap.Error(err))
		} else {
			cache = service.NewRedisResultsCache(redisClient, resultsPublishTTL)
		}
		cancel()
	}

	svc := service.NewTrainingService(logger, service.TrainingOptions{
		DataDir:   cfg.DataDir,
		Params:    cfg.Train,
		Skills:    cfg.Skills,
		Threshold: cfg.DecisionThreshold,
	}, artifact.NewStore(cfg.ModelDir), runs, cache)
	if len(cfg.ReportRecipients) > 0 {
		var sender email.Sender = email.NewDisabledSender("SMTP_HOST not configured")
		if cfg.SMTPHost != "" {
			smtpSender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
			if err != nil {
				logger.Warn("smtp sender init failed", zap.Error(err))
			} else {
				sender = smtpSender
			}
		}
		svc.WithReportEmail(sender, cfg.ReportRecipients)
	}

	if cfg.TrainSchedule != "" {
		sched, err := service.NewTrainingScheduler(logger, cfg.TrainSchedule, func(ctx context.Context) error {
			results, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("model retrained", zap.String("run_id", results.RunID), zap.Float64("f1", results.Metrics.F1))
			return nil
		})
		if err != nil {
			logger.Fatal("invalid training schedule", zap.Error(err))
		}
		if err := sched.Run(ctx); err != nil {
			logger.Fatal("scheduler failed", zap.Error(err))
		}
		return
	}

	results, err := svc.Run(ctx)
	if err != nil {
		if errors.Is(err, dataset.ErrInsufficientData) {
			fmt.Fprintf(os.Stderr, "not enough data to train: %v\n", err)
			logger.Sync()
			os.Exit(1)
		}
		logger.Fatal("training failed", zap.Error(err))
	}

	printSummary(results, cfg.ModelDir)
}

func printSummary(r domain.Results, modelDir string) {
	m := r.Metrics
	cm := r.ConfusionMatrix
	fmt.Println()
	fmt.Printf("Run %s (threshold %.2f)\n", r.RunID, r.Threshold)
	fmt.Printf("  precision  %.4f\n", m.Precision)
	fmt.Printf("  recall     %.4f\n", m.Recall)
	fmt.Printf("  f1         %.4f\n", m.F1)
	fmt.Printf("  roc-auc    %.4f\n", m.AUC)
	fmt.Printf("  cv f1      %.4f (+/- %.4f)\n", r.CV.Mean, r.CV.Std)
	fmt.Println()
	fmt.Println("Confusion matrix (rows = actual, cols = predicted)")
	fmt.Printf("             %8s %8s\n", "no hire", "hire")
	fmt.Printf("  no hire    %8d %8d\n", cm.TN(), cm.FP())
	fmt.Printf("  hire       %8d %8d\n", cm.FN(), cm.TP())
	fmt.Println()
	fmt.Printf("Artifacts written to %s\n", modelDir)
}
