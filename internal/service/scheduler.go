package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TrainingScheduler reentrena según una expresión cron estándar.
// Una corrida que todavía no terminó hace que la siguiente se salte.
type TrainingScheduler struct {
	logger   *zap.Logger
	schedule cron.Schedule
	spec     string
	run      func(ctx context.Context) error
}

func NewTrainingScheduler(logger *zap.Logger, spec string, run func(ctx context.Context) error) (*TrainingScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if run == nil {
		return nil, fmt.Errorf("scheduler: run func is required")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", spec, err)
	}
	return &TrainingScheduler{logger: logger, schedule: schedule, spec: spec, run: run}, nil
}

// Next devuelve el próximo disparo posterior a from.
func (s *TrainingScheduler) Next(from time.Time) time.Time {
	return s.schedule.Next(from)
}

// Run bloquea hasta que ctx termina; espera a que la corrida en curso finalice.
func (s *TrainingScheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger.Sugar()}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		start := time.Now()
		if err := s.run(ctx); err != nil {
			s.logger.Error("scheduled training failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		s.logger.Info("scheduled training done", zap.Duration("elapsed", time.Since(start)))
	}))

	s.logger.Info("training scheduler started", zap.String("schedule", s.spec), zap.Time("next", s.Next(time.Now())))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("training scheduler stopped")
	return nil
}

// cronLogger adapta zap a la interfaz cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
