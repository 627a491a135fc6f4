package background

import (
	"context"
	"fmt"
	"time"

	"zapbook/internal/batch"
	"zapbook/internal/config"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// JobScheduler owns the recurring batch run. Singleton mode guarantees two
// daily runs never overlap even when one overruns its slot.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	orchestrator *batch.Orchestrator
	cfg          *config.EngineConfig
	logger       *zap.Logger
}

func NewJobScheduler(orchestrator *batch.Orchestrator, cfg *config.EngineConfig, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		orchestrator: orchestrator,
		cfg:          cfg,
		logger:       logger,
	}
	if err := js.registerJobs(); err != nil {
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler",
		zap.String("daily_run_at", js.cfg.Batch.DailyRunAt))
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() error {
	runAt, err := time.Parse("15:04", js.cfg.Batch.DailyRunAt)
	if err != nil {
		return fmt.Errorf("parse daily_run_at %q: %w", js.cfg.Batch.DailyRunAt, err)
	}

	_, err = js.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(runAt.Hour()), uint(runAt.Minute()), 0),
		)),
		gocron.NewTask(js.runDailyBatch),
		gocron.WithName("daily-metrics-batch"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register daily batch job: %w", err)
	}
	return nil
}

func (js *JobScheduler) runDailyBatch() {
	ctx := context.Background()
	report, err := js.orchestrator.RunBatch(ctx, time.Now().UTC())
	if err != nil {
		js.logger.Error("scheduled batch run failed to start", zap.Error(err))
		return
	}
	_, _, failed, notAttempted := report.Totals()
	if failed > 0 || notAttempted > 0 {
		js.logger.Warn("scheduled batch run completed with failures",
			zap.Int("failed", failed),
			zap.Int("not_attempted", notAttempted))
	}
}
