package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"zapbook/internal/config"
	"zapbook/internal/metrics"
	"zapbook/internal/models"
	"zapbook/internal/platform"
	"zapbook/internal/repositories"

	"go.uber.org/zap"
)

// Sink receives finished run artifacts. The cache and the archive both
// implement it; a sink failure never fails the run.
type Sink interface {
	StoreBatchReport(ctx context.Context, report *models.BatchReport) error
	StorePlatformSnapshot(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error
}

// Orchestrator drives one batch run: every (active tenant, period) cell is
// computed and persisted in isolation, then each period is aggregated and
// validated once all of its cells are terminal.
type Orchestrator struct {
	tenantRepo      repositories.TenantRepository
	appointmentRepo repositories.AppointmentRepository
	snapshotRepo    repositories.TenantSnapshotRepository
	calculator      *metrics.Calculator
	aggregator      *platform.Aggregator
	validator       *platform.Validator
	cfg             *config.EngineConfig
	logger          *zap.Logger
	sinks           []Sink
}

func NewOrchestrator(
	tenantRepo repositories.TenantRepository,
	appointmentRepo repositories.AppointmentRepository,
	snapshotRepo repositories.TenantSnapshotRepository,
	calculator *metrics.Calculator,
	aggregator *platform.Aggregator,
	validator *platform.Validator,
	cfg *config.EngineConfig,
	logger *zap.Logger,
	sinks ...Sink,
) *Orchestrator {
	return &Orchestrator{
		tenantRepo:      tenantRepo,
		appointmentRepo: appointmentRepo,
		snapshotRepo:    snapshotRepo,
		calculator:      calculator,
		aggregator:      aggregator,
		validator:       validator,
		cfg:             cfg,
		logger:          logger,
		sinks:           sinks,
	}
}

// RunBatch executes a full run for the calculation date. The returned
// report always accounts for every cell: attempted cells are succeeded or
// failed, and cells cut off by the batch deadline are not_attempted. A cell
// failure never stops the run; the error return covers only setup failures
// that prevent the run from starting at all.
func (o *Orchestrator) RunBatch(ctx context.Context, calculationDate time.Time) (*models.BatchReport, error) {
	calculationDate = metrics.NormalizeCalculationDate(calculationDate)

	tenants, err := o.tenantRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	report := &models.BatchReport{
		CalculationDate: calculationDate,
		StartedAt:       time.Now().UTC(),
		TenantCount:     len(tenants),
		Periods:         models.SupportedPeriods,
	}

	batchCtx, cancel := context.WithDeadline(ctx, report.StartedAt.Add(o.cfg.Batch.Deadline()))
	defer cancel()

	o.logger.Info("batch run started",
		zap.Time("calculation_date", calculationDate),
		zap.Int("tenants", len(tenants)),
		zap.Int("concurrency", o.cfg.Batch.Concurrency))

	aggregated := make(map[models.Period]bool, len(report.Periods))
	for _, period := range report.Periods {
		cells := o.runPeriod(batchCtx, tenants, period, calculationDate)
		report.Cells = append(report.Cells, cells...)

		succeeded, failed := 0, 0
		for _, c := range cells {
			switch c.Status {
			case models.CellSucceeded:
				succeeded++
			case models.CellFailed, models.CellNotAttempted:
				failed++
			}
		}

		// Aggregation barrier: every cell of the period is terminal here.
		platformSnapshot, err := o.aggregator.Aggregate(batchCtx, period, calculationDate, failed)
		if err != nil {
			if errors.Is(err, metrics.ErrNoSnapshots) {
				o.logger.Error("period produced no snapshots, skipping aggregation",
					zap.String("period", string(period)))
			} else {
				o.logger.Error("platform aggregation failed",
					zap.String("period", string(period)), zap.Error(err))
			}
			continue
		}
		aggregated[period] = true
		for _, sink := range o.sinks {
			if err := sink.StorePlatformSnapshot(batchCtx, platformSnapshot); err != nil {
				o.logger.Warn("platform snapshot sink failed",
					zap.String("period", string(period)), zap.Error(err))
			}
		}

		validation, err := o.validator.ValidatePeriod(batchCtx, period, calculationDate, succeeded)
		if err != nil {
			o.logger.Error("consistency validation errored",
				zap.String("period", string(period)), zap.Error(err))
			continue
		}
		report.Validations = append(report.Validations, validation)
	}

	report.FinishedAt = time.Now().UTC()
	report.Summarize()
	for i := range report.Summaries {
		report.Summaries[i].Aggregated = aggregated[report.Summaries[i].Period]
	}

	o.publish(ctx, report)

	attempted, succeeded, failed, notAttempted := report.Totals()
	o.logger.Info("batch run finished",
		zap.Int("attempted", attempted),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("not_attempted", notAttempted),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

// runPeriod fans the period's tenant cells out over a bounded worker pool
// and blocks until all of them are terminal.
func (o *Orchestrator) runPeriod(ctx context.Context, tenants []*models.Tenant, period models.Period, calculationDate time.Time) []models.CellResult {
	// Platform denominators are computed once per period so every cell
	// shares the same participation baseline. Totals are an enrichment:
	// if they cannot be fetched the cells still run, with a lower data
	// quality score.
	window := metrics.ResolveWindow(period, calculationDate)
	totals, err := o.appointmentRepo.PlatformTotals(ctx, window.Start, window.End)
	if err != nil {
		o.logger.Warn("platform totals unavailable, cells proceed without participation baseline",
			zap.String("period", string(period)), zap.Error(err))
		totals = nil
	}

	results := make([]models.CellResult, len(tenants))
	sem := make(chan struct{}, o.cfg.Batch.Concurrency)
	var wg sync.WaitGroup
	for i, tenant := range tenants {
		wg.Add(1)
		go func(i int, tenant *models.Tenant) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = models.CellResult{
					TenantID: tenant.ID,
					Period:   period,
					Status:   models.CellNotAttempted,
				}
				return
			}
			results[i] = o.runCell(ctx, tenant, period, calculationDate, totals)
		}(i, tenant)
	}
	wg.Wait()
	return results
}

func (o *Orchestrator) runCell(ctx context.Context, tenant *models.Tenant, period models.Period, calculationDate time.Time, totals *models.PlatformTotals) models.CellResult {
	started := time.Now()
	result := models.CellResult{TenantID: tenant.ID, Period: period}

	if ctx.Err() != nil {
		result.Status = models.CellNotAttempted
		return result
	}

	cellCtx, cancel := context.WithTimeout(ctx, o.cfg.Batch.CellTimeout())
	defer cancel()

	snapshot, err := o.calculator.ComputeSnapshot(cellCtx, tenant, period, calculationDate, totals)
	if err == nil {
		err = o.persistWithRetry(cellCtx, snapshot)
	}
	result.Duration = time.Since(started)

	if err != nil {
		result.Status = models.CellFailed
		result.ErrorKind = metrics.ClassifyError(err)
		result.Error = err.Error()
		o.logger.Warn("cell failed",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("period", string(period)),
			zap.String("error_kind", string(result.ErrorKind)),
			zap.Error(err))
		return result
	}

	result.Status = models.CellSucceeded
	o.logger.Debug("cell succeeded",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("period", string(period)),
		zap.Duration("elapsed", result.Duration))
	return result
}

// persistWithRetry retries the snapshot write with linear backoff. The
// upsert is atomic, so a retry after an ambiguous failure can only replace
// the row with identical content.
func (o *Orchestrator) persistWithRetry(ctx context.Context, snapshot *models.TenantMetricSnapshot) error {
	var err error
	for attempt := 1; attempt <= o.cfg.Batch.MaxRetryAttempts; attempt++ {
		if err = o.snapshotRepo.Upsert(ctx, snapshot); err == nil {
			return nil
		}
		if attempt == o.cfg.Batch.MaxRetryAttempts {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * o.cfg.Batch.RetryDelay()):
		case <-ctx.Done():
			return fmt.Errorf("%w: persist snapshot: %v", metrics.ErrPersistenceConflict, ctx.Err())
		}
	}
	return fmt.Errorf("%w: persist snapshot after %d attempts: %v",
		metrics.ErrPersistenceConflict, o.cfg.Batch.MaxRetryAttempts, err)
}

func (o *Orchestrator) publish(ctx context.Context, report *models.BatchReport) {
	for _, sink := range o.sinks {
		if err := sink.StoreBatchReport(ctx, report); err != nil {
			o.logger.Warn("report sink failed", zap.Error(err))
		}
	}
}
