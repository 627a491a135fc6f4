package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zapbook/internal/caching"
	"zapbook/internal/metrics"
	"zapbook/internal/models"
	"zapbook/internal/repositories"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task type definitions
const (
	TypeRecomputeTenant = "metrics:recompute_tenant"
)

// RecomputeTenantPayload defines the payload for single-cell recompute
// tasks, queued by operators after a cell failure.
type RecomputeTenantPayload struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	Period          string    `json:"period"`
	CalculationDate string    `json:"calculation_date"`
}

// NewRecomputeTenantTask creates a recompute task for one (tenant, period)
// cell. An empty calculationDate means "today".
func NewRecomputeTenantTask(tenantID uuid.UUID, period models.Period, calculationDate string) (*asynq.Task, error) {
	payload := RecomputeTenantPayload{
		TenantID:        tenantID,
		Period:          string(period),
		CalculationDate: calculationDate,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRecomputeTenant, data, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// Recomputer executes recompute tasks. It reuses the batch calculator and
// the idempotent store, so a recompute of an already-stored cell simply
// replaces the row with fresh numbers.
type Recomputer struct {
	tenantRepo      repositories.TenantRepository
	appointmentRepo repositories.AppointmentRepository
	snapshotRepo    repositories.TenantSnapshotRepository
	calculator      *metrics.Calculator
	cache           caching.CacheService
	logger          *zap.Logger
}

func NewRecomputer(
	tenantRepo repositories.TenantRepository,
	appointmentRepo repositories.AppointmentRepository,
	snapshotRepo repositories.TenantSnapshotRepository,
	calculator *metrics.Calculator,
	cache caching.CacheService,
	logger *zap.Logger,
) *Recomputer {
	return &Recomputer{
		tenantRepo:      tenantRepo,
		appointmentRepo: appointmentRepo,
		snapshotRepo:    snapshotRepo,
		calculator:      calculator,
		cache:           cache,
		logger:          logger,
	}
}

// HandleRecomputeTenant is the asynq handler for TypeRecomputeTenant.
func (r *Recomputer) HandleRecomputeTenant(ctx context.Context, t *asynq.Task) error {
	var payload RecomputeTenantPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal recompute payload: %v: %w", err, asynq.SkipRetry)
	}

	period, err := models.ParsePeriod(payload.Period)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	calculationDate := time.Now().UTC()
	if payload.CalculationDate != "" {
		calculationDate, err = time.Parse("2006-01-02", payload.CalculationDate)
		if err != nil {
			return fmt.Errorf("parse calculation date %q: %v: %w", payload.CalculationDate, err, asynq.SkipRetry)
		}
	}
	calculationDate = metrics.NormalizeCalculationDate(calculationDate)

	tenant, err := r.tenantRepo.GetByID(ctx, payload.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant %s: %w", payload.TenantID, err)
	}

	window := metrics.ResolveWindow(period, calculationDate)
	totals, err := r.appointmentRepo.PlatformTotals(ctx, window.Start, window.End)
	if err != nil {
		r.logger.Warn("platform totals unavailable for recompute",
			zap.String("period", string(period)), zap.Error(err))
		totals = nil
	}

	snapshot, err := r.calculator.ComputeSnapshot(ctx, tenant, period, calculationDate, totals)
	if err != nil {
		return fmt.Errorf("recompute tenant %s period %s: %w", tenant.ID, period, err)
	}
	if err := r.snapshotRepo.Upsert(ctx, snapshot); err != nil {
		return fmt.Errorf("persist recomputed snapshot: %w", err)
	}
	if err := r.cache.InvalidateTenant(ctx, tenant.ID); err != nil {
		r.logger.Warn("cache invalidation failed after recompute",
			zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
	}

	r.logger.Info("tenant cell recomputed",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("period", string(period)),
		zap.Time("calculation_date", calculationDate))
	return nil
}
