package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"zapbook/internal/models"
)

// PlatformSnapshotRepository stores aggregation output keyed by
// (period, metric_kind, calculation_date). History is retained; rerunning a
// batch for the same calculation date fully replaces that date's row, and
// GetLatest resolves "latest wins" by calculation date.
type PlatformSnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error
	Get(ctx context.Context, period models.Period, kind models.MetricKind, calculationDate time.Time) (*models.PlatformMetricSnapshot, error)
	GetLatest(ctx context.Context, period models.Period, kind models.MetricKind) (*models.PlatformMetricSnapshot, error)
}

type platformSnapshotRepo struct {
	db DB
}

func NewPlatformSnapshotRepo(db DB) PlatformSnapshotRepository {
	return &platformSnapshotRepo{db: db}
}

func (r *platformSnapshotRepo) Upsert(ctx context.Context, snapshot *models.PlatformMetricSnapshot) error {
	comprehensive, err := json.Marshal(snapshot.Comprehensive)
	if err != nil {
		return fmt.Errorf("marshal comprehensive metrics: %w", err)
	}
	participation, err := json.Marshal(snapshot.Participation)
	if err != nil {
		return fmt.Errorf("marshal participation metrics: %w", err)
	}
	ranking, err := json.Marshal(snapshot.Ranking)
	if err != nil {
		return fmt.Errorf("marshal ranking metrics: %w", err)
	}

	query := `
		INSERT INTO platform_metric_snapshots
			(id, period, metric_kind, calculation_date, comprehensive, participation, ranking, included_tenant_count, excluded_tenant_count, calculation_method, data_quality_score, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (period, metric_kind, calculation_date) DO UPDATE SET
			comprehensive = EXCLUDED.comprehensive,
			participation = EXCLUDED.participation,
			ranking = EXCLUDED.ranking,
			included_tenant_count = EXCLUDED.included_tenant_count,
			excluded_tenant_count = EXCLUDED.excluded_tenant_count,
			calculation_method = EXCLUDED.calculation_method,
			data_quality_score = EXCLUDED.data_quality_score,
			calculated_at = NOW()
	`
	tag, err := r.db.Exec(ctx, query,
		snapshot.ID, string(snapshot.Period), string(snapshot.MetricKind), snapshot.CalculationDate,
		comprehensive, participation, ranking,
		snapshot.IncludedTenantCount, snapshot.ExcludedTenantCount,
		snapshot.CalculationMethod, snapshot.DataQualityScore)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("platform snapshot upsert for period %s affected %d rows", snapshot.Period, tag.RowsAffected())
	}
	return nil
}

func (r *platformSnapshotRepo) Get(ctx context.Context, period models.Period, kind models.MetricKind, calculationDate time.Time) (*models.PlatformMetricSnapshot, error) {
	query := `
		SELECT id, period, metric_kind, calculation_date, comprehensive, participation, ranking, included_tenant_count, excluded_tenant_count, calculation_method, data_quality_score, calculated_at
		FROM platform_metric_snapshots
		WHERE period = $1 AND metric_kind = $2 AND calculation_date = $3
	`
	return scanPlatformSnapshot(r.db.QueryRow(ctx, query, string(period), string(kind), calculationDate))
}

func (r *platformSnapshotRepo) GetLatest(ctx context.Context, period models.Period, kind models.MetricKind) (*models.PlatformMetricSnapshot, error) {
	query := `
		SELECT id, period, metric_kind, calculation_date, comprehensive, participation, ranking, included_tenant_count, excluded_tenant_count, calculation_method, data_quality_score, calculated_at
		FROM platform_metric_snapshots
		WHERE period = $1 AND metric_kind = $2
		ORDER BY calculation_date DESC
		LIMIT 1
	`
	return scanPlatformSnapshot(r.db.QueryRow(ctx, query, string(period), string(kind)))
}

func scanPlatformSnapshot(row rowScanner) (*models.PlatformMetricSnapshot, error) {
	s := &models.PlatformMetricSnapshot{}
	var periodCol, kindCol string
	var comprehensive, participation, ranking []byte
	err := row.Scan(
		&s.ID, &periodCol, &kindCol, &s.CalculationDate,
		&comprehensive, &participation, &ranking,
		&s.IncludedTenantCount, &s.ExcludedTenantCount,
		&s.CalculationMethod, &s.DataQualityScore, &s.CalculatedAt)
	if err != nil {
		return nil, err
	}
	s.Period = models.Period(periodCol)
	s.MetricKind = models.MetricKind(kindCol)
	if err := json.Unmarshal(comprehensive, &s.Comprehensive); err != nil {
		return nil, fmt.Errorf("unmarshal comprehensive metrics: %w", err)
	}
	if err := json.Unmarshal(participation, &s.Participation); err != nil {
		return nil, fmt.Errorf("unmarshal participation metrics: %w", err)
	}
	if err := json.Unmarshal(ranking, &s.Ranking); err != nil {
		return nil, fmt.Errorf("unmarshal ranking metrics: %w", err)
	}
	return s, nil
}
