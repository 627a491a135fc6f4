package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"zapbook/internal/models"

	"github.com/google/uuid"
)

// TenantSnapshotRepository is the idempotent snapshot store. Upsert enforces
// at-most-one row per (tenant_id, period, metric_kind) with full replacement
// semantics: the payload is swapped wholesale in one statement, never merged
// field by field.
type TenantSnapshotRepository interface {
	Upsert(ctx context.Context, snapshot *models.TenantMetricSnapshot) error
	Get(ctx context.Context, tenantID uuid.UUID, period models.Period, kind models.MetricKind) (*models.TenantMetricSnapshot, error)
	ListForPeriod(ctx context.Context, period models.Period, kind models.MetricKind, calculationDate time.Time) ([]*models.TenantMetricSnapshot, error)
	CountForPeriod(ctx context.Context, period models.Period, kind models.MetricKind, calculationDate time.Time) (int, error)
}

const snapshotLockStripes = 64

type tenantSnapshotRepo struct {
	db    DB
	locks [snapshotLockStripes]sync.Mutex
}

func NewTenantSnapshotRepo(db DB) TenantSnapshotRepository {
	return &tenantSnapshotRepo{db: db}
}

// keyLock serializes writes to the same (tenant, period, kind) key.
// Different keys map to different stripes and proceed in parallel.
func (r *tenantSnapshotRepo) keyLock(tenantID uuid.UUID, period models.Period, kind models.MetricKind) *sync.Mutex {
	h := uint32(17)
	for _, b := range tenantID {
		h = h*31 + uint32(b)
	}
	for _, b := range []byte(period) {
		h = h*31 + uint32(b)
	}
	for _, b := range []byte(kind) {
		h = h*31 + uint32(b)
	}
	return &r.locks[h%snapshotLockStripes]
}

func (r *tenantSnapshotRepo) Upsert(ctx context.Context, snapshot *models.TenantMetricSnapshot) error {
	payload, err := json.Marshal(snapshot.Payload)
	if err != nil {
		return fmt.Errorf("marshal snapshot payload: %w", err)
	}

	mu := r.keyLock(snapshot.TenantID, snapshot.Period, snapshot.MetricKind)
	mu.Lock()
	defer mu.Unlock()

	query := `
		INSERT INTO tenant_metric_snapshots
			(id, tenant_id, period, metric_kind, payload, calculation_date, period_start, period_end, calculation_method, data_quality_score, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (tenant_id, period, metric_kind) DO UPDATE SET
			payload = EXCLUDED.payload,
			calculation_date = EXCLUDED.calculation_date,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			calculation_method = EXCLUDED.calculation_method,
			data_quality_score = EXCLUDED.data_quality_score,
			calculated_at = NOW()
	`
	tag, err := r.db.Exec(ctx, query,
		snapshot.ID, snapshot.TenantID, string(snapshot.Period), string(snapshot.MetricKind),
		payload, snapshot.CalculationDate, snapshot.PeriodStart, snapshot.PeriodEnd,
		snapshot.CalculationMethod, snapshot.DataQualityScore)
	if err != nil {
		return err
	}
	// A reported write that stored nothing is exactly the silent-loss
	// pathology this store exists to prevent.
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("snapshot upsert for tenant %s period %s affected %d rows", snapshot.TenantID, snapshot.Period, tag.RowsAffected())
	}
	return nil
}

const snapshotColumns = `id, tenant_id, period, metric_kind, payload, calculation_date, period_start, period_end, calculation_method, data_quality_score, calculated_at`

func (r *tenantSnapshotRepo) Get(ctx context.Context, tenantID uuid.UUID, period models.Period, kind models.MetricKind) (*models.TenantMetricSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM tenant_metric_snapshots
		WHERE tenant_id = $1 AND period = $2 AND metric_kind = $3
	`
	row := r.db.QueryRow(ctx, query, tenantID, string(period), string(kind))
	return scanSnapshot(row)
}

func (r *tenantSnapshotRepo) ListForPeriod(ctx context.Context, period models.Period, kind models.MetricKind, calculationDate time.Time) ([]*models.TenantMetricSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM tenant_metric_snapshots
		WHERE period = $1 AND metric_kind = $2 AND calculation_date = $3
		ORDER BY tenant_id
	`
	rows, err := r.db.Query(ctx, query, string(period), string(kind), calculationDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.TenantMetricSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (r *tenantSnapshotRepo) CountForPeriod(ctx context.Context, period models.Period, kind models.MetricKind, calculationDate time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM tenant_metric_snapshots
		WHERE period = $1 AND metric_kind = $2 AND calculation_date = $3
	`
	err := r.db.QueryRow(ctx, query, string(period), string(kind), calculationDate).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*models.TenantMetricSnapshot, error) {
	s := &models.TenantMetricSnapshot{}
	var payload []byte
	var period, kind string
	err := row.Scan(&s.ID, &s.TenantID, &period, &kind, &payload, &s.CalculationDate,
		&s.PeriodStart, &s.PeriodEnd, &s.CalculationMethod, &s.DataQualityScore, &s.CalculatedAt)
	if err != nil {
		return nil, err
	}
	s.Period = models.Period(period)
	s.MetricKind = models.MetricKind(kind)
	if err := json.Unmarshal(payload, &s.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot payload: %w", err)
	}
	return s, nil
}
