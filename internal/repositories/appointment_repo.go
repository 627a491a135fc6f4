package repositories

import (
	"context"
	"time"

	"zapbook/internal/models"

	"github.com/google/uuid"
)

// AppointmentRepository reads raw appointment records. All window filters
// use the uniform half-open predicate start_time >= $start AND < $end.
type AppointmentRepository interface {
	ListInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*models.Appointment, error)
	PlatformTotals(ctx context.Context, start, end time.Time) (*models.PlatformTotals, error)
}

type appointmentRepo struct {
	db DB
}

func NewAppointmentRepo(db DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) ListInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*models.Appointment, error) {
	query := `
		SELECT id, tenant_id, user_id, service_id, status, quoted_price, final_price, start_time, created_at
		FROM appointments
		WHERE tenant_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time
	`
	rows, err := r.db.Query(ctx, query, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		a := &models.Appointment{}
		if err := rows.Scan(&a.ID, &a.TenantID, &a.UserID, &a.ServiceID, &a.Status, &a.QuotedPrice, &a.FinalPrice, &a.StartTime, &a.CreatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// PlatformTotals sums revenue, appointments and distinct customers across
// all tenants for the window, feeding per-tenant participation shares. The
// price expression mirrors the ordered fallback policy in application code.
func (r *appointmentRepo) PlatformTotals(ctx context.Context, start, end time.Time) (*models.PlatformTotals, error) {
	totals := &models.PlatformTotals{}
	query := `
		SELECT
			COALESCE(SUM(COALESCE(quoted_price, final_price, 0)) FILTER (WHERE status IN ('confirmed', 'completed')), 0),
			COUNT(*),
			COUNT(DISTINCT user_id)
		FROM appointments
		WHERE start_time >= $1 AND start_time < $2
	`
	err := r.db.QueryRow(ctx, query, start, end).Scan(&totals.TotalRevenue, &totals.TotalAppointments, &totals.TotalCustomers)
	if err != nil {
		return nil, err
	}
	return totals, nil
}
