package repositories

import (
	"context"

	"zapbook/internal/models"

	"github.com/google/uuid"
)

type ServiceRepository interface {
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*models.Service, error)
}

type serviceRepo struct {
	db DB
}

func NewServiceRepo(db DB) ServiceRepository {
	return &serviceRepo{db: db}
}

func (r *serviceRepo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*models.Service, error) {
	query := `
		SELECT id, tenant_id, name, active
		FROM services
		WHERE tenant_id = $1 AND active
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s := &models.Service{}
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.Active); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
