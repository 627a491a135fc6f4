package repositories

import (
	"context"

	"zapbook/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	ListActive(ctx context.Context) ([]*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

type tenantRepo struct {
	db DB
}

func NewTenantRepo(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	query := `
		SELECT id, business_name, domain, status, subscription_plan, created_at
		FROM tenants
		WHERE status = 'active'
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.BusinessName, &tenant.Domain, &tenant.Status, &tenant.SubscriptionPlan, &tenant.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	query := `
		SELECT id, business_name, domain, status, subscription_plan, created_at
		FROM tenants
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&tenant.ID, &tenant.BusinessName, &tenant.Domain, &tenant.Status, &tenant.SubscriptionPlan, &tenant.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}
