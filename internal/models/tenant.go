package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

type Tenant struct {
	ID               uuid.UUID `json:"id" db:"id"`
	BusinessName     string    `json:"business_name" db:"business_name"`
	Domain           string    `json:"domain" db:"domain"`
	Status           string    `json:"status" db:"status"`
	SubscriptionPlan string    `json:"subscription_plan" db:"subscription_plan"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
