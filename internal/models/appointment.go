package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AppointmentStatusPending     = "pending"
	AppointmentStatusConfirmed   = "confirmed"
	AppointmentStatusCompleted   = "completed"
	AppointmentStatusCancelled   = "cancelled"
	AppointmentStatusNoShow      = "no_show"
	AppointmentStatusRescheduled = "rescheduled"
)

// Appointment is a raw booking record read from the transactional store.
// QuotedPrice and FinalPrice are both nullable; readers must go through
// ResolvePrice instead of picking a field ad hoc.
type Appointment struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	TenantID    uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	ServiceID   uuid.UUID        `json:"service_id" db:"service_id"`
	Status      string           `json:"status" db:"status"`
	QuotedPrice *decimal.Decimal `json:"quoted_price" db:"quoted_price"`
	FinalPrice  *decimal.Decimal `json:"final_price" db:"final_price"`
	StartTime   time.Time        `json:"start_time" db:"start_time"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// ResolvePrice applies the single documented price fallback policy:
// quoted_price first, then final_price, else zero. Every reader of
// appointment prices must use this method.
func (a *Appointment) ResolvePrice() decimal.Decimal {
	if a.QuotedPrice != nil {
		return *a.QuotedPrice
	}
	if a.FinalPrice != nil {
		return *a.FinalPrice
	}
	return decimal.Zero
}

// Service is an offering a tenant exposes for booking.
type Service struct {
	ID       uuid.UUID `json:"id" db:"id"`
	TenantID uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Name     string    `json:"name" db:"name"`
	Active   bool      `json:"active" db:"active"`
}

// CustomerActivity records the first dated activity of a customer with a
// tenant, used to split new vs. returning customers per window.
type CustomerActivity struct {
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	FirstActivityAt time.Time `json:"first_activity_at" db:"first_activity_at"`
}
