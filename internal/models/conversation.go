package models

import (
	"time"

	"github.com/google/uuid"
)

// The valid conversation outcome labels, mirroring the
// conversation_outcome check constraint on the message store.
const (
	OutcomeAppointmentCreated        = "appointment_created"
	OutcomeAppointmentConfirmed      = "appointment_confirmed"
	OutcomeAppointmentCancelled      = "appointment_cancelled"
	OutcomeAppointmentRescheduled    = "appointment_rescheduled"
	OutcomeAppointmentInquiry        = "appointment_inquiry"
	OutcomeAppointmentNoShowFollowup = "appointment_noshow_followup"
	OutcomeInfoRequestFulfilled      = "info_request_fulfilled"
	OutcomePriceInquiry              = "price_inquiry"
	OutcomeBusinessHoursInquiry      = "business_hours_inquiry"
	OutcomeLocationInquiry           = "location_inquiry"
	OutcomeBookingAbandoned          = "booking_abandoned"
	OutcomeTimeoutAbandoned          = "timeout_abandoned"
	OutcomeSpamDetected              = "spam_detected"
	OutcomeWrongNumber               = "wrong_number"
)

// SuccessfulOutcomes are the outcomes counted toward the conversion rate.
var SuccessfulOutcomes = map[string]bool{
	OutcomeAppointmentCreated:     true,
	OutcomeAppointmentConfirmed:   true,
	OutcomeAppointmentRescheduled: true,
	OutcomeInfoRequestFulfilled:   true,
}

// ConversationMessage is a raw WhatsApp conversation record. SessionID is
// nullable: messages without a session-linking identifier are counted as
// unlinked, never dropped. Outcome is persisted only on the final message
// of a session by the upstream analyzer.
type ConversationMessage struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	SessionID       *uuid.UUID `json:"session_id" db:"session_id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	IsFromUser      bool       `json:"is_from_user" db:"is_from_user"`
	Intent          *string    `json:"intent" db:"intent"`
	Outcome         *string    `json:"conversation_outcome" db:"conversation_outcome"`
	ConfidenceScore *float64   `json:"confidence_score" db:"confidence_score"`
	Billable        bool       `json:"billable" db:"billable"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}
