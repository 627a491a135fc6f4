package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculationMethod tags every snapshot with the strategy/version that
// produced it.
const CalculationMethod = "comprehensive_v1"

// FinancialMetrics sums confirmed and completed appointment revenue using
// the ordered price fallback policy (Appointment.ResolvePrice).
type FinancialMetrics struct {
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	RevenueAppointments    int             `json:"revenue_appointments"`
	AvgAppointmentValue    decimal.Decimal `json:"avg_appointment_value"`
	RevenuePerCustomer     decimal.Decimal `json:"revenue_per_customer"`
	MissingPriceFallbacks  int             `json:"missing_price_fallbacks"`
	UnpricedAppointments   int             `json:"unpriced_appointments"`
}

type AppointmentMetrics struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Confirmed   int `json:"confirmed"`
	Completed   int `json:"completed"`
	Cancelled   int `json:"cancelled"`
	NoShow      int `json:"no_show"`
	Rescheduled int `json:"rescheduled"`
	// CancelledOrNoShow is derived from the status counts above, never
	// re-read from a second source field.
	CancelledOrNoShow int     `json:"cancelled_or_no_show"`
	SuccessRatePct    float64 `json:"success_rate_pct"`
}

type CustomerMetrics struct {
	TotalActive int `json:"total_active"`
	New         int `json:"new"`
	Returning   int `json:"returning"`
}

type ConversationOutcomeMetrics struct {
	TotalSessions      int            `json:"total_sessions"`
	TotalMessages      int            `json:"total_messages"`
	UnlinkedMessages   int            `json:"unlinked_messages"`
	BillableSessions   int            `json:"billable_sessions"`
	OutcomeCounts      map[string]int `json:"outcome_counts"`
	SuccessfulOutcomes int            `json:"successful_outcomes"`
	ConversionRatePct  float64        `json:"conversion_rate_pct"`
}

type ServiceMetrics struct {
	ActiveServices int     `json:"active_services"`
	BookedServices int     `json:"booked_services"`
	UtilizationPct float64 `json:"utilization_pct"`
}

type AIPerformanceMetrics struct {
	ClassifiedMessages int     `json:"classified_messages"`
	IntentCoveragePct  float64 `json:"intent_coverage_pct"`
	AvgConfidence      float64 `json:"avg_confidence"`
	MinConfidence      float64 `json:"min_confidence"`
	MaxConfidence      float64 `json:"max_confidence"`
	EfficiencyPct      float64 `json:"efficiency_pct"`
}

type CostBreakdownMetrics struct {
	MessageCostUSD     decimal.Decimal `json:"message_cost_usd"`
	InteractionCostUSD decimal.Decimal `json:"interaction_cost_usd"`
	InfraCostUSD       decimal.Decimal `json:"infra_cost_usd"`
	TotalCostUSD       decimal.Decimal `json:"total_cost_usd"`
	MarginUSD          decimal.Decimal `json:"margin_usd"`
	MarginPct          float64         `json:"margin_pct"`
}

const (
	RiskTierHealthy = "healthy"
	RiskTierLow     = "low_risk"
	RiskTierMedium  = "medium_risk"
	RiskTierHigh    = "high_risk"
)

type BusinessOutcomeMetrics struct {
	HealthScore float64 `json:"health_score"`
	RiskScore   float64 `json:"risk_score"`
	RiskTier    string  `json:"risk_tier"`
}

// HistoricalTrendMetrics compares the window against the adjacent previous
// window of the same length.
type HistoricalTrendMetrics struct {
	RevenueGrowthPct     float64 `json:"revenue_growth_pct"`
	AppointmentGrowthPct float64 `json:"appointment_growth_pct"`
	CustomerGrowthPct    float64 `json:"customer_growth_pct"`
}

type PlatformParticipationMetrics struct {
	RevenueSharePct     float64 `json:"revenue_share_pct"`
	AppointmentSharePct float64 `json:"appointment_share_pct"`
	CustomerSharePct    float64 `json:"customer_share_pct"`
}

// SnapshotPayload is the full nested metric payload of one tenant snapshot.
// Every group is always present; a cell that cannot compute a group fails
// instead of persisting a partial payload.
type SnapshotPayload struct {
	Financial             FinancialMetrics             `json:"financial"`
	Appointments          AppointmentMetrics           `json:"appointments"`
	Customers             CustomerMetrics              `json:"customers"`
	ConversationOutcomes  ConversationOutcomeMetrics   `json:"conversation_outcomes"`
	Services              ServiceMetrics               `json:"services"`
	AIPerformance         AIPerformanceMetrics         `json:"ai_performance"`
	CostBreakdown         CostBreakdownMetrics         `json:"cost_breakdown"`
	BusinessOutcomes      BusinessOutcomeMetrics       `json:"business_outcomes"`
	HistoricalTrend       HistoricalTrendMetrics       `json:"historical_trend"`
	PlatformParticipation PlatformParticipationMetrics `json:"platform_participation"`
}

// TenantMetricSnapshot is the persisted per-tenant calculation output,
// unique on (tenant_id, period, metric_kind) and fully replaced on each run.
type TenantMetricSnapshot struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TenantID          uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Period            Period          `json:"period" db:"period"`
	MetricKind        MetricKind      `json:"metric_kind" db:"metric_kind"`
	Payload           SnapshotPayload `json:"payload" db:"payload"`
	CalculationDate   time.Time       `json:"calculation_date" db:"calculation_date"`
	PeriodStart       time.Time       `json:"period_start" db:"period_start"`
	PeriodEnd         time.Time       `json:"period_end" db:"period_end"`
	CalculationMethod string          `json:"calculation_method" db:"calculation_method"`
	DataQualityScore  float64         `json:"data_quality_score" db:"data_quality_score"`
	CalculatedAt      time.Time       `json:"calculated_at" db:"calculated_at"`
}
