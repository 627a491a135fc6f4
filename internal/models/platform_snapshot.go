package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlatformComprehensiveMetrics holds the platform-wide totals. Every sum
// must reconcile with the sum of the corresponding field across all
// included tenant snapshots for the period.
type PlatformComprehensiveMetrics struct {
	TotalRevenue         decimal.Decimal `json:"total_revenue"`
	TotalAppointments    int             `json:"total_appointments"`
	TotalConversations   int             `json:"total_conversations"`
	TotalCustomers       int             `json:"total_customers"`
	ActiveTenants        int             `json:"active_tenants"`
	PlatformMRR          decimal.Decimal `json:"platform_mrr"`
	AvgSuccessRatePct    float64         `json:"avg_success_rate_pct"`
	AvgConversionRatePct float64         `json:"avg_conversion_rate_pct"`
	OperationalEffPct    float64         `json:"operational_efficiency_pct"`
}

// TenantShare is one tenant's participation in the platform for a period.
// DistortionIndex compares revenue share against usage share; values far
// from 1 flag mispriced or at-risk accounts.
type TenantShare struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	RevenueSharePct float64   `json:"revenue_share_pct"`
	UsageSharePct   float64   `json:"usage_share_pct"`
	DistortionIndex float64   `json:"distortion_index"`
	Distorted       bool      `json:"distorted"`
}

type PlatformParticipationSummary struct {
	Shares               []TenantShare `json:"shares"`
	TenantsAboveUsageAvg int           `json:"tenants_above_usage_avg"`
	TenantsBelowUsageAvg int           `json:"tenants_below_usage_avg"`
	DistortedTenants     int           `json:"distorted_tenants"`
	RevenueUsageRatio    float64       `json:"revenue_usage_ratio"`
}

type TenantRank struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Score    float64   `json:"score"`
	Position int       `json:"position"`
}

type PlatformRankingMetrics struct {
	OverallScore     float64        `json:"overall_score"`
	HealthIndex      float64        `json:"health_index"`
	EfficiencyIndex  float64        `json:"efficiency_index"`
	RiskDistribution map[string]int `json:"risk_distribution"`
	Rankings         []TenantRank   `json:"rankings"`
}

// PlatformMetricSnapshot is the aggregation output, keyed by
// (period, metric_kind, calculation_date). History is retained; readers
// resolve the latest row per (period, metric_kind).
type PlatformMetricSnapshot struct {
	ID                  uuid.UUID                    `json:"id" db:"id"`
	Period              Period                       `json:"period" db:"period"`
	MetricKind          MetricKind                   `json:"metric_kind" db:"metric_kind"`
	CalculationDate     time.Time                    `json:"calculation_date" db:"calculation_date"`
	Comprehensive       PlatformComprehensiveMetrics `json:"comprehensive"`
	Participation       PlatformParticipationSummary `json:"participation"`
	Ranking             PlatformRankingMetrics       `json:"ranking"`
	IncludedTenantCount int                          `json:"included_tenant_count" db:"included_tenant_count"`
	ExcludedTenantCount int                          `json:"excluded_tenant_count" db:"excluded_tenant_count"`
	CalculationMethod   string                       `json:"calculation_method" db:"calculation_method"`
	DataQualityScore    float64                      `json:"data_quality_score" db:"data_quality_score"`
	CalculatedAt        time.Time                    `json:"calculated_at" db:"calculated_at"`
}

// PlatformTotals are raw per-period platform sums used to compute each
// tenant's participation group at snapshot time.
type PlatformTotals struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalAppointments int             `json:"total_appointments"`
	TotalCustomers    int             `json:"total_customers"`
}
