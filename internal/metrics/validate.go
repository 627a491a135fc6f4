package metrics

import (
	"fmt"

	"zapbook/internal/models"
)

// ValidateSnapshot is the shape/range gate every snapshot passes before
// persistence. A snapshot that fails here is rejected, never stored.
func ValidateSnapshot(s *models.TenantMetricSnapshot) error {
	p := s.Payload

	percentages := map[string]float64{
		"appointments.success_rate_pct":              p.Appointments.SuccessRatePct,
		"conversation_outcomes.conversion_rate_pct":  p.ConversationOutcomes.ConversionRatePct,
		"services.utilization_pct":                   p.Services.UtilizationPct,
		"ai_performance.intent_coverage_pct":         p.AIPerformance.IntentCoveragePct,
		"ai_performance.efficiency_pct":              p.AIPerformance.EfficiencyPct,
		"business_outcomes.health_score":             p.BusinessOutcomes.HealthScore,
		"business_outcomes.risk_score":               p.BusinessOutcomes.RiskScore,
		"platform_participation.revenue_share_pct":   p.PlatformParticipation.RevenueSharePct,
		"platform_participation.appointment_share_pct": p.PlatformParticipation.AppointmentSharePct,
		"platform_participation.customer_share_pct":  p.PlatformParticipation.CustomerSharePct,
	}
	for field, v := range percentages {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s = %.2f outside [0,100]", ErrValidationFailure, field, v)
		}
	}

	counts := map[string]int{
		"appointments.total":                  p.Appointments.Total,
		"customers.total_active":              p.Customers.TotalActive,
		"conversation_outcomes.total_sessions": p.ConversationOutcomes.TotalSessions,
		"services.active_services":            p.Services.ActiveServices,
	}
	for field, v := range counts {
		if v < 0 {
			return fmt.Errorf("%w: %s = %d is negative", ErrValidationFailure, field, v)
		}
	}

	if p.Financial.TotalRevenue.IsNegative() {
		return fmt.Errorf("%w: financial.total_revenue %s is negative", ErrValidationFailure, p.Financial.TotalRevenue)
	}

	statusSum := p.Appointments.Pending + p.Appointments.Confirmed + p.Appointments.Completed +
		p.Appointments.Cancelled + p.Appointments.NoShow + p.Appointments.Rescheduled
	if statusSum > p.Appointments.Total {
		return fmt.Errorf("%w: appointment status counts sum to %d, exceeding total %d", ErrValidationFailure, statusSum, p.Appointments.Total)
	}
	if p.Appointments.CancelledOrNoShow != p.Appointments.Cancelled+p.Appointments.NoShow {
		return fmt.Errorf("%w: cancelled_or_no_show %d does not reconcile with cancelled %d + no_show %d",
			ErrValidationFailure, p.Appointments.CancelledOrNoShow, p.Appointments.Cancelled, p.Appointments.NoShow)
	}

	if s.DataQualityScore < 0 || s.DataQualityScore > 1 {
		return fmt.Errorf("%w: data_quality_score %.2f outside [0,1]", ErrValidationFailure, s.DataQualityScore)
	}
	if !s.PeriodStart.Before(s.PeriodEnd) {
		return fmt.Errorf("%w: period_start %s not before period_end %s", ErrValidationFailure, s.PeriodStart, s.PeriodEnd)
	}
	return nil
}
