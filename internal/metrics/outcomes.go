package metrics

import (
	"math"

	"zapbook/internal/models"
)

// Risk tier cut points over the 0-100 risk score, matching the production
// scoring bands.
const (
	riskTierLowAt    = 40.0
	riskTierMediumAt = 60.0
	riskTierHighAt   = 80.0
)

// DeriveBusinessOutcomes produces the composite health score, the inverse
// risk score and the resulting risk tier. Weights: appointment success 30%,
// conversion 25%, AI efficiency 25%, margin health 20%.
func DeriveBusinessOutcomes(appointments models.AppointmentMetrics, conversations models.ConversationOutcomeMetrics, ai models.AIPerformanceMetrics, costs models.CostBreakdownMetrics) models.BusinessOutcomeMetrics {
	marginHealth := costs.MarginPct
	if marginHealth > 100 {
		marginHealth = 100
	}
	if marginHealth < 0 {
		marginHealth = 0
	}

	health := appointments.SuccessRatePct*0.30 +
		conversations.ConversionRatePct*0.25 +
		ai.EfficiencyPct*0.25 +
		marginHealth*0.20

	risk := 100 - health

	return models.BusinessOutcomeMetrics{
		HealthScore: round2(health),
		RiskScore:   round2(risk),
		RiskTier:    RiskTier(risk),
	}
}

// RiskTier buckets a 0-100 risk score into the fixed tiers.
func RiskTier(riskScore float64) string {
	switch {
	case riskScore >= riskTierHighAt:
		return models.RiskTierHigh
	case riskScore >= riskTierMediumAt:
		return models.RiskTierMedium
	case riskScore >= riskTierLowAt:
		return models.RiskTierLow
	default:
		return models.RiskTierHealthy
	}
}

// GrowthRate is the period-over-period change in percent. A previous value
// of zero yields 100 when the current value is positive, 0 otherwise.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round2((current - previous) / previous * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
