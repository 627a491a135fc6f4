package metrics

import (
	"testing"

	"zapbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRiskTierBands(t *testing.T) {
	cases := []struct {
		score float64
		tier  string
	}{
		{0, models.RiskTierHealthy},
		{39.99, models.RiskTierHealthy},
		{40, models.RiskTierLow},
		{59.99, models.RiskTierLow},
		{60, models.RiskTierMedium},
		{79.99, models.RiskTierMedium},
		{80, models.RiskTierHigh},
		{100, models.RiskTierHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, RiskTier(tc.score), "risk score %v", tc.score)
	}
}

func TestDeriveBusinessOutcomes(t *testing.T) {
	appointments := models.AppointmentMetrics{SuccessRatePct: 80}
	conversations := models.ConversationOutcomeMetrics{ConversionRatePct: 60}
	ai := models.AIPerformanceMetrics{EfficiencyPct: 70}
	costs := models.CostBreakdownMetrics{MarginPct: 50}

	m := DeriveBusinessOutcomes(appointments, conversations, ai, costs)
	// 80*0.30 + 60*0.25 + 70*0.25 + 50*0.20 = 66.5
	assert.InDelta(t, 66.5, m.HealthScore, 0.001)
	assert.InDelta(t, 33.5, m.RiskScore, 0.001)
	assert.Equal(t, models.RiskTierHealthy, m.RiskTier)
}

func TestDeriveBusinessOutcomesClampsMargin(t *testing.T) {
	// A margin above 100% or below zero must not push health out of range.
	hot := DeriveBusinessOutcomes(models.AppointmentMetrics{}, models.ConversationOutcomeMetrics{}, models.AIPerformanceMetrics{}, models.CostBreakdownMetrics{MarginPct: 250})
	assert.InDelta(t, 20, hot.HealthScore, 0.001)

	cold := DeriveBusinessOutcomes(models.AppointmentMetrics{}, models.ConversationOutcomeMetrics{}, models.AIPerformanceMetrics{}, models.CostBreakdownMetrics{MarginPct: -80})
	assert.InDelta(t, 0, cold.HealthScore, 0.001)
	assert.Equal(t, models.RiskTierHigh, cold.RiskTier)
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		// 0.125 is exact in binary, so these exercise the half case:
		// halves round away from zero in both directions.
		{0.125, 0.13},
		{-0.125, -0.13},
		{33.333333, 33.33},
		{66.666666, 66.67},
		// Large magnitudes survive intact instead of truncating.
		{1e17, 1e17},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, round2(tc.in), "round2(%v)", tc.in)
	}
}

func TestGrowthRate(t *testing.T) {
	assert.InDelta(t, 50, GrowthRate(150, 100), 0.001)
	assert.InDelta(t, -25, GrowthRate(75, 100), 0.001)

	// Division-by-zero policy: growth from nothing is 100, flat nothing is 0.
	assert.Equal(t, 100.0, GrowthRate(10, 0))
	assert.Equal(t, 0.0, GrowthRate(0, 0))
}
