package metrics

import (
	"github.com/shopspring/decimal"

	"zapbook/internal/models"
)

// CostRates are the external cost assumptions of the cost model. Message
// and session rates come from upstream per-interaction billing estimates;
// the infrastructure cost is a monthly figure prorated to the window length.
type CostRates struct {
	PerMessageUSD   decimal.Decimal
	PerSessionUSD   decimal.Decimal
	InfraMonthlyUSD decimal.Decimal
}

// CalculateCosts combines interaction costs with prorated infrastructure
// cost and derives the margin against window revenue.
func CalculateCosts(rates CostRates, periodDays int, conversations models.ConversationOutcomeMetrics, revenue decimal.Decimal) models.CostBreakdownMetrics {
	m := models.CostBreakdownMetrics{}

	m.MessageCostUSD = rates.PerMessageUSD.Mul(decimal.NewFromInt(int64(conversations.TotalMessages)))
	m.InteractionCostUSD = rates.PerSessionUSD.Mul(decimal.NewFromInt(int64(conversations.BillableSessions)))
	m.InfraCostUSD = rates.InfraMonthlyUSD.
		Mul(decimal.NewFromInt(int64(periodDays))).
		DivRound(decimal.NewFromInt(30), 2)

	m.TotalCostUSD = m.MessageCostUSD.Add(m.InteractionCostUSD).Add(m.InfraCostUSD).Round(2)
	m.MarginUSD = revenue.Sub(m.TotalCostUSD).Round(2)
	if revenue.IsPositive() {
		marginPct, _ := m.MarginUSD.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		m.MarginPct = marginPct
	}
	return m
}
