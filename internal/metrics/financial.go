package metrics

import (
	"github.com/shopspring/decimal"

	"zapbook/internal/models"
)

// revenueStatuses are the appointment statuses whose price counts as
// realized revenue.
var revenueStatuses = map[string]bool{
	models.AppointmentStatusConfirmed: true,
	models.AppointmentStatusCompleted: true,
}

// CalculateFinancial sums revenue over confirmed and completed appointments.
// Prices resolve through Appointment.ResolvePrice (quoted_price, then
// final_price); an appointment with neither field is counted in
// UnpricedAppointments instead of silently contributing zero revenue.
func CalculateFinancial(appointments []*models.Appointment, uniqueCustomers int) models.FinancialMetrics {
	m := models.FinancialMetrics{
		TotalRevenue:        decimal.Zero,
		AvgAppointmentValue: decimal.Zero,
		RevenuePerCustomer:  decimal.Zero,
	}

	for _, a := range appointments {
		if !revenueStatuses[a.Status] {
			continue
		}
		if a.QuotedPrice == nil && a.FinalPrice == nil {
			m.UnpricedAppointments++
			continue
		}
		if a.QuotedPrice == nil {
			m.MissingPriceFallbacks++
		}
		m.TotalRevenue = m.TotalRevenue.Add(a.ResolvePrice())
		m.RevenueAppointments++
	}

	if m.RevenueAppointments > 0 {
		m.AvgAppointmentValue = m.TotalRevenue.DivRound(decimal.NewFromInt(int64(m.RevenueAppointments)), 2)
	}
	if uniqueCustomers > 0 {
		m.RevenuePerCustomer = m.TotalRevenue.DivRound(decimal.NewFromInt(int64(uniqueCustomers)), 2)
	}
	return m
}
