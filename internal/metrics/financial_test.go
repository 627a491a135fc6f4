package metrics

import (
	"testing"

	"zapbook/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func appt(status string, quoted, final *decimal.Decimal) *models.Appointment {
	return &models.Appointment{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Status:      status,
		QuotedPrice: quoted,
		FinalPrice:  final,
	}
}

func TestCalculateFinancialSumsRevenueStatusesOnly(t *testing.T) {
	appointments := []*models.Appointment{
		appt(models.AppointmentStatusCompleted, dec("100.00"), nil),
		appt(models.AppointmentStatusConfirmed, dec("50.00"), nil),
		appt(models.AppointmentStatusCancelled, dec("999.00"), nil),
		appt(models.AppointmentStatusPending, dec("999.00"), nil),
		appt(models.AppointmentStatusNoShow, dec("999.00"), nil),
	}

	m := CalculateFinancial(appointments, 3)
	assert.Equal(t, "150", m.TotalRevenue.String())
	assert.Equal(t, 2, m.RevenueAppointments)
	assert.Equal(t, "75", m.AvgAppointmentValue.String())
	assert.Equal(t, "50", m.RevenuePerCustomer.String())
}

func TestCalculateFinancialPriceFallback(t *testing.T) {
	// quoted_price wins when present, final_price is the fallback, and an
	// appointment with neither is counted, not zero-summed.
	appointments := []*models.Appointment{
		appt(models.AppointmentStatusCompleted, dec("80.00"), dec("120.00")),
		appt(models.AppointmentStatusCompleted, nil, dec("50.00")),
		appt(models.AppointmentStatusCompleted, nil, nil),
	}

	m := CalculateFinancial(appointments, 0)
	assert.Equal(t, "130", m.TotalRevenue.String())
	assert.Equal(t, 2, m.RevenueAppointments)
	assert.Equal(t, 1, m.MissingPriceFallbacks)
	assert.Equal(t, 1, m.UnpricedAppointments)
}

func TestCalculateFinancialDeterministic(t *testing.T) {
	appointments := []*models.Appointment{
		appt(models.AppointmentStatusCompleted, nil, dec("50.00")),
	}
	a := CalculateFinancial(appointments, 1)
	b := CalculateFinancial(appointments, 1)
	assert.True(t, a.TotalRevenue.Equal(b.TotalRevenue))
	assert.Equal(t, "50", a.TotalRevenue.String())
}

func TestCalculateFinancialEmpty(t *testing.T) {
	m := CalculateFinancial(nil, 0)
	assert.True(t, m.TotalRevenue.IsZero())
	assert.True(t, m.AvgAppointmentValue.IsZero())
	assert.True(t, m.RevenuePerCustomer.IsZero())
	assert.Equal(t, 0, m.RevenueAppointments)
}
