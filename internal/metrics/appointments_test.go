package metrics

import (
	"testing"

	"zapbook/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCalculateAppointments(t *testing.T) {
	appointments := []*models.Appointment{
		appt(models.AppointmentStatusPending, nil, nil),
		appt(models.AppointmentStatusConfirmed, nil, nil),
		appt(models.AppointmentStatusCompleted, nil, nil),
		appt(models.AppointmentStatusCompleted, nil, nil),
		appt(models.AppointmentStatusCancelled, nil, nil),
		appt(models.AppointmentStatusNoShow, nil, nil),
		appt(models.AppointmentStatusRescheduled, nil, nil),
	}

	m := CalculateAppointments(appointments)
	assert.Equal(t, 7, m.Total)
	assert.Equal(t, 1, m.Pending)
	assert.Equal(t, 1, m.Confirmed)
	assert.Equal(t, 2, m.Completed)
	assert.Equal(t, 1, m.Cancelled)
	assert.Equal(t, 1, m.NoShow)
	assert.Equal(t, 1, m.Rescheduled)
	assert.Equal(t, 2, m.CancelledOrNoShow)
	assert.InDelta(t, 3.0/7.0*100, m.SuccessRatePct, 0.001)
}

func TestCalculateAppointmentsCancelledAggregateReconciles(t *testing.T) {
	appointments := []*models.Appointment{
		appt(models.AppointmentStatusCancelled, nil, nil),
		appt(models.AppointmentStatusCancelled, nil, nil),
		appt(models.AppointmentStatusNoShow, nil, nil),
	}
	m := CalculateAppointments(appointments)
	assert.Equal(t, m.Cancelled+m.NoShow, m.CancelledOrNoShow)
	assert.Equal(t, 0.0, m.SuccessRatePct)
}

func TestCalculateAppointmentsEmpty(t *testing.T) {
	m := CalculateAppointments(nil)
	assert.Equal(t, 0, m.Total)
	assert.Equal(t, 0.0, m.SuccessRatePct)
}
