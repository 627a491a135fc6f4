package metrics

import "zapbook/internal/models"

// CalculateAppointments counts appointments by status. The cancellation
// aggregate is derived from the two status counts here and nowhere else.
func CalculateAppointments(appointments []*models.Appointment) models.AppointmentMetrics {
	m := models.AppointmentMetrics{Total: len(appointments)}

	for _, a := range appointments {
		switch a.Status {
		case models.AppointmentStatusPending:
			m.Pending++
		case models.AppointmentStatusConfirmed:
			m.Confirmed++
		case models.AppointmentStatusCompleted:
			m.Completed++
		case models.AppointmentStatusCancelled:
			m.Cancelled++
		case models.AppointmentStatusNoShow:
			m.NoShow++
		case models.AppointmentStatusRescheduled:
			m.Rescheduled++
		}
	}

	m.CancelledOrNoShow = m.Cancelled + m.NoShow
	if m.Total > 0 {
		m.SuccessRatePct = float64(m.Completed+m.Confirmed) / float64(m.Total) * 100
	}
	return m
}
