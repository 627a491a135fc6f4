package metrics

import (
	"github.com/google/uuid"

	"zapbook/internal/models"
)

// CalculateServices counts distinct active services offered and how many of
// them received at least one booking in the window.
func CalculateServices(services []*models.Service, appointments []*models.Appointment) models.ServiceMetrics {
	m := models.ServiceMetrics{}

	activeIDs := make(map[uuid.UUID]bool)
	for _, s := range services {
		if s.Active {
			activeIDs[s.ID] = true
		}
	}
	m.ActiveServices = len(activeIDs)

	booked := make(map[uuid.UUID]bool)
	for _, a := range appointments {
		if activeIDs[a.ServiceID] {
			booked[a.ServiceID] = true
		}
	}
	m.BookedServices = len(booked)

	if m.ActiveServices > 0 {
		m.UtilizationPct = float64(m.BookedServices) / float64(m.ActiveServices) * 100
	}
	return m
}
