package metrics

import (
	"testing"

	"zapbook/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCalculateServices(t *testing.T) {
	haircut, massage, dormant := uuid.New(), uuid.New(), uuid.New()
	services := []*models.Service{
		{ID: haircut, Active: true},
		{ID: massage, Active: true},
		{ID: dormant, Active: false},
	}
	appointments := []*models.Appointment{
		{ServiceID: haircut},
		{ServiceID: haircut},
		{ServiceID: dormant}, // booking against an inactive service
	}

	m := CalculateServices(services, appointments)
	assert.Equal(t, 2, m.ActiveServices)
	assert.Equal(t, 1, m.BookedServices)
	assert.InDelta(t, 50.0, m.UtilizationPct, 0.001)
}

func TestCalculateServicesEmpty(t *testing.T) {
	m := CalculateServices(nil, nil)
	assert.Equal(t, 0, m.ActiveServices)
	assert.Equal(t, 0.0, m.UtilizationPct)
}
