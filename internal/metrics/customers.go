package metrics

import (
	"github.com/google/uuid"

	"zapbook/internal/models"
)

// CalculateCustomers counts unique customers active in the window, sourced
// from appointment and conversation activity. A customer whose first dated
// activity falls inside the window is new; everyone else active in the
// window is returning. Membership tables play no part here.
func CalculateCustomers(w Window, appointments []*models.Appointment, messages []*models.ConversationMessage, firstActivity []*models.CustomerActivity) models.CustomerMetrics {
	active := make(map[uuid.UUID]bool)
	for _, a := range appointments {
		active[a.UserID] = true
	}
	for _, msg := range messages {
		if msg.IsFromUser {
			active[msg.UserID] = true
		}
	}

	firstSeen := make(map[uuid.UUID]*models.CustomerActivity, len(firstActivity))
	for _, fa := range firstActivity {
		firstSeen[fa.UserID] = fa
	}

	m := models.CustomerMetrics{TotalActive: len(active)}
	for userID := range active {
		fa, ok := firstSeen[userID]
		if ok && w.Contains(fa.FirstActivityAt) {
			m.New++
		} else {
			m.Returning++
		}
	}
	return m
}
