package metrics

import (
	"testing"

	"zapbook/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func msg(session *uuid.UUID, fromUser bool, outcome *string, billable bool) *models.ConversationMessage {
	return &models.ConversationMessage{
		ID:         uuid.New(),
		SessionID:  session,
		UserID:     uuid.New(),
		IsFromUser: fromUser,
		Outcome:    outcome,
		Billable:   billable,
	}
}

func strp(s string) *string { return &s }

func TestCalculateConversations(t *testing.T) {
	s1, s2 := uuid.New(), uuid.New()
	messages := []*models.ConversationMessage{
		msg(&s1, true, nil, true),
		msg(&s1, false, strp(models.OutcomeAppointmentCreated), false),
		msg(&s2, true, nil, false),
		msg(&s2, false, strp(models.OutcomeBookingAbandoned), false),
		msg(nil, true, nil, false), // unlinked
	}

	m := CalculateConversations(messages)
	assert.Equal(t, 2, m.TotalSessions)
	assert.Equal(t, 5, m.TotalMessages)
	assert.Equal(t, 1, m.UnlinkedMessages)
	assert.Equal(t, 1, m.BillableSessions)
	assert.Equal(t, 1, m.OutcomeCounts[models.OutcomeAppointmentCreated])
	assert.Equal(t, 1, m.OutcomeCounts[models.OutcomeBookingAbandoned])
	assert.Equal(t, 1, m.SuccessfulOutcomes)
	assert.InDelta(t, 50.0, m.ConversionRatePct, 0.001)
}

func TestCalculateConversationsUnlinkedNeverDropped(t *testing.T) {
	messages := []*models.ConversationMessage{
		msg(nil, true, nil, false),
		msg(nil, false, nil, false),
	}
	m := CalculateConversations(messages)
	assert.Equal(t, 0, m.TotalSessions)
	assert.Equal(t, 2, m.TotalMessages)
	assert.Equal(t, 2, m.UnlinkedMessages)
	assert.Equal(t, 0.0, m.ConversionRatePct)
}

func TestCalculateAIPerformance(t *testing.T) {
	s1 := uuid.New()
	high, low := 0.9, 0.5
	messages := []*models.ConversationMessage{
		{SessionID: &s1, IsFromUser: true, Intent: strp("book"), ConfidenceScore: &high},
		{SessionID: &s1, IsFromUser: true, Intent: strp("price"), ConfidenceScore: &low},
		{SessionID: &s1, IsFromUser: true},          // unclassified
		{SessionID: &s1, IsFromUser: false, Intent: strp("noise")}, // assistant, ignored
	}
	outcomes := models.ConversationOutcomeMetrics{
		OutcomeCounts: map[string]int{
			models.OutcomeAppointmentCreated: 2,
			models.OutcomeSpamDetected:       1,
			models.OutcomeTimeoutAbandoned:   1,
		},
	}

	m := CalculateAIPerformance(messages, outcomes)
	assert.Equal(t, 2, m.ClassifiedMessages)
	assert.InDelta(t, 2.0/3.0*100, m.IntentCoveragePct, 0.001)
	assert.InDelta(t, 0.7, m.AvgConfidence, 0.001)
	assert.InDelta(t, 0.5, m.MinConfidence, 0.001)
	assert.InDelta(t, 0.9, m.MaxConfidence, 0.001)
	assert.InDelta(t, 50.0, m.EfficiencyPct, 0.001)
}

func TestCalculateAIPerformanceEmpty(t *testing.T) {
	m := CalculateAIPerformance(nil, models.ConversationOutcomeMetrics{OutcomeCounts: map[string]int{}})
	assert.Equal(t, 0.0, m.IntentCoveragePct)
	assert.Equal(t, 0.0, m.AvgConfidence)
	assert.Equal(t, 0.0, m.EfficiencyPct)
}
