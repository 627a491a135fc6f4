package metrics

import (
	"github.com/google/uuid"

	"zapbook/internal/models"
)

// CalculateConversations groups messages into sessions and classifies each
// session by its persisted outcome label. Messages without a session id are
// counted as unlinked and flagged in the metrics, never dropped. The
// conversion rate is successful outcomes over total sessions in the window.
func CalculateConversations(messages []*models.ConversationMessage) models.ConversationOutcomeMetrics {
	m := models.ConversationOutcomeMetrics{
		TotalMessages: len(messages),
		OutcomeCounts: make(map[string]int),
	}

	sessions := make(map[uuid.UUID]bool)
	billable := make(map[uuid.UUID]bool)
	for _, msg := range messages {
		if msg.SessionID == nil {
			m.UnlinkedMessages++
			continue
		}
		sessions[*msg.SessionID] = true
		if msg.Billable {
			billable[*msg.SessionID] = true
		}
		// The upstream analyzer persists the outcome only on the final
		// message of a session.
		if msg.Outcome != nil {
			m.OutcomeCounts[*msg.Outcome]++
			if models.SuccessfulOutcomes[*msg.Outcome] {
				m.SuccessfulOutcomes++
			}
		}
	}

	m.TotalSessions = len(sessions)
	m.BillableSessions = len(billable)
	if m.TotalSessions > 0 {
		m.ConversionRatePct = float64(m.SuccessfulOutcomes) / float64(m.TotalSessions) * 100
	}
	return m
}

// CalculateAIPerformance derives intent coverage and the confidence score
// distribution over assistant-classified user messages.
func CalculateAIPerformance(messages []*models.ConversationMessage, outcomes models.ConversationOutcomeMetrics) models.AIPerformanceMetrics {
	m := models.AIPerformanceMetrics{}

	var userMessages int
	var confidenceSum float64
	for _, msg := range messages {
		if !msg.IsFromUser {
			continue
		}
		userMessages++
		if msg.Intent == nil {
			continue
		}
		m.ClassifiedMessages++
		if msg.ConfidenceScore == nil {
			continue
		}
		score := *msg.ConfidenceScore
		confidenceSum += score
		if m.MinConfidence == 0 || score < m.MinConfidence {
			m.MinConfidence = score
		}
		if score > m.MaxConfidence {
			m.MaxConfidence = score
		}
	}

	if userMessages > 0 {
		m.IntentCoveragePct = float64(m.ClassifiedMessages) / float64(userMessages) * 100
	}
	if m.ClassifiedMessages > 0 {
		m.AvgConfidence = confidenceSum / float64(m.ClassifiedMessages)
	}
	// Efficiency: sessions the assistant resolved without abandonment or
	// spam, over all sessions with an outcome.
	var resolved, terminal int
	for outcome, count := range outcomes.OutcomeCounts {
		terminal += count
		switch outcome {
		case models.OutcomeBookingAbandoned, models.OutcomeTimeoutAbandoned,
			models.OutcomeSpamDetected, models.OutcomeWrongNumber:
		default:
			resolved += count
		}
	}
	if terminal > 0 {
		m.EfficiencyPct = float64(resolved) / float64(terminal) * 100
	}
	return m
}
