package repositories

import (
	"context"
	"time"

	"zapbook/internal/models"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	ListInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*models.ConversationMessage, error)
}

type conversationRepo struct {
	db DB
}

func NewConversationRepo(db DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) ListInWindow(ctx context.Context, tenantID uuid.UUID, start, end time.Time) ([]*models.ConversationMessage, error) {
	query := `
		SELECT id, tenant_id, session_id, user_id, is_from_user, intent, conversation_outcome, confidence_score, billable, created_at
		FROM conversation_messages
		WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, tenantID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ConversationMessage
	for rows.Next() {
		m := &models.ConversationMessage{}
		if err := rows.Scan(&m.ID, &m.TenantID, &m.SessionID, &m.UserID, &m.IsFromUser, &m.Intent, &m.Outcome, &m.ConfidenceScore, &m.Billable, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CustomerRepository resolves the first dated activity of each customer
// with a tenant, across both appointments and conversations.
type CustomerRepository interface {
	FirstActivities(ctx context.Context, tenantID uuid.UUID) ([]*models.CustomerActivity, error)
}

type customerRepo struct {
	db DB
}

func NewCustomerRepo(db DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) FirstActivities(ctx context.Context, tenantID uuid.UUID) ([]*models.CustomerActivity, error) {
	query := `
		SELECT user_id, MIN(first_at) AS first_activity_at
		FROM (
			SELECT user_id, MIN(created_at) AS first_at FROM appointments WHERE tenant_id = $1 GROUP BY user_id
			UNION ALL
			SELECT user_id, MIN(created_at) AS first_at FROM conversation_messages WHERE tenant_id = $1 AND is_from_user GROUP BY user_id
		) activity
		GROUP BY user_id
	`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*models.CustomerActivity
	for rows.Next() {
		a := &models.CustomerActivity{}
		if err := rows.Scan(&a.UserID, &a.FirstActivityAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
