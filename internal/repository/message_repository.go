package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/recall-outreach/internal/model"
)

// MessageRepositoryInterface is the append-only conversation log.
type MessageRepositoryInterface interface {
	Append(ctx context.Context, msg *model.Message) error
	// Recent returns up to limit messages for the contact created at or
	// before the given time, newest first.
	Recent(ctx context.Context, contactID string, before time.Time, limit int) ([]model.Message, error)
	ListByContact(ctx context.Context, contactID string) ([]model.Message, error)
}

type MessageRepository struct {
	DB *sql.DB
}

// Append inserts msg and fills in its id and server-assigned timestamp.
func (r *MessageRepository) Append(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return r.DB.QueryRowContext(ctx, `
        INSERT INTO messages (id, campaign_id, contact_id, direction, body)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at
    `, msg.ID, msg.CampaignID, msg.ContactID, string(msg.Direction), msg.Body).Scan(&msg.CreatedAt)
}

func (r *MessageRepository) Recent(ctx context.Context, contactID string, before time.Time, limit int) ([]model.Message, error) {
	return r.list(ctx, `
        SELECT id, campaign_id, contact_id, direction, body, created_at
        FROM messages
        WHERE contact_id = $1 AND created_at <= $2
        ORDER BY created_at DESC
        LIMIT $3`, contactID, before, limit)
}

func (r *MessageRepository) ListByContact(ctx context.Context, contactID string) ([]model.Message, error) {
	return r.list(ctx, `
        SELECT id, campaign_id, contact_id, direction, body, created_at
        FROM messages
        WHERE contact_id = $1
        ORDER BY created_at ASC`, contactID)
}

func (r *MessageRepository) list(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var (
			msg        model.Message
			campaignID sql.NullString
			direction  string
		)
		if err := rows.Scan(&msg.ID, &campaignID, &msg.ContactID, &direction, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if campaignID.Valid {
			id := campaignID.String
			msg.CampaignID = &id
		}
		msg.Direction = model.Direction(direction)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
