package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type AppointmentRepositoryInterface interface {
	// ListBetween returns appointments with from <= scheduled_at <= to, ascending.
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	// Book inserts appt unless any appointment already lies in [from, to].
	// It returns ErrSlotTaken when the window is occupied, including by a concurrent writer.
	Book(ctx context.Context, appt *model.Appointment, from, to time.Time) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	ListByContact(ctx context.Context, contactID string) ([]model.Appointment, error)
}

type AppointmentRepository struct {
	DB *sql.DB
}

func (r *AppointmentRepository) ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	return r.list(ctx, `
        SELECT id, campaign_id, contact_id, scheduled_at
        FROM appointments
        WHERE scheduled_at >= $1 AND scheduled_at <= $2
        ORDER BY scheduled_at ASC`, from, to)
}

func (r *AppointmentRepository) Book(ctx context.Context, appt *model.Appointment, from, to time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `
        SELECT id FROM appointments
        WHERE scheduled_at >= $1 AND scheduled_at <= $2
        LIMIT 1`, from, to).Scan(&existing)
	switch {
	case err == nil:
		return appErrors.ErrSlotTaken
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	var id string
	err = tx.QueryRowContext(ctx, `
        INSERT INTO appointments (id, campaign_id, contact_id, scheduled_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id`, appt.ID, appt.CampaignID, appt.ContactID, appt.ScheduledAt).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		switch {
		case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation:
			return appErrors.ErrSlotTaken
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.ErrAppointmentNotCreated
		}
		return err
	}
	appt.ID = id

	return tx.Commit()
}

// GetByID returns nil, nil when no appointment has the id.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if !isUUID(id) {
		return nil, nil
	}
	items, err := r.list(ctx, `
        SELECT id, campaign_id, contact_id, scheduled_at
        FROM appointments
        WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *AppointmentRepository) ListByContact(ctx context.Context, contactID string) ([]model.Appointment, error) {
	return r.list(ctx, `
        SELECT id, campaign_id, contact_id, scheduled_at
        FROM appointments
        WHERE contact_id = $1
        ORDER BY scheduled_at ASC`, contactID)
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := []model.Appointment{}
	for rows.Next() {
		var (
			a          model.Appointment
			campaignID sql.NullString
		)
		if err := rows.Scan(&a.ID, &campaignID, &a.ContactID, &a.ScheduledAt); err != nil {
			return nil, err
		}
		if campaignID.Valid {
			id := campaignID.String
			a.CampaignID = &id
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

var _ AppointmentRepositoryInterface = (*AppointmentRepository)(nil)
