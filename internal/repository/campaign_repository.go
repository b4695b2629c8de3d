package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
)

type CampaignRepositoryInterface interface {
	// CreateWithContacts inserts the campaign and all its contacts in one transaction.
	CreateWithContacts(ctx context.Context, contacts []*model.Contact) (*model.Campaign, error)
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	Delete(ctx context.Context, id string) error
	FunnelStats(ctx context.Context, id string) (*model.FunnelStats, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) CreateWithContacts(ctx context.Context, contacts []*model.Contact) (*model.Campaign, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := &model.Campaign{ID: uuid.NewString()}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO campaigns (id) VALUES ($1) RETURNING created_at`, c.ID,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO contacts
        (id, campaign_id, phone, first_name, last_name, vin, year, make, model, recall_code, recall_desc, language, opt_out)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, ct := range contacts {
		if ct.ID == "" {
			ct.ID = uuid.NewString()
		}
		ct.CampaignID = c.ID
		_, err := stmt.ExecContext(ctx,
			ct.ID, ct.CampaignID, ct.Phone, ct.FirstName, ct.LastName, ct.VIN, ct.Year,
			ct.Make, ct.Model, ct.RecallCode, ct.RecallDesc, ct.Language, ct.OptOut,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	if !isUUID(id) {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	var c model.Campaign
	err := r.DB.QueryRowContext(ctx, `SELECT id, created_at FROM campaigns WHERE id=$1`, id).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the campaign; contacts cascade, messages and appointments keep a NULL campaign.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return appErrors.NewCampaignNotFound(id)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

// ====================== Stats ======================

// FunnelStats counts contacts at each stage: only sent, replied or messaged, scheduled.
func (r *CampaignRepository) FunnelStats(ctx context.Context, id string) (*model.FunnelStats, error) {
	var total, withMessages, scheduled int
	err := r.DB.QueryRowContext(ctx, `
        SELECT
            (SELECT COUNT(*) FROM contacts WHERE campaign_id = $1),
            (SELECT COUNT(DISTINCT contact_id) FROM messages WHERE campaign_id = $1),
            (SELECT COUNT(*) FROM appointments WHERE campaign_id = $1)
    `, id).Scan(&total, &withMessages, &scheduled)
	if err != nil {
		return nil, err
	}

	return &model.FunnelStats{
		Sent:      total - withMessages,
		Delivered: withMessages - scheduled,
		Scheduled: scheduled,
	}, nil
}

// isUUID reports whether id can match a UUID key. Anything else would make
// Postgres fail the cast instead of finding no row.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
