package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
)

// ContactRepositoryInterface defines methods used by services.
type ContactRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Contact, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]model.Contact, error)
	Search(ctx context.Context, query string, limit int) ([]model.Contact, error)
	SetOptOut(ctx context.Context, id string, optOut bool) error
}

type ContactRepository struct {
	DB *sql.DB
}

const contactColumns = `id, campaign_id, phone, first_name, last_name, vin, year, make, model, recall_code, recall_desc, language, opt_out`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner, c *model.Contact) error {
	return row.Scan(&c.ID, &c.CampaignID, &c.Phone, &c.FirstName, &c.LastName, &c.VIN, &c.Year,
		&c.Make, &c.Model, &c.RecallCode, &c.RecallDesc, &c.Language, &c.OptOut)
}

// GetByID returns nil, nil when the contact does not exist.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	if !isUUID(id) {
		return nil, nil
	}
	row := r.DB.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)

	var c model.Contact
	if err := scanContact(row, &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.Contact, error) {
	return r.list(ctx, `SELECT `+contactColumns+` FROM contacts WHERE campaign_id = $1 ORDER BY last_name, first_name`, campaignID)
}

// Search matches first, last or full name case-insensitively. An empty query lists the first contacts.
func (r *ContactRepository) Search(ctx context.Context, query string, limit int) ([]model.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.list(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY last_name, first_name LIMIT $1`, limit)
	}

	term := "%" + strings.ToLower(query) + "%"
	return r.list(ctx, `
        SELECT `+contactColumns+`
        FROM contacts
        WHERE lower(first_name) LIKE $1
           OR lower(last_name) LIKE $1
           OR lower(first_name || ' ' || last_name) LIKE $1
        ORDER BY last_name, first_name
        LIMIT $2`, term, limit)
}

func (r *ContactRepository) SetOptOut(ctx context.Context, id string, optOut bool) error {
	if !isUUID(id) {
		return appErrors.NewContactNotFound(id)
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE contacts SET opt_out = $1 WHERE id = $2`, optOut, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErrors.NewContactNotFound(id)
	}
	return nil
}

func (r *ContactRepository) list(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
