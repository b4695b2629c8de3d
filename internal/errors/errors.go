// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is returned when a campaign id has no row.
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// NewCampaignNotFound is a helper constructor.
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrContactNotFound is returned when a contact id has no row.
type ErrContactNotFound struct {
	ContactID string
}

func (e *ErrContactNotFound) Error() string {
	return fmt.Sprintf("contact with ID %s not found", e.ContactID)
}

func NewContactNotFound(id string) error {
	return &ErrContactNotFound{ContactID: id}
}

// IsNotFound reports whether err is one of the typed not-found errors.
func IsNotFound(err error) bool {
	var campaignErr *ErrCampaignNotFound
	var contactErr *ErrContactNotFound
	return errors.As(err, &campaignErr) || errors.As(err, &contactErr)
}

var (
	// ErrSlotTaken means another appointment already holds the requested hour.
	ErrSlotTaken = errors.New("time slot already booked")

	// ErrAppointmentNotCreated means the insert finished without returning a row.
	ErrAppointmentNotCreated = errors.New("appointment not created")

	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidCSV wraps every row/header problem found during ingestion.
	ErrInvalidCSV = errors.New("invalid csv")
)

// ValidationError carries a user-facing validation message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err should be surfaced to a client as a bad request.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v) || errors.Is(err, ErrInvalidDate) || errors.Is(err, ErrInvalidCSV)
}
