// internal/model/appointment.go
package model

import "time"

// Appointment is a booked service hour. ScheduledAt is always the top of an hour.
type Appointment struct {
	ID          string    `db:"id" json:"id"`
	CampaignID  *string   `db:"campaign_id" json:"campaign_id,omitempty"`
	ContactID   string    `db:"contact_id" json:"contact_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
}
