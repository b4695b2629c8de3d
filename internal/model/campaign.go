// internal/model/campaign.go
package model

import "time"

// Campaign groups the contacts ingested from one CSV upload.
type Campaign struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FunnelStats splits a campaign's contacts by how far they got.
type FunnelStats struct {
	Sent      int `json:"sent"`
	Delivered int `json:"delivered"`
	Scheduled int `json:"scheduled"`
}
