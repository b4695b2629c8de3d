// internal/model/message.go
package model

import "time"

type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

func (d Direction) Valid() bool {
	return d == Inbound || d == Outbound
}

// Message is one SMS in a contact's conversation. Rows are never updated.
type Message struct {
	ID         string    `db:"id" json:"id"`
	CampaignID *string   `db:"campaign_id" json:"campaign_id,omitempty"`
	ContactID  string    `db:"contact_id" json:"contact_id"`
	Direction  Direction `db:"direction" json:"direction"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SmsMessage is the sms_queue payload.
type SmsMessage struct {
	ContactID  string      `json:"contact_id"`
	CampaignID *string     `json:"campaign_id,omitempty"`
	Phone      string      `json:"phone"`
	Message    string      `json:"message"`
	Customer   CustomerRef `json:"customer"`
	Direction  Direction   `json:"direction"`
	Timestamp  time.Time   `json:"timestamp"`
}

// AgentRequest is the agent_queue payload, one per inbound SMS.
type AgentRequest struct {
	ContactID        string      `json:"contact_id"`
	CampaignID       *string     `json:"campaign_id,omitempty"`
	InboundMessageID string      `json:"inbound_message_id"`
	Phone            string      `json:"phone"`
	Message          string      `json:"message"`
	Customer         CustomerRef `json:"customer"`
	Timestamp        time.Time   `json:"timestamp"`
}
