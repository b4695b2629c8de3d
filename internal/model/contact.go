// internal/model/contact.go
package model

import "fmt"

// Contact is one recall subject.
type Contact struct {
	ID         string `db:"id" json:"id"`
	CampaignID string `db:"campaign_id" json:"campaign_id"`
	Phone      string `db:"phone" json:"phone"`
	FirstName  string `db:"first_name" json:"first_name"`
	LastName   string `db:"last_name" json:"last_name"`
	VIN        string `db:"vin" json:"vin"`
	Year       int    `db:"year" json:"year"`
	Make       string `db:"make" json:"make"`
	Model      string `db:"model" json:"model"`
	RecallCode string `db:"recall_code" json:"recall_code"`
	RecallDesc string `db:"recall_desc" json:"recall_desc"`
	Language   string `db:"language" json:"language"`
	OptOut     bool   `db:"opt_out" json:"opt_out"`
}

func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Vehicle renders "2019 Honda Civic"; model is optional.
func (c *Contact) Vehicle() string {
	if c.Model == "" {
		return fmt.Sprintf("%d %s", c.Year, c.Make)
	}
	return fmt.Sprintf("%d %s %s", c.Year, c.Make, c.Model)
}

// CustomerRef is the customer block carried on queue payloads.
type CustomerRef struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	VIN       string `json:"vin"`
}

func (c *Contact) Ref() CustomerRef {
	return CustomerRef{FirstName: c.FirstName, LastName: c.LastName, VIN: c.VIN}
}
