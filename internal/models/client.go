package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ClientType string

const (
	ClientIndividual ClientType = "individual"
	ClientCompany    ClientType = "company"
)

// Client is a natural or legal person the practice works for.
// Clients are soft-deleted only.
type Client struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Type       ClientType     `gorm:"size:20;not null;default:individual" json:"type"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	NationalID string         `gorm:"size:32;uniqueIndex;not null" json:"national_id"` // NIK or NIB
	TaxID      string         `gorm:"size:32" json:"tax_id,omitempty"`                  // NPWP
	Phone      string         `gorm:"size:50" json:"phone,omitempty"`
	Email      string         `gorm:"size:255" json:"email,omitempty"`
	Address    string         `gorm:"size:500" json:"address,omitempty"`
	Notes      string         `gorm:"type:text" json:"notes,omitempty"`
}

func (c *Client) AuditSubjectType() string { return "client" }
func (c *Client) AuditSubjectID() uint     { return c.ID }

func (c *Client) AuditDescription(event string) string {
	return fmt.Sprintf("Client %s was %s", c.Name, event)
}
