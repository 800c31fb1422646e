package models

import (
	"fmt"
	"time"
)

// Company is the practice's own profile, printed on invoices.
// Exactly one row is expected; use the company service accessor to read it.
type Company struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string `gorm:"size:255;not null" json:"name"`
	OfficialName  string `gorm:"size:255" json:"official_name,omitempty"` // name of the PPAT/notary
	LicenseNumber string `gorm:"size:100" json:"license_number,omitempty"`
	TaxID         string `gorm:"size:32" json:"tax_id,omitempty"`

	Address string `gorm:"size:500" json:"address,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Email   string `gorm:"size:255" json:"email,omitempty"`

	// Bank details for transfers
	BankName        string `gorm:"size:100" json:"bank_name,omitempty"`
	BankAccount     string `gorm:"size:50" json:"bank_account,omitempty"`
	BankAccountName string `gorm:"size:255" json:"bank_account_name,omitempty"`

	InvoiceFooter string `gorm:"size:1000" json:"invoice_footer,omitempty"`
	LogoPath      string `gorm:"size:500" json:"logo_path,omitempty"`
}

func (c *Company) AuditSubjectType() string { return "company" }
func (c *Company) AuditSubjectID() uint     { return c.ID }

func (c *Company) AuditDescription(event string) string {
	return fmt.Sprintf("Company profile %s was %s", c.Name, event)
}
