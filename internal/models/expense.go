package models

import (
	"fmt"
	"time"
)

type Expense struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	SpentAt      time.Time `gorm:"index;not null" json:"spent_at"`
	Category     string    `gorm:"size:100;not null" json:"category"`
	Description  string    `gorm:"size:500" json:"description,omitempty"`
	Amount       int64     `gorm:"not null" json:"amount"`
	OrderID      *uint     `gorm:"index" json:"order_id,omitempty"`
	RecordedByID *uint     `json:"recorded_by_id,omitempty"`
}

func (e *Expense) AuditSubjectType() string { return "expense" }
func (e *Expense) AuditSubjectID() uint     { return e.ID }

func (e *Expense) AuditDescription(event string) string {
	return fmt.Sprintf("Expense %s (%d) was %s", e.Category, e.Amount, event)
}
