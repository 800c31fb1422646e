package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// ActivityLog is one append-only audit entry. A nil CauserID means the system.
type ActivityLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
	Event       string            `gorm:"size:20;not null" json:"event"`
	SubjectType string            `gorm:"size:50;not null;index:idx_activity_subject" json:"subject_type"`
	SubjectID   uint              `gorm:"not null;index:idx_activity_subject" json:"subject_id"`
	CauserID    *uint             `gorm:"index" json:"causer_id,omitempty"`
	Causer      *User             `json:"causer,omitempty"`
	Description string            `gorm:"size:500" json:"description"`
	Attributes  datatypes.JSONMap `json:"attributes,omitempty"`
	Old         datatypes.JSONMap `json:"old,omitempty"`
}

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Company{}, &Client{}, &ServiceType{}, &Service{},
		&Order{}, &OrderTypeDetail{}, &OrderFile{}, &Payment{},
		&Schedule{}, &Expense{}, &ActivityLog{},
	}
}
