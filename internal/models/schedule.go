package models

import "time"

// Schedule is an agenda entry (signing, site visit, meeting).
type Schedule struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Location    string     `gorm:"size:255" json:"location,omitempty"`
	StartsAt    time.Time  `gorm:"index;not null" json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	OrderID     *uint      `gorm:"index" json:"order_id,omitempty"`
	ClientID    *uint      `gorm:"index" json:"client_id,omitempty"`
	CreatedByID *uint      `json:"created_by_id,omitempty"`
}
