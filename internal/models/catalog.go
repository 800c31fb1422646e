package models

import "time"

// ServiceTypeSlugPPAT identifies land-deed services that carry an OrderTypeDetail.
const ServiceTypeSlugPPAT = "ppat"

type ServiceType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	Services    []Service `json:"services,omitempty"`
}

type Service struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	ServiceTypeID uint         `gorm:"index;not null" json:"service_type_id"`
	ServiceType   *ServiceType `json:"service_type,omitempty"`
	Name          string       `gorm:"size:255;not null" json:"name"`
	DefaultPrice  int64        `gorm:"not null;default:0" json:"default_price"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
}

// IsPPAT reports whether the service's type is the PPAT category.
// ServiceType must be loaded.
func (s *Service) IsPPAT() bool {
	return s.ServiceType != nil && s.ServiceType.Slug == ServiceTypeSlugPPAT
}
