package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
	RoleBos        Role = "bos" // owner, read-only oversight
)

// Roles lists every valid role.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleStaff, RoleBos}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an authenticated user in the system.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:255" json:"name,omitempty"`
	Password  string         `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	Role      Role           `gorm:"size:20;not null;default:staff" json:"role"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
}

func (u *User) AuditSubjectType() string { return "user" }
func (u *User) AuditSubjectID() uint     { return u.ID }

func (u *User) AuditDescription(event string) string {
	return fmt.Sprintf("User %s was %s", u.Email, event)
}
