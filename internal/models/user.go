package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a named dashboard account. Passcode logins (superadmin, society
// admin) and phone logins (worker, member) do not create rows here; accounts
// exist for admins that sign in with email and password.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  string         `gorm:"size:50;not null;uniqueIndex:idx_users_tenant_email" json:"-"`
	Email     string         `gorm:"not null;size:255;uniqueIndex:idx_users_tenant_email" json:"email"`
	Name      string         `gorm:"size:255" json:"name"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"size:20;default:'admin'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
