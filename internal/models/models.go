package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	IsActive     bool      `gorm:"not null;default:true"     json:"is_active"`
	Roles        []Role    `gorm:"many2many:user_roles"      json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"        json:"id"`
	Name        string       `gorm:"uniqueIndex;not null"        json:"name"`
	Permissions []Permission `gorm:"many2many:role_permissions"  json:"permissions,omitempty"`
	Users       []User       `gorm:"many2many:user_roles"        json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Name        string    `gorm:"uniqueIndex;not null"       json:"name"`
	Description string    `json:"description,omitempty"`
	Roles       []Role    `gorm:"many2many:role_permissions" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// BlacklistedToken is a revoked token kept until its natural expiry.
// ExpiresAt is epoch milliseconds; rows do not self-expire and are
// reclaimed by the purge job.
type BlacklistedToken struct {
	ID        uint   `gorm:"primaryKey"           json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt int64  `gorm:"not null"             json:"expires_at"`
}

type AuthLog struct {
	ID        uint       `gorm:"primaryKey"      json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string     `gorm:"not null;index"  json:"action"`
	Details   string     `json:"details,omitempty"`
	IP        string     `json:"ip,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
