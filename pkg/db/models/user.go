package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. Accounts arrive either
// through OAuth provider login or through email registration; only the
// latter stores a password hash.
type User struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email             string     `gorm:"type:text;not null;uniqueIndex"`
	UserName          *string    `gorm:"column:user_name;uniqueIndex"`
	NickName          *string    `gorm:"column:nick_name"`
	BirthYear         *int       `gorm:"column:birth_year"`
	Gender            *int       `gorm:"column:gender"`
	Provider          string     `gorm:"column:provider;not null"`
	ProviderID        string     `gorm:"column:provider_id;not null"`
	PasswordHash      *string    `gorm:"column:password_hash"`
	ProviderAvatarURL *string    `gorm:"column:provider_avatar_url"`
	LastLoginAt       *time.Time `gorm:"column:last_login_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
