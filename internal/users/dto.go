package users

import (
	"time"

	"github.com/aweme-labs/aweme-backend/pkg/db/models"
	"github.com/google/uuid"
)

// UserDTO is the transport shape of a user profile.
type UserDTO struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	UserName          *string    `json:"user_name,omitempty"`
	NickName          *string    `json:"nick_name,omitempty"`
	BirthYear         *int       `json:"birth_year,omitempty"`
	Gender            *int       `json:"gender,omitempty"`
	Provider          string     `json:"provider"`
	ProviderAvatarURL *string    `json:"provider_avatar_url,omitempty"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new
// user. OAuth signups carry provider fields; email signups carry the
// password hash instead.
type CreateUserDTO struct {
	Email             string
	NickName          *string
	Provider          string
	ProviderID        string
	ProviderAvatarURL *string
	PasswordHash      *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:                u.ID,
		Email:             u.Email,
		UserName:          u.UserName,
		NickName:          u.NickName,
		BirthYear:         u.BirthYear,
		Gender:            u.Gender,
		Provider:          u.Provider,
		ProviderAvatarURL: u.ProviderAvatarURL,
		LastLoginAt:       u.LastLoginAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:             c.Email,
		NickName:          c.NickName,
		Provider:          c.Provider,
		ProviderID:        c.ProviderID,
		ProviderAvatarURL: c.ProviderAvatarURL,
		PasswordHash:      c.PasswordHash,
	}
}
