package auth

import "github.com/aweme-labs/aweme-backend/internal/users"

// OAuthLoginRequest is the payload sent after the client completes the
// provider handshake and verifies the identity token.
type OAuthLoginRequest struct {
	Provider   string  `json:"provider" validate:"required,oneof=google apple kakao"`
	ProviderID string  `json:"provider_id" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	NickName   *string `json:"nick_name,omitempty"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
}

// OAuthLoginResponse carries the minted access token and the profile.
type OAuthLoginResponse struct {
	AccessToken string         `json:"access_token"`
	IsNewUser   bool           `json:"is_new_user"`
	User        *users.UserDTO `json:"user"`
}

// RegisterRequest captures the credentials for an email signup.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	NickName *string `json:"nick_name,omitempty"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the minted access token and the profile for
// password-based flows.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	User        *users.UserDTO `json:"user"`
}
