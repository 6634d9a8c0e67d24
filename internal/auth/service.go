package auth

import (
	"context"
	"strings"
	"time"

	"github.com/aweme-labs/aweme-backend/internal/users"
	pkgAuth "github.com/aweme-labs/aweme-backend/pkg/auth"
	"github.com/aweme-labs/aweme-backend/pkg/config"
	"github.com/aweme-labs/aweme-backend/pkg/db/models"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/aweme-labs/aweme-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// providerEmail marks accounts created through password registration
// rather than an OAuth handshake.
const providerEmail = "email"

// invalidCredentialsMessage keeps login failures indistinguishable
// between unknown email and wrong password.
const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	OAuthLogin(ctx context.Context, req OAuthLoginRequest) (*OAuthLoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type billingProvisioner interface {
	EnsureRecord(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo          users.Repository
	Billing           billingProvisioner
	TransactionRunner txRunner
	JWTConfig         config.JWTConfig
	PasswordConfig    config.PasswordConfig
}

type service struct {
	users       users.Repository
	billing     billingProvisioner
	txRunner    txRunner
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	if params.Billing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing provisioner required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{
		users:       params.UserRepo,
		billing:     params.Billing,
		txRunner:    params.TransactionRunner,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         time.Now,
	}, nil
}

// OAuthLogin upserts the account for a verified provider identity. First
// login creates the user and their empty billing record in one
// transaction; every login refreshes last_login_at and mints a token.
func (s *service) OAuthLogin(ctx context.Context, req OAuthLoginRequest) (*OAuthLoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	var user *models.User
	isNew := false
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		existing, err := repo.FindByEmail(ctx, email)
		if err == nil {
			if existing.Provider != req.Provider || existing.ProviderID != req.ProviderID {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already linked to another provider identity")
			}
			user = existing
			return nil
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}

		created, err := repo.Create(ctx, users.CreateUserDTO{
			Email:             email,
			NickName:          req.NickName,
			Provider:          req.Provider,
			ProviderID:        req.ProviderID,
			ProviderAvatarURL: req.AvatarURL,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		if err := s.billing.EnsureRecord(ctx, tx, created.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision billing record")
		}
		user = created
		isNew = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &OAuthLoginResponse{
		AccessToken: accessToken,
		IsNewUser:   isNew,
		User:        users.FromModel(user),
	}, nil
}

// Register creates a password-backed account. The Argon2id hash is
// computed before the transaction opens; the user and their empty
// billing record are created together, then a token is minted.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}

		created, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			NickName:     req.NickName,
			Provider:     providerEmail,
			PasswordHash: &hash,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		if err := s.billing.EnsureRecord(ctx, tx, created.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "provision billing record")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: accessToken,
		User:        users.FromModel(user),
	}, nil
}

// Login authenticates an email-registered account. Unknown email,
// OAuth-only account and wrong password all answer with the same
// unauthorized message.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, *user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	accessToken, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: accessToken,
		User:        users.FromModel(user),
	}, nil
}

// issueToken refreshes last_login_at and mints the access token.
func (s *service) issueToken(ctx context.Context, user *models.User) (string, error) {
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return accessToken, nil
}
