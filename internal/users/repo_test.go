package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aweme-labs/aweme-backend/pkg/db/models"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  user_name TEXT UNIQUE,
  nick_name TEXT,
  birth_year INTEGER,
  gender INTEGER,
  provider TEXT NOT NULL,
  provider_id TEXT NOT NULL,
  password_hash TEXT,
  provider_avatar_url TEXT,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(users).Error)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	nick := "gopher"
	user := &models.User{
		ID:         uuid.New(),
		Email:      email,
		NickName:   &nick,
		Provider:   "google",
		ProviderID: "goog-" + uuid.NewString(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestFindByEmail(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	seeded := seedUser(t, db, "finder@example.com")

	found, err := repo.FindByEmail(context.Background(), "finder@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "google", found.Provider)

	_, err = repo.FindByEmail(context.Background(), "missing@example.com")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestFindByID(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	seeded := seedUser(t, db, "byid@example.com")

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, seeded.Email, found.Email)

	_, err = repo.FindByID(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateLastLogin(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	seeded := seedUser(t, db, "login@example.com")
	require.Nil(t, seeded.LastLoginAt)

	at := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(context.Background(), seeded.ID, at))

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(at))
}
