package billing

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

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ledger := `
CREATE TABLE IF NOT EXISTS user_billing (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  credits INTEGER NOT NULL DEFAULT 0,
  accumulated_credits INTEGER NOT NULL DEFAULT 0,
  has_subscription INTEGER NOT NULL DEFAULT 0,
  plan_type TEXT,
  subscription_start_time DATETIME,
  subscription_end_time DATETIME,
  cancel_at_end_time INTEGER NOT NULL DEFAULT 0,
  stripe_customer_id TEXT UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`

	require.NoError(t, db.Exec(ledger).Error)
	return db
}

func seedBillingRecord(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.UserBilling {
	t.Helper()

	record := &models.UserBilling{
		ID:      uuid.New(),
		UserID:  userID,
		Credits: 100,
	}
	require.NoError(t, db.Create(record).Error)
	return record
}

func TestFindByUserID(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	seedBillingRecord(t, db, userID)

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 100, found.Credits)

	_, err = repo.FindByUserID(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestSavePersistsLedgerMutation(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	record := seedBillingRecord(t, db, userID)

	planType := "BASIC"
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	record.Credits = 200
	record.AccumulatedCredits = 200
	record.HasSubscription = true
	record.PlanType = &planType
	record.SubscriptionStart = &start
	record.SubscriptionEnd = &end
	require.NoError(t, repo.Save(context.Background(), record))

	found, err := repo.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 200, found.Credits)
	assert.Equal(t, 200, found.AccumulatedCredits)
	assert.True(t, found.HasSubscription)
	require.NotNil(t, found.PlanType)
	assert.Equal(t, "BASIC", *found.PlanType)
}

func TestSaveRejectsNegativeCredits(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewRepository(db)

	record := seedBillingRecord(t, db, uuid.New())
	record.Credits = -1

	err := repo.Save(context.Background(), record)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInternal, typed.Code())
}

func TestCustomerLookupRequestsRowLock(t *testing.T) {
	db := setupBillingTestDB(t)

	var captured string
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("capture_sql", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	}))

	repo := NewRepository(db)
	// sqlite rejects the locking syntax, which is fine: the assertion is
	// about the SQL the repo asks for, not the sqlite result.
	_, _ = repo.FindByCustomerID(context.Background(), "cus_lock")

	assert.Contains(t, captured, "FOR UPDATE")
}
