package billing

import (
	"context"
	"errors"

	"github.com/aweme-labs/aweme-backend/pkg/db/models"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository manages persistence for user billing records. Mutating
// callers are expected to run inside a transaction (WithTx) so the
// FOR UPDATE row locks serialize concurrent event deliveries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreateByUserID(ctx context.Context, userID uuid.UUID) (*models.UserBilling, error)
	FindByCustomerID(ctx context.Context, customerID string) (*models.UserBilling, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserBilling, error)
	Save(ctx context.Context, record *models.UserBilling) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetOrCreateByUserID loads the user's billing record under a row lock,
// inserting the zero-credit record on first touch.
func (r *repository) GetOrCreateByUserID(ctx context.Context, userID uuid.UUID) (*models.UserBilling, error) {
	var record models.UserBilling
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&record).Error
	if err == nil {
		return &record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record = models.UserBilling{UserID: userID}
	if createErr := r.db.WithContext(ctx).Create(&record).Error; createErr != nil {
		// A concurrent first touch may have inserted the row already.
		var existing models.UserBilling
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&existing).Error
		if err != nil {
			return nil, createErr
		}
		return &existing, nil
	}
	return &record, nil
}

// FindByCustomerID resolves the record linked to a provider customer id
// under a row lock. Webhook handling fails here when the customer was
// never linked through checkout-session creation.
func (r *repository) FindByCustomerID(ctx context.Context, customerID string) (*models.UserBilling, error) {
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	var record models.UserBilling
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stripe_customer_id = ?", customerID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no billing record for customer "+customerID)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByUserID is the lock-free read used by the credits query path.
func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.UserBilling, error) {
	var record models.UserBilling
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no billing record for user "+userID.String())
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save persists the whole record computed by the state machine.
func (r *repository) Save(ctx context.Context, record *models.UserBilling) error {
	if record == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "billing record is required")
	}
	if record.Credits < 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "credits may not go negative")
	}
	return r.db.WithContext(ctx).Save(record).Error
}
