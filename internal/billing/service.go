package billing

import (
	"context"
	"time"

	"github.com/aweme-labs/aweme-backend/pkg/config"
	"github.com/aweme-labs/aweme-backend/pkg/db/models"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

// StripeCheckoutClient is the slice of provider operations the checkout
// flow needs.
type StripeCheckoutClient interface {
	CreateCustomer(ctx context.Context, email, userID string) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (*stripe.CheckoutSession, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Catalog           Catalog
	Repo              Repository
	Users             userFinder
	StripeClient      StripeCheckoutClient
	TransactionRunner txRunner
	StripeConfig      config.StripeConfig
}

// Service owns checkout-session creation and the credits query. All
// ledger mutations from provider events live in the webhook service;
// this side only links customers and reads.
type Service struct {
	catalog   Catalog
	repo      Repository
	users     userFinder
	stripe    StripeCheckoutClient
	txRunner  txRunner
	stripeCfg config.StripeConfig
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		catalog:   params.Catalog,
		repo:      params.Repo,
		users:     params.Users,
		stripe:    params.StripeClient,
		txRunner:  params.TransactionRunner,
		stripeCfg: params.StripeConfig,
		now:       time.Now,
	}, nil
}

// CreateCheckoutSession opens a provider checkout for the requested plan.
// This is the only path that creates a billing record on demand and the
// only path that creates and links a provider-side customer; webhooks
// later find the record through that linkage. The customer creation call
// deliberately runs while the billing row lock is held, so a webhook for
// the same user can stall for up to the provider call timeout; the lock
// is what prevents two first checkouts from linking two customers.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, planKey string) (CheckoutSessionResult, error) {
	plan, err := s.catalog.PlanByKey(planKey)
	if err != nil {
		return CheckoutSessionResult{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return CheckoutSessionResult{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
	}

	var customerID string
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return err
		}

		if record.StripeCustomerID != nil && *record.StripeCustomerID != "" {
			customerID = *record.StripeCustomerID
			return nil
		}

		// The row lock from GetOrCreate holds until commit, so two
		// concurrent first checkouts cannot both create a customer.
		created, err := s.stripe.CreateCustomer(ctx, user.Email, userID.String())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "create stripe customer")
		}
		record.StripeCustomerID = &created.ID
		if err := repo.Save(ctx, record); err != nil {
			return err
		}
		customerID = created.ID
		return nil
	})
	if err != nil {
		return CheckoutSessionResult{}, err
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, customerID, plan.PriceID, s.stripeCfg.CheckoutSuccessURL, s.stripeCfg.CheckoutCancelURL)
	if err != nil {
		return CheckoutSessionResult{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "create checkout session")
	}
	if session == nil || session.URL == "" {
		return CheckoutSessionResult{}, pkgerrors.New(pkgerrors.CodeUpstream, "checkout session missing redirect url")
	}

	return CheckoutSessionResult{URL: session.URL}, nil
}

// GetCredits returns the user's current credit state. A user who never
// touched billing gets the zero summary; nothing is created or written
// on this path.
func (s *Service) GetCredits(ctx context.Context, userID uuid.UUID) (CreditsSummary, error) {
	record, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return CreditsSummary{}, nil
		}
		return CreditsSummary{}, err
	}
	return summaryFromRecord(record, s.now()), nil
}

// EnsureRecord creates the billing record for a new user inside the
// caller's transaction. Registration is the other lazy-creation point
// besides checkout.
func (s *Service) EnsureRecord(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	_, err := s.repo.WithTx(tx).GetOrCreateByUserID(ctx, userID)
	return err
}

// ListPlans exposes the catalog for the public plan listing.
func (s *Service) ListPlans() []PlanSummary {
	plans := s.catalog.Plans()
	out := make([]PlanSummary, 0, len(plans))
	for _, plan := range plans {
		out = append(out, PlanSummary{
			Key:             plan.Key,
			DisplayName:     plan.DisplayName,
			Credits:         plan.Credits,
			MonthlyPriceUSD: plan.MonthlyPrice,
		})
	}
	return out
}
