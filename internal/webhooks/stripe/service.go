package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aweme-labs/aweme-backend/internal/billing"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

const billingReasonSubscriptionCycle = "subscription_cycle"

type subscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Catalog           billing.Catalog
	BillingRepo       billing.Repository
	StripeClient      subscriptionFetcher
	TransactionRunner txRunner
}

// Service applies provider events to the billing record. Each event runs
// in one transaction; the record is loaded FOR UPDATE so concurrent
// deliveries for the same customer apply in some serial order.
type Service struct {
	catalog     billing.Catalog
	billingRepo billing.Repository
	stripe      subscriptionFetcher
	txRunner    txRunner
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		catalog:     params.Catalog,
		billingRepo: params.BillingRepo,
		stripe:      params.StripeClient,
		txRunner:    params.TransactionRunner,
		now:         time.Now,
	}, nil
}

// checkoutSessionPayload carries the fields we read from a
// checkout.session.completed event.
type checkoutSessionPayload struct {
	ID           string `json:"id"`
	Mode         string `json:"mode"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type invoicePayload struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	BillingReason string `json:"billing_reason"`
	Lines         struct {
		Data []invoiceLine `json:"data"`
	} `json:"lines"`
}

// invoiceLine tolerates both line shapes Stripe has shipped: the legacy
// price object and the newer pricing.price_details reference.
type invoiceLine struct {
	Period struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	} `json:"period"`
	Price struct {
		ID string `json:"id"`
	} `json:"price"`
	Pricing struct {
		PriceDetails struct {
			Price string `json:"price"`
		} `json:"price_details"`
	} `json:"pricing"`
}

func (l invoiceLine) priceID() string {
	if l.Price.ID != "" {
		return l.Price.ID
	}
	return l.Pricing.PriceDetails.Price
}

type subscriptionPayload struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// HandleEvent routes a verified event through the transition table.
// Unrecognized event types are acknowledged without mutation.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var payload checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		return s.applyCheckoutCompleted(ctx, payload)
	case stripe.EventTypeInvoicePaymentSucceeded:
		var payload invoicePayload
		if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode invoice event")
		}
		return s.applyInvoicePaid(ctx, payload)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		var payload subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.applySubscriptionDeleted(ctx, payload)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		var payload subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.applySubscriptionUpdated(ctx, payload)
	default:
		return nil
	}
}

// applyCheckoutCompleted grants the first billing period. The plan is
// resolved from the subscription's line item before the transaction
// opens; an unknown price id aborts with no mutation.
func (s *Service) applyCheckoutCompleted(ctx context.Context, payload checkoutSessionPayload) error {
	if payload.Mode != string(stripe.CheckoutSessionModeSubscription) {
		return nil
	}
	if payload.Customer == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session missing customer")
	}
	if payload.Subscription == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session missing subscription")
	}

	sub, err := s.stripe.GetSubscription(ctx, payload.Subscription)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetch subscription detail")
	}
	priceID := subscriptionPriceID(sub)
	if priceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription has no line item price")
	}
	plan, err := s.catalog.ResolvePlan(priceID)
	if err != nil {
		return err
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		record, err := repo.FindByCustomerID(ctx, payload.Customer)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		periodEnd := now.AddDate(0, 1, 0)

		record.HasSubscription = true
		record.PlanType = &plan.DisplayName
		record.Credits += plan.Credits
		record.AccumulatedCredits += plan.Credits
		record.SubscriptionStart = &now
		record.SubscriptionEnd = &periodEnd
		record.CancelAtEndTime = false

		return repo.Save(ctx, record)
	})
}

// applyInvoicePaid grants the renewal cycle. Only subscription_cycle
// invoices mutate the ledger; the first invoice of a new subscription is
// already covered by checkout completion.
func (s *Service) applyInvoicePaid(ctx context.Context, payload invoicePayload) error {
	if payload.BillingReason != billingReasonSubscriptionCycle {
		return nil
	}
	if payload.Customer == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice missing customer")
	}
	if len(payload.Lines.Data) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice has no line items")
	}

	line := payload.Lines.Data[0]
	if line.Period.Start <= 0 || line.Period.End <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invoice line has no usable period")
	}
	plan, err := s.catalog.ResolvePlan(line.priceID())
	if err != nil {
		return err
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		record, err := repo.FindByCustomerID(ctx, payload.Customer)
		if err != nil {
			return err
		}

		start := time.Unix(line.Period.Start, 0).UTC()
		end := time.Unix(line.Period.End, 0).UTC()

		record.HasSubscription = true
		record.Credits += plan.Credits
		record.AccumulatedCredits += plan.Credits
		record.SubscriptionStart = &start
		record.SubscriptionEnd = &end

		return repo.Save(ctx, record)
	})
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, payload subscriptionPayload) error {
	if payload.Customer == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription event missing customer")
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		record, err := repo.FindByCustomerID(ctx, payload.Customer)
		if err != nil {
			return err
		}

		// Credits and period bounds survive deletion; only the active
		// flag flips.
		record.HasSubscription = false

		return repo.Save(ctx, record)
	})
}

func (s *Service) applySubscriptionUpdated(ctx context.Context, payload subscriptionPayload) error {
	if !payload.CancelAtPeriodEnd {
		return nil
	}
	if payload.Customer == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription event missing customer")
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.billingRepo.WithTx(tx)
		record, err := repo.FindByCustomerID(ctx, payload.Customer)
		if err != nil {
			return err
		}

		record.CancelAtEndTime = true

		return repo.Save(ctx, record)
	})
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price != nil {
		return sub.Items.Data[0].Price.ID
	}
	return ""
}
