package billing

import (
	"time"

	"github.com/aweme-labs/aweme-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CreditsSummary is the credits-query payload. Dates are formatted
// YYYY-MM-DD; the lapse override is applied before mapping.
type CreditsSummary struct {
	Credits           int     `json:"credits"`
	HasSubscription   bool    `json:"has_subscription"`
	CancelAtEndTime   bool    `json:"cancel_at_end_time"`
	PlanType          *string `json:"plan_type"`
	SubscriptionStart *string `json:"subscription_start_time"`
	SubscriptionEnd   *string `json:"subscription_end_time"`
}

// PlanSummary is the public plan-listing payload.
type PlanSummary struct {
	Key             string          `json:"key"`
	DisplayName     string          `json:"display_name"`
	Credits         int             `json:"credits"`
	MonthlyPriceUSD decimal.Decimal `json:"monthly_price_usd"`
}

// CheckoutSessionResult carries the provider redirect for a new checkout.
type CheckoutSessionResult struct {
	URL string `json:"url"`
}

func summaryFromRecord(record *models.UserBilling, now time.Time) CreditsSummary {
	if record == nil {
		return CreditsSummary{}
	}

	summary := CreditsSummary{
		Credits:         record.Credits,
		HasSubscription: record.HasSubscription,
		CancelAtEndTime: record.CancelAtEndTime,
		PlanType:        record.PlanType,
	}

	if record.SubscriptionStart != nil {
		start := record.SubscriptionStart.Format(dateLayout)
		summary.SubscriptionStart = &start
	}
	if record.SubscriptionEnd != nil {
		end := record.SubscriptionEnd.Format(dateLayout)
		summary.SubscriptionEnd = &end

		// Read-time override only: a lapsed period reports no active
		// subscription without writing the stored record.
		if record.SubscriptionEnd.Before(now) {
			summary.HasSubscription = false
		}
	}

	return summary
}
