package models

import (
	"time"

	"github.com/google/uuid"
)

// UserBilling is the per-user credit ledger record. Every field is
// mutated exclusively inside a single transaction per provider event;
// the row is loaded FOR UPDATE so concurrent deliveries serialize.
type UserBilling struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Credits            int        `gorm:"column:credits;not null;default:0"`
	AccumulatedCredits int        `gorm:"column:accumulated_credits;not null;default:0"`
	HasSubscription    bool       `gorm:"column:has_subscription;not null;default:false"`
	PlanType           *string    `gorm:"column:plan_type"`
	SubscriptionStart  *time.Time `gorm:"column:subscription_start_time"`
	SubscriptionEnd    *time.Time `gorm:"column:subscription_end_time"`
	CancelAtEndTime    bool       `gorm:"column:cancel_at_end_time;not null;default:false"`
	StripeCustomerID   *string    `gorm:"column:stripe_customer_id;uniqueIndex"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserBilling) TableName() string {
	return "user_billing"
}
