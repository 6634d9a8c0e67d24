package billing

import (
	"context"
	"net/http"

	"github.com/aweme-labs/aweme-backend/api/middleware"
	"github.com/aweme-labs/aweme-backend/api/responses"
	"github.com/aweme-labs/aweme-backend/api/validators"
	billingsvc "github.com/aweme-labs/aweme-backend/internal/billing"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/aweme-labs/aweme-backend/pkg/logger"
	"github.com/google/uuid"
)

// CheckoutService describes the billing operations used by the HTTP controllers.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, planKey string) (billingsvc.CheckoutSessionResult, error)
	GetCredits(ctx context.Context, userID uuid.UUID) (billingsvc.CreditsSummary, error)
	ListPlans() []billingsvc.PlanSummary
}

type checkoutSessionRequest struct {
	PlanType string `json:"plan_type" validate:"required"`
}

// CreateCheckoutSession opens a provider checkout for the authenticated user.
func CreateCheckoutSession(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid subject"))
			return
		}

		var body checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.CreateCheckoutSession(ctx, userID, body.PlanType)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, "checkout session created", result)
	}
}
