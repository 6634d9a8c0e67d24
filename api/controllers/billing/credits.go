package billing

import (
	"net/http"

	"github.com/aweme-labs/aweme-backend/api/middleware"
	"github.com/aweme-labs/aweme-backend/api/responses"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/aweme-labs/aweme-backend/pkg/logger"
	"github.com/google/uuid"
)

// GetCredits returns the authenticated user's current credit state.
func GetCredits(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
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

		summary, err := svc.GetCredits(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, "credits", summary)
	}
}
