package billing

import (
	"net/http"

	"github.com/aweme-labs/aweme-backend/api/responses"
	billingsvc "github.com/aweme-labs/aweme-backend/internal/billing"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/aweme-labs/aweme-backend/pkg/logger"
)

type planListResponse struct {
	Plans []billingsvc.PlanSummary `json:"plans"`
}

// ListPlans exposes the configured plan catalog. Public, no auth.
func ListPlans(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}
		responses.WriteSuccess(w, "plans", planListResponse{Plans: svc.ListPlans()})
	}
}
