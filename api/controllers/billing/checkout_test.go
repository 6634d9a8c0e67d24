package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aweme-labs/aweme-backend/api/middleware"
	billingsvc "github.com/aweme-labs/aweme-backend/internal/billing"
	pkgerrors "github.com/aweme-labs/aweme-backend/pkg/errors"
	"github.com/aweme-labs/aweme-backend/pkg/types"
	"github.com/google/uuid"
)

type fakeCheckoutService struct {
	sessionResult billingsvc.CheckoutSessionResult
	sessionErr    error
	lastPlanKey   string
	credits       billingsvc.CreditsSummary
	plans         []billingsvc.PlanSummary
}

func (f *fakeCheckoutService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, planKey string) (billingsvc.CheckoutSessionResult, error) {
	f.lastPlanKey = planKey
	if f.sessionErr != nil {
		return billingsvc.CheckoutSessionResult{}, f.sessionErr
	}
	return f.sessionResult, nil
}

func (f *fakeCheckoutService) GetCredits(ctx context.Context, userID uuid.UUID) (billingsvc.CreditsSummary, error) {
	return f.credits, nil
}

func (f *fakeCheckoutService) ListPlans() []billingsvc.PlanSummary {
	return f.plans
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	return req.WithContext(ctx)
}

func TestCreateCheckoutSessionReturnsURL(t *testing.T) {
	svc := &fakeCheckoutService{
		sessionResult: billingsvc.CheckoutSessionResult{URL: "https://checkout.stripe.com/s/abc"},
	}
	handler := CreateCheckoutSession(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/billing/checkout-session", `{"plan_type":"BASIC_MONTHLY"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.lastPlanKey != "BASIC_MONTHLY" {
		t.Fatalf("plan key not forwarded, got %q", svc.lastPlanKey)
	}

	var envelope types.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Code != types.CodeOK {
		t.Fatalf("expected code 0, got %d", envelope.Code)
	}
	data := envelope.Data.(map[string]any)
	if data["url"] != "https://checkout.stripe.com/s/abc" {
		t.Fatalf("unexpected url %v", data["url"])
	}
}

func TestCreateCheckoutSessionRequiresAuthContext(t *testing.T) {
	handler := CreateCheckoutSession(&fakeCheckoutService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout-session", strings.NewReader(`{"plan_type":"BASIC_MONTHLY"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without subject, got %d", rec.Code)
	}
}

func TestCreateCheckoutSessionValidatesBody(t *testing.T) {
	handler := CreateCheckoutSession(&fakeCheckoutService{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/billing/checkout-session", `{}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing plan_type, got %d", rec.Code)
	}
}

func TestCreateCheckoutSessionMapsServiceError(t *testing.T) {
	svc := &fakeCheckoutService{
		sessionErr: pkgerrors.New(pkgerrors.CodeValidation, `unknown plan type "ULTIMATE"`),
	}
	handler := CreateCheckoutSession(svc, nil)

	req := authedRequest(http.MethodPost, "/api/v1/billing/checkout-session", `{"plan_type":"ULTIMATE"}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var envelope types.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Code == types.CodeOK {
		t.Fatalf("expected nonzero envelope code")
	}
}

func TestGetCreditsReturnsSummary(t *testing.T) {
	planType := "BASIC"
	start := "2026-08-01"
	end := "2026-09-01"
	svc := &fakeCheckoutService{
		credits: billingsvc.CreditsSummary{
			Credits:           150,
			HasSubscription:   true,
			PlanType:          &planType,
			SubscriptionStart: &start,
			SubscriptionEnd:   &end,
		},
	}
	handler := GetCredits(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/billing/credits", "")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope types.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data := envelope.Data.(map[string]any)
	if data["credits"].(float64) != 150 {
		t.Fatalf("unexpected credits %v", data["credits"])
	}
	if data["subscription_end_time"] != "2026-09-01" {
		t.Fatalf("unexpected end date %v", data["subscription_end_time"])
	}
}

func TestListPlansPublic(t *testing.T) {
	svc := &fakeCheckoutService{
		plans: []billingsvc.PlanSummary{
			{Key: "BASIC_MONTHLY", DisplayName: "BASIC", Credits: 100},
			{Key: "PRO_MONTHLY", DisplayName: "PRO", Credits: 1000},
		},
	}
	handler := ListPlans(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/plans", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope types.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	data := envelope.Data.(map[string]any)
	plans := data["plans"].([]any)
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
}
