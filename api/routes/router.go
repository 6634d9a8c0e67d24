package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aweme-labs/aweme-backend/api/controllers"
	billingcontrollers "github.com/aweme-labs/aweme-backend/api/controllers/billing"
	webhookcontrollers "github.com/aweme-labs/aweme-backend/api/controllers/webhooks"
	"github.com/aweme-labs/aweme-backend/api/middleware"
	"github.com/aweme-labs/aweme-backend/internal/auth"
	"github.com/aweme-labs/aweme-backend/internal/users"
	stripewebhook "github.com/aweme-labs/aweme-backend/internal/webhooks/stripe"
	"github.com/aweme-labs/aweme-backend/pkg/config"
	"github.com/aweme-labs/aweme-backend/pkg/logger"
	"github.com/aweme-labs/aweme-backend/pkg/metrics"
	"github.com/aweme-labs/aweme-backend/pkg/redis"
	"github.com/aweme-labs/aweme-backend/pkg/stripe"
)

type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       controllers.Pinger
	RedisClient    *redis.Client
	AuthService    auth.Service
	UserRepo       users.Repository
	BillingService billingcontrollers.CheckoutService
	StripeClient   *stripe.Client
	WebhookService *stripewebhook.Service
	WebhookGuard   *stripewebhook.IdempotencyGuard
	WebhookMetrics *metrics.WebhookMetrics
	PromGatherer   prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	oauthPolicy := middleware.NewAuthRateLimitPolicy(
		"oauth",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DBPinger, params.RedisClient, logg))
	})

	if params.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.PromGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(params.WebhookService, params.StripeClient, params.WebhookGuard, params.WebhookMetrics, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		limited := r.With(middleware.AuthRateLimit(oauthPolicy, params.RedisClient, logg))
		limited.Post("/oauth", controllers.AuthOAuthLogin(params.AuthService, logg))
		limited.Post("/register", controllers.AuthRegister(params.AuthService, logg))
		limited.Post("/login", controllers.AuthLogin(params.AuthService, logg))
	})

	r.Get("/api/v1/billing/plans", billingcontrollers.ListPlans(params.BillingService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/users/me", controllers.UserProfile(params.UserRepo, logg))

		r.Route("/billing", func(r chi.Router) {
			r.Post("/checkout-session", billingcontrollers.CreateCheckoutSession(params.BillingService, logg))
			r.Get("/credits", billingcontrollers.GetCredits(params.BillingService, logg))
		})
	})

	return r
}
