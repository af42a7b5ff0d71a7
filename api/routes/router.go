package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brieflyhq/briefly-backend/api/controllers"
	webhookcontrollers "github.com/brieflyhq/briefly-backend/api/controllers/webhooks"
	"github.com/brieflyhq/briefly-backend/api/middleware"
	"github.com/brieflyhq/briefly-backend/internal/auth"
	"github.com/brieflyhq/briefly-backend/internal/contact"
	"github.com/brieflyhq/briefly-backend/internal/payments"
	"github.com/brieflyhq/briefly-backend/internal/summaries"
	"github.com/brieflyhq/briefly-backend/internal/users"
	"github.com/brieflyhq/briefly-backend/pkg/auth/session"
	"github.com/brieflyhq/briefly-backend/pkg/config"
	"github.com/brieflyhq/briefly-backend/pkg/db"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
	"github.com/brieflyhq/briefly-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	registry *prometheus.Registry,
	authService auth.Service,
	registerService auth.RegisterService,
	profileService users.ProfileService,
	summariesService summaries.Service,
	paymentsService payments.Service,
	contactService contact.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(paymentsService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(registerService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
	})

	r.With(
		middleware.OptionalAuth(cfg.JWT, sessionManager, logg),
		middleware.Idempotency(redisClient, logg),
	).Post("/api/v1/contact", controllers.ContactSubmit(contactService, logg))

	r.With(middleware.OptionalAuth(cfg.JWT, sessionManager, logg)).
		Get("/api/v1/summaries/recent", controllers.SummaryRecent(summariesService, logg))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/v1/summaries", func(r chi.Router) {
			r.Post("/", controllers.Summarize(summariesService, logg))
			r.Get("/history", controllers.SummaryHistory(summariesService, logg))
			r.Get("/{id}", controllers.SummaryGet(summariesService, logg))
			r.Delete("/{id}", controllers.SummaryDelete(summariesService, logg))
		})

		r.Route("/v1/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(profileService, logg))
			r.Put("/", controllers.ProfileUpdate(profileService, logg))
		})

		r.Route("/v1/payments", func(r chi.Router) {
			r.Post("/create-order", controllers.PaymentCreateOrder(paymentsService, logg))
			r.Post("/verify", controllers.PaymentVerify(paymentsService, logg))
		})
	})

	return r
}
