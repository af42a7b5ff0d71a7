package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brieflyhq/briefly-backend/api/routes"
	"github.com/brieflyhq/briefly-backend/internal/auth"
	"github.com/brieflyhq/briefly-backend/internal/contact"
	"github.com/brieflyhq/briefly-backend/internal/mailer"
	"github.com/brieflyhq/briefly-backend/internal/payments"
	"github.com/brieflyhq/briefly-backend/internal/summaries"
	"github.com/brieflyhq/briefly-backend/internal/summarizer"
	"github.com/brieflyhq/briefly-backend/internal/users"
	"github.com/brieflyhq/briefly-backend/pkg/auth/session"
	"github.com/brieflyhq/briefly-backend/pkg/config"
	"github.com/brieflyhq/briefly-backend/pkg/db"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
	"github.com/brieflyhq/briefly-backend/pkg/metrics"
	"github.com/brieflyhq/briefly-backend/pkg/migrate"
	"github.com/brieflyhq/briefly-backend/pkg/razorpay"
	"github.com/brieflyhq/briefly-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)
	summaryMetrics := metrics.NewSummaryMetrics(registry)

	mailClient := mailer.New(cfg.SMTP, logg)

	gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}

	var generative summarizer.Generative
	if cfg.Gemini.APIKey != "" {
		gemini, err := summarizer.NewGemini(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create gemini client", err)
			os.Exit(1)
		}
		generative = gemini
	} else {
		logg.Warn(context.Background(), "gemini api key missing, summaries fall back to extractive mode")
	}

	userRepo := users.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		SessionManager: sessionManager,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	summariesService, err := summaries.NewService(summaries.ServiceParams{
		Store:      summaries.NewRepository(dbClient.DB()),
		Users:      userRepo,
		Generative: generative,
		Quota:      cfg.Quota,
		Logger:     logg,
		Metrics:    summaryMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create summaries service", err)
		os.Exit(1)
	}

	profileService, err := users.NewProfileService(userRepo, summariesService, cfg.Quota)
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Gateway:  gateway,
		UserRepo: userRepo,
		Mailer:   mailClient,
		Logger:   logg,
		Metrics:  paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	contactService, err := contact.NewService(mailClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create contact service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			registry,
			authService,
			registerService,
			profileService,
			summariesService,
			paymentsService,
			contactService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
