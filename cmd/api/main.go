package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/samiralkaabi/garagehub-backend/api/routes"
	"github.com/samiralkaabi/garagehub-backend/internal/audit"
	"github.com/samiralkaabi/garagehub-backend/internal/branches"
	"github.com/samiralkaabi/garagehub-backend/internal/jobs"
	"github.com/samiralkaabi/garagehub-backend/internal/notifications"
	"github.com/samiralkaabi/garagehub-backend/internal/payments"
	"github.com/samiralkaabi/garagehub-backend/internal/rfq"
	"github.com/samiralkaabi/garagehub-backend/internal/sequence"
	"github.com/samiralkaabi/garagehub-backend/internal/users"
	"github.com/samiralkaabi/garagehub-backend/internal/vehicles"
	stripewebhook "github.com/samiralkaabi/garagehub-backend/internal/webhooks/stripe"
	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/migrate"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
	"github.com/samiralkaabi/garagehub-backend/pkg/redis"
	"github.com/samiralkaabi/garagehub-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	requireResource(ctx, logg, "stripe", err)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	vehiclesRepo := vehicles.NewRepository(gormDB)
	branchesRepo := branches.NewRepository(gormDB)
	jobsRepo := jobs.NewRepository(gormDB)
	rfqRepo := rfq.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)

	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	auditRepo := audit.NewRepository(gormDB)
	auditRecorder, err := audit.NewRecorder(logg)
	requireResource(ctx, logg, "audit recorder", err)
	numbers := sequence.NewGenerator()

	usersService, err := users.NewService(usersRepo, redisClient, cfg.JWT, cfg.Password)
	requireResource(ctx, logg, "users service", err)

	vehiclesService, err := vehicles.NewService(vehiclesRepo)
	requireResource(ctx, logg, "vehicles service", err)

	jobsService, err := jobs.NewService(jobs.ServiceParams{
		Repo:     jobsRepo,
		Vehicles: vehiclesRepo,
		Branches: branchesRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Audit:    auditRecorder,
		Numbers:  numbers,
		Logger:   logg,
	})
	requireResource(ctx, logg, "jobs service", err)

	rfqService, err := rfq.NewService(rfq.ServiceParams{
		Repo:    rfqRepo,
		JobRepo: jobsRepo,
		Vendors: usersRepo,
		Tx:      dbClient,
		Outbox:  outboxService,
		Audit:   auditRecorder,
		Numbers: numbers,
		Config:  cfg.RFQ,
		Logger:  logg,
	})
	requireResource(ctx, logg, "rfq service", err)

	paymentsService, err := payments.NewService(payments.ServiceParams{
		Repo:     paymentsRepo,
		JobRepo:  jobsRepo,
		Tx:       dbClient,
		Outbox:   outboxService,
		Audit:    auditRecorder,
		Numbers:  numbers,
		Checkout: payments.NewCheckoutClient(stripeClient),
		Billing:  cfg.Billing,
		BaseURL:  cfg.App.BaseURL,
		Logger:   logg,
	})
	requireResource(ctx, logg, "payments service", err)

	notificationsService, err := notifications.NewService(notificationsRepo, logg)
	requireResource(ctx, logg, "notifications service", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Payments: paymentsService,
		Logger:   logg,
	})
	requireResource(ctx, logg, "stripe webhook service", err)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe")
	requireResource(ctx, logg, "stripe webhook guard", err)

	handler := routes.NewRouter(routes.Deps{
		Config:             cfg,
		Logger:             logg,
		DBPinger:           dbClient,
		RedisPinger:        redisClient,
		RateLimitStore:     redisClient,
		UsersService:       usersService,
		VehiclesService:    vehiclesService,
		BranchesRepo:       branchesRepo,
		AuditRepo:          auditRepo,
		JobsService:        jobsService,
		RFQService:         rfqService,
		PaymentsService:    paymentsService,
		NotificationsSvc:   notificationsService,
		StripeClient:       stripeClient,
		StripeWebhookSvc:   webhookService,
		StripeWebhookGuard: webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown error", err)
			os.Exit(1)
		}
		logg.Info(runCtx, "api server shut down gracefully")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
