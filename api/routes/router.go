package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/samiralkaabi/garagehub-backend/api/controllers"
	jobcontrollers "github.com/samiralkaabi/garagehub-backend/api/controllers/jobs"
	paymentcontrollers "github.com/samiralkaabi/garagehub-backend/api/controllers/payments"
	rfqcontrollers "github.com/samiralkaabi/garagehub-backend/api/controllers/rfqs"
	webhookcontrollers "github.com/samiralkaabi/garagehub-backend/api/controllers/webhooks"
	"github.com/samiralkaabi/garagehub-backend/api/middleware"
	"github.com/samiralkaabi/garagehub-backend/internal/audit"
	"github.com/samiralkaabi/garagehub-backend/internal/branches"
	internaljobs "github.com/samiralkaabi/garagehub-backend/internal/jobs"
	"github.com/samiralkaabi/garagehub-backend/internal/notifications"
	internalpayments "github.com/samiralkaabi/garagehub-backend/internal/payments"
	"github.com/samiralkaabi/garagehub-backend/internal/rfq"
	"github.com/samiralkaabi/garagehub-backend/internal/users"
	"github.com/samiralkaabi/garagehub-backend/internal/vehicles"
	stripewebhook "github.com/samiralkaabi/garagehub-backend/internal/webhooks/stripe"
	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/redis"
	"github.com/samiralkaabi/garagehub-backend/pkg/stripe"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config             *config.Config
	Logger             *logger.Logger
	DBPinger           db.Pinger
	RedisPinger        redis.Pinger
	RateLimitStore     *redis.Client
	UsersService       users.Service
	VehiclesService    vehicles.Service
	BranchesRepo       branches.Repository
	AuditRepo          audit.Repository
	JobsService        internaljobs.Service
	RFQService         rfq.Service
	PaymentsService    internalpayments.Service
	NotificationsSvc   notifications.Service
	StripeClient       *stripe.Client
	StripeWebhookSvc   *stripewebhook.Service
	StripeWebhookGuard *stripewebhook.IdempotencyGuard
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, d.RedisPinger))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/branches", controllers.BranchList(d.BranchesRepo, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhookSvc, d.StripeClient, d.StripeWebhookGuard, logg))
	})

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginMobileLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterMobileLimit,
	)
	throttle := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if d.RateLimitStore == nil {
			return middleware.AuthRateLimit(policy, nil, logg)
		}
		return middleware.AuthRateLimit(policy, d.RateLimitStore, logg)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(throttle(registerPolicy)).Post("/register", controllers.AuthRegister(d.UsersService, logg))
		r.With(throttle(loginPolicy)).Post("/login", controllers.AuthLogin(d.UsersService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.UsersService, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(d.UsersService, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/v1/me", controllers.Me(d.UsersService, logg))

		r.Route("/v1/branches", func(r chi.Router) {
			r.Get("/", controllers.BranchList(d.BranchesRepo, logg))
			r.Get("/{branchId}", controllers.BranchDetail(d.BranchesRepo, logg))
		})

		r.Route("/v1/vehicles", func(r chi.Router) {
			r.Post("/", controllers.VehicleRegister(d.VehiclesService, logg))
			r.Get("/", controllers.VehicleList(d.VehiclesService, logg))
			r.Get("/{vehicleId}", controllers.VehicleDetail(d.VehiclesService, logg))
		})

		r.Route("/v1/jobs", func(r chi.Router) {
			r.Post("/", jobcontrollers.Book(d.JobsService, logg))
			r.Get("/", jobcontrollers.List(d.JobsService, logg))
			r.Get("/{jobId}", jobcontrollers.Detail(d.JobsService, logg))
			r.Post("/{jobId}/transition", jobcontrollers.Transition(d.JobsService, logg))
			r.Put("/{jobId}/estimate", jobcontrollers.BuildEstimate(d.JobsService, logg))
			r.Post("/{jobId}/estimate/approval", jobcontrollers.ApproveEstimate(d.JobsService, logg))
			r.Post("/{jobId}/parts-approval", jobcontrollers.ApproveParts(d.JobsService, logg))
			r.Post("/{jobId}/updates", jobcontrollers.AddUpdate(d.JobsService, logg))
			r.Get("/{jobId}/updates", jobcontrollers.ListUpdates(d.JobsService, logg))
			r.Post("/{jobId}/feedback", jobcontrollers.SubmitFeedback(d.JobsService, logg))
			r.Get("/{jobId}/rfqs", rfqcontrollers.ListForJob(d.RFQService, logg))
			r.Get("/{jobId}/payments", paymentcontrollers.ListForJob(d.PaymentsService, logg))
			r.With(middleware.RequireRole(logg,
				enums.UserRoleServiceAdvisor.String(),
				enums.UserRoleAdmin.String(),
			)).Get("/{jobId}/audit", jobcontrollers.AuditTrail(d.AuditRepo, logg))
		})

		r.Route("/v1/rfqs", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg,
				enums.UserRoleServiceAdvisor.String(),
				enums.UserRoleAdmin.String(),
			))
			r.Post("/", rfqcontrollers.Create(d.RFQService, logg))
			r.Get("/{rfqId}", rfqcontrollers.Detail(d.RFQService, logg))
			r.Post("/{rfqId}/send", rfqcontrollers.Send(d.RFQService, logg))
			r.Post("/{rfqId}/select", rfqcontrollers.Select(d.RFQService, logg))
			r.Post("/{rfqId}/auto-select", rfqcontrollers.AutoSelect(d.RFQService, logg))
		})

		r.Route("/v1/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleVendor.String()))
			r.Get("/rfqs", rfqcontrollers.VendorInbox(d.RFQService, logg))
			r.Get("/rfqs/{rfqId}", rfqcontrollers.Detail(d.RFQService, logg))
			r.Post("/rfqs/{rfqId}/quotes", rfqcontrollers.SubmitQuote(d.RFQService, logg))
		})

		r.Route("/v1/payments", func(r chi.Router) {
			r.Get("/{paymentId}", paymentcontrollers.Detail(d.PaymentsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg,
					enums.UserRoleServiceAdvisor.String(),
					enums.UserRoleAdmin.String(),
				))
				r.Post("/manual", paymentcontrollers.RecordManual(d.PaymentsService, logg))
				r.Post("/link", paymentcontrollers.CreateLink(d.PaymentsService, logg))
				r.Post("/{paymentId}/refund", paymentcontrollers.Refund(d.PaymentsService, logg))
			})
		})

		r.Route("/v1/invoices", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg,
				enums.UserRoleServiceAdvisor.String(),
				enums.UserRoleAdmin.String(),
			))
			r.Post("/jobs/{jobId}", paymentcontrollers.GenerateInvoice(d.PaymentsService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.NotificationsSvc, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(d.NotificationsSvc, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.NotificationsSvc, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.NotificationsSvc, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin.String()))
		r.Post("/v1/users", controllers.AuthStaffRegister(d.UsersService, logg))
	})

	return r
}
