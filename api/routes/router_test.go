package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	internaljobs "github.com/samiralkaabi/garagehub-backend/internal/jobs"
	"github.com/samiralkaabi/garagehub-backend/internal/notifications"
	internalpayments "github.com/samiralkaabi/garagehub-backend/internal/payments"
	"github.com/samiralkaabi/garagehub-backend/internal/rfq"
	"github.com/samiralkaabi/garagehub-backend/internal/users"
	"github.com/samiralkaabi/garagehub-backend/internal/vehicles"
	pkgauth "github.com/samiralkaabi/garagehub-backend/pkg/auth"
	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/pagination"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubUsersService struct{}

func (stubUsersService) Register(context.Context, users.RegisterRequest) (*models.User, error) {
	return &models.User{}, nil
}
func (stubUsersService) Login(context.Context, users.LoginRequest) (*users.LoginResponse, error) {
	return &users.LoginResponse{}, nil
}
func (stubUsersService) Refresh(context.Context, uuid.UUID, string) (*users.LoginResponse, error) {
	return &users.LoginResponse{}, nil
}
func (stubUsersService) Logout(context.Context, uuid.UUID) error { return nil }
func (stubUsersService) Get(context.Context, uuid.UUID) (*models.User, error) {
	return &models.User{}, nil
}

type stubVehiclesService struct{}

func (stubVehiclesService) Register(context.Context, vehicles.RegisterRequest) (*models.Vehicle, error) {
	return &models.Vehicle{}, nil
}
func (stubVehiclesService) Get(context.Context, uuid.UUID) (*models.Vehicle, error) {
	return &models.Vehicle{}, nil
}
func (stubVehiclesService) ListByOwner(context.Context, uuid.UUID) ([]models.Vehicle, error) {
	return nil, nil
}

type stubBranchesRepo struct{}

func (stubBranchesRepo) FindByID(context.Context, uuid.UUID) (*models.Branch, error) {
	return &models.Branch{}, nil
}
func (stubBranchesRepo) ListActive(context.Context) ([]models.Branch, error) { return nil, nil }

type stubJobsService struct{}

func (stubJobsService) CreateBooking(context.Context, internaljobs.Actor, internaljobs.BookingRequest) (*models.JobCard, error) {
	return &models.JobCard{}, nil
}
func (stubJobsService) Get(context.Context, internaljobs.Actor, uuid.UUID) (*models.JobCard, error) {
	return &models.JobCard{}, nil
}
func (stubJobsService) List(context.Context, internaljobs.Actor, []enums.JobStatus, *uuid.UUID, pagination.Params) ([]models.JobCard, *pagination.Cursor, error) {
	return nil, nil, nil
}
func (stubJobsService) Transition(context.Context, internaljobs.Actor, internaljobs.TransitionRequest) (*models.JobCard, error) {
	return &models.JobCard{}, nil
}
func (stubJobsService) BuildEstimate(context.Context, internaljobs.Actor, uuid.UUID, internaljobs.EstimateInput) (*models.JobCard, error) {
	return &models.JobCard{}, nil
}
func (stubJobsService) ApproveEstimate(context.Context, internaljobs.Actor, uuid.UUID, bool) (*models.JobCard, error) {
	return &models.JobCard{}, nil
}
func (stubJobsService) ApproveParts(context.Context, internaljobs.Actor, uuid.UUID, bool) (*models.JobCard, error) {
	return &models.JobCard{}, nil
}
func (stubJobsService) AddUpdate(context.Context, internaljobs.Actor, uuid.UUID, internaljobs.UpdateInput) (*models.JobUpdate, error) {
	return &models.JobUpdate{}, nil
}
func (stubJobsService) ListUpdates(context.Context, internaljobs.Actor, uuid.UUID) ([]models.JobUpdate, error) {
	return nil, nil
}
func (stubJobsService) SubmitFeedback(context.Context, internaljobs.Actor, uuid.UUID, internaljobs.FeedbackInput) (*models.JobCard, error) {
	return &models.JobCard{}, nil
}

type stubRFQService struct{}

func (stubRFQService) Create(context.Context, rfq.Actor, rfq.CreateRequest) (*models.RFQ, error) {
	return &models.RFQ{}, nil
}
func (stubRFQService) Send(context.Context, rfq.Actor, rfq.SendRequest) (*models.RFQ, error) {
	return &models.RFQ{}, nil
}
func (stubRFQService) Get(context.Context, rfq.Actor, uuid.UUID) (*models.RFQ, error) {
	return &models.RFQ{}, nil
}
func (stubRFQService) ListForJob(context.Context, uuid.UUID) ([]models.RFQ, error) { return nil, nil }
func (stubRFQService) ListForVendor(context.Context, rfq.Actor, []enums.RFQStatus) ([]models.RFQ, error) {
	return nil, nil
}
func (stubRFQService) SubmitQuote(context.Context, rfq.Actor, rfq.QuoteSubmission) (*models.VendorQuote, error) {
	return &models.VendorQuote{}, nil
}
func (stubRFQService) SelectQuote(context.Context, rfq.Actor, rfq.SelectionRequest) (*models.RFQ, error) {
	return &models.RFQ{}, nil
}
func (stubRFQService) AutoSelect(context.Context, rfq.Actor, uuid.UUID) (*models.RFQ, error) {
	return &models.RFQ{}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) RecordManualPayment(context.Context, internalpayments.Actor, internalpayments.ManualPaymentRequest) (*models.Payment, error) {
	return &models.Payment{}, nil
}
func (stubPaymentsService) CreatePaymentLink(context.Context, internalpayments.Actor, internalpayments.PaymentLinkRequest) (*models.Payment, error) {
	return &models.Payment{}, nil
}
func (stubPaymentsService) Confirm(context.Context, internalpayments.Confirmation) (*models.Payment, error) {
	return &models.Payment{}, nil
}
func (stubPaymentsService) MarkFailed(context.Context, uuid.UUID, *types.JSONMap) (*models.Payment, error) {
	return &models.Payment{}, nil
}
func (stubPaymentsService) Refund(context.Context, internalpayments.Actor, internalpayments.RefundRequest) (*models.Payment, error) {
	return &models.Payment{}, nil
}
func (stubPaymentsService) Get(context.Context, uuid.UUID) (*models.Payment, error) {
	return &models.Payment{}, nil
}
func (stubPaymentsService) ListJobPayments(context.Context, internalpayments.Actor, uuid.UUID) ([]models.Payment, error) {
	return nil, nil
}
func (stubPaymentsService) GenerateFinalInvoice(context.Context, internalpayments.Actor, uuid.UUID) (*models.Invoice, error) {
	return &models.Invoice{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(context.Context, uuid.UUID, bool, pagination.Params) ([]models.Notification, *pagination.Cursor, error) {
	return nil, nil, nil
}
func (stubNotificationsService) UnreadCount(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}
func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) error         { return nil }

var _ notifications.Service = stubNotificationsService{}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "garagehub-test",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Deps{
		Config:           cfg,
		Logger:           logg,
		DBPinger:         stubPinger{},
		RedisPinger:      stubPinger{},
		UsersService:     stubUsersService{},
		VehiclesService:  stubVehiclesService{},
		BranchesRepo:     stubBranchesRepo{},
		JobsService:      stubJobsService{},
		RFQService:       stubRFQService{},
		PaymentsService:  stubPaymentsService{},
		NotificationsSvc: stubNotificationsService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestRFQGroupRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs/"+uuid.NewString(), nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	advisor := httptest.NewRequest(http.MethodGet, "/api/v1/rfqs/"+uuid.NewString(), nil)
	advisor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleServiceAdvisor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, advisor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for service advisor got %d", resp.Code)
	}
}

func TestVendorGroupRequiresVendorRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	advisor := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/rfqs", nil)
	advisor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleServiceAdvisor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, advisor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-vendor got %d", resp.Code)
	}

	vendor := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/rfqs", nil)
	vendor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleVendor))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, vendor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for vendor got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodPost, "/api/admin/v1/users", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleServiceAdvisor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if env := resp.Header().Get("X-GarageHub-Env"); env != "test" {
		t.Fatalf("expected env header test got %q", env)
	}
}

func TestPublicBranchesSkipsAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/branches", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public branches got %d", resp.Code)
	}
}
