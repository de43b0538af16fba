package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/internal/audit"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
	"github.com/samiralkaabi/garagehub-backend/pkg/pagination"
)

type stubJobsRepo struct {
	job     *models.JobCard
	items   []models.EstimateItem
	updates []models.JobUpdate
	saved   bool
}

func (s *stubJobsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubJobsRepo) Create(ctx context.Context, job *models.JobCard) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	s.job = job
	return nil
}

func (s *stubJobsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.JobCard, error) {
	if s.job == nil || s.job.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.job, nil
}

func (s *stubJobsRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.JobCard, error) {
	return s.FindByID(ctx, id)
}

func (s *stubJobsRepo) Save(ctx context.Context, job *models.JobCard) error {
	s.job = job
	s.saved = true
	return nil
}

func (s *stubJobsRepo) List(ctx context.Context, params ListParams) ([]models.JobCard, *pagination.Cursor, error) {
	if s.job == nil {
		return nil, nil, nil
	}
	return []models.JobCard{*s.job}, nil, nil
}

func (s *stubJobsRepo) ReplaceEstimateItems(ctx context.Context, jobID uuid.UUID, items []models.EstimateItem) error {
	s.items = items
	return nil
}

func (s *stubJobsRepo) ListEstimateItems(ctx context.Context, jobID uuid.UUID) ([]models.EstimateItem, error) {
	return s.items, nil
}

func (s *stubJobsRepo) CreateUpdate(ctx context.Context, update *models.JobUpdate) error {
	if update.ID == uuid.Nil {
		update.ID = uuid.New()
	}
	s.updates = append(s.updates, *update)
	return nil
}

func (s *stubJobsRepo) ListUpdates(ctx context.Context, jobID uuid.UUID, customerOnly bool) ([]models.JobUpdate, error) {
	return s.updates, nil
}

type stubVehicleFinder struct {
	vehicle *models.Vehicle
}

func (s *stubVehicleFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if s.vehicle == nil || s.vehicle.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vehicle, nil
}

type stubBranchFinder struct {
	branch *models.Branch
}

func (s *stubBranchFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error) {
	if s.branch == nil || s.branch.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.branch, nil
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range s.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubOutbox) byType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	var out []outbox.DomainEvent
	for _, event := range s.events {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

type stubAudit struct {
	entries []audit.Entry
}

func (s *stubAudit) Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

type stubSequence struct {
	counter int
	prefix  string
}

func (s *stubSequence) Next(ctx context.Context, tx *gorm.DB, prefix string, now time.Time) (string, error) {
	s.counter++
	s.prefix = prefix
	return fmt.Sprintf("%s%s%04d", prefix, now.Format("20060102"), s.counter), nil
}

type fixture struct {
	svc      Service
	repo     *stubJobsRepo
	vehicles *stubVehicleFinder
	branches *stubBranchFinder
	outbox   *stubOutbox
	audit    *stubAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &stubJobsRepo{}
	vehicles := &stubVehicleFinder{}
	branches := &stubBranchFinder{}
	ob := &stubOutbox{}
	rec := &stubAudit{}

	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Vehicles: vehicles,
		Branches: branches,
		Tx:       &stubTxRunner{},
		Outbox:   ob,
		Audit:    rec,
		Numbers:  &stubSequence{},
		Logger:   logger.New(logger.Options{Level: logger.ParseLevel("error")}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, vehicles: vehicles, branches: branches, outbox: ob, audit: rec}
}

func seedJob(f *fixture, status enums.JobStatus) (*models.JobCard, Actor) {
	customerID := uuid.New()
	job := &models.JobCard{
		ID:         uuid.New(),
		JobNumber:  "JC202608290001",
		CustomerID: customerID,
		VehicleID:  uuid.New(),
		BranchID:   uuid.New(),
		Status:     status,
	}
	f.repo.job = job
	return job, Actor{UserID: customerID, Role: enums.UserRoleCustomer}
}

func staffActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.UserRoleServiceAdvisor}
}

func TestCreateBookingSuccess(t *testing.T) {
	f := newFixture(t)
	customerID := uuid.New()
	f.vehicles.vehicle = &models.Vehicle{ID: uuid.New(), OwnerID: customerID}
	f.branches.branch = &models.Branch{ID: uuid.New(), IsActive: true}

	job, err := f.svc.CreateBooking(context.Background(), Actor{UserID: customerID, Role: enums.UserRoleCustomer}, BookingRequest{
		VehicleID:   f.vehicles.vehicle.ID,
		BranchID:    f.branches.branch.ID,
		ServiceType: enums.ServiceTypeRegular,
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if job.Status != enums.JobStatusRequested {
		t.Fatalf("status = %s, want requested", job.Status)
	}
	if job.JobNumber == "" || job.JobNumber[:2] != "JC" {
		t.Fatalf("bad job number %q", job.JobNumber)
	}
	if len(f.outbox.byType(enums.EventJobCreated)) != 1 {
		t.Fatal("expected job_created event")
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "created" {
		t.Fatalf("expected created audit entry, got %v", f.audit.entries)
	}
}

func TestCreateBookingRejectsForeignVehicle(t *testing.T) {
	f := newFixture(t)
	f.vehicles.vehicle = &models.Vehicle{ID: uuid.New(), OwnerID: uuid.New()}
	f.branches.branch = &models.Branch{ID: uuid.New(), IsActive: true}

	_, err := f.svc.CreateBooking(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, BookingRequest{
		VehicleID:   f.vehicles.vehicle.ID,
		BranchID:    f.branches.branch.ID,
		ServiceType: enums.ServiceTypeMinor,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTransitionHappyPath(t *testing.T) {
	f := newFixture(t)
	job, _ := seedJob(f, enums.JobStatusScheduled)
	actor := staffActor()

	updated, err := f.svc.Transition(context.Background(), actor, TransitionRequest{
		JobID:  job.ID,
		Target: enums.JobStatusVehiclePicked,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != enums.JobStatusVehiclePicked {
		t.Fatalf("status = %s", updated.Status)
	}
	if updated.ActualPickupTime == nil {
		t.Fatal("pickup time not stamped")
	}
	if len(f.repo.updates) != 1 || f.repo.updates[0].NewStatus == nil || *f.repo.updates[0].NewStatus != enums.JobStatusVehiclePicked {
		t.Fatal("status update row missing")
	}
	if len(f.outbox.byType(enums.EventJobStatusChanged)) != 1 {
		t.Fatal("expected job_status_changed event")
	}
}

func TestTransitionRejectedLeavesState(t *testing.T) {
	f := newFixture(t)
	job, _ := seedJob(f, enums.JobStatusRequested)

	_, err := f.svc.Transition(context.Background(), staffActor(), TransitionRequest{
		JobID:  job.ID,
		Target: enums.JobStatusInService,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if f.repo.saved {
		t.Fatal("job must not be saved on rejected transition")
	}
	if f.repo.job.Status != enums.JobStatusRequested {
		t.Fatalf("status mutated to %s", f.repo.job.Status)
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("no events expected on rejection")
	}
}

func TestBuildEstimateAdvancesDiagnosedJob(t *testing.T) {
	f := newFixture(t)
	job, _ := seedJob(f, enums.JobStatusDiagnosed)

	updated, err := f.svc.BuildEstimate(context.Background(), staffActor(), job.ID, EstimateInput{
		Items: []EstimateItemInput{
			{ItemType: enums.EstimateItemTypeLabour, Description: "AC compressor labour", Quantity: dec("2"), UnitPrice: dec("150.00")},
			{ItemType: enums.EstimateItemTypePart, Description: "AC compressor", Quantity: dec("1"), UnitPrice: dec("200.00")},
		},
		TaxRatePercent: dec("5"),
	})
	if err != nil {
		t.Fatalf("build estimate: %v", err)
	}
	if !updated.EstimateTotal.Equal(dec("525.00")) {
		t.Fatalf("estimate total = %s, want 525.00", updated.EstimateTotal)
	}
	if !updated.GrandTotal.Equal(dec("525.00")) {
		t.Fatalf("grand total = %s, want 525.00", updated.GrandTotal)
	}
	if updated.Status != enums.JobStatusAwaitingEstimateApproval {
		t.Fatalf("status = %s, want awaiting_estimate_approval", updated.Status)
	}
	if len(f.outbox.byType(enums.EventEstimateReady)) != 1 {
		t.Fatal("expected estimate_ready event")
	}

	// Rebuilding must not duplicate the estimate_ready notification.
	if _, err := f.svc.BuildEstimate(context.Background(), staffActor(), job.ID, EstimateInput{
		Items: []EstimateItemInput{
			{ItemType: enums.EstimateItemTypeLabour, Description: "AC compressor labour", Quantity: dec("2"), UnitPrice: dec("160.00")},
		},
		TaxRatePercent: dec("5"),
	}); err != nil {
		t.Fatalf("rebuild estimate: %v", err)
	}
	if len(f.outbox.byType(enums.EventEstimateReady)) != 1 {
		t.Fatal("estimate_ready must fire once per job")
	}
}

func TestApproveEstimateRoutesByPartLines(t *testing.T) {
	f := newFixture(t)
	job, customer := seedJob(f, enums.JobStatusAwaitingEstimateApproval)
	f.repo.items = []models.EstimateItem{
		{ItemType: enums.EstimateItemTypeLabour, TotalPrice: dec("300.00")},
		{ItemType: enums.EstimateItemTypePart, TotalPrice: dec("200.00")},
	}

	updated, err := f.svc.ApproveEstimate(context.Background(), customer, job.ID, true)
	if err != nil {
		t.Fatalf("approve estimate: %v", err)
	}
	if updated.Status != enums.JobStatusEstimateApproved {
		t.Fatalf("status = %s, want estimate_approved (parts sourcing required)", updated.Status)
	}
	if updated.EstimateApprovedAt == nil {
		t.Fatal("estimate_approved_at not stamped")
	}
}

func TestApproveEstimateWithoutPartsGoesToPayment(t *testing.T) {
	f := newFixture(t)
	job, customer := seedJob(f, enums.JobStatusAwaitingEstimateApproval)
	f.repo.items = []models.EstimateItem{
		{ItemType: enums.EstimateItemTypeLabour, TotalPrice: dec("300.00")},
	}

	updated, err := f.svc.ApproveEstimate(context.Background(), customer, job.ID, true)
	if err != nil {
		t.Fatalf("approve estimate: %v", err)
	}
	if updated.Status != enums.JobStatusAwaitingPayment {
		t.Fatalf("status = %s, want awaiting_payment", updated.Status)
	}
}

func TestApproveEstimateRejectionCancels(t *testing.T) {
	f := newFixture(t)
	job, customer := seedJob(f, enums.JobStatusAwaitingEstimateApproval)

	updated, err := f.svc.ApproveEstimate(context.Background(), customer, job.ID, false)
	if err != nil {
		t.Fatalf("reject estimate: %v", err)
	}
	if updated.Status != enums.JobStatusCancelled {
		t.Fatalf("status = %s, want cancelled", updated.Status)
	}
	if updated.EstimateApprovedAt != nil {
		t.Fatal("approval timestamp must not be set on rejection")
	}
}

func TestApproveEstimateOutsideGateFails(t *testing.T) {
	f := newFixture(t)
	job, customer := seedJob(f, enums.JobStatusInService)

	_, err := f.svc.ApproveEstimate(context.Background(), customer, job.ID, true)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestApprovePartsAdvancesToPayment(t *testing.T) {
	f := newFixture(t)
	job, customer := seedJob(f, enums.JobStatusAwaitingPartsApproval)

	updated, err := f.svc.ApproveParts(context.Background(), customer, job.ID, true)
	if err != nil {
		t.Fatalf("approve parts: %v", err)
	}
	if updated.Status != enums.JobStatusAwaitingPayment {
		t.Fatalf("status = %s, want awaiting_payment", updated.Status)
	}
	if updated.PartsApprovedAt == nil {
		t.Fatal("parts_approved_at not stamped")
	}
}

func TestSubmitFeedbackClosesDeliveredJob(t *testing.T) {
	f := newFixture(t)
	job, customer := seedJob(f, enums.JobStatusDelivered)

	feedback := "quick turnaround"
	updated, err := f.svc.SubmitFeedback(context.Background(), customer, job.ID, FeedbackInput{Rating: 5, Feedback: &feedback})
	if err != nil {
		t.Fatalf("submit feedback: %v", err)
	}
	if updated.Status != enums.JobStatusClosed {
		t.Fatalf("status = %s, want closed", updated.Status)
	}
	if updated.ActualCompletionDate == nil {
		t.Fatal("completion date not stamped")
	}
	if len(f.outbox.byType(enums.EventFeedbackSubmitted)) != 1 {
		t.Fatal("expected feedback_submitted event")
	}
}

func TestSubmitFeedbackBeforeDeliveryFails(t *testing.T) {
	f := newFixture(t)
	job, customer := seedJob(f, enums.JobStatusInService)

	_, err := f.svc.SubmitFeedback(context.Background(), customer, job.ID, FeedbackInput{Rating: 4})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}
