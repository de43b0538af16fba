package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/internal/audit"
	"github.com/samiralkaabi/garagehub-backend/internal/sequence"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox/payloads"
	"github.com/samiralkaabi/garagehub-backend/pkg/pagination"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type vehicleFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type branchFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Branch, error)
}

// Service owns the job lifecycle: booking, status transitions, the estimate
// and approval gates, progress updates, and feedback.
type Service interface {
	CreateBooking(ctx context.Context, actor Actor, req BookingRequest) (*models.JobCard, error)
	Get(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.JobCard, error)
	List(ctx context.Context, actor Actor, statuses []enums.JobStatus, branchID *uuid.UUID, page pagination.Params) ([]models.JobCard, *pagination.Cursor, error)
	Transition(ctx context.Context, actor Actor, req TransitionRequest) (*models.JobCard, error)
	BuildEstimate(ctx context.Context, actor Actor, jobID uuid.UUID, input EstimateInput) (*models.JobCard, error)
	ApproveEstimate(ctx context.Context, actor Actor, jobID uuid.UUID, approved bool) (*models.JobCard, error)
	ApproveParts(ctx context.Context, actor Actor, jobID uuid.UUID, approved bool) (*models.JobCard, error)
	AddUpdate(ctx context.Context, actor Actor, jobID uuid.UUID, input UpdateInput) (*models.JobUpdate, error)
	ListUpdates(ctx context.Context, actor Actor, jobID uuid.UUID) ([]models.JobUpdate, error)
	SubmitFeedback(ctx context.Context, actor Actor, jobID uuid.UUID, input FeedbackInput) (*models.JobCard, error)
}

type service struct {
	repo     Repository
	vehicles vehicleFinder
	branches branchFinder
	tx       txRunner
	outbox   outboxPublisher
	audit    audit.Recorder
	numbers  sequence.Generator
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build the jobs service.
type ServiceParams struct {
	Repo     Repository
	Vehicles vehicleFinder
	Branches branchFinder
	Tx       txRunner
	Outbox   outboxPublisher
	Audit    audit.Recorder
	Numbers  sequence.Generator
	Logger   *logger.Logger
}

// NewService builds the jobs service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("jobs repository required")
	case params.Vehicles == nil:
		return nil, fmt.Errorf("vehicle finder required")
	case params.Branches == nil:
		return nil, fmt.Errorf("branch finder required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit recorder required")
	case params.Numbers == nil:
		return nil, fmt.Errorf("sequence generator required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		vehicles: params.Vehicles,
		branches: params.Branches,
		tx:       params.Tx,
		outbox:   params.Outbox,
		audit:    params.Audit,
		numbers:  params.Numbers,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateBooking(ctx context.Context, actor Actor, req BookingRequest) (*models.JobCard, error) {
	if !req.ServiceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid service type %q", req.ServiceType))
	}
	if req.IntakeType == "" {
		req.IntakeType = enums.DeliveryTypeDropOff
	}

	vehicle, err := s.vehicles.FindByID(ctx, req.VehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	if vehicle.OwnerID != actor.UserID && actor.Role == enums.UserRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}

	branch, err := s.branches.FindByID(ctx, req.BranchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
		}
		return nil, fmt.Errorf("find branch: %w", err)
	}
	if !branch.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}

	var job *models.JobCard
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := s.numbers.Next(ctx, tx, sequence.PrefixJobCard, s.now())
		if err != nil {
			return err
		}

		job = &models.JobCard{
			JobNumber:           number,
			CustomerID:          vehicle.OwnerID,
			VehicleID:           req.VehicleID,
			BranchID:            req.BranchID,
			ServiceType:         req.ServiceType,
			Status:              enums.JobStatusRequested,
			IntakeType:          req.IntakeType,
			PickupAddress:       req.PickupAddress,
			PickupLatitude:      req.PickupLatitude,
			PickupLongitude:     req.PickupLongitude,
			PreferredPickupTime: req.PreferredPickupTime,
			ScheduledDate:       req.ScheduledDate,
			CustomerNotes:       req.CustomerNotes,
		}
		if len(req.CustomerMediaURLs) > 0 {
			media := types.JSONMap{"urls": req.CustomerMediaURLs}
			job.CustomerMediaURLs = &media
		}
		if err := repo.Create(ctx, job); err != nil {
			return fmt.Errorf("create job card: %w", err)
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &job.ID,
			UserID:      actor.UserID,
			Action:      "created",
			Description: fmt.Sprintf("Job card %s created", job.JobNumber),
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventJobCreated,
			AggregateType: enums.AggregateJobCard,
			AggregateID:   job.ID,
			Actor:         actorRef(actor),
			Data: payloads.JobCreatedEvent{
				JobCardID:  job.ID,
				JobNumber:  job.JobNumber,
				CustomerID: job.CustomerID,
				VehicleID:  job.VehicleID,
				BranchID:   job.BranchID,
				Service:    job.ServiceType,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithJobID(ctx, job.JobNumber), "job card created")
	return job, nil
}

func (s *service) Get(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.JobCard, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
		}
		return nil, err
	}
	if err := s.authorizeRead(actor, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) List(ctx context.Context, actor Actor, statuses []enums.JobStatus, branchID *uuid.UUID, page pagination.Params) ([]models.JobCard, *pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	params := ListParams{
		Statuses: statuses,
		Limit:    page.Limit,
		Cursor:   cursor,
	}
	switch actor.Role {
	case enums.UserRoleCustomer:
		params.CustomerID = &actor.UserID
	case enums.UserRoleTechnician:
		params.TechnicianID = &actor.UserID
	case enums.UserRoleDriver:
		params.DriverID = &actor.UserID
	case enums.UserRoleServiceAdvisor, enums.UserRoleAdmin:
		if branchID != nil {
			params.BranchID = branchID
		} else if actor.BranchID != nil {
			params.BranchID = actor.BranchID
		}
	default:
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	if len(statuses) > 0 {
		params.IncludeTerminal = true
	}

	return s.repo.List(ctx, params)
}

func (s *service) Transition(ctx context.Context, actor Actor, req TransitionRequest) (*models.JobCard, error) {
	if !req.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", req.Target))
	}

	var job *models.JobCard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindForUpdate(ctx, req.JobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
			}
			return err
		}
		if err := s.authorizeRead(actor, locked); err != nil {
			return err
		}

		from := locked.Status
		now := s.now()
		if err := ApplyTransition(locked, req.Target, now); err != nil {
			return err
		}
		locked.LockVersion++
		if err := repo.Save(ctx, locked); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}

		if err := s.recordStatusChange(ctx, tx, repo, locked, actor, from, req.Target, req.Notes); err != nil {
			return err
		}
		job = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"job_number": job.JobNumber,
		"status":     job.Status.String(),
	}), "job status changed")
	return job, nil
}

func (s *service) BuildEstimate(ctx context.Context, actor Actor, jobID uuid.UUID, input EstimateInput) (*models.JobCard, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimate requires at least one line item")
	}
	for _, item := range input.Items {
		if !item.ItemType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid item type %q", item.ItemType))
		}
		if strings.TrimSpace(item.Description) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item description required")
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) || item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity and price must be non-negative")
		}
	}

	var job *models.JobCard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindForUpdate(ctx, jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
			}
			return err
		}
		if locked.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job card is closed")
		}

		items := make([]models.EstimateItem, 0, len(input.Items))
		for _, in := range input.Items {
			unit := in.Unit
			if unit == "" {
				unit = "units"
			}
			items = append(items, models.EstimateItem{
				JobCardID:      locked.ID,
				ItemType:       in.ItemType,
				Description:    in.Description,
				PartNumber:     in.PartNumber,
				Quantity:       in.Quantity,
				Unit:           unit,
				UnitPrice:      in.UnitPrice,
				TotalPrice:     in.Quantity.Mul(in.UnitPrice).Round(2),
				WarrantyMonths: in.WarrantyMonths,
			})
		}
		if err := repo.ReplaceEstimateItems(ctx, locked.ID, items); err != nil {
			return fmt.Errorf("replace estimate items: %w", err)
		}

		totals := ComputeTotals(items, input.PickupDeliveryFee, input.TaxRatePercent, input.Discount, locked.AmountPaid)
		ApplyTotals(locked, totals)

		if locked.Status == enums.JobStatusDiagnosed {
			if err := ApplyTransition(locked, enums.JobStatusAwaitingEstimateApproval, s.now()); err != nil {
				return err
			}
		}
		locked.LockVersion++
		if err := repo.Save(ctx, locked); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}
		if err := VerifyLedger(locked); err != nil {
			return err
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &locked.ID,
			UserID:      actor.UserID,
			Action:      "estimate_created",
			Description: fmt.Sprintf("Estimate built, grand total %s", locked.GrandTotal.StringFixed(2)),
		}); err != nil {
			return err
		}

		if err := s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEstimateReady,
			AggregateType: enums.AggregateJobCard,
			AggregateID:   locked.ID,
			Actor:         actorRef(actor),
			Data: payloads.EstimateReadyEvent{
				JobCardID:  locked.ID,
				JobNumber:  locked.JobNumber,
				CustomerID: locked.CustomerID,
				GrandTotal: locked.GrandTotal,
			},
		}); err != nil {
			return err
		}
		job = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) ApproveEstimate(ctx context.Context, actor Actor, jobID uuid.UUID, approved bool) (*models.JobCard, error) {
	var job *models.JobCard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindForUpdate(ctx, jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
			}
			return err
		}
		if actor.Role == enums.UserRoleCustomer && locked.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
		}
		if locked.Status != enums.JobStatusAwaitingEstimateApproval {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job is not awaiting estimate approval").
				WithDetails(map[string]string{"status": locked.Status.String()})
		}

		from := locked.Status
		now := s.now()
		var target enums.JobStatus
		if !approved {
			target = enums.JobStatusCancelled
		} else {
			locked.EstimateApprovedAt = &now
			items, err := repo.ListEstimateItems(ctx, locked.ID)
			if err != nil {
				return err
			}
			target = enums.JobStatusAwaitingPayment
			if hasPartLines(items) {
				target = enums.JobStatusEstimateApproved
			}
		}
		if err := ApplyTransition(locked, target, now); err != nil {
			return err
		}
		locked.LockVersion++
		if err := repo.Save(ctx, locked); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}

		verdict := "approved"
		if !approved {
			verdict = "rejected"
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &locked.ID,
			UserID:      actor.UserID,
			Action:      "estimate_approval",
			Description: fmt.Sprintf("Estimate %s", verdict),
		}); err != nil {
			return err
		}

		if approved {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEstimateApproved,
				AggregateType: enums.AggregateJobCard,
				AggregateID:   locked.ID,
				Actor:         actorRef(actor),
				Data: payloads.EstimateApprovedEvent{
					JobCardID:  locked.ID,
					JobNumber:  locked.JobNumber,
					ApprovedAt: now,
				},
			}); err != nil {
				return err
			}
		}
		if err := s.recordStatusChange(ctx, tx, repo, locked, actor, from, target, nil); err != nil {
			return err
		}
		job = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) ApproveParts(ctx context.Context, actor Actor, jobID uuid.UUID, approved bool) (*models.JobCard, error) {
	var job *models.JobCard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindForUpdate(ctx, jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
			}
			return err
		}
		if actor.Role == enums.UserRoleCustomer && locked.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
		}
		if locked.Status != enums.JobStatusAwaitingPartsApproval {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job is not awaiting parts approval").
				WithDetails(map[string]string{"status": locked.Status.String()})
		}

		from := locked.Status
		now := s.now()
		target := enums.JobStatusCancelled
		if approved {
			locked.PartsApprovedAt = &now
			target = enums.JobStatusAwaitingPayment
		}
		if err := ApplyTransition(locked, target, now); err != nil {
			return err
		}
		locked.LockVersion++
		if err := repo.Save(ctx, locked); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}

		verdict := "approved"
		if !approved {
			verdict = "rejected"
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &locked.ID,
			UserID:      actor.UserID,
			Action:      "parts_approval",
			Description: fmt.Sprintf("Parts quote %s", verdict),
		}); err != nil {
			return err
		}

		if approved {
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPartsApproved,
				AggregateType: enums.AggregateJobCard,
				AggregateID:   locked.ID,
				Actor:         actorRef(actor),
				Data: payloads.PartsApprovedEvent{
					JobCardID:  locked.ID,
					JobNumber:  locked.JobNumber,
					ApprovedAt: now,
				},
			}); err != nil {
				return err
			}
		}
		if err := s.recordStatusChange(ctx, tx, repo, locked, actor, from, target, nil); err != nil {
			return err
		}
		job = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) AddUpdate(ctx context.Context, actor Actor, jobID uuid.UUID, input UpdateInput) (*models.JobUpdate, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "update title required")
	}

	job, err := s.Get(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}

	update := &models.JobUpdate{
		JobCardID:           job.ID,
		CreatedByID:         actor.UserID,
		Title:               input.Title,
		Message:             input.Message,
		IsVisibleToCustomer: input.IsVisibleToCustomer,
	}
	if len(input.MediaURLs) > 0 {
		media := types.JSONMap{"urls": input.MediaURLs}
		update.MediaURLs = &media
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateUpdate(ctx, update); err != nil {
			return fmt.Errorf("create job update: %w", err)
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &job.ID,
			UserID:      actor.UserID,
			Action:      "job_update",
			Description: fmt.Sprintf("Update added: %s", input.Title),
		}); err != nil {
			return err
		}
		if !input.IsVisibleToCustomer {
			return nil
		}
		message := ""
		if input.Message != nil {
			message = *input.Message
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   update.ID,
			Actor:         actorRef(actor),
			Data: payloads.NotificationRequestedEvent{
				UserID:    job.CustomerID,
				JobCardID: &job.ID,
				Type:      enums.NotificationTypeStatusUpdate,
				Title:     input.Title,
				Message:   message,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return update, nil
}

func (s *service) ListUpdates(ctx context.Context, actor Actor, jobID uuid.UUID) ([]models.JobUpdate, error) {
	job, err := s.Get(ctx, actor, jobID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUpdates(ctx, job.ID, actor.Role == enums.UserRoleCustomer)
}

func (s *service) SubmitFeedback(ctx context.Context, actor Actor, jobID uuid.UUID, input FeedbackInput) (*models.JobCard, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var job *models.JobCard
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindForUpdate(ctx, jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
			}
			return err
		}
		if locked.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
		}
		if locked.Status != enums.JobStatusDelivered && locked.Status != enums.JobStatusClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "feedback is accepted after delivery only").
				WithDetails(map[string]string{"status": locked.Status.String()})
		}

		now := s.now()
		locked.CustomerRating = &input.Rating
		locked.CustomerFeedback = input.Feedback
		locked.FeedbackSubmittedAt = &now

		from := locked.Status
		if locked.Status == enums.JobStatusDelivered {
			if err := ApplyTransition(locked, enums.JobStatusClosed, now); err != nil {
				return err
			}
		}
		locked.LockVersion++
		if err := repo.Save(ctx, locked); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFeedbackSubmitted,
			AggregateType: enums.AggregateJobCard,
			AggregateID:   locked.ID,
			Actor:         actorRef(actor),
			Data: payloads.FeedbackSubmittedEvent{
				JobCardID: locked.ID,
				Rating:    input.Rating,
			},
		}); err != nil {
			return err
		}
		if from != locked.Status {
			if err := s.recordStatusChange(ctx, tx, repo, locked, actor, from, locked.Status, nil); err != nil {
				return err
			}
		}
		job = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// recordStatusChange writes the job update row, the audit entry, and the
// status-changed outbox event that every accepted transition produces.
func (s *service) recordStatusChange(ctx context.Context, tx *gorm.DB, repo Repository, job *models.JobCard, actor Actor, from, to enums.JobStatus, notes *string) error {
	prev := from
	next := to
	update := &models.JobUpdate{
		JobCardID:           job.ID,
		CreatedByID:         actor.UserID,
		Title:               fmt.Sprintf("Status changed to %s", to),
		Message:             notes,
		IsVisibleToCustomer: true,
		PreviousStatus:      &prev,
		NewStatus:           &next,
	}
	if err := repo.CreateUpdate(ctx, update); err != nil {
		return fmt.Errorf("create status update: %w", err)
	}

	if err := s.audit.Record(ctx, tx, audit.Entry{
		JobCardID:   &job.ID,
		UserID:      actor.UserID,
		Action:      "status_update",
		Description: fmt.Sprintf("Status changed from %s to %s", from, to),
	}); err != nil {
		return err
	}

	noteText := ""
	if notes != nil {
		noteText = *notes
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventJobStatusChanged,
		AggregateType: enums.AggregateJobCard,
		AggregateID:   job.ID,
		Actor:         actorRef(actor),
		Data: payloads.JobStatusChangedEvent{
			JobCardID:  job.ID,
			JobNumber:  job.JobNumber,
			CustomerID: job.CustomerID,
			From:       from,
			To:         to,
			Notes:      noteText,
		},
	})
}

func (s *service) authorizeRead(actor Actor, job *models.JobCard) error {
	switch actor.Role {
	case enums.UserRoleCustomer:
		if job.CustomerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
		}
	case enums.UserRoleVendor:
		// Vendors see jobs only through their RFQ endpoints.
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return nil
}

func hasPartLines(items []models.EstimateItem) bool {
	for _, item := range items {
		if item.ItemType == enums.EstimateItemTypePart {
			return true
		}
	}
	return false
}

func actorRef(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   actor.Role.String(),
	}
}
