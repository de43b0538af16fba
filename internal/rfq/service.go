package rfq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/internal/audit"
	"github.com/samiralkaabi/garagehub-backend/internal/jobs"
	"github.com/samiralkaabi/garagehub-backend/internal/sequence"
	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox/payloads"
)

const vatRatePercent = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type vendorDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListActiveVendors(ctx context.Context, limit int) ([]models.User, error)
}

// Service manages the vendor quote round: creation, fan-out, the submission
// barrier, and winner selection.
type Service interface {
	Create(ctx context.Context, actor Actor, req CreateRequest) (*models.RFQ, error)
	Send(ctx context.Context, actor Actor, req SendRequest) (*models.RFQ, error)
	Get(ctx context.Context, actor Actor, rfqID uuid.UUID) (*models.RFQ, error)
	ListForJob(ctx context.Context, jobID uuid.UUID) ([]models.RFQ, error)
	ListForVendor(ctx context.Context, actor Actor, statuses []enums.RFQStatus) ([]models.RFQ, error)
	SubmitQuote(ctx context.Context, actor Actor, sub QuoteSubmission) (*models.VendorQuote, error)
	SelectQuote(ctx context.Context, actor Actor, req SelectionRequest) (*models.RFQ, error)
	AutoSelect(ctx context.Context, actor Actor, rfqID uuid.UUID) (*models.RFQ, error)
}

type service struct {
	repo    Repository
	jobRepo jobs.Repository
	vendors vendorDirectory
	tx      txRunner
	outbox  outboxPublisher
	audit   audit.Recorder
	numbers sequence.Generator
	cfg     config.RFQConfig
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams bundles the dependencies required to build the RFQ service.
type ServiceParams struct {
	Repo    Repository
	JobRepo jobs.Repository
	Vendors vendorDirectory
	Tx      txRunner
	Outbox  outboxPublisher
	Audit   audit.Recorder
	Numbers sequence.Generator
	Config  config.RFQConfig
	Logger  *logger.Logger
}

// NewService builds the RFQ service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("rfq repository required")
	case params.JobRepo == nil:
		return nil, fmt.Errorf("jobs repository required")
	case params.Vendors == nil:
		return nil, fmt.Errorf("vendor directory required")
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
	if params.Config.MaxVendors <= 0 {
		return nil, fmt.Errorf("rfq vendor cap must be positive")
	}
	return &service{
		repo:    params.Repo,
		jobRepo: params.JobRepo,
		vendors: params.Vendors,
		tx:      params.Tx,
		outbox:  params.Outbox,
		audit:   params.Audit,
		numbers: params.Numbers,
		cfg:     params.Config,
		logg:    params.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, req CreateRequest) (*models.RFQ, error) {
	if len(req.PartsList) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parts list required")
	}
	rule := req.SelectionRule
	if rule == "" {
		rule = enums.SelectionPolicy(s.cfg.DefaultPolicy)
	}
	if !rule.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid selection rule %q", rule))
	}
	maxDays := req.MaxDeliveryDays
	if maxDays <= 0 {
		maxDays = s.cfg.MaxDeliveryDays
	}

	var created *models.RFQ
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		jobRepo := s.jobRepo.WithTx(tx)
		job, err := jobRepo.FindForUpdate(ctx, req.JobCardID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
			}
			return err
		}
		if job.Status != enums.JobStatusEstimateApproved && job.Status != enums.JobStatusRFQSent {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job is not ready for parts sourcing").
				WithDetails(map[string]string{"status": job.Status.String()})
		}

		number, err := s.numbers.Next(ctx, tx, sequence.PrefixRFQ, s.now())
		if err != nil {
			return err
		}

		deadline := req.QuoteDeadline
		if deadline == nil {
			d := s.now().Add(s.cfg.DeadlineWindow)
			deadline = &d
		}

		created = &models.RFQ{
			RFQNumber:       number,
			JobCardID:       job.ID,
			CreatedByID:     actor.UserID,
			Status:          enums.RFQStatusDraft,
			PartsList:       req.PartsList,
			QuoteDeadline:   deadline,
			SelectionRule:   rule,
			MaxDeliveryDays: maxDays,
		}
		if err := s.repo.WithTx(tx).Create(ctx, created); err != nil {
			return fmt.Errorf("create rfq: %w", err)
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &job.ID,
			UserID:      actor.UserID,
			Action:      "rfq_created",
			Description: fmt.Sprintf("RFQ %s created with %d part(s)", number, len(req.PartsList)),
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRFQCreated,
			AggregateType: enums.AggregateRFQ,
			AggregateID:   created.ID,
			Actor:         actorRef(actor),
			Data: payloads.RFQSentEvent{
				RFQID:     created.ID,
				RFQNumber: created.RFQNumber,
				JobCardID: job.ID,
				Deadline:  created.QuoteDeadline,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Send(ctx context.Context, actor Actor, req SendRequest) (*models.RFQ, error) {
	var sent *models.RFQ
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rfq, err := repo.FindForUpdate(ctx, req.RFQID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rfq not found")
			}
			return err
		}
		if rfq.Status != enums.RFQStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "rfq already sent").
				WithDetails(map[string]string{"status": rfq.Status.String()})
		}

		vendors, err := s.resolveVendors(ctx, req.VendorIDs)
		if err != nil {
			return err
		}
		if len(vendors) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no vendors available")
		}

		now := s.now()
		placeholders := make([]models.VendorQuote, 0, len(vendors))
		vendorIDs := make([]uuid.UUID, 0, len(vendors))
		for _, vendor := range vendors {
			placeholders = append(placeholders, models.VendorQuote{
				RFQID:    rfq.ID,
				VendorID: vendor.ID,
				Status:   enums.QuoteStatusPending,
			})
			vendorIDs = append(vendorIDs, vendor.ID)
		}
		if err := repo.CreateQuotes(ctx, placeholders); err != nil {
			return fmt.Errorf("create quote placeholders: %w", err)
		}

		rfq.Status = enums.RFQStatusSent
		rfq.SentAt = &now
		if err := repo.Save(ctx, rfq); err != nil {
			return fmt.Errorf("save rfq: %w", err)
		}

		jobRepo := s.jobRepo.WithTx(tx)
		job, err := jobRepo.FindForUpdate(ctx, rfq.JobCardID)
		if err != nil {
			return err
		}
		if job.Status == enums.JobStatusEstimateApproved {
			if err := jobs.ApplyTransition(job, enums.JobStatusRFQSent, now); err != nil {
				return err
			}
			job.LockVersion++
			if err := jobRepo.Save(ctx, job); err != nil {
				return fmt.Errorf("save job card: %w", err)
			}
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &rfq.JobCardID,
			UserID:      actor.UserID,
			Action:      "rfq_sent",
			Description: fmt.Sprintf("RFQ %s sent to %d vendor(s)", rfq.RFQNumber, len(vendors)),
		}); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRFQSent,
			AggregateType: enums.AggregateRFQ,
			AggregateID:   rfq.ID,
			Actor:         actorRef(actor),
			Data: payloads.RFQSentEvent{
				RFQID:     rfq.ID,
				RFQNumber: rfq.RFQNumber,
				JobCardID: rfq.JobCardID,
				VendorIDs: vendorIDs,
				Deadline:  rfq.QuoteDeadline,
			},
		}); err != nil {
			return err
		}
		sent = rfq
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "rfq_number", sent.RFQNumber), "rfq sent to vendors")
	return sent, nil
}

func (s *service) Get(ctx context.Context, actor Actor, rfqID uuid.UUID) (*models.RFQ, error) {
	rfq, err := s.repo.FindByID(ctx, rfqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rfq not found")
		}
		return nil, err
	}
	if actor.Role == enums.UserRoleVendor && !vendorInvited(rfq, actor.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return rfq, nil
}

func (s *service) ListForJob(ctx context.Context, jobID uuid.UUID) ([]models.RFQ, error) {
	return s.repo.ListByJob(ctx, jobID)
}

func (s *service) ListForVendor(ctx context.Context, actor Actor, statuses []enums.RFQStatus) ([]models.RFQ, error) {
	return s.repo.ListForVendor(ctx, actor.UserID, statuses, 0)
}

// SubmitQuote prices a vendor's placeholder. The "all vendors answered"
// barrier is evaluated inside the same transaction that writes the quote so
// concurrent submissions promote the RFQ exactly once.
func (s *service) SubmitQuote(ctx context.Context, actor Actor, sub QuoteSubmission) (*models.VendorQuote, error) {
	if len(sub.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line items required")
	}
	if sub.DeliveryDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery days must be positive")
	}

	var submitted *models.VendorQuote
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rfq, err := repo.FindForUpdate(ctx, sub.RFQID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rfq not found")
			}
			return err
		}
		now := s.now()
		if rfq.QuoteDeadline != nil && now.After(*rfq.QuoteDeadline) {
			overdue := now.Sub(*rfq.QuoteDeadline).Round(time.Minute)
			return pkgerrors.New(pkgerrors.CodeDeadlinePassed, fmt.Sprintf("quote deadline passed %s ago", overdue)).
				WithDetails(map[string]string{"deadline": rfq.QuoteDeadline.Format(time.RFC3339)})
		}

		quote, err := repo.FindQuoteForUpdate(ctx, sub.RFQID, actor.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quote not found or vendor not invited")
			}
			return err
		}
		switch quote.Status {
		case enums.QuoteStatusPending:
		case enums.QuoteStatusSubmitted:
			return pkgerrors.New(pkgerrors.CodeConflict, "quote already submitted")
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "quote can no longer be modified").
				WithDetails(map[string]string{"status": quote.Status.String()})
		}

		subtotal := decimal.Zero
		for _, line := range sub.LineItems {
			subtotal = subtotal.Add(line.Total)
		}
		tax := subtotal.Mul(decimal.NewFromInt(vatRatePercent)).Div(decimal.NewFromInt(100)).Round(2)

		quote.QuoteNumber = sub.QuoteNumber
		quote.LineItems = sub.LineItems
		quote.Subtotal = subtotal
		quote.TaxAmount = tax
		quote.TotalAmount = subtotal.Add(tax)
		quote.DeliveryDays = &sub.DeliveryDays
		quote.DeliveryNotes = sub.DeliveryNotes
		quote.WarrantyMonths = sub.WarrantyMonths
		quote.WarrantyTerms = sub.WarrantyTerms
		quote.ValidUntil = sub.ValidUntil
		quote.VendorNotes = sub.VendorNotes
		quote.Status = enums.QuoteStatusSubmitted
		quote.SubmittedAt = &now
		if err := repo.SaveQuote(ctx, quote); err != nil {
			return fmt.Errorf("save quote: %w", err)
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteSubmitted,
			AggregateType: enums.AggregateRFQ,
			AggregateID:   rfq.ID,
			Actor:         actorRef(actor),
			Data: payloads.QuoteSubmittedEvent{
				RFQID:       rfq.ID,
				QuoteID:     quote.ID,
				VendorID:    quote.VendorID,
				TotalAmount: quote.TotalAmount,
			},
		}); err != nil {
			return err
		}

		// Barrier: the row written above counts because SaveQuote ran in
		// this transaction.
		pending, err := repo.CountPendingQuotes(ctx, rfq.ID)
		if err != nil {
			return err
		}
		if pending == 0 {
			if err := s.completeQuoteRound(ctx, tx, repo, rfq, actor); err != nil {
				return err
			}
		}
		submitted = quote
		return nil
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

func (s *service) completeQuoteRound(ctx context.Context, tx *gorm.DB, repo Repository, rfq *models.RFQ, actor Actor) error {
	rfq.Status = enums.RFQStatusQuotesReceived
	if err := repo.Save(ctx, rfq); err != nil {
		return fmt.Errorf("save rfq: %w", err)
	}

	jobRepo := s.jobRepo.WithTx(tx)
	job, err := jobRepo.FindForUpdate(ctx, rfq.JobCardID)
	if err != nil {
		return err
	}
	if job.Status == enums.JobStatusRFQSent {
		if err := jobs.ApplyTransition(job, enums.JobStatusQuotesReceived, s.now()); err != nil {
			return err
		}
		job.LockVersion++
		if err := jobRepo.Save(ctx, job); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}
	}

	quotes, err := repo.ListQuotes(ctx, rfq.ID)
	if err != nil {
		return err
	}
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventQuotesComplete,
		AggregateType: enums.AggregateRFQ,
		AggregateID:   rfq.ID,
		Actor:         actorRef(actor),
		Data: payloads.QuotesCompleteEvent{
			RFQID:      rfq.ID,
			RFQNumber:  rfq.RFQNumber,
			JobCardID:  rfq.JobCardID,
			QuoteCount: len(quotes),
		},
	})
}

func (s *service) SelectQuote(ctx context.Context, actor Actor, req SelectionRequest) (*models.RFQ, error) {
	return s.commitSelection(ctx, actor, req.RFQID, func(quotes []models.VendorQuote) (*models.VendorQuote, error) {
		for i := range quotes {
			if quotes[i].ID == req.QuoteID {
				if quotes[i].Status != enums.QuoteStatusSubmitted {
					return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "quote is not in submitted state").
						WithDetails(map[string]string{"status": quotes[i].Status.String()})
				}
				return &quotes[i], nil
			}
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
	}, req.Reason)
}

// AutoSelect applies the RFQ's configured selection rule to the submitted
// quotes and commits the winner.
func (s *service) AutoSelect(ctx context.Context, actor Actor, rfqID uuid.UUID) (*models.RFQ, error) {
	return s.commitSelection(ctx, actor, rfqID, nil, nil)
}

// commitSelection locks the RFQ, resolves the winner (explicitly or via
// policy), rejects the losers, and rolls the winning total into the job
// ledger.
func (s *service) commitSelection(ctx context.Context, actor Actor, rfqID uuid.UUID, pick func([]models.VendorQuote) (*models.VendorQuote, error), reason *string) (*models.RFQ, error) {
	var result *models.RFQ
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rfq, err := repo.FindForUpdate(ctx, rfqID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rfq not found")
			}
			return err
		}
		if rfq.Status != enums.RFQStatusQuotesReceived && rfq.Status != enums.RFQStatusSent {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "rfq is not ready for selection").
				WithDetails(map[string]string{"status": rfq.Status.String()})
		}

		quotes, err := repo.ListQuotes(ctx, rfq.ID)
		if err != nil {
			return err
		}

		var winner *models.VendorQuote
		selectionReason := reason
		if pick != nil {
			winner, err = pick(quotes)
			if err != nil {
				return err
			}
		} else {
			candidates, err := s.ratedCandidates(ctx, quotes)
			if err != nil {
				return err
			}
			winner = PickWinner(rfq.SelectionRule, candidates, rfq.MaxDeliveryDays)
			if winner == nil {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no submitted quote satisfies the delivery constraint")
			}
			auto := fmt.Sprintf("auto-selected by %s policy", rfq.SelectionRule)
			selectionReason = &auto
		}

		now := s.now()
		for i := range quotes {
			switch {
			case quotes[i].ID == winner.ID:
				quotes[i].Status = enums.QuoteStatusSelected
			case quotes[i].Status == enums.QuoteStatusSubmitted:
				quotes[i].Status = enums.QuoteStatusRejected
			default:
				continue
			}
			if err := repo.SaveQuote(ctx, &quotes[i]); err != nil {
				return fmt.Errorf("save quote: %w", err)
			}
		}

		rfq.SelectedQuoteID = &winner.ID
		rfq.SelectedAt = &now
		rfq.SelectedByID = &actor.UserID
		rfq.SelectionReason = selectionReason
		rfq.Status = enums.RFQStatusQuoteSelected
		if err := repo.Save(ctx, rfq); err != nil {
			return fmt.Errorf("save rfq: %w", err)
		}

		jobRepo := s.jobRepo.WithTx(tx)
		job, err := jobRepo.FindForUpdate(ctx, rfq.JobCardID)
		if err != nil {
			return err
		}
		job.PartsTotal = winner.TotalAmount
		jobs.RecalculateBalance(job)
		if job.Status == enums.JobStatusQuotesReceived || job.Status == enums.JobStatusRFQSent {
			if job.Status == enums.JobStatusRFQSent {
				if err := jobs.ApplyTransition(job, enums.JobStatusQuotesReceived, now); err != nil {
					return err
				}
			}
			if err := jobs.ApplyTransition(job, enums.JobStatusAwaitingPartsApproval, now); err != nil {
				return err
			}
		}
		job.LockVersion++
		if err := jobRepo.Save(ctx, job); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &rfq.JobCardID,
			UserID:      actor.UserID,
			Action:      "quote_selected",
			Description: fmt.Sprintf("Quote selected on RFQ %s, parts total %s", rfq.RFQNumber, winner.TotalAmount.StringFixed(2)),
		}); err != nil {
			return err
		}

		reasonText := ""
		if selectionReason != nil {
			reasonText = *selectionReason
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteSelected,
			AggregateType: enums.AggregateRFQ,
			AggregateID:   rfq.ID,
			Actor:         actorRef(actor),
			Data: payloads.QuoteSelectedEvent{
				RFQID:    rfq.ID,
				QuoteID:  winner.ID,
				VendorID: winner.VendorID,
				Reason:   reasonText,
			},
		}); err != nil {
			return err
		}
		result = rfq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) resolveVendors(ctx context.Context, vendorIDs []uuid.UUID) ([]models.User, error) {
	if len(vendorIDs) == 0 {
		return s.vendors.ListActiveVendors(ctx, s.cfg.MaxVendors)
	}

	vendors := make([]models.User, 0, len(vendorIDs))
	for _, id := range vendorIDs {
		vendor, err := s.vendors.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		if vendor.Role != enums.UserRoleVendor || !vendor.IsActive {
			continue
		}
		vendors = append(vendors, *vendor)
		if len(vendors) == s.cfg.MaxVendors {
			break
		}
	}
	return vendors, nil
}

func (s *service) ratedCandidates(ctx context.Context, quotes []models.VendorQuote) ([]CandidateQuote, error) {
	candidates := make([]CandidateQuote, 0, len(quotes))
	for _, quote := range quotes {
		rating := decimal.Zero
		vendor, err := s.vendors.FindByID(ctx, quote.VendorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if vendor != nil && vendor.VendorRating != nil {
			rating = *vendor.VendorRating
		}
		candidates = append(candidates, CandidateQuote{Quote: quote, VendorRating: rating})
	}
	return candidates, nil
}

func vendorInvited(rfq *models.RFQ, vendorID uuid.UUID) bool {
	for _, quote := range rfq.Quotes {
		if quote.VendorID == vendorID {
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
