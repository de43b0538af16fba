package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
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
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

const finalInvoiceType = "final"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service settles money against job cards. All ledger mutations run with the
// job row locked, and gateway confirmations are idempotent: a payment that
// already reached a final status is returned unchanged.
type Service interface {
	RecordManualPayment(ctx context.Context, actor Actor, req ManualPaymentRequest) (*models.Payment, error)
	CreatePaymentLink(ctx context.Context, actor Actor, req PaymentLinkRequest) (*models.Payment, error)
	Confirm(ctx context.Context, confirmation Confirmation) (*models.Payment, error)
	MarkFailed(ctx context.Context, paymentID uuid.UUID, response *types.JSONMap) (*models.Payment, error)
	Refund(ctx context.Context, actor Actor, req RefundRequest) (*models.Payment, error)
	Get(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	ListJobPayments(ctx context.Context, actor Actor, jobID uuid.UUID) ([]models.Payment, error)
	GenerateFinalInvoice(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Invoice, error)
}

type service struct {
	repo     Repository
	jobRepo  jobs.Repository
	tx       txRunner
	outbox   outboxPublisher
	audit    audit.Recorder
	numbers  sequence.Generator
	checkout CheckoutClient
	billing  config.BillingConfig
	baseURL  string
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build the payment service.
type ServiceParams struct {
	Repo     Repository
	JobRepo  jobs.Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Audit    audit.Recorder
	Numbers  sequence.Generator
	Checkout CheckoutClient
	Billing  config.BillingConfig
	BaseURL  string
	Logger   *logger.Logger
}

// NewService builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("payment repository required")
	case params.JobRepo == nil:
		return nil, fmt.Errorf("jobs repository required")
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
	if params.BaseURL == "" {
		return nil, fmt.Errorf("base url required")
	}
	return &service{
		repo:     params.Repo,
		jobRepo:  params.JobRepo,
		tx:       params.Tx,
		outbox:   params.Outbox,
		audit:    params.Audit,
		numbers:  params.Numbers,
		checkout: params.Checkout,
		billing:  params.Billing,
		baseURL:  params.BaseURL,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) RecordManualPayment(ctx context.Context, actor Actor, req ManualPaymentRequest) (*models.Payment, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !req.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", req.Method))
	}

	if req.TransactionReference != nil {
		existing, err := s.repo.FindByTransactionReference(ctx, *req.TransactionReference)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var recorded *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		job, err := s.lockPayableJob(ctx, tx, req.JobCardID)
		if err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, tx, sequence.PrefixPayment, s.now())
		if err != nil {
			return err
		}

		now := s.now()
		method := req.Method
		recorded = &models.Payment{
			PaymentNumber:        number,
			JobCardID:            job.ID,
			UserID:               &job.CustomerID,
			CollectedByID:        &actor.UserID,
			Amount:               req.Amount,
			Currency:             s.billing.Currency,
			Status:               enums.PaymentStatusCompleted,
			PaymentMethod:        &method,
			PaymentType:          paymentTypeFor(job, req.Amount),
			TransactionReference: req.TransactionReference,
			Notes:                req.Notes,
			PaidAt:               &now,
		}
		if err := s.repo.WithTx(tx).Create(ctx, recorded); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		if err := s.settle(ctx, tx, job, recorded, actor, enums.EventPaymentRecorded); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func (s *service) CreatePaymentLink(ctx context.Context, actor Actor, req PaymentLinkRequest) (*models.Payment, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	paymentID := uuid.New()
	expires := s.now().Add(s.billing.PaymentLinkExpiry)
	linkURL := fmt.Sprintf("%s/pay/%s", s.baseURL, paymentID)
	if s.checkout != nil {
		// The session is created before the row commits; an orphaned session
		// simply expires unpaid.
		sess, err := s.checkout.CreateSession(ctx, s.checkoutParams(paymentID, req.Amount, expires))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
		}
		if sess != nil && sess.URL != "" {
			linkURL = sess.URL
		}
	}

	var pending *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		job, err := s.lockPayableJob(ctx, tx, req.JobCardID)
		if err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, tx, sequence.PrefixPayment, s.now())
		if err != nil {
			return err
		}

		method := enums.PaymentMethodPaymentLink
		provider := "stripe"
		pending = &models.Payment{
			ID:                 paymentID,
			PaymentNumber:      number,
			JobCardID:          job.ID,
			UserID:             &job.CustomerID,
			Amount:             req.Amount,
			Currency:           s.billing.Currency,
			Status:             enums.PaymentStatusPending,
			PaymentMethod:      &method,
			PaymentType:        paymentTypeFor(job, req.Amount),
			Provider:           &provider,
			PaymentLinkURL:     &linkURL,
			PaymentLinkExpires: &expires,
		}
		if err := s.repo.WithTx(tx).Create(ctx, pending); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentLinkCreated,
			AggregateType: enums.AggregatePayment,
			AggregateID:   pending.ID,
			Actor:         actorRef(actor),
			Data: payloads.PaymentLinkCreatedEvent{
				PaymentID:  pending.ID,
				JobCardID:  job.ID,
				CustomerID: job.CustomerID,
				Amount:     pending.Amount,
				LinkURL:    linkURL,
				ExpiresAt:  &expires,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *service) checkoutParams(paymentID uuid.UUID, amount decimal.Decimal, expires time.Time) *stripe.CheckoutSessionParams {
	return &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.baseURL + "/pay/success"),
		CancelURL:  stripe.String(s.baseURL + "/pay/cancelled"),
		ExpiresAt:  stripe.Int64(expires.Unix()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(s.billing.Currency)),
				UnitAmount: stripe.Int64(amount.Shift(2).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Vehicle service payment"),
				},
			},
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"payment_id": paymentID.String()},
		},
	}
}

// Confirm marks a pending payment completed and rolls its amount into the job
// ledger. Replays are safe: a payment past pending is returned as-is.
func (s *service) Confirm(ctx context.Context, confirmation Confirmation) (*models.Payment, error) {
	var confirmed *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindForUpdate(ctx, confirmation.PaymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return err
		}
		if payment.Status != enums.PaymentStatusPending && payment.Status != enums.PaymentStatusProcessing {
			confirmed = payment
			return nil
		}

		job, err := s.jobRepo.WithTx(tx).FindForUpdate(ctx, payment.JobCardID)
		if err != nil {
			return err
		}

		paidAt := confirmation.PaidAt
		if paidAt == nil {
			now := s.now()
			paidAt = &now
		}
		payment.Status = enums.PaymentStatusCompleted
		payment.GatewayTransactionID = confirmation.GatewayTransactionID
		payment.GatewayResponse = confirmation.GatewayResponse
		payment.PaidAt = paidAt
		if err := repo.Save(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		actor := Actor{UserID: job.CustomerID, Role: enums.UserRoleCustomer}
		if err := s.settle(ctx, tx, job, payment, actor, enums.EventPaymentCompleted); err != nil {
			return err
		}
		confirmed = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "payment_number", confirmed.PaymentNumber), "payment confirmed")
	return confirmed, nil
}

// MarkFailed records a gateway decline. Completed payments never regress.
func (s *service) MarkFailed(ctx context.Context, paymentID uuid.UUID, response *types.JSONMap) (*models.Payment, error) {
	var failed *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payment, err := repo.FindForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return err
		}
		if payment.Status != enums.PaymentStatusPending && payment.Status != enums.PaymentStatusProcessing {
			failed = payment
			return nil
		}

		payment.Status = enums.PaymentStatusFailed
		payment.GatewayResponse = response
		if err := repo.Save(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: payloads.PaymentSettledEvent{
				PaymentID: payment.ID,
				JobCardID: payment.JobCardID,
				Amount:    payment.Amount,
				Status:    payment.Status,
			},
		}); err != nil {
			return err
		}
		failed = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return failed, nil
}

func (s *service) Refund(ctx context.Context, actor Actor, req RefundRequest) (*models.Payment, error) {
	var refund *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		original, err := repo.FindForUpdate(ctx, req.PaymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return err
		}
		if original.Status != enums.PaymentStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only completed payments can be refunded").
				WithDetails(map[string]string{"status": original.Status.String()})
		}

		job, err := s.jobRepo.WithTx(tx).FindForUpdate(ctx, original.JobCardID)
		if err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, tx, sequence.PrefixPayment, s.now())
		if err != nil {
			return err
		}

		now := s.now()
		refund = &models.Payment{
			PaymentNumber: number,
			JobCardID:     job.ID,
			UserID:        original.UserID,
			CollectedByID: &actor.UserID,
			Amount:        original.Amount.Neg(),
			Currency:      original.Currency,
			Status:        enums.PaymentStatusCompleted,
			PaymentMethod: original.PaymentMethod,
			PaymentType:   enums.PaymentTypeRefund,
			Notes:         req.Reason,
			PaidAt:        &now,
		}
		if err := repo.Create(ctx, refund); err != nil {
			return fmt.Errorf("create refund: %w", err)
		}

		original.Status = enums.PaymentStatusRefunded
		if err := repo.Save(ctx, original); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		job.AmountPaid = job.AmountPaid.Sub(original.Amount)
		jobs.RecalculateBalance(job)
		job.LockVersion++
		if err := s.jobRepo.WithTx(tx).Save(ctx, job); err != nil {
			return fmt.Errorf("save job card: %w", err)
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &job.ID,
			UserID:      actor.UserID,
			Action:      "payment_refunded",
			Description: fmt.Sprintf("Payment %s refunded, new balance %s", original.PaymentNumber, job.BalanceDue.StringFixed(2)),
		}); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRefunded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   original.ID,
			Actor:         actorRef(actor),
			Data: payloads.PaymentSettledEvent{
				PaymentID:  original.ID,
				JobCardID:  job.ID,
				Amount:     original.Amount,
				Status:     enums.PaymentStatusRefunded,
				BalanceDue: job.BalanceDue,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *service) Get(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}
	return payment, nil
}

func (s *service) ListJobPayments(ctx context.Context, actor Actor, jobID uuid.UUID) ([]models.Payment, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
		}
		return nil, err
	}
	if actor.Role == enums.UserRoleCustomer && job.CustomerID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return s.repo.ListByJob(ctx, jobID)
}

// GenerateFinalInvoice freezes the job ledger into a tax invoice. Repeat
// calls return the invoice already generated for the job.
func (s *service) GenerateFinalInvoice(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.Invoice, error) {
	existing, err := s.repo.FindInvoiceByJob(ctx, jobID, finalInvoiceType)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var invoice *models.Invoice
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		job, err := s.jobRepo.WithTx(tx).FindForUpdate(ctx, jobID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
			}
			return err
		}
		if err := jobs.VerifyLedger(job); err != nil {
			return err
		}

		number, err := s.numbers.Next(ctx, tx, sequence.PrefixInvoice, s.now())
		if err != nil {
			return err
		}

		subtotal := job.LabourTotal.Add(job.PartsTotal).Add(job.PickupDeliveryFee)
		lineItems := types.JSONMap{
			"labour_total":        job.LabourTotal.String(),
			"parts_total":         job.PartsTotal.String(),
			"pickup_delivery_fee": job.PickupDeliveryFee.String(),
		}
		invoice = &models.Invoice{
			InvoiceNumber:  number,
			InvoiceType:    finalInvoiceType,
			JobCardID:      job.ID,
			LineItems:      &lineItems,
			Subtotal:       subtotal,
			TaxRate:        decimal.NewFromFloat(s.billing.TaxRatePercent).Div(decimal.NewFromInt(100)),
			TaxAmount:      job.TaxAmount,
			DiscountAmount: job.DiscountAmount,
			GrandTotal:     job.GrandTotal,
			IsPaid:         job.BalanceDue.LessThanOrEqual(decimal.Zero),
		}
		if err := s.repo.WithTx(tx).CreateInvoice(ctx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if err := s.audit.Record(ctx, tx, audit.Entry{
			JobCardID:   &job.ID,
			UserID:      actor.UserID,
			Action:      "invoice_generated",
			Description: fmt.Sprintf("Invoice %s generated for %s", number, job.GrandTotal.StringFixed(2)),
		}); err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoiceGenerated,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   invoice.ID,
			Actor:         actorRef(actor),
			Data: payloads.InvoiceGeneratedEvent{
				InvoiceID:     invoice.ID,
				InvoiceNumber: invoice.InvoiceNumber,
				JobCardID:     job.ID,
				GrandTotal:    invoice.GrandTotal,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// settle rolls a completed payment into the locked job's ledger and advances
// the job status when the payment gates apply.
func (s *service) settle(ctx context.Context, tx *gorm.DB, job *models.JobCard, payment *models.Payment, actor Actor, eventType enums.OutboxEventType) error {
	job.AmountPaid = job.AmountPaid.Add(payment.Amount)
	jobs.RecalculateBalance(job)

	now := s.now()
	switch job.Status {
	case enums.JobStatusAwaitingPayment:
		target := enums.JobStatusPartiallyPaid
		if job.BalanceDue.LessThanOrEqual(decimal.Zero) {
			target = enums.JobStatusPaid
		}
		if err := jobs.ApplyTransition(job, target, now); err != nil {
			return err
		}
	case enums.JobStatusPartiallyPaid:
		if job.BalanceDue.LessThanOrEqual(decimal.Zero) {
			if err := jobs.ApplyTransition(job, enums.JobStatusPaid, now); err != nil {
				return err
			}
		}
	}

	job.LockVersion++
	if err := s.jobRepo.WithTx(tx).Save(ctx, job); err != nil {
		return fmt.Errorf("save job card: %w", err)
	}

	if err := s.audit.Record(ctx, tx, audit.Entry{
		JobCardID:   &job.ID,
		UserID:      actor.UserID,
		Action:      "payment_recorded",
		Description: fmt.Sprintf("Payment %s of %s settled, balance %s", payment.PaymentNumber, payment.Amount.StringFixed(2), job.BalanceDue.StringFixed(2)),
	}); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Actor:         actorRef(actor),
		Data: payloads.PaymentSettledEvent{
			PaymentID:  payment.ID,
			JobCardID:  job.ID,
			CustomerID: job.CustomerID,
			Amount:     payment.Amount,
			Status:     payment.Status,
			BalanceDue: job.BalanceDue,
		},
	})
}

// lockPayableJob loads the job under a row lock and rejects jobs whose
// lifecycle stage cannot accept money.
func (s *service) lockPayableJob(ctx context.Context, tx *gorm.DB, jobID uuid.UUID) (*models.JobCard, error) {
	job, err := s.jobRepo.WithTx(tx).FindForUpdate(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job card not found")
		}
		return nil, err
	}
	switch job.Status {
	case enums.JobStatusClosed, enums.JobStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "job can no longer accept payments").
			WithDetails(map[string]string{"status": job.Status.String()})
	}
	return job, nil
}

func paymentTypeFor(job *models.JobCard, amount decimal.Decimal) enums.PaymentType {
	switch {
	case job.AmountPaid.GreaterThan(decimal.Zero):
		return enums.PaymentTypeBalance
	case amount.GreaterThanOrEqual(job.BalanceDue) && job.BalanceDue.GreaterThan(decimal.Zero):
		return enums.PaymentTypeFull
	default:
		return enums.PaymentTypeDeposit
	}
}

func actorRef(actor Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.UserID,
		Role:   actor.Role.String(),
	}
}
