package payments

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/internal/audit"
	"github.com/samiralkaabi/garagehub-backend/internal/jobs"
	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/outbox"
	"github.com/samiralkaabi/garagehub-backend/pkg/pagination"
)

type stubPaymentsRepo struct {
	payments []models.Payment
	invoices []models.Invoice
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.payments = append(s.payments, *payment)
	return nil
}

func (s *stubPaymentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	for i := range s.payments {
		if s.payments[i].ID == id {
			found := s.payments[i]
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	return s.FindByID(ctx, id)
}

func (s *stubPaymentsRepo) FindByTransactionReference(ctx context.Context, reference string) (*models.Payment, error) {
	for i := range s.payments {
		if s.payments[i].TransactionReference != nil && *s.payments[i].TransactionReference == reference {
			found := s.payments[i]
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) Save(ctx context.Context, payment *models.Payment) error {
	for i := range s.payments {
		if s.payments[i].ID == payment.ID {
			s.payments[i] = *payment
			return nil
		}
	}
	s.payments = append(s.payments, *payment)
	return nil
}

func (s *stubPaymentsRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Payment, error) {
	var out []models.Payment
	for _, payment := range s.payments {
		if payment.JobCardID == jobID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (s *stubPaymentsRepo) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	s.invoices = append(s.invoices, *invoice)
	return nil
}

func (s *stubPaymentsRepo) FindInvoiceByJob(ctx context.Context, jobID uuid.UUID, invoiceType string) (*models.Invoice, error) {
	for i := range s.invoices {
		if s.invoices[i].JobCardID == jobID && s.invoices[i].InvoiceType == invoiceType {
			found := s.invoices[i]
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubJobRepo struct {
	job *models.JobCard
}

func (s *stubJobRepo) WithTx(tx *gorm.DB) jobs.Repository { return s }

func (s *stubJobRepo) Create(ctx context.Context, job *models.JobCard) error {
	s.job = job
	return nil
}

func (s *stubJobRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.JobCard, error) {
	if s.job == nil || s.job.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.job, nil
}

func (s *stubJobRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.JobCard, error) {
	return s.FindByID(ctx, id)
}

func (s *stubJobRepo) Save(ctx context.Context, job *models.JobCard) error {
	s.job = job
	return nil
}

func (s *stubJobRepo) List(ctx context.Context, params jobs.ListParams) ([]models.JobCard, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubJobRepo) ReplaceEstimateItems(ctx context.Context, jobID uuid.UUID, items []models.EstimateItem) error {
	return nil
}

func (s *stubJobRepo) ListEstimateItems(ctx context.Context, jobID uuid.UUID) ([]models.EstimateItem, error) {
	return nil, nil
}

func (s *stubJobRepo) CreateUpdate(ctx context.Context, update *models.JobUpdate) error {
	return nil
}

func (s *stubJobRepo) ListUpdates(ctx context.Context, jobID uuid.UUID, customerOnly bool) ([]models.JobUpdate, error) {
	return nil, nil
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
}

func (s *stubSequence) Next(ctx context.Context, tx *gorm.DB, prefix string, now time.Time) (string, error) {
	s.counter++
	return fmt.Sprintf("%s%s%04d", prefix, now.Format("20060102"), s.counter), nil
}

type fixture struct {
	svc     Service
	repo    *stubPaymentsRepo
	jobRepo *stubJobRepo
	outbox  *stubOutbox
}

func newFixture(t *testing.T) *fixture {
	return newCheckoutFixture(t, nil)
}

func newCheckoutFixture(t *testing.T, checkout CheckoutClient) *fixture {
	t.Helper()
	repo := &stubPaymentsRepo{}
	jobRepo := &stubJobRepo{}
	ob := &stubOutbox{}

	svc, err := NewService(ServiceParams{
		Repo:     repo,
		JobRepo:  jobRepo,
		Tx:       &stubTxRunner{},
		Outbox:   ob,
		Audit:    &stubAudit{},
		Numbers:  &stubSequence{},
		Checkout: checkout,
		Billing: config.BillingConfig{
			Currency:          "AED",
			TaxRatePercent:    5,
			PaymentLinkExpiry: 24 * time.Hour,
		},
		BaseURL: "https://garagehub.example.com",
		Logger:  logger.New(logger.Options{Level: logger.ParseLevel("error")}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, jobRepo: jobRepo, outbox: ob}
}

// seedPayableJob models the 850.00 ledger: 500 labour + 350 parts, 5% VAT
// absorbed into an equal discount so the round numbers stay readable.
func seedPayableJob(f *fixture, status enums.JobStatus) *models.JobCard {
	job := &models.JobCard{
		ID:             uuid.New(),
		JobNumber:      "JC202608290001",
		CustomerID:     uuid.New(),
		Status:         status,
		LabourTotal:    decimal.RequireFromString("500.00"),
		PartsTotal:     decimal.RequireFromString("350.00"),
		TaxAmount:      decimal.RequireFromString("42.50"),
		DiscountAmount: decimal.RequireFromString("42.50"),
	}
	jobs.RecalculateBalance(job)
	f.jobRepo.job = job
	return job
}

func cashierActor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.UserRoleServiceAdvisor}
}

func TestRecordManualPaymentSettlesFullBalance(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	payment, err := f.svc.RecordManualPayment(context.Background(), cashierActor(), ManualPaymentRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("850.00"),
		Method:    enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusCompleted {
		t.Fatalf("payment status = %s, want completed", payment.Status)
	}
	if !strings.HasPrefix(payment.PaymentNumber, "PAY") {
		t.Fatalf("bad payment number %q", payment.PaymentNumber)
	}
	if f.jobRepo.job.Status != enums.JobStatusPaid {
		t.Fatalf("job status = %s, want paid", f.jobRepo.job.Status)
	}
	if !f.jobRepo.job.BalanceDue.IsZero() {
		t.Fatalf("balance = %s, want 0", f.jobRepo.job.BalanceDue)
	}
	if got := f.outbox.byType(enums.EventPaymentRecorded); len(got) != 1 {
		t.Fatalf("payment_recorded events = %d, want 1", len(got))
	}
}

func TestRecordManualPaymentPartialMarksPartiallyPaid(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	_, err := f.svc.RecordManualPayment(context.Background(), cashierActor(), ManualPaymentRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("400.00"),
		Method:    enums.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if f.jobRepo.job.Status != enums.JobStatusPartiallyPaid {
		t.Fatalf("job status = %s, want partially_paid", f.jobRepo.job.Status)
	}
	if !f.jobRepo.job.BalanceDue.Equal(decimal.RequireFromString("450.00")) {
		t.Fatalf("balance = %s, want 450.00", f.jobRepo.job.BalanceDue)
	}
}

func TestRecordManualPaymentReplayReturnsOriginal(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)
	reference := "till-42-receipt-7"

	first, err := f.svc.RecordManualPayment(context.Background(), cashierActor(), ManualPaymentRequest{
		JobCardID:            job.ID,
		Amount:               decimal.RequireFromString("400.00"),
		Method:               enums.PaymentMethodCash,
		TransactionReference: &reference,
	})
	if err != nil {
		t.Fatalf("first payment: %v", err)
	}

	replay, err := f.svc.RecordManualPayment(context.Background(), cashierActor(), ManualPaymentRequest{
		JobCardID:            job.ID,
		Amount:               decimal.RequireFromString("400.00"),
		Method:               enums.PaymentMethodCash,
		TransactionReference: &reference,
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.ID != first.ID {
		t.Fatal("replay must return the original payment")
	}
	if !f.jobRepo.job.AmountPaid.Equal(decimal.RequireFromString("400.00")) {
		t.Fatalf("amount paid = %s, credited twice", f.jobRepo.job.AmountPaid)
	}
	if len(f.repo.payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(f.repo.payments))
	}
}

func TestRecordManualPaymentRejectsClosedJob(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusClosed)

	_, err := f.svc.RecordManualPayment(context.Background(), cashierActor(), ManualPaymentRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("100.00"),
		Method:    enums.PaymentMethodCash,
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want state conflict", err)
	}
}

func TestCreatePaymentLinkStaysPending(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	payment, err := f.svc.CreatePaymentLink(context.Background(), cashierActor(), PaymentLinkRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("850.00"),
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("status = %s, want pending", payment.Status)
	}
	if payment.PaymentLinkURL == nil || !strings.Contains(*payment.PaymentLinkURL, payment.ID.String()) {
		t.Fatalf("link url = %v", payment.PaymentLinkURL)
	}
	if f.jobRepo.job.Status != enums.JobStatusAwaitingPayment {
		t.Fatalf("job status = %s, pending link must not advance the job", f.jobRepo.job.Status)
	}
	if got := f.outbox.byType(enums.EventPaymentLinkCreated); len(got) != 1 {
		t.Fatalf("payment_link_created events = %d, want 1", len(got))
	}
}

type stubCheckout struct {
	lastParams *stripe.CheckoutSessionParams
	url        string
}

func (s *stubCheckout) CreateSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.lastParams = params
	return &stripe.CheckoutSession{URL: s.url}, nil
}

func TestCreatePaymentLinkUsesCheckoutSession(t *testing.T) {
	checkout := &stubCheckout{url: "https://checkout.stripe.com/c/pay/cs_test_123"}
	f := newCheckoutFixture(t, checkout)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	payment, err := f.svc.CreatePaymentLink(context.Background(), cashierActor(), PaymentLinkRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("850.00"),
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if payment.PaymentLinkURL == nil || *payment.PaymentLinkURL != checkout.url {
		t.Fatalf("link url = %v, want checkout session url", payment.PaymentLinkURL)
	}

	params := checkout.lastParams
	if params == nil || params.PaymentIntentData == nil {
		t.Fatal("checkout session params missing payment intent data")
	}
	if got := params.PaymentIntentData.Metadata["payment_id"]; got != payment.ID.String() {
		t.Fatalf("metadata payment_id = %q, want %s", got, payment.ID)
	}
	if got := params.LineItems[0].PriceData.UnitAmount; got == nil || *got != 85000 {
		t.Fatalf("unit amount = %v, want 85000 minor units", got)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	pending, err := f.svc.CreatePaymentLink(context.Background(), cashierActor(), PaymentLinkRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("850.00"),
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	gatewayID := "pi_3Nv5aE2eZvKYlo2C"
	first, err := f.svc.Confirm(context.Background(), Confirmation{PaymentID: pending.ID, GatewayTransactionID: &gatewayID})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if first.Status != enums.PaymentStatusCompleted {
		t.Fatalf("status = %s, want completed", first.Status)
	}
	if f.jobRepo.job.Status != enums.JobStatusPaid {
		t.Fatalf("job status = %s, want paid", f.jobRepo.job.Status)
	}

	replay, err := f.svc.Confirm(context.Background(), Confirmation{PaymentID: pending.ID, GatewayTransactionID: &gatewayID})
	if err != nil {
		t.Fatalf("replay confirm: %v", err)
	}
	if replay.Status != enums.PaymentStatusCompleted {
		t.Fatalf("replay status = %s", replay.Status)
	}
	if !f.jobRepo.job.AmountPaid.Equal(decimal.RequireFromString("850.00")) {
		t.Fatalf("amount paid = %s, credited twice", f.jobRepo.job.AmountPaid)
	}
	if got := f.outbox.byType(enums.EventPaymentCompleted); len(got) != 1 {
		t.Fatalf("payment_completed events = %d, want 1", len(got))
	}
}

func TestMarkFailedNeverRegressesCompleted(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	payment, err := f.svc.RecordManualPayment(context.Background(), cashierActor(), ManualPaymentRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("850.00"),
		Method:    enums.PaymentMethodCash,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}

	failed, err := f.svc.MarkFailed(context.Background(), payment.ID, nil)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if failed.Status != enums.PaymentStatusCompleted {
		t.Fatalf("status = %s, a completed payment must not fail retroactively", failed.Status)
	}
	if got := f.outbox.byType(enums.EventPaymentFailed); len(got) != 0 {
		t.Fatalf("payment_failed events = %d, want 0", len(got))
	}
}

func TestRefundReversesLedger(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	payment, err := f.svc.RecordManualPayment(context.Background(), cashierActor(), ManualPaymentRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("400.00"),
		Method:    enums.PaymentMethodCard,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}

	reason := "duplicate charge"
	refund, err := f.svc.Refund(context.Background(), cashierActor(), RefundRequest{PaymentID: payment.ID, Reason: &reason})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if refund.PaymentType != enums.PaymentTypeRefund {
		t.Fatalf("refund type = %s", refund.PaymentType)
	}
	if !refund.Amount.Equal(decimal.RequireFromString("-400.00")) {
		t.Fatalf("refund amount = %s, want -400.00", refund.Amount)
	}
	if !f.jobRepo.job.AmountPaid.IsZero() {
		t.Fatalf("amount paid = %s, want 0", f.jobRepo.job.AmountPaid)
	}
	if !f.jobRepo.job.BalanceDue.Equal(decimal.RequireFromString("850.00")) {
		t.Fatalf("balance = %s, want 850.00", f.jobRepo.job.BalanceDue)
	}

	original, err := f.svc.Get(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if original.Status != enums.PaymentStatusRefunded {
		t.Fatalf("original status = %s, want refunded", original.Status)
	}
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	pending, err := f.svc.CreatePaymentLink(context.Background(), cashierActor(), PaymentLinkRequest{
		JobCardID: job.ID,
		Amount:    decimal.RequireFromString("850.00"),
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}

	_, err = f.svc.Refund(context.Background(), cashierActor(), RefundRequest{PaymentID: pending.ID})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("err = %v, want state conflict", err)
	}
}

func TestGenerateFinalInvoiceFreezesLedger(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusPaid)
	job.AmountPaid = decimal.RequireFromString("850.00")
	jobs.RecalculateBalance(job)

	invoice, err := f.svc.GenerateFinalInvoice(context.Background(), cashierActor(), job.ID)
	if err != nil {
		t.Fatalf("generate invoice: %v", err)
	}
	if !strings.HasPrefix(invoice.InvoiceNumber, "INV") {
		t.Fatalf("bad invoice number %q", invoice.InvoiceNumber)
	}
	if !invoice.Subtotal.Equal(decimal.RequireFromString("850.00")) {
		t.Fatalf("subtotal = %s, want 850.00", invoice.Subtotal)
	}
	if !invoice.TaxAmount.Equal(decimal.RequireFromString("42.50")) {
		t.Fatalf("tax = %s, want 42.50", invoice.TaxAmount)
	}
	if !invoice.GrandTotal.Equal(decimal.RequireFromString("850.00")) {
		t.Fatalf("grand total = %s, want 850.00", invoice.GrandTotal)
	}
	if !invoice.IsPaid {
		t.Fatal("invoice for a settled job must be marked paid")
	}
	if got := f.outbox.byType(enums.EventInvoiceGenerated); len(got) != 1 {
		t.Fatalf("invoice_generated events = %d, want 1", len(got))
	}
}

func TestGenerateFinalInvoiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusPaid)
	job.AmountPaid = decimal.RequireFromString("850.00")
	jobs.RecalculateBalance(job)

	first, err := f.svc.GenerateFinalInvoice(context.Background(), cashierActor(), job.ID)
	if err != nil {
		t.Fatalf("first invoice: %v", err)
	}
	replay, err := f.svc.GenerateFinalInvoice(context.Background(), cashierActor(), job.ID)
	if err != nil {
		t.Fatalf("replay invoice: %v", err)
	}
	if replay.ID != first.ID {
		t.Fatal("replay must return the invoice already generated")
	}
	if len(f.repo.invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(f.repo.invoices))
	}
}

func TestListJobPaymentsDeniesForeignCustomer(t *testing.T) {
	f := newFixture(t)
	job := seedPayableJob(f, enums.JobStatusAwaitingPayment)

	_, err := f.svc.ListJobPayments(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, job.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}
