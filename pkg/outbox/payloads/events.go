package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

// JobCreatedEvent signals a new booking entering the pipeline.
type JobCreatedEvent struct {
	JobCardID  uuid.UUID         `json:"job_card_id"`
	JobNumber  string            `json:"job_number"`
	CustomerID uuid.UUID         `json:"customer_id"`
	VehicleID  uuid.UUID         `json:"vehicle_id"`
	BranchID   uuid.UUID         `json:"branch_id"`
	Service    enums.ServiceType `json:"service"`
}

// JobStatusChangedEvent is emitted on every accepted lifecycle transition.
type JobStatusChangedEvent struct {
	JobCardID  uuid.UUID       `json:"job_card_id"`
	JobNumber  string          `json:"job_number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	From       enums.JobStatus `json:"from"`
	To         enums.JobStatus `json:"to"`
	Notes      string          `json:"notes,omitempty"`
}

// EstimateReadyEvent announces a priced estimate awaiting customer approval.
type EstimateReadyEvent struct {
	JobCardID  uuid.UUID       `json:"job_card_id"`
	JobNumber  string          `json:"job_number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// EstimateApprovedEvent records the customer accepting the estimate.
type EstimateApprovedEvent struct {
	JobCardID  uuid.UUID `json:"job_card_id"`
	JobNumber  string    `json:"job_number"`
	ApprovedAt time.Time `json:"approved_at"`
}

// PartsApprovedEvent records the customer accepting the parts quote.
type PartsApprovedEvent struct {
	JobCardID  uuid.UUID `json:"job_card_id"`
	JobNumber  string    `json:"job_number"`
	ApprovedAt time.Time `json:"approved_at"`
}

// RFQSentEvent tells vendors a quote round has opened.
type RFQSentEvent struct {
	RFQID     uuid.UUID   `json:"rfq_id"`
	RFQNumber string      `json:"rfq_number"`
	JobCardID uuid.UUID   `json:"job_card_id"`
	VendorIDs []uuid.UUID `json:"vendor_ids"`
	Deadline  *time.Time  `json:"deadline,omitempty"`
}

// QuoteSubmittedEvent is raised when a vendor files their quote.
type QuoteSubmittedEvent struct {
	RFQID       uuid.UUID       `json:"rfq_id"`
	QuoteID     uuid.UUID       `json:"quote_id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// QuotesCompleteEvent fires once every invited vendor has responded.
type QuotesCompleteEvent struct {
	RFQID      uuid.UUID `json:"rfq_id"`
	RFQNumber  string    `json:"rfq_number"`
	JobCardID  uuid.UUID `json:"job_card_id"`
	QuoteCount int       `json:"quote_count"`
}

// QuoteSelectedEvent records the winning vendor quote.
type QuoteSelectedEvent struct {
	RFQID    uuid.UUID `json:"rfq_id"`
	QuoteID  uuid.UUID `json:"quote_id"`
	VendorID uuid.UUID `json:"vendor_id"`
	Reason   string    `json:"reason,omitempty"`
}

// PaymentLinkCreatedEvent carries the hosted payment URL for the customer.
type PaymentLinkCreatedEvent struct {
	PaymentID  uuid.UUID       `json:"payment_id"`
	JobCardID  uuid.UUID       `json:"job_card_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	LinkURL    string          `json:"link_url"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
}

// PaymentSettledEvent reports a payment reaching a final state.
type PaymentSettledEvent struct {
	PaymentID  uuid.UUID           `json:"payment_id"`
	JobCardID  uuid.UUID           `json:"job_card_id"`
	CustomerID uuid.UUID           `json:"customer_id"`
	Amount     decimal.Decimal     `json:"amount"`
	Status     enums.PaymentStatus `json:"status"`
	BalanceDue decimal.Decimal     `json:"balance_due"`
}

// InvoiceGeneratedEvent announces the final tax invoice.
type InvoiceGeneratedEvent struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	JobCardID     uuid.UUID       `json:"job_card_id"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// FeedbackSubmittedEvent captures the post-service rating.
type FeedbackSubmittedEvent struct {
	JobCardID uuid.UUID `json:"job_card_id"`
	Rating    int       `json:"rating"`
}

// NotificationRequestedEvent tells the notifier to alert a user.
type NotificationRequestedEvent struct {
	UserID    uuid.UUID              `json:"user_id"`
	JobCardID *uuid.UUID             `json:"job_card_id,omitempty"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
}
