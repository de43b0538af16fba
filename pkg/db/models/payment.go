package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// Payment records one payment attempt or settlement against a job card.
// TransactionReference carries the caller-supplied idempotency key and
// GatewayTransactionID the provider's charge id; both are uniquely indexed so
// duplicate submissions and replayed gateway events collide at the database
// level.
type Payment struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentNumber string     `gorm:"column:payment_number;type:varchar(50);uniqueIndex;not null"`
	JobCardID     uuid.UUID  `gorm:"column:job_card_id;type:uuid;not null;index"`
	UserID        *uuid.UUID `gorm:"column:user_id;type:uuid"`
	CollectedByID *uuid.UUID `gorm:"column:collected_by_id;type:uuid"`

	Amount   decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency string          `gorm:"column:currency;type:varchar(3);not null;default:'AED'"`

	Status        enums.PaymentStatus  `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	PaymentMethod *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	PaymentType   enums.PaymentType    `gorm:"column:payment_type;type:payment_type;not null;default:'full'"`

	Provider             *string        `gorm:"column:provider;type:varchar(50)"`
	TransactionReference *string        `gorm:"column:transaction_reference;type:varchar(255);uniqueIndex"`
	GatewayTransactionID *string        `gorm:"column:gateway_transaction_id;type:varchar(255);uniqueIndex"`
	GatewayResponse      *types.JSONMap `gorm:"column:gateway_response;type:jsonb;serializer:json"`
	PaymentLinkURL       *string        `gorm:"column:payment_link_url;type:varchar(500)"`
	PaymentLinkExpires   *time.Time     `gorm:"column:payment_link_expires"`

	Notes *string `gorm:"column:notes;type:text"`

	PaidAt    *time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// Invoice is the customer-facing document generated from the job ledger.
type Invoice struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber string    `gorm:"column:invoice_number;type:varchar(50);uniqueIndex;not null"`
	InvoiceType   string    `gorm:"column:invoice_type;type:varchar(50);not null;default:'final'"`
	JobCardID     uuid.UUID `gorm:"column:job_card_id;type:uuid;not null;index"`

	LineItems      *types.JSONMap  `gorm:"column:line_items;type:jsonb;serializer:json"`
	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TaxRate        decimal.Decimal `gorm:"column:tax_rate;type:numeric(6,4);not null;default:0.05"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	GrandTotal     decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2);not null"`

	Terms   *string    `gorm:"column:terms;type:text"`
	DueDate *time.Time `gorm:"column:due_date"`
	IsPaid  bool       `gorm:"column:is_paid;not null;default:false"`

	PDFURL *string `gorm:"column:pdf_url;type:varchar(500)"`

	IsSent bool       `gorm:"column:is_sent;not null;default:false"`
	SentAt *time.Time `gorm:"column:sent_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
