package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// RFQ is a request for parts quotes sent to a set of vendors.
type RFQ struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RFQNumber   string    `gorm:"column:rfq_number;type:varchar(50);uniqueIndex;not null"`
	JobCardID   uuid.UUID `gorm:"column:job_card_id;type:uuid;not null;index"`
	CreatedByID uuid.UUID `gorm:"column:created_by_id;type:uuid;not null"`

	Status    enums.RFQStatus    `gorm:"column:status;type:rfq_status;not null;default:'pending'"`
	PartsList types.PartRequests `gorm:"column:parts_list;type:jsonb;not null"`

	QuoteDeadline   *time.Time            `gorm:"column:quote_deadline"`
	SelectionRule   enums.SelectionPolicy `gorm:"column:selection_rule;type:varchar(50);not null;default:'cheapest_available'"`
	MaxDeliveryDays int                   `gorm:"column:max_delivery_days;not null;default:7"`

	SentAt *time.Time `gorm:"column:sent_at"`

	SelectedQuoteID *uuid.UUID `gorm:"column:selected_quote_id;type:uuid"`
	SelectedAt      *time.Time `gorm:"column:selected_at"`
	SelectedByID    *uuid.UUID `gorm:"column:selected_by_id;type:uuid"`
	SelectionReason *string    `gorm:"column:selection_reason;type:text"`

	Quotes []VendorQuote `gorm:"foreignKey:RFQID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table since the default pluralizer mangles the acronym.
func (RFQ) TableName() string {
	return "rfqs"
}

// VendorQuote is one vendor's priced response to an RFQ.
type VendorQuote struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteNumber *string   `gorm:"column:quote_number;type:varchar(50);uniqueIndex"`
	RFQID       uuid.UUID `gorm:"column:rfq_id;type:uuid;not null;index"`
	VendorID    uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`

	Status enums.QuoteStatus `gorm:"column:status;type:quote_status;not null;default:'pending'"`

	LineItems     types.QuoteLineItems `gorm:"column:line_items;type:jsonb"`
	Subtotal      decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	TaxAmount     decimal.Decimal      `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	TotalAmount   decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	DeliveryDays  *int                 `gorm:"column:delivery_days"`
	DeliveryNotes *string              `gorm:"column:delivery_notes;type:text"`

	WarrantyMonths *int    `gorm:"column:warranty_months"`
	WarrantyTerms  *string `gorm:"column:warranty_terms;type:varchar(500)"`

	ValidUntil  *time.Time `gorm:"column:valid_until"`
	VendorNotes *string    `gorm:"column:vendor_notes;type:text"`

	SubmittedAt *time.Time `gorm:"column:submitted_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
