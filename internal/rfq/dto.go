package rfq

import (
	"time"

	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateRequest opens a new quote round for a job's parts list.
type CreateRequest struct {
	JobCardID       uuid.UUID
	PartsList       types.PartRequests
	QuoteDeadline   *time.Time
	SelectionRule   enums.SelectionPolicy
	MaxDeliveryDays int
}

// SendRequest fans the RFQ out to vendors. Empty VendorIDs means "invite the
// configured cap of active vendors".
type SendRequest struct {
	RFQID     uuid.UUID
	VendorIDs []uuid.UUID
}

// QuoteSubmission is a vendor's priced response.
type QuoteSubmission struct {
	RFQID          uuid.UUID
	QuoteNumber    *string
	LineItems      types.QuoteLineItems
	DeliveryDays   int
	DeliveryNotes  *string
	WarrantyMonths *int
	WarrantyTerms  *string
	ValidUntil     *time.Time
	VendorNotes    *string
}

// SelectionRequest commits a winning quote.
type SelectionRequest struct {
	RFQID   uuid.UUID
	QuoteID uuid.UUID
	Reason  *string
}
