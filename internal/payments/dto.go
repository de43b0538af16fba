package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ManualPaymentRequest settles part or all of a job balance at the counter.
// TransactionReference is the caller's idempotency key: replays with the same
// reference return the original payment untouched.
type ManualPaymentRequest struct {
	JobCardID            uuid.UUID
	Amount               decimal.Decimal
	Method               enums.PaymentMethod
	TransactionReference *string
	Notes                *string
}

// PaymentLinkRequest asks for a hosted checkout link the customer can pay
// remotely. The resulting payment stays pending until the gateway confirms.
type PaymentLinkRequest struct {
	JobCardID uuid.UUID
	Amount    decimal.Decimal
}

// Confirmation carries the gateway's settlement result for a pending payment.
type Confirmation struct {
	PaymentID            uuid.UUID
	GatewayTransactionID *string
	GatewayResponse      *types.JSONMap
	PaidAt               *time.Time
}

// RefundRequest reverses a completed payment back onto the job ledger.
type RefundRequest struct {
	PaymentID uuid.UUID
	Reason    *string
}
