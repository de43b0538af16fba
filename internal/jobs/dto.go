package jobs

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	BranchID *uuid.UUID
}

// BookingRequest captures a customer booking a service slot.
type BookingRequest struct {
	VehicleID           uuid.UUID
	BranchID            uuid.UUID
	ServiceType         enums.ServiceType
	IntakeType          enums.DeliveryType
	PickupAddress       *string
	PickupLatitude      *float64
	PickupLongitude     *float64
	PreferredPickupTime *time.Time
	ScheduledDate       *time.Time
	CustomerNotes       *string
	CustomerMediaURLs   []string
}

// EstimateItemInput is one line of a new estimate.
type EstimateItemInput struct {
	ItemType       enums.EstimateItemType
	Description    string
	PartNumber     *string
	Quantity       decimal.Decimal
	Unit           string
	UnitPrice      decimal.Decimal
	WarrantyMonths *int
}

// EstimateInput replaces a job's estimate wholesale.
type EstimateInput struct {
	Items             []EstimateItemInput
	PickupDeliveryFee decimal.Decimal
	TaxRatePercent    decimal.Decimal
	Discount          decimal.Decimal
}

// TransitionRequest asks the state machine to move a job.
type TransitionRequest struct {
	JobID  uuid.UUID
	Target enums.JobStatus
	Notes  *string
}

// UpdateInput is a progress note optionally shown to the customer.
type UpdateInput struct {
	Title               string
	Message             *string
	MediaURLs           []string
	IsVisibleToCustomer bool
}

// FeedbackInput is the post-service customer rating.
type FeedbackInput struct {
	Rating   int
	Feedback *string
}
