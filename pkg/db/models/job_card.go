package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

// JobCard is the aggregate root for a vehicle service job. Financial columns
// are maintained by the estimate ledger and must stay internally consistent:
// estimate_total = labour_total + parts_total + pickup_delivery_fee + tax_amount,
// grand_total = estimate_total - discount_amount and
// balance_due = grand_total - amount_paid.
type JobCard struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobNumber string    `gorm:"column:job_number;type:varchar(20);uniqueIndex;not null"`

	CustomerID       uuid.UUID  `gorm:"column:customer_id;type:uuid;not null"`
	VehicleID        uuid.UUID  `gorm:"column:vehicle_id;type:uuid;not null"`
	BranchID         uuid.UUID  `gorm:"column:branch_id;type:uuid;not null"`
	ServiceAdvisorID *uuid.UUID `gorm:"column:service_advisor_id;type:uuid"`
	TechnicianID     *uuid.UUID `gorm:"column:technician_id;type:uuid"`
	DriverID         *uuid.UUID `gorm:"column:driver_id;type:uuid"`

	ServiceType     enums.ServiceType     `gorm:"column:service_type;type:service_type;not null"`
	ServiceCategory enums.ServiceCategory `gorm:"column:service_category;type:service_category"`
	Status          enums.JobStatus       `gorm:"column:status;type:job_status;not null;default:'requested'"`
	IntakeType      enums.DeliveryType    `gorm:"column:intake_type;type:delivery_type;not null;default:'drop_off'"`

	PickupAddress       *string    `gorm:"column:pickup_address;type:varchar(500)"`
	PickupLatitude      *float64   `gorm:"column:pickup_latitude"`
	PickupLongitude     *float64   `gorm:"column:pickup_longitude"`
	PreferredPickupTime *time.Time `gorm:"column:preferred_pickup_time"`
	ActualPickupTime    *time.Time `gorm:"column:actual_pickup_time"`

	DeliveryType          enums.DeliveryType `gorm:"column:delivery_type;type:delivery_type;not null;default:'drop_off'"`
	DeliveryAddress       *string            `gorm:"column:delivery_address;type:varchar(500)"`
	PreferredDeliveryTime *time.Time         `gorm:"column:preferred_delivery_time"`
	ActualDeliveryTime    *time.Time         `gorm:"column:actual_delivery_time"`

	ScheduledDate           *time.Time `gorm:"column:scheduled_date"`
	EstimatedCompletionDays *int       `gorm:"column:estimated_completion_days"`
	EstimatedCompletionDate *time.Time `gorm:"column:estimated_completion_date"`
	ActualCompletionDate    *time.Time `gorm:"column:actual_completion_date"`

	LabourTotal       decimal.Decimal `gorm:"column:labour_total;type:numeric(12,2);not null;default:0"`
	PartsTotal        decimal.Decimal `gorm:"column:parts_total;type:numeric(12,2);not null;default:0"`
	PickupDeliveryFee decimal.Decimal `gorm:"column:pickup_delivery_fee;type:numeric(12,2);not null;default:0"`
	TaxAmount         decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null;default:0"`
	DiscountAmount    decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	EstimateTotal     decimal.Decimal `gorm:"column:estimate_total;type:numeric(12,2);not null;default:0"`
	GrandTotal        decimal.Decimal `gorm:"column:grand_total;type:numeric(12,2);not null;default:0"`
	AmountPaid        decimal.Decimal `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	BalanceDue        decimal.Decimal `gorm:"column:balance_due;type:numeric(12,2);not null;default:0"`

	EstimateApprovedAt *time.Time `gorm:"column:estimate_approved_at"`
	PartsApprovedAt    *time.Time `gorm:"column:parts_approved_at"`

	CustomerNotes     *string        `gorm:"column:customer_notes;type:text"`
	CustomerMediaURLs *types.JSONMap `gorm:"column:customer_media_urls;type:jsonb;serializer:json"`

	CustomerRating      *int       `gorm:"column:customer_rating"`
	CustomerFeedback    *string    `gorm:"column:customer_feedback;type:text"`
	FeedbackSubmittedAt *time.Time `gorm:"column:feedback_submitted_at"`

	LockVersion int `gorm:"column:lock_version;not null;default:0"`

	EstimateItems []EstimateItem `gorm:"foreignKey:JobCardID;constraint:OnDelete:CASCADE"`
	Updates       []JobUpdate    `gorm:"foreignKey:JobCardID;constraint:OnDelete:CASCADE"`
	Payments      []Payment      `gorm:"foreignKey:JobCardID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EstimateItem is a single labour, part or fee line on a job estimate.
type EstimateItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobCardID uuid.UUID `gorm:"column:job_card_id;type:uuid;not null;index"`

	ItemType    enums.EstimateItemType `gorm:"column:item_type;type:estimate_item_type;not null"`
	Description string                 `gorm:"column:description;type:varchar(500);not null"`
	PartNumber  *string                `gorm:"column:part_number;type:varchar(100)"`

	Quantity   decimal.Decimal `gorm:"column:quantity;type:numeric(10,2);not null;default:1"`
	Unit       string          `gorm:"column:unit;type:varchar(20);not null;default:'units'"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`

	IsApproved     bool       `gorm:"column:is_approved;not null;default:false"`
	WarrantyMonths *int       `gorm:"column:warranty_months"`
	OrderItemID    *uuid.UUID `gorm:"column:order_item_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// JobUpdate is a progress note on a job, optionally tied to a status change.
type JobUpdate struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	JobCardID   uuid.UUID `gorm:"column:job_card_id;type:uuid;not null;index"`
	CreatedByID uuid.UUID `gorm:"column:created_by_id;type:uuid;not null"`

	Title     string         `gorm:"column:title;type:varchar(255);not null"`
	Message   *string        `gorm:"column:message;type:text"`
	MediaURLs *types.JSONMap `gorm:"column:media_urls;type:jsonb;serializer:json"`

	IsVisibleToCustomer bool `gorm:"column:is_visible_to_customer;not null;default:true"`

	PreviousStatus *enums.JobStatus `gorm:"column:previous_status;type:job_status"`
	NewStatus      *enums.JobStatus `gorm:"column:new_status;type:job_status"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
