package jobs

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samiralkaabi/garagehub-backend/api/responses"
	"github.com/samiralkaabi/garagehub-backend/api/validators"
	"github.com/samiralkaabi/garagehub-backend/internal/audit"
	internaljobs "github.com/samiralkaabi/garagehub-backend/internal/jobs"
	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/pagination"
)

type bookingRequest struct {
	VehicleID           string     `json:"vehicle_id" validate:"required,uuid"`
	BranchID            string     `json:"branch_id" validate:"required,uuid"`
	ServiceType         string     `json:"service_type" validate:"required"`
	IntakeType          string     `json:"intake_type" validate:"required"`
	PickupAddress       *string    `json:"pickup_address,omitempty"`
	PickupLatitude      *float64   `json:"pickup_latitude,omitempty"`
	PickupLongitude     *float64   `json:"pickup_longitude,omitempty"`
	PreferredPickupTime *time.Time `json:"preferred_pickup_time,omitempty"`
	ScheduledDate       *time.Time `json:"scheduled_date,omitempty"`
	CustomerNotes       *string    `json:"customer_notes,omitempty"`
	CustomerMediaURLs   []string   `json:"customer_media_urls,omitempty"`
}

type transitionRequest struct {
	Target string  `json:"target" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type estimateItemRequest struct {
	ItemType       string          `json:"item_type" validate:"required"`
	Description    string          `json:"description" validate:"required,min=2"`
	PartNumber     *string         `json:"part_number,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	WarrantyMonths *int            `json:"warranty_months,omitempty" validate:"omitempty,min=0"`
}

type estimateRequest struct {
	Items             []estimateItemRequest `json:"items" validate:"required,min=1,dive"`
	PickupDeliveryFee decimal.Decimal       `json:"pickup_delivery_fee"`
	TaxRatePercent    decimal.Decimal       `json:"tax_rate_percent"`
	Discount          decimal.Decimal       `json:"discount"`
}

type approvalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

type updateRequest struct {
	Title               string   `json:"title" validate:"required,min=2,max=200"`
	Message             *string  `json:"message,omitempty"`
	MediaURLs           []string `json:"media_urls,omitempty"`
	IsVisibleToCustomer bool     `json:"is_visible_to_customer"`
}

type feedbackRequest struct {
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Feedback *string `json:"feedback,omitempty"`
}

type jobPage struct {
	Items      []models.JobCard `json:"items"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// Book opens a job card from a customer booking.
func Book(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bookingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicleID, _ := uuid.Parse(body.VehicleID)
		branchID, _ := uuid.Parse(body.BranchID)

		serviceType, err := enums.ParseServiceType(body.ServiceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service type"))
			return
		}
		intakeType, err := enums.ParseDeliveryType(body.IntakeType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid intake type"))
			return
		}

		job, err := svc.CreateBooking(r.Context(), actor, internaljobs.BookingRequest{
			VehicleID:           vehicleID,
			BranchID:            branchID,
			ServiceType:         serviceType,
			IntakeType:          intakeType,
			PickupAddress:       body.PickupAddress,
			PickupLatitude:      body.PickupLatitude,
			PickupLongitude:     body.PickupLongitude,
			PreferredPickupTime: body.PreferredPickupTime,
			ScheduledDate:       body.ScheduledDate,
			CustomerNotes:       body.CustomerNotes,
			CustomerMediaURLs:   body.CustomerMediaURLs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, job)
	}
}

// Detail returns one job card with its estimate and quote context.
func Detail(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.Get(r.Context(), actor, jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// List returns a cursor page of jobs scoped to the caller's role.
func List(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		var statuses []enums.JobStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				status, err := enums.ParseJobStatus(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
					return
				}
				statuses = append(statuses, status)
			}
		}

		var branchID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("branchId")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid branch id"))
				return
			}
			branchID = &parsed
		}

		items, next, err := svc.List(r.Context(), actor, statuses, branchID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := jobPage{Items: items}
		if next != nil {
			encoded := pagination.EncodeCursor(*next)
			page.NextCursor = &encoded
		}
		responses.WriteSuccess(w, page)
	}
}

// Transition moves a job along its lifecycle.
func Transition(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transitionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseJobStatus(body.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		job, err := svc.Transition(r.Context(), actor, internaljobs.TransitionRequest{
			JobID:  jobID,
			Target: target,
			Notes:  body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// BuildEstimate replaces the job's estimate and recalculates its ledger.
func BuildEstimate(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body estimateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internaljobs.EstimateInput{
			PickupDeliveryFee: body.PickupDeliveryFee,
			TaxRatePercent:    body.TaxRatePercent,
			Discount:          body.Discount,
		}
		for _, item := range body.Items {
			itemType, err := enums.ParseEstimateItemType(item.ItemType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
				return
			}
			input.Items = append(input.Items, internaljobs.EstimateItemInput{
				ItemType:       itemType,
				Description:    item.Description,
				PartNumber:     item.PartNumber,
				Quantity:       item.Quantity,
				Unit:           item.Unit,
				UnitPrice:      item.UnitPrice,
				WarrantyMonths: item.WarrantyMonths,
			})
		}

		job, err := svc.BuildEstimate(r.Context(), actor, jobID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// ApproveEstimate records the customer's decision on the estimate.
func ApproveEstimate(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approvalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.ApproveEstimate(r.Context(), actor, jobID, *body.Approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// ApproveParts records the customer's decision on the selected parts quote.
func ApproveParts(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approvalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.ApproveParts(r.Context(), actor, jobID, *body.Approved)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// AddUpdate posts a progress note on a job.
func AddUpdate(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update, err := svc.AddUpdate(r.Context(), actor, jobID, internaljobs.UpdateInput{
			Title:               body.Title,
			Message:             body.Message,
			MediaURLs:           body.MediaURLs,
			IsVisibleToCustomer: body.IsVisibleToCustomer,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, update)
	}
}

// ListUpdates returns the job's progress feed.
func ListUpdates(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updates, err := svc.ListUpdates(r.Context(), actor, jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updates)
	}
}

// SubmitFeedback records the post-service rating.
func SubmitFeedback(svc internaljobs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "jobs service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body feedbackRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		job, err := svc.SubmitFeedback(r.Context(), actor, jobID, internaljobs.FeedbackInput{
			Rating:   body.Rating,
			Feedback: body.Feedback,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, job)
	}
}

// AuditTrail lists the audit entries recorded against a job, newest first.
func AuditTrail(repo audit.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit repository unavailable"))
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := repo.ListForJob(r.Context(), jobID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries"))
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
