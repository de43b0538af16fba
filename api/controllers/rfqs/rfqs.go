package rfqs

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/api/middleware"
	"github.com/samiralkaabi/garagehub-backend/api/responses"
	"github.com/samiralkaabi/garagehub-backend/api/validators"
	"github.com/samiralkaabi/garagehub-backend/internal/rfq"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/types"
)

type createRequest struct {
	JobCardID       string             `json:"job_card_id" validate:"required,uuid"`
	PartsList       types.PartRequests `json:"parts_list" validate:"required,min=1"`
	QuoteDeadline   *time.Time         `json:"quote_deadline,omitempty"`
	SelectionRule   string             `json:"selection_rule,omitempty"`
	MaxDeliveryDays int                `json:"max_delivery_days,omitempty" validate:"omitempty,min=1"`
}

type sendRequest struct {
	VendorIDs []string `json:"vendor_ids,omitempty" validate:"omitempty,dive,uuid"`
}

type quoteSubmissionRequest struct {
	QuoteNumber    *string              `json:"quote_number,omitempty"`
	LineItems      types.QuoteLineItems `json:"line_items" validate:"required,min=1"`
	DeliveryDays   int                  `json:"delivery_days" validate:"required,min=1"`
	DeliveryNotes  *string              `json:"delivery_notes,omitempty"`
	WarrantyMonths *int                 `json:"warranty_months,omitempty" validate:"omitempty,min=0"`
	WarrantyTerms  *string              `json:"warranty_terms,omitempty"`
	ValidUntil     *time.Time           `json:"valid_until,omitempty"`
	VendorNotes    *string              `json:"vendor_notes,omitempty"`
}

type selectionRequest struct {
	QuoteID string  `json:"quote_id" validate:"required,uuid"`
	Reason  *string `json:"reason,omitempty"`
}

func actorFromContext(ctx context.Context) (rfq.Actor, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return rfq.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return rfq.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return rfq.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	return rfq.Actor{UserID: userID, Role: role}, nil
}

// Create opens a quote round for a job's parts list.
func Create(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, _ := uuid.Parse(body.JobCardID)

		var rule enums.SelectionPolicy
		if body.SelectionRule != "" {
			parsed, err := enums.ParseSelectionPolicy(body.SelectionRule)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selection rule"))
				return
			}
			rule = parsed
		}

		created, err := svc.Create(r.Context(), actor, rfq.CreateRequest{
			JobCardID:       jobID,
			PartsList:       body.PartsList,
			QuoteDeadline:   body.QuoteDeadline,
			SelectionRule:   rule,
			MaxDeliveryDays: body.MaxDeliveryDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// Send fans the RFQ out to vendors.
func Send(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rfqID, err := validators.ParsePathUUID(chi.URLParam(r, "rfqId"), "rfq id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorIDs := make([]uuid.UUID, 0, len(body.VendorIDs))
		for _, raw := range body.VendorIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
				return
			}
			vendorIDs = append(vendorIDs, id)
		}

		sent, err := svc.Send(r.Context(), actor, rfq.SendRequest{RFQID: rfqID, VendorIDs: vendorIDs})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sent)
	}
}

// Detail returns one RFQ with its quotes.
func Detail(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rfqID, err := validators.ParsePathUUID(chi.URLParam(r, "rfqId"), "rfq id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		found, err := svc.Get(r.Context(), actor, rfqID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, found)
	}
}

// ListForJob returns the quote rounds opened for a job.
func ListForJob(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		jobID, err := validators.ParsePathUUID(chi.URLParam(r, "jobId"), "job id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForJob(r.Context(), jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// VendorInbox returns RFQs the calling vendor was invited to.
func VendorInbox(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var statuses []enums.RFQStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				status, err := enums.ParseRFQStatus(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
					return
				}
				statuses = append(statuses, status)
			}
		}

		list, err := svc.ListForVendor(r.Context(), actor, statuses)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SubmitQuote records the calling vendor's priced response.
func SubmitQuote(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rfqID, err := validators.ParsePathUUID(chi.URLParam(r, "rfqId"), "rfq id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body quoteSubmissionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.SubmitQuote(r.Context(), actor, rfq.QuoteSubmission{
			RFQID:          rfqID,
			QuoteNumber:    body.QuoteNumber,
			LineItems:      body.LineItems,
			DeliveryDays:   body.DeliveryDays,
			DeliveryNotes:  body.DeliveryNotes,
			WarrantyMonths: body.WarrantyMonths,
			WarrantyTerms:  body.WarrantyTerms,
			ValidUntil:     body.ValidUntil,
			VendorNotes:    body.VendorNotes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

// Select commits a manually chosen winning quote.
func Select(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rfqID, err := validators.ParsePathUUID(chi.URLParam(r, "rfqId"), "rfq id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body selectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quoteID, _ := uuid.Parse(body.QuoteID)

		selected, err := svc.SelectQuote(r.Context(), actor, rfq.SelectionRequest{
			RFQID:   rfqID,
			QuoteID: quoteID,
			Reason:  body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, selected)
	}
}

// AutoSelect applies the RFQ's selection rule to the submitted quotes.
func AutoSelect(svc rfq.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rfq service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rfqID, err := validators.ParsePathUUID(chi.URLParam(r, "rfqId"), "rfq id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selected, err := svc.AutoSelect(r.Context(), actor, rfqID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, selected)
	}
}
