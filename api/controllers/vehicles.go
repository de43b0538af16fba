package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/api/responses"
	"github.com/samiralkaabi/garagehub-backend/api/validators"
	"github.com/samiralkaabi/garagehub-backend/internal/vehicles"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
)

type vehicleRegisterRequest struct {
	PlateNumber string  `json:"plate_number" validate:"required,min=2,max=20"`
	Make        string  `json:"make" validate:"required,min=2,max=60"`
	Model       string  `json:"model" validate:"required,min=1,max=60"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,min=1950,max=2100"`
	Color       *string `json:"color,omitempty" validate:"omitempty,max=40"`
	VIN         *string `json:"vin,omitempty" validate:"omitempty,max=17"`
	Mileage     *int    `json:"mileage,omitempty" validate:"omitempty,min=0"`
	OwnerID     *string `json:"owner_id,omitempty" validate:"omitempty,uuid"`
}

// VehicleRegister adds a vehicle. Customers register against their own
// account; staff may register on behalf of an owner.
func VehicleRegister(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body vehicleRegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerID := actor.UserID
		if body.OwnerID != nil {
			if !actor.Role.IsStaff() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot register a vehicle for another owner"))
				return
			}
			parsed, err := uuid.Parse(*body.OwnerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner id"))
				return
			}
			ownerID = parsed
		}

		vehicle, err := svc.Register(r.Context(), vehicles.RegisterRequest{
			OwnerID:     ownerID,
			PlateNumber: body.PlateNumber,
			Make:        body.Make,
			Model:       body.Model,
			Year:        body.Year,
			Color:       body.Color,
			VIN:         body.VIN,
			Mileage:     body.Mileage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vehicle)
	}
}

// VehicleList returns the caller's vehicles, or another owner's when staff
// pass ownerId.
func VehicleList(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ownerID := actor.UserID
		if raw := strings.TrimSpace(r.URL.Query().Get("ownerId")); raw != "" {
			if !actor.Role.IsStaff() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "cannot list another owner's vehicles"))
				return
			}
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid owner id"))
				return
			}
			ownerID = parsed
		}

		list, err := svc.ListByOwner(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// VehicleDetail returns one vehicle after an ownership check.
func VehicleDetail(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicles service unavailable"))
			return
		}

		actor, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicleID, err := validators.ParsePathUUID(chi.URLParam(r, "vehicleId"), "vehicle id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.Get(r.Context(), vehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.Role == enums.UserRoleCustomer && vehicle.OwnerID != actor.UserID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle does not belong to caller"))
			return
		}
		responses.WriteSuccess(w, vehicle)
	}
}
