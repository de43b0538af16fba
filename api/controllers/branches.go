package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/api/responses"
	"github.com/samiralkaabi/garagehub-backend/api/validators"
	"github.com/samiralkaabi/garagehub-backend/internal/branches"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
)

// BranchList returns the active service centers customers can book into.
func BranchList(repo branches.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branches repository unavailable"))
			return
		}

		list, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list branches"))
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// BranchDetail returns a single branch.
func BranchDetail(repo branches.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "branches repository unavailable"))
			return
		}

		branchID, err := validators.ParsePathUUID(chi.URLParam(r, "branchId"), "branch id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		branch, err := repo.FindByID(r.Context(), branchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch branch"))
			return
		}
		responses.WriteSuccess(w, branch)
	}
}
