package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/api/middleware"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
)

// requestActor is the authenticated identity extracted from the request context.
type requestActor struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	BranchID *uuid.UUID
}

func actorFromContext(ctx context.Context) (requestActor, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return requestActor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return requestActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return requestActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}

	actor := requestActor{UserID: userID, Role: role}
	if rawBranch := middleware.BranchIDFromContext(ctx); rawBranch != "" {
		branchID, err := uuid.Parse(rawBranch)
		if err != nil {
			return requestActor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid branch id")
		}
		actor.BranchID = &branchID
	}
	return actor, nil
}
