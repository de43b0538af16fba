package jobs

import (
	"context"

	"github.com/google/uuid"

	"github.com/samiralkaabi/garagehub-backend/api/middleware"
	internaljobs "github.com/samiralkaabi/garagehub-backend/internal/jobs"
	"github.com/samiralkaabi/garagehub-backend/pkg/enums"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
)

func actorFromContext(ctx context.Context) (internaljobs.Actor, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return internaljobs.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internaljobs.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return internaljobs.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}

	actor := internaljobs.Actor{UserID: userID, Role: role}
	if rawBranch := middleware.BranchIDFromContext(ctx); rawBranch != "" {
		branchID, err := uuid.Parse(rawBranch)
		if err != nil {
			return internaljobs.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid branch id")
		}
		actor.BranchID = &branchID
	}
	return actor, nil
}
