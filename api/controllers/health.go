package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/samiralkaabi/garagehub-backend/api/responses"
	"github.com/samiralkaabi/garagehub-backend/pkg/config"
	"github.com/samiralkaabi/garagehub-backend/pkg/db"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
	"github.com/samiralkaabi/garagehub-backend/pkg/logger"
	"github.com/samiralkaabi/garagehub-backend/pkg/redis"
)

const readinessTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GarageHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores so load balancers stop routing to an
// instance that lost its database or cache.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GarageHub-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var errs []error
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("database unreachable: %w", err))
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("redis unreachable: %w", err))
			}
		}
		if combined := multierr.Combine(errs...); combined != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, "dependency not ready"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
