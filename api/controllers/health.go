package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopward/shopward-backend/api/responses"
	"github.com/shopward/shopward-backend/pkg/config"
	pkgerrors "github.com/shopward/shopward-backend/pkg/errors"
	"github.com/shopward/shopward-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopward-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies and reports per-component status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopward-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		components := map[string]string{}
		healthy := true

		check := func(name string, p Pinger) {
			if p == nil {
				components[name] = "not configured"
				healthy = false
				return
			}
			if err := p.Ping(ctx); err != nil {
				components[name] = err.Error()
				healthy = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "component", name), "readiness check failed", err)
				}
				return
			}
			components[name] = "ok"
		}

		check("database", dbP)
		check("redis", redisP)

		if !healthy {
			responses.WriteError(ctx, nil, w,
				pkgerrors.New(pkgerrors.CodeDependency, "not ready").WithDetails(components))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "components": components})
	}
}
