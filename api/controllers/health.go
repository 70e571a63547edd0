package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dovl-commerce/dovl-backend/api/responses"
	"github.com/dovl-commerce/dovl-backend/pkg/config"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dovl-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the document store and Redis in parallel.
func HealthReady(cfg *config.Config, logg *logger.Logger, mongo, redis pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dovl-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"mongo": "ok", "redis": "ok"}
		results := make([]error, 2)
		g, gctx := errgroup.WithContext(ctx)
		for i, p := range []pinger{mongo, redis} {
			i, p := i, p
			g.Go(func() error {
				if p == nil {
					return nil
				}
				results[i] = p.Ping(gctx)
				return nil
			})
		}
		_ = g.Wait()

		var failed error
		for i, name := range []string{"mongo", "redis"} {
			if results[i] != nil {
				checks[name] = "unavailable"
				failed = results[i]
			}
		}
		if failed != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, failed, "readiness check failed").WithDetails(checks))
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
