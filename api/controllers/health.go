package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/giftwavehq/giftwave-backend/api/responses"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Giftwave-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports the reachability of each backing dependency. It always
// answers 200 for "live" style checks; a failing dependency flips the status
// to degraded and returns 503 so load balancers stop routing traffic here.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		probe := func(name string, p pinger) {
			if p == nil {
				checks[name] = "not configured"
				return
			}
			if err := p.Ping(ctx); err != nil {
				checks[name] = "unreachable"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "readiness probe failed for "+name, err)
				}
				return
			}
			checks[name] = "ok"
		}

		probe("database", dbP)
		probe("redis", redisP)

		w.Header().Set("X-Giftwave-Env", cfg.App.Env)
		status := "ready"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
