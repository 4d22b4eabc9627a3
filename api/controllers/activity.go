package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/api/responses"
	"github.com/giftwavehq/giftwave-backend/internal/activity"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

// AdminActivityList returns the platform-wide activity feed with optional
// category, severity, actor, merchant, text, and time-range filters.
func AdminActivityList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		params, err := parseActivityListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("merchantId")); raw != "" {
			mid, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id"))
				return
			}
			params.MerchantID = &mid
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MerchantActivityList returns the activity feed scoped to the calling
// merchant. The merchant filter comes from the token, never from the query.
func MerchantActivityList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		merchantID, err := contextMerchantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parseActivityListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.MerchantID = &merchantID

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminActivityStats returns today's dashboard aggregates across the
// platform.
func AdminActivityStats(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		stats, err := svc.Stats(r.Context(), activity.StatsParams{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// MerchantActivityStats returns today's aggregates for the calling merchant.
func MerchantActivityStats(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		merchantID, err := contextMerchantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), activity.StatsParams{MerchantID: &merchantID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// ActivityTimeline returns the audit trail for one resource, newest first.
func ActivityTimeline(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		rows, err := svc.Timeline(r.Context(), activity.TimelineParams{
			ResourceType: chi.URLParam(r, "resourceType"),
			ResourceID:   chi.URLParam(r, "resourceId"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}

func parseActivityListParams(r *http.Request) (activity.ListParams, error) {
	params := activity.ListParams{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := enums.ParseActivityCategory(raw)
		if err != nil {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity category")
		}
		params.Category = &category
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("severity")); raw != "" {
		severity, err := enums.ParseSeverity(raw)
		if err != nil {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "invalid severity")
		}
		params.Severity = &severity
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("actorId")); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor id")
		}
		params.ActorID = &actorID
	}
	from, err := parseQueryTime(r, "from")
	if err != nil {
		return params, err
	}
	params.From = from
	to, err := parseQueryTime(r, "to")
	if err != nil {
		return params, err
	}
	params.To = to

	page, limit, err := parsePageParams(r)
	if err != nil {
		return params, err
	}
	params.Page = page
	params.Limit = limit
	return params, nil
}

func parseQueryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timestamp must be RFC 3339").WithDetails(map[string]any{"field": key})
	}
	return &t, nil
}
