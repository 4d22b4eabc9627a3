package controllers

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/giftwavehq/giftwave-backend/api/responses"
	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	pkgAuth "github.com/giftwavehq/giftwave-backend/pkg/auth"
	"github.com/giftwavehq/giftwave-backend/pkg/auth/session"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

// Origin checks are skipped because every connection must present a valid
// bearer token before the upgrade happens.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RealtimeConnect authenticates the handshake and upgrades it to a websocket.
// Admins join the platform-wide room; every other caller joins their own
// merchant room. Browsers cannot set headers on websocket dials, so the token
// is also accepted as a query parameter.
func RealtimeConnect(cfg config.JWTConfig, verifier session.AccessSessionChecker, hub *realtime.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "realtime hub unavailable"))
			return
		}

		token := bearerOrQueryToken(r)
		if token == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		claims, err := pkgAuth.ParseAccessToken(cfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}
		if claims.ID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
			return
		}
		if verifier != nil {
			ok, err := verifier.HasSession(r.Context(), claims.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
				return
			}
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
				return
			}
		}

		rooms := []string{realtime.MerchantRoom(claims.UserID)}
		if claims.Role == enums.UserRoleAdmin {
			rooms = []string{realtime.RoomAdmin}
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote its own error response.
			if logg != nil {
				logg.Error(r.Context(), "websocket upgrade failed", err)
			}
			return
		}

		realtime.NewClient(hub, conn, rooms).Start()
	}
}

func bearerOrQueryToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw != "" {
		return raw
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
