package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giftwavehq/giftwave-backend/api/controllers"
	"github.com/giftwavehq/giftwave-backend/api/middleware"
	"github.com/giftwavehq/giftwave-backend/internal/activity"
	"github.com/giftwavehq/giftwave-backend/internal/auth"
	"github.com/giftwavehq/giftwave-backend/internal/giftcards"
	"github.com/giftwavehq/giftwave-backend/internal/merchants"
	"github.com/giftwavehq/giftwave-backend/internal/notifications"
	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	"github.com/giftwavehq/giftwave-backend/pkg/auth/session"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/db"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/redis"
)

// Params collects everything the router wires into handlers.
type Params struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         redis.Pinger
	Sessions      session.AccessSessionChecker
	Hub           *realtime.Hub
	Auth          auth.Service
	Merchants     merchants.Service
	GiftCards     giftcards.Service
	Activity      activity.Service
	Notifications notifications.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	// The websocket handshake authenticates itself because browsers cannot
	// attach headers to websocket dials.
	r.Get("/api/v1/realtime", controllers.RealtimeConnect(cfg.JWT, p.Sessions, p.Hub, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))

		r.Route("/merchants", func(r chi.Router) {
			r.Post("/", controllers.MerchantRegister(p.Merchants, logg))
			r.Get("/me", controllers.MerchantProfile(p.Merchants, logg))
		})

		r.Route("/gift-cards", func(r chi.Router) {
			r.Get("/{code}", controllers.GiftCardLookup(p.GiftCards, logg))
			r.Post("/{code}/purchase", controllers.GiftCardPurchase(p.GiftCards, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleMerchant), logg))
				r.Post("/", controllers.GiftCardCreate(p.GiftCards, logg))
				r.Get("/", controllers.GiftCardList(p.GiftCards, logg))
				r.Post("/{code}/redeem", controllers.GiftCardRedeem(p.GiftCards, logg))
				r.Get("/{giftCardId}/transactions", controllers.GiftCardTransactions(p.GiftCards, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(p.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			r.Get("/preferences", controllers.GetNotificationPreferences(p.Notifications, logg))
			r.Put("/preferences", controllers.UpdateNotificationPreferences(p.Notifications, logg))
		})

		r.Route("/activity", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleMerchant), logg))
			r.Get("/", controllers.MerchantActivityList(p.Activity, logg))
			r.Get("/stats", controllers.MerchantActivityStats(p.Activity, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

		r.Route("/merchants", func(r chi.Router) {
			r.Get("/", controllers.AdminMerchantList(p.Merchants, logg))
			r.Post("/{merchantId}/verify", controllers.AdminMerchantVerify(p.Merchants, logg))
			r.Post("/{merchantId}/reject", controllers.AdminMerchantReject(p.Merchants, logg))
		})

		r.Route("/activity", func(r chi.Router) {
			r.Get("/", controllers.AdminActivityList(p.Activity, logg))
			r.Get("/stats", controllers.AdminActivityStats(p.Activity, logg))
			r.Get("/timeline/{resourceType}/{resourceId}", controllers.ActivityTimeline(p.Activity, logg))
		})
	})

	return r
}
