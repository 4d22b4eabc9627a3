package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/giftwavehq/giftwave-backend/api/middleware"
	"github.com/giftwavehq/giftwave-backend/api/responses"
	"github.com/giftwavehq/giftwave-backend/api/validators"
	"github.com/giftwavehq/giftwave-backend/internal/giftcards"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
)

type giftCardCreateRequest struct {
	Amount    string     `json:"amount" validate:"required"`
	Currency  string     `json:"currency" validate:"required,len=3"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type giftCardPurchaseRequest struct {
	BuyerName string `json:"buyerName" validate:"required"`
}

type giftCardRedeemRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// GiftCardCreate issues a new card for the calling merchant.
func GiftCardCreate(svc giftcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift card service unavailable"))
			return
		}

		merchantID, err := contextMerchantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body giftCardCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := parseAmount(body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, err := svc.Create(r.Context(), giftcards.CreateParams{
			MerchantID: merchantID,
			Amount:     amount,
			Currency:   strings.ToUpper(strings.TrimSpace(body.Currency)),
			ExpiresAt:  body.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, card)
	}
}

// GiftCardList returns the calling merchant's cards, optionally filtered by
// status.
func GiftCardList(svc giftcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift card service unavailable"))
			return
		}

		merchantID, err := contextMerchantID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := giftcards.ListParams{MerchantID: &merchantID}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseGiftCardStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid gift card status"))
				return
			}
			params.Status = &status
		}

		page, limit, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Page = page
		params.Limit = limit

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GiftCardLookup resolves a card by its printed code.
func GiftCardLookup(svc giftcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift card service unavailable"))
			return
		}

		code, err := routeCode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, err := svc.GetByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}

// GiftCardPurchase claims an issued card for the calling user.
func GiftCardPurchase(svc giftcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift card service unavailable"))
			return
		}

		userID, err := contextUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := routeCode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body giftCardPurchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, err := svc.Purchase(r.Context(), giftcards.PurchaseParams{
			Code:      code,
			BuyerID:   userID,
			BuyerName: body.BuyerName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}

// GiftCardRedeem draws down a purchased card's balance.
func GiftCardRedeem(svc giftcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift card service unavailable"))
			return
		}

		userID, err := contextUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := routeCode(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body giftCardRedeemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := parseAmount(body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		card, err := svc.Redeem(r.Context(), giftcards.RedeemParams{
			Code:        code,
			Amount:      amount,
			PerformedBy: userID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}

// GiftCardTransactions returns the balance movement history for one card.
func GiftCardTransactions(svc giftcards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gift card service unavailable"))
			return
		}

		cardID, err := routeUUID(r, "giftCardId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.Transactions(r.Context(), cardID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": rows})
	}
}

func contextMerchantID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.MerchantIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "merchant context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid merchant id")
	}
	return id, nil
}

func routeCode(r *http.Request) (string, error) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "missing gift card code")
	}
	return code, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	return amount, nil
}
