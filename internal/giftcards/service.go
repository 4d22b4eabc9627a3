package giftcards

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/giftwavehq/giftwave-backend/internal/activity"
	"github.com/giftwavehq/giftwave-backend/internal/notifications"
	"github.com/giftwavehq/giftwave-backend/pkg/db"
	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/pagination"
)

const resourceTypeGiftCard = "gift_card"

// codeAttempts bounds retries when a generated code collides.
const codeAttempts = 3

type eventRecorder interface {
	Record(ctx context.Context, event activity.Event)
}

type notifier interface {
	Create(ctx context.Context, req notifications.CreateRequest)
}

type merchantDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
}

// Service drives gift card issuance, purchase, and redemption.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.GiftCard, error)
	Get(ctx context.Context, id uuid.UUID) (*models.GiftCard, error)
	GetByCode(ctx context.Context, code string) (*models.GiftCard, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Purchase(ctx context.Context, params PurchaseParams) (*models.GiftCard, error)
	Redeem(ctx context.Context, params RedeemParams) (*models.GiftCard, error)
	Transactions(ctx context.Context, giftCardID uuid.UUID) ([]models.GiftCardTransaction, error)
}

// ServiceParams lists gift card service dependencies.
type ServiceParams struct {
	DB        *gorm.DB
	Repo      Repository
	Merchants merchantDirectory
	Recorder  eventRecorder
	Notifier  notifier
	Logger    *logger.Logger
}

type service struct {
	db        *gorm.DB
	repo      Repository
	merchants merchantDirectory
	recorder  eventRecorder
	notifier  notifier
	logg      *logger.Logger
}

// CreateParams captures a merchant issuing a new card.
type CreateParams struct {
	MerchantID uuid.UUID
	Amount     decimal.Decimal
	Currency   string
	ExpiresAt  *time.Time
}

// ListParams configures gift card listing.
type ListParams struct {
	MerchantID *uuid.UUID
	Status     *enums.GiftCardStatus
	Page       int
	Limit      int
}

// ListResult wraps one page of gift cards.
type ListResult struct {
	Items []models.GiftCard `json:"items"`
	Page  pagination.Page   `json:"pagination"`
}

// PurchaseParams captures a buyer claiming an issued card.
type PurchaseParams struct {
	Code      string
	BuyerID   uuid.UUID
	BuyerName string
}

// RedeemParams captures a balance draw-down at the merchant.
type RedeemParams struct {
	Code        string
	Amount      decimal.Decimal
	PerformedBy uuid.UUID
}

// NewService wires gift card dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database handle required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gift card repository required")
	}
	if params.Merchants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "merchant directory required")
	}
	if params.Recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifier required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		merchants: params.Merchants,
		recorder:  params.Recorder,
		notifier:  params.Notifier,
		logg:      params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.GiftCard, error) {
	if params.MerchantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "USD"
	}
	if params.ExpiresAt != nil && params.ExpiresAt.Before(time.Now().UTC()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
	}

	merchant, err := s.merchants.GetByID(ctx, params.MerchantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	if merchant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
	}
	if merchant.Status != enums.MerchantStatusVerified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "merchant is not verified")
	}

	card, err := s.createWithFreshCode(ctx, params, currency)
	if err != nil {
		return nil, err
	}

	resourceID := card.ID.String()
	s.recorder.Record(ctx, activity.Event{
		ActorType:    enums.ActorTypeMerchant,
		Action:       "giftcard.created",
		Category:     enums.ActivityCategoryGiftCard,
		Description:  fmt.Sprintf("Gift card %s issued for %s", card.Code, formatAmount(card.InitialAmount, currency)),
		ResourceType: ptr(resourceTypeGiftCard),
		ResourceID:   &resourceID,
		MerchantID:   &card.MerchantID,
	})

	return card, nil
}

// createWithFreshCode retries on code collisions. The alphabet makes them
// vanishingly rare, but the unique index is the source of truth.
func (s *service) createWithFreshCode(ctx context.Context, params CreateParams, currency string) (*models.GiftCard, error) {
	var lastErr error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
		}

		card := models.GiftCard{
			ID:            uuid.New(),
			MerchantID:    params.MerchantID,
			Code:          code,
			InitialAmount: params.Amount,
			Balance:       params.Amount,
			Currency:      currency,
			Status:        enums.GiftCardStatusActive,
			ExpiresAt:     params.ExpiresAt,
			CreatedAt:     time.Now().UTC(),
			UpdatedAt:     time.Now().UTC(),
		}
		if err := s.repo.Create(ctx, &card); err != nil {
			if db.IsUniqueViolation(err, "") {
				lastErr = err
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create gift card")
		}
		return &card, nil
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "exhausted code generation attempts")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.GiftCard, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift card id required")
	}
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gift card")
	}
	if card == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift card not found")
	}
	return card, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.GiftCard, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code required")
	}
	card, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load gift card")
	}
	if card == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "gift card not found")
	}
	return card, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid gift card status")
	}

	pageParams := pagination.Params{
		Page:  pagination.NormalizePage(params.Page),
		Limit: pagination.NormalizeLimit(params.Limit),
	}
	rows, total, err := s.repo.List(ctx, listParams{
		MerchantID: params.MerchantID,
		Status:     params.Status,
		Limit:      pageParams.Limit,
		Offset:     pageParams.Offset(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gift cards")
	}

	return &ListResult{
		Items: rows,
		Page:  pagination.NewPage(pageParams, total),
	}, nil
}

func (s *service) Purchase(ctx context.Context, params PurchaseParams) (*models.GiftCard, error) {
	if params.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	card, err := s.GetByCode(ctx, params.Code)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSpendable(ctx, card); err != nil {
		return nil, err
	}
	if card.PurchasedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gift card already purchased")
	}

	now := time.Now().UTC()
	card.PurchasedBy = &params.BuyerID
	card.PurchasedAt = &now
	card.UpdatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		claimed, err := repo.ClaimPurchase(ctx, card)
		if err != nil {
			return err
		}
		if !claimed {
			// Another buyer won between our read and this write.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "gift card already purchased")
		}
		return repo.CreateTransaction(ctx, &models.GiftCardTransaction{
			ID:          uuid.New(),
			GiftCardID:  card.ID,
			Kind:        enums.TransactionKindPurchase,
			Amount:      card.InitialAmount,
			PerformedBy: &params.BuyerID,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, dependencyOr(err, "record purchase")
	}

	amount := formatAmount(card.InitialAmount, card.Currency)
	resourceID := card.ID.String()
	s.recorder.Record(ctx, activity.Event{
		ActorID:      &params.BuyerID,
		ActorType:    enums.ActorTypeUser,
		Action:       "giftcard.purchased",
		Category:     enums.ActivityCategoryPurchase,
		Description:  fmt.Sprintf("Gift card %s purchased for %s", card.Code, amount),
		ResourceType: ptr(resourceTypeGiftCard),
		ResourceID:   &resourceID,
		MerchantID:   &card.MerchantID,
	})
	s.notifyMerchant(ctx, card, notifications.CreateRequest{
		Type:         enums.NotificationTypeGiftCardPurchased,
		ActorID:      &params.BuyerID,
		ResourceType: ptr(resourceTypeGiftCard),
		ResourceID:   &resourceID,
		Data: map[string]string{
			"buyerName": params.BuyerName,
			"amount":    amount,
		},
	})

	return card, nil
}

func (s *service) Redeem(ctx context.Context, params RedeemParams) (*models.GiftCard, error) {
	if params.PerformedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "performer id required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	card, err := s.GetByCode(ctx, params.Code)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSpendable(ctx, card); err != nil {
		return nil, err
	}
	if card.PurchasedAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "gift card has not been purchased")
	}
	if params.Amount.GreaterThan(card.Balance) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "amount exceeds remaining balance").
			WithDetails(map[string]string{"balance": card.Balance.StringFixed(2)})
	}

	now := time.Now().UTC()
	prevBalance := card.Balance
	card.Balance = card.Balance.Sub(params.Amount)
	if card.Balance.IsZero() {
		card.Status = enums.GiftCardStatusRedeemed
	}
	card.UpdatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.ApplyRedemption(ctx, card, prevBalance)
		if err != nil {
			return err
		}
		if !applied {
			// A concurrent redemption changed the balance we checked against.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "gift card balance changed, retry")
		}
		return repo.CreateTransaction(ctx, &models.GiftCardTransaction{
			ID:          uuid.New(),
			GiftCardID:  card.ID,
			Kind:        enums.TransactionKindRedemption,
			Amount:      params.Amount,
			PerformedBy: &params.PerformedBy,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, dependencyOr(err, "record redemption")
	}

	amount := formatAmount(params.Amount, card.Currency)
	resourceID := card.ID.String()
	s.recorder.Record(ctx, activity.Event{
		ActorID:      &params.PerformedBy,
		ActorType:    enums.ActorTypeUser,
		Action:       "giftcard.redeemed",
		Category:     enums.ActivityCategoryRedemption,
		Description:  fmt.Sprintf("Gift card %s redeemed for %s", card.Code, amount),
		ResourceType: ptr(resourceTypeGiftCard),
		ResourceID:   &resourceID,
		MerchantID:   &card.MerchantID,
	})
	s.notifyMerchant(ctx, card, notifications.CreateRequest{
		Type:         enums.NotificationTypeGiftCardRedeemed,
		ActorID:      &params.PerformedBy,
		ResourceType: ptr(resourceTypeGiftCard),
		ResourceID:   &resourceID,
		Data: map[string]string{
			"code":   card.Code,
			"amount": amount,
		},
	})

	return card, nil
}

func (s *service) Transactions(ctx context.Context, giftCardID uuid.UUID) ([]models.GiftCardTransaction, error) {
	if giftCardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gift card id required")
	}
	rows, err := s.repo.ListTransactions(ctx, giftCardID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list gift card transactions")
	}
	return rows, nil
}

// ensureSpendable rejects disabled, redeemed, or expired cards. A card found
// past its expiry is marked expired on the way out.
func (s *service) ensureSpendable(ctx context.Context, card *models.GiftCard) error {
	if card.Status != enums.GiftCardStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("gift card is %s", card.Status))
	}
	if card.ExpiresAt != nil && card.ExpiresAt.Before(time.Now().UTC()) {
		card.Status = enums.GiftCardStatusExpired
		card.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, card); err != nil {
			s.logg.Error(ctx, "failed to mark gift card expired", err)
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, "gift card has expired")
	}
	return nil
}

// notifyMerchant addresses the notification to the card's merchant owner.
func (s *service) notifyMerchant(ctx context.Context, card *models.GiftCard, req notifications.CreateRequest) {
	merchant, err := s.merchants.GetByID(ctx, card.MerchantID)
	if err != nil || merchant == nil {
		s.logg.Error(ctx, "failed to resolve merchant for notification", err)
		return
	}
	req.RecipientID = merchant.OwnerUserID
	req.RecipientType = enums.RecipientTypeMerchant
	s.notifier.Create(ctx, req)
}

// dependencyOr keeps typed errors raised inside a transaction intact and
// wraps raw database errors as dependency failures.
func dependencyOr(err error, message string) error {
	if appErr := pkgerrors.As(err); appErr != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func formatAmount(amount decimal.Decimal, currency string) string {
	if currency == "USD" {
		return "$" + amount.StringFixed(2)
	}
	return amount.StringFixed(2) + " " + currency
}

func ptr(s string) *string {
	return &s
}
