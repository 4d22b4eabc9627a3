package giftcards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// Repository exposes persistence helpers for gift cards and their
// transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, card *models.GiftCard) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.GiftCard, error)
	GetByCode(ctx context.Context, code string) (*models.GiftCard, error)
	List(ctx context.Context, params listParams) ([]models.GiftCard, int64, error)
	Update(ctx context.Context, card *models.GiftCard) error
	ClaimPurchase(ctx context.Context, card *models.GiftCard) (bool, error)
	ApplyRedemption(ctx context.Context, card *models.GiftCard, prevBalance decimal.Decimal) (bool, error)
	CreateTransaction(ctx context.Context, txn *models.GiftCardTransaction) error
	ListTransactions(ctx context.Context, giftCardID uuid.UUID) ([]models.GiftCardTransaction, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a gift card repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	MerchantID *uuid.UUID
	Status     *enums.GiftCardStatus
	Limit      int
	Offset     int
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, card *models.GiftCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.GiftCard, error) {
	var card models.GiftCard
	err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repositoryImpl) GetByCode(ctx context.Context, code string) (*models.GiftCard, error) {
	var card models.GiftCard
	err := r.db.WithContext(ctx).First(&card, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.GiftCard, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.GiftCard{})
	if params.MerchantID != nil {
		query = query.Where("merchant_id = ?", *params.MerchantID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.GiftCard
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) Update(ctx context.Context, card *models.GiftCard) error {
	return r.db.WithContext(ctx).Save(card).Error
}

// ClaimPurchase marks the card purchased only while it is still active and
// unclaimed, so two concurrent buyers cannot both win. It reports whether
// this caller claimed the card.
func (r *repositoryImpl) ClaimPurchase(ctx context.Context, card *models.GiftCard) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ? AND purchased_at IS NULL AND status = ?", card.ID, enums.GiftCardStatusActive).
		Updates(map[string]any{
			"purchased_by": card.PurchasedBy,
			"purchased_at": card.PurchasedAt,
			"updated_at":   card.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyRedemption persists a draw-down only while the stored balance still
// matches the one the caller read, so concurrent redemptions cannot both
// pass the balance check. A lost race reports false.
func (r *repositoryImpl) ApplyRedemption(ctx context.Context, card *models.GiftCard, prevBalance decimal.Decimal) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GiftCard{}).
		Where("id = ? AND balance = ? AND status = ?", card.ID, prevBalance, enums.GiftCardStatusActive).
		Updates(map[string]any{
			"balance":    card.Balance,
			"status":     card.Status,
			"updated_at": card.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CreateTransaction(ctx context.Context, txn *models.GiftCardTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repositoryImpl) ListTransactions(ctx context.Context, giftCardID uuid.UUID) ([]models.GiftCardTransaction, error) {
	var rows []models.GiftCardTransaction
	if err := r.db.WithContext(ctx).
		Model(&models.GiftCardTransaction{}).
		Where("gift_card_id = ?", giftCardID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
