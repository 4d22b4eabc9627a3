package merchants

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// Repository exposes persistence helpers for merchants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, merchant *models.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Merchant, error)
	List(ctx context.Context, params listParams) ([]models.Merchant, int64, error)
	Update(ctx context.Context, merchant *models.Merchant) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a merchant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	Status *enums.MerchantStatus
	Search string
	Limit  int
	Offset int
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).First(&merchant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repositoryImpl) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).First(&merchant, "owner_user_id = ?", ownerUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.Merchant, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Merchant{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		query = query.Where("LOWER(business_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Merchant
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) Update(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Save(merchant).Error
}
