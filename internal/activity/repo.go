package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
)

// Repository exposes persistence helpers for activity logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, log *models.ActivityLog) error
	List(ctx context.Context, params listParams) ([]models.ActivityLog, int64, error)
	CountSince(ctx context.Context, merchantID *uuid.UUID, since time.Time) (int64, error)
	CountByCategorySince(ctx context.Context, merchantID *uuid.UUID, since time.Time) (map[enums.ActivityCategory]int64, error)
	CountBySeveritySince(ctx context.Context, merchantID *uuid.UUID, since time.Time) (map[enums.Severity]int64, error)
	RecentErrorsSince(ctx context.Context, merchantID *uuid.UUID, since time.Time, limit int) ([]models.ActivityLog, error)
	Timeline(ctx context.Context, resourceType, resourceID string, limit int) ([]models.ActivityLog, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an activity repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	Category   *enums.ActivityCategory
	Severity   *enums.Severity
	ActorID    *uuid.UUID
	MerchantID *uuid.UUID
	Search     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, log *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.ActivityLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if params.Category != nil {
		query = query.Where("category = ?", *params.Category)
	}
	if params.Severity != nil {
		query = query.Where("severity = ?", *params.Severity)
	}
	if params.ActorID != nil {
		query = query.Where("actor_id = ?", *params.ActorID)
	}
	if params.MerchantID != nil {
		query = query.Where("merchant_id = ?", *params.MerchantID)
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		query = query.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ActivityLog
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *repositoryImpl) CountSince(ctx context.Context, merchantID *uuid.UUID, since time.Time) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Where("created_at >= ?", since)
	if merchantID != nil {
		query = query.Where("merchant_id = ?", *merchantID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

type bucketCount struct {
	Bucket string `gorm:"column:bucket"`
	Count  int64  `gorm:"column:count"`
}

func (r *repositoryImpl) CountByCategorySince(ctx context.Context, merchantID *uuid.UUID, since time.Time) (map[enums.ActivityCategory]int64, error) {
	rows, err := r.countGrouped(ctx, "category", merchantID, since)
	if err != nil {
		return nil, err
	}
	out := make(map[enums.ActivityCategory]int64, len(rows))
	for _, row := range rows {
		out[enums.ActivityCategory(row.Bucket)] = row.Count
	}
	return out, nil
}

func (r *repositoryImpl) CountBySeveritySince(ctx context.Context, merchantID *uuid.UUID, since time.Time) (map[enums.Severity]int64, error) {
	rows, err := r.countGrouped(ctx, "severity", merchantID, since)
	if err != nil {
		return nil, err
	}
	out := make(map[enums.Severity]int64, len(rows))
	for _, row := range rows {
		out[enums.Severity(row.Bucket)] = row.Count
	}
	return out, nil
}

func (r *repositoryImpl) countGrouped(ctx context.Context, column string, merchantID *uuid.UUID, since time.Time) ([]bucketCount, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ActivityLog{}).
		Select(column+" AS bucket, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group(column)
	if merchantID != nil {
		query = query.Where("merchant_id = ?", *merchantID)
	}
	var rows []bucketCount
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) RecentErrorsSince(ctx context.Context, merchantID *uuid.UUID, since time.Time, limit int) ([]models.ActivityLog, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ActivityLog{}).
		Where("severity IN ?", []enums.Severity{enums.SeverityError, enums.SeverityCritical}).
		Where("created_at >= ?", since)
	if merchantID != nil {
		query = query.Where("merchant_id = ?", *merchantID)
	}
	var logs []models.ActivityLog
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repositoryImpl) Timeline(ctx context.Context, resourceType, resourceID string, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	if err := r.db.WithContext(ctx).
		Model(&models.ActivityLog{}).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
