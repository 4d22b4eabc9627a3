package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/pagination"
)

// Service defines notification list/read and preference operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error)
	UpdatePreferences(ctx context.Context, pref models.NotificationPreference) (*models.NotificationPreference, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for notifications.
type ListParams struct {
	RecipientID uuid.UUID
	UnreadOnly  bool
	Page        int
	Limit       int
}

// ListResult wraps one page of notifications.
type ListResult struct {
	Items []models.Notification `json:"items"`
	Page  pagination.Page       `json:"pagination"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	pageParams := pagination.Params{
		Page:  pagination.NormalizePage(params.Page),
		Limit: pagination.NormalizeLimit(params.Limit),
	}
	rows, total, err := s.repo.List(ctx, listParams{
		RecipientID: params.RecipientID,
		UnreadOnly:  params.UnreadOnly,
		Limit:       pageParams.Limit,
		Offset:      pageParams.Offset(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	return &ListResult{
		Items: rows,
		Page:  pagination.NewPage(pageParams, total),
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}

// GetPreferences returns the stored row, or the all-allowed defaults when the
// user never saved any.
func (s *service) GetPreferences(ctx context.Context, userID uuid.UUID) (*models.NotificationPreference, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	pref, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification preferences")
	}
	if pref == nil {
		defaults := defaultPreferences(userID)
		return &defaults, nil
	}
	return pref, nil
}

func (s *service) UpdatePreferences(ctx context.Context, pref models.NotificationPreference) (*models.NotificationPreference, error) {
	if pref.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	pref.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpsertPreferences(ctx, &pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save notification preferences")
	}
	return &pref, nil
}
