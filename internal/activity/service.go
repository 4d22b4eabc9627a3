package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/pagination"
)

const (
	recentErrorsLimit = 10
	timelineLimit     = 100
)

// Service defines the read side of the activity log.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Stats(ctx context.Context, params StatsParams) (*Stats, error)
	Timeline(ctx context.Context, params TimelineParams) ([]models.ActivityLog, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams filters the paginated activity feed.
type ListParams struct {
	Category   *enums.ActivityCategory
	Severity   *enums.Severity
	ActorID    *uuid.UUID
	MerchantID *uuid.UUID
	Search     string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// ListResult wraps one page of activity entries.
type ListResult struct {
	Items []models.ActivityLog `json:"items"`
	Page  pagination.Page      `json:"pagination"`
}

// StatsParams optionally scopes dashboard stats to one merchant.
type StatsParams struct {
	MerchantID *uuid.UUID
}

// Stats is the dashboard aggregate, computed over today (server-local midnight
// to now).
type Stats struct {
	TodayCount   int64                           `json:"todayCount"`
	ByCategory   map[enums.ActivityCategory]int64 `json:"byCategory"`
	BySeverity   map[enums.Severity]int64         `json:"bySeverity"`
	RecentErrors []models.ActivityLog             `json:"recentErrors"`
}

// TimelineParams identifies the resource whose audit trail is requested.
type TimelineParams struct {
	ResourceType string
	ResourceID   string
	Limit        int
}

// NewService wires the activity read service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Category != nil && !params.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity category")
	}
	if params.Severity != nil && !params.Severity.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid severity")
	}
	if params.From != nil && params.To != nil && params.From.After(*params.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}

	pageParams := pagination.Params{
		Page:  pagination.NormalizePage(params.Page),
		Limit: pagination.NormalizeLimit(params.Limit),
	}
	rows, total, err := s.repo.List(ctx, listParams{
		Category:   params.Category,
		Severity:   params.Severity,
		ActorID:    params.ActorID,
		MerchantID: params.MerchantID,
		Search:     params.Search,
		From:       params.From,
		To:         params.To,
		Limit:      pageParams.Limit,
		Offset:     pageParams.Offset(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity logs")
	}

	return &ListResult{
		Items: rows,
		Page:  pagination.NewPage(pageParams, total),
	}, nil
}

func (s *service) Stats(ctx context.Context, params StatsParams) (*Stats, error) {
	since := startOfToday(s.now())

	todayCount, err := s.repo.CountSince(ctx, params.MerchantID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count today's activity")
	}
	byCategory, err := s.repo.CountByCategorySince(ctx, params.MerchantID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count activity by category")
	}
	bySeverity, err := s.repo.CountBySeveritySince(ctx, params.MerchantID, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count activity by severity")
	}
	recentErrors, err := s.repo.RecentErrorsSince(ctx, params.MerchantID, since, recentErrorsLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent errors")
	}

	return &Stats{
		TodayCount:   todayCount,
		ByCategory:   byCategory,
		BySeverity:   bySeverity,
		RecentErrors: recentErrors,
	}, nil
}

func (s *service) Timeline(ctx context.Context, params TimelineParams) ([]models.ActivityLog, error) {
	if strings.TrimSpace(params.ResourceType) == "" || strings.TrimSpace(params.ResourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource type and id required")
	}
	limit := params.Limit
	if limit <= 0 || limit > timelineLimit {
		limit = timelineLimit
	}

	rows, err := s.repo.Timeline(ctx, params.ResourceType, params.ResourceID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load resource timeline")
	}
	return rows, nil
}
