package merchants

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/internal/activity"
	"github.com/giftwavehq/giftwave-backend/internal/notifications"
	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/pagination"
)

const resourceTypeMerchant = "merchant"

type eventRecorder interface {
	Record(ctx context.Context, event activity.Event)
}

type notifier interface {
	Create(ctx context.Context, req notifications.CreateRequest)
}

// adminDirectory resolves the platform admins who receive onboarding
// notifications.
type adminDirectory interface {
	ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

// Service drives merchant onboarding and admin verification.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*models.Merchant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error)
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Merchant, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Verify(ctx context.Context, merchantID, adminID uuid.UUID) (*models.Merchant, error)
	Reject(ctx context.Context, merchantID, adminID uuid.UUID, reason string) (*models.Merchant, error)
}

// ServiceParams lists merchant service dependencies.
type ServiceParams struct {
	Repo     Repository
	Admins   adminDirectory
	Recorder eventRecorder
	Notifier notifier
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	admins   adminDirectory
	recorder eventRecorder
	notifier notifier
	logg     *logger.Logger
}

// RegisterParams captures a merchant onboarding request.
type RegisterParams struct {
	OwnerUserID  uuid.UUID
	BusinessName string
	Email        string
	Phone        *string
}

// ListParams configures merchant listing.
type ListParams struct {
	Status *enums.MerchantStatus
	Search string
	Page   int
	Limit  int
}

// ListResult wraps one page of merchants.
type ListResult struct {
	Items []models.Merchant `json:"items"`
	Page  pagination.Page   `json:"pagination"`
}

// NewService wires merchant dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "merchants repository required")
	}
	if params.Admins == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "admin directory required")
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
		repo:     params.Repo,
		admins:   params.Admins,
		recorder: params.Recorder,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, params RegisterParams) (*models.Merchant, error) {
	if params.OwnerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner user id required")
	}
	businessName := strings.TrimSpace(params.BusinessName)
	if businessName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business name required")
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	existing, err := s.repo.GetByOwner(ctx, params.OwnerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing merchant")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user already owns a merchant profile")
	}

	merchant := models.Merchant{
		ID:           uuid.New(),
		OwnerUserID:  params.OwnerUserID,
		BusinessName: businessName,
		Email:        email,
		Phone:        params.Phone,
		Status:       enums.MerchantStatusPending,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &merchant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create merchant")
	}

	resourceID := merchant.ID.String()
	s.recorder.Record(ctx, activity.Event{
		ActorID:      &params.OwnerUserID,
		ActorType:    enums.ActorTypeMerchant,
		Action:       "merchant.registered",
		Category:     enums.ActivityCategoryMerchant,
		Description:  fmt.Sprintf("Merchant %q registered and is awaiting verification", businessName),
		ResourceType: ptr(resourceTypeMerchant),
		ResourceID:   &resourceID,
		MerchantID:   &merchant.ID,
	})
	s.notifyAdmins(ctx, notifications.CreateRequest{
		Type:         enums.NotificationTypeMerchantRegistered,
		ActorID:      &params.OwnerUserID,
		ResourceType: ptr(resourceTypeMerchant),
		ResourceID:   &resourceID,
		Data:         map[string]string{"merchantName": businessName},
	})

	return &merchant, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Merchant, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	merchant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	if merchant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
	}
	return merchant, nil
}

func (s *service) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Merchant, error) {
	if ownerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner user id required")
	}
	merchant, err := s.repo.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load merchant")
	}
	if merchant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "merchant not found")
	}
	return merchant, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid merchant status")
	}

	pageParams := pagination.Params{
		Page:  pagination.NormalizePage(params.Page),
		Limit: pagination.NormalizeLimit(params.Limit),
	}
	rows, total, err := s.repo.List(ctx, listParams{
		Status: params.Status,
		Search: params.Search,
		Limit:  pageParams.Limit,
		Offset: pageParams.Offset(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list merchants")
	}

	return &ListResult{
		Items: rows,
		Page:  pagination.NewPage(pageParams, total),
	}, nil
}

func (s *service) Verify(ctx context.Context, merchantID, adminID uuid.UUID) (*models.Merchant, error) {
	merchant, err := s.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant.Status == enums.MerchantStatusVerified {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "merchant already verified")
	}

	now := time.Now().UTC()
	merchant.Status = enums.MerchantStatusVerified
	merchant.VerifiedAt = &now
	merchant.RejectReason = nil
	merchant.UpdatedAt = now
	if err := s.repo.Update(ctx, merchant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update merchant")
	}

	resourceID := merchant.ID.String()
	s.recorder.Record(ctx, activity.Event{
		ActorID:      &adminID,
		ActorType:    enums.ActorTypeAdmin,
		Action:       "merchant.verified",
		Category:     enums.ActivityCategoryMerchant,
		Description:  fmt.Sprintf("Merchant %q was verified", merchant.BusinessName),
		ResourceType: ptr(resourceTypeMerchant),
		ResourceID:   &resourceID,
		MerchantID:   &merchant.ID,
	})
	s.notifier.Create(ctx, notifications.CreateRequest{
		Type:          enums.NotificationTypeProfileVerified,
		RecipientID:   merchant.OwnerUserID,
		RecipientType: enums.RecipientTypeMerchant,
		ActorID:       &adminID,
		ResourceType:  ptr(resourceTypeMerchant),
		ResourceID:    &resourceID,
	})

	return merchant, nil
}

func (s *service) Reject(ctx context.Context, merchantID, adminID uuid.UUID, reason string) (*models.Merchant, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	merchant, err := s.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant.Status == enums.MerchantStatusVerified {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "verified merchant cannot be rejected")
	}

	now := time.Now().UTC()
	merchant.Status = enums.MerchantStatusRejected
	merchant.RejectReason = &reason
	merchant.UpdatedAt = now
	if err := s.repo.Update(ctx, merchant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update merchant")
	}

	resourceID := merchant.ID.String()
	s.recorder.Record(ctx, activity.Event{
		ActorID:      &adminID,
		ActorType:    enums.ActorTypeAdmin,
		Action:       "merchant.rejected",
		Category:     enums.ActivityCategoryMerchant,
		Description:  fmt.Sprintf("Merchant %q was rejected: %s", merchant.BusinessName, reason),
		Severity:     enums.SeverityWarning,
		ResourceType: ptr(resourceTypeMerchant),
		ResourceID:   &resourceID,
		MerchantID:   &merchant.ID,
	})
	s.notifier.Create(ctx, notifications.CreateRequest{
		Type:          enums.NotificationTypeProfileRejected,
		RecipientID:   merchant.OwnerUserID,
		RecipientType: enums.RecipientTypeMerchant,
		ActorID:       &adminID,
		ResourceType:  ptr(resourceTypeMerchant),
		ResourceID:    &resourceID,
		Data:          map[string]string{"reason": reason},
	})

	return merchant, nil
}

// notifyAdmins fans one notification request out to every admin account. The
// lookup failing only costs the notification, never the business operation.
func (s *service) notifyAdmins(ctx context.Context, req notifications.CreateRequest) {
	admins, err := s.admins.ListByRole(ctx, enums.UserRoleAdmin)
	if err != nil {
		s.logg.Error(ctx, "failed to resolve admin recipients", err)
		return
	}
	for _, admin := range admins {
		req := req
		req.RecipientID = admin.ID
		req.RecipientType = enums.RecipientTypeAdmin
		s.notifier.Create(ctx, req)
	}
}

func ptr(s string) *string {
	return &s
}
