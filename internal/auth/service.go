package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/internal/activity"
	pkgauth "github.com/giftwavehq/giftwave-backend/pkg/auth"
	"github.com/giftwavehq/giftwave-backend/pkg/auth/session"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	pkgerrors "github.com/giftwavehq/giftwave-backend/pkg/errors"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/security"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type merchantResolver interface {
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Merchant, error)
}

type eventRecorder interface {
	Record(ctx context.Context, event activity.Event)
}

// Service drives account registration and the token lifecycle.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*AuthResult, error)
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	Refresh(ctx context.Context, params RefreshParams) (*TokenPair, error)
	Logout(ctx context.Context, params LogoutParams) error
}

// ServiceParams lists auth service dependencies.
type ServiceParams struct {
	Repo      Repository
	Merchants merchantResolver
	Sessions  sessionManager
	Recorder  eventRecorder
	JWT       config.JWTConfig
	Password  config.PasswordConfig
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	merchants merchantResolver
	sessions  sessionManager
	recorder  eventRecorder
	jwtCfg    config.JWTConfig
	pwCfg     config.PasswordConfig
	logg      *logger.Logger
}

// RegisterParams captures a signup request. Admin accounts are provisioned out
// of band, never through this path.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Role     enums.UserRole
}

// LoginParams captures a credential check request.
type LoginParams struct {
	Email     string
	Password  string
	IPAddress *string
	UserAgent *string
}

// RefreshParams carries the expired access token plus the refresh secret.
type RefreshParams struct {
	AccessToken  string
	RefreshToken string
}

// LogoutParams identifies the session being revoked.
type LogoutParams struct {
	UserID    uuid.UUID
	AccessID  string
	IPAddress *string
	UserAgent *string
}

// TokenPair is a freshly minted access/refresh credential set.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult bundles the authenticated user with their tokens.
type AuthResult struct {
	User   models.User `json:"user"`
	Tokens TokenPair   `json:"tokens"`
}

const minPasswordLength = 8

// NewService wires auth dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user repository required")
	}
	if params.Merchants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "merchant resolver required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session manager required")
	}
	if params.Recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:      params.Repo,
		merchants: params.Merchants,
		sessions:  params.Sessions,
		recorder:  params.Recorder,
		jwtCfg:    params.JWT,
		pwCfg:     params.Password,
		logg:      params.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid email required")
	}
	if len(params.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	role := params.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	if role == enums.UserRoleAdmin || !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing user")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(params.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.recorder.Record(ctx, activity.Event{
		ActorID:     &user.ID,
		ActorType:   actorTypeFor(user.Role),
		Action:      "auth.register",
		Category:    enums.ActivityCategoryAuth,
		Description: fmt.Sprintf("Account %s registered", user.Email),
	})

	tokens, err := s.issueTokens(ctx, &user, nil)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: *tokens}, nil
}

func (s *service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || params.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		s.recordLoginFailure(ctx, email, params)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(params.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		s.recordLoginFailure(ctx, email, params)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	merchantID := s.resolveMerchantID(ctx, user)
	tokens, err := s.issueTokens(ctx, user, merchantID)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, activity.Event{
		ActorID:     &user.ID,
		ActorType:   actorTypeFor(user.Role),
		Action:      "auth.login",
		Category:    enums.ActivityCategoryAuth,
		Description: fmt.Sprintf("Account %s signed in", user.Email),
		MerchantID:  merchantID,
		IPAddress:   params.IPAddress,
		UserAgent:   params.UserAgent,
	})

	return &AuthResult{User: *user, Tokens: *tokens}, nil
}

func (s *service) Refresh(ctx context.Context, params RefreshParams) (*TokenPair, error) {
	if params.AccessToken == "" || params.RefreshToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access and refresh tokens required")
	}

	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, params.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, params.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	// Re-read the account so a role change since issuance sticks.
	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:     user.ID,
		MerchantID: s.resolveMerchantID(ctx, user),
		Role:       user.Role,
		JTI:        newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, params LogoutParams) error {
	if strings.TrimSpace(params.AccessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id required")
	}
	if err := s.sessions.Revoke(ctx, params.AccessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}

	event := activity.Event{
		ActorType:   enums.ActorTypeUser,
		Action:      "auth.logout",
		Category:    enums.ActivityCategoryAuth,
		Description: "Account signed out",
		IPAddress:   params.IPAddress,
		UserAgent:   params.UserAgent,
	}
	if params.UserID != uuid.Nil {
		event.ActorID = &params.UserID
	}
	s.recorder.Record(ctx, event)
	return nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User, merchantID *uuid.UUID) (*TokenPair, error) {
	accessID := session.NewAccessID()
	access, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:     user.ID,
		MerchantID: merchantID,
		Role:       user.Role,
		JTI:        accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// resolveMerchantID embeds the merchant tenant into tokens for merchant
// accounts. Lookup failures cost the claim, not the login.
func (s *service) resolveMerchantID(ctx context.Context, user *models.User) *uuid.UUID {
	if user.Role != enums.UserRoleMerchant {
		return nil
	}
	merchant, err := s.merchants.GetByOwner(ctx, user.ID)
	if err != nil {
		s.logg.Error(ctx, "failed to resolve merchant for token", err)
		return nil
	}
	if merchant == nil {
		return nil
	}
	return &merchant.ID
}

func (s *service) recordLoginFailure(ctx context.Context, email string, params LoginParams) {
	s.recorder.Record(ctx, activity.Event{
		ActorType:   enums.ActorTypeUser,
		Action:      "auth.login_failed",
		Category:    enums.ActivityCategoryAuth,
		Description: fmt.Sprintf("Failed sign-in attempt for %s", email),
		Severity:    enums.SeverityWarning,
		IPAddress:   params.IPAddress,
		UserAgent:   params.UserAgent,
	})
}

func actorTypeFor(role enums.UserRole) enums.ActorType {
	switch role {
	case enums.UserRoleAdmin:
		return enums.ActorTypeAdmin
	case enums.UserRoleMerchant:
		return enums.ActorTypeMerchant
	default:
		return enums.ActorTypeUser
	}
}
