package auth

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

type fakeSessionManager struct {
	sessions map[string]string
	revoked  []string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{sessions: map[string]string{}}
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.sessions[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.sessions[newID] = token
	return newID, token, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(f.sessions, accessID)
	f.revoked = append(f.revoked, accessID)
	return nil
}

type fakeMerchantResolver struct {
	merchant *models.Merchant
	err      error
}

func (f *fakeMerchantResolver) GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*models.Merchant, error) {
	return f.merchant, f.err
}

type fakeRecorder struct {
	events []activity.Event
}

func (f *fakeRecorder) Record(ctx context.Context, event activity.Event) {
	f.events = append(f.events, event)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "giftwave-test",
		ExpirationMinutes: 15,
		SessionTTLMinutes: 60,
	}
}

type authFixture struct {
	svc       Service
	repo      Repository
	sessions  *fakeSessionManager
	merchants *fakeMerchantResolver
	recorder  *fakeRecorder
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := NewRepository(setupUsersTestDB(t))
	sessions := newFakeSessionManager()
	merchants := &fakeMerchantResolver{}
	recorder := &fakeRecorder{}

	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Merchants: merchants,
		Sessions:  sessions,
		Recorder:  recorder,
		JWT:       testJWTConfig(),
		Password:  config.PasswordConfig{},
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return &authFixture{svc: svc, repo: repo, sessions: sessions, merchants: merchants, recorder: recorder}
}

func assertAppCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code())
}

func TestRegisterCreatesAccountAndSession(t *testing.T) {
	fx := newAuthFixture(t)

	result, err := fx.svc.Register(context.Background(), RegisterParams{
		Email:    "Ada@Example.test",
		Password: "correct-horse",
		Name:     "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.test", result.User.Email)
	assert.Equal(t, enums.UserRoleUser, result.User.Role)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
	assert.NotEqual(t, "correct-horse", result.User.PasswordHash)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	require.Len(t, fx.recorder.events, 1)
	assert.Equal(t, "auth.register", fx.recorder.events[0].Action)
	assert.Equal(t, enums.ActivityCategoryAuth, fx.recorder.events[0].Category)
}

func TestRegisterRejectsAdminRoleAndDuplicates(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Register(ctx, RegisterParams{
		Email:    "admin@example.test",
		Password: "correct-horse",
		Name:     "Mallory",
		Role:     enums.UserRoleAdmin,
	})
	assertAppCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.Register(ctx, RegisterParams{
		Email:    "dup@example.test",
		Password: "correct-horse",
		Name:     "First",
	})
	require.NoError(t, err)

	_, err = fx.svc.Register(ctx, RegisterParams{
		Email:    "dup@example.test",
		Password: "correct-horse",
		Name:     "Second",
	})
	assertAppCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginVerifiesPassword(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	hash, err := security.HashPassword("correct-horse", config.PasswordConfig{})
	require.NoError(t, err)
	user := seedUser(t, fx.repo, func(u *models.User) {
		u.Email = "ada@example.test"
		u.PasswordHash = hash
	})

	result, err := fx.svc.Login(ctx, LoginParams{Email: "ada@example.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	require.Len(t, fx.recorder.events, 1)
	assert.Equal(t, "auth.login", fx.recorder.events[0].Action)

	_, err = fx.svc.Login(ctx, LoginParams{Email: "ada@example.test", Password: "wrong"})
	assertAppCode(t, err, pkgerrors.CodeUnauthorized)
	require.Len(t, fx.recorder.events, 2)
	assert.Equal(t, "auth.login_failed", fx.recorder.events[1].Action)
	assert.Equal(t, enums.SeverityWarning, fx.recorder.events[1].Severity)
}

func TestLoginUnknownAccountLooksLikeBadPassword(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.svc.Login(context.Background(), LoginParams{
		Email:    "nobody@example.test",
		Password: "whatever",
	})
	assertAppCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLoginEmbedsMerchantClaim(t *testing.T) {
	fx := newAuthFixture(t)
	hash, err := security.HashPassword("correct-horse", config.PasswordConfig{})
	require.NoError(t, err)
	user := seedUser(t, fx.repo, func(u *models.User) {
		u.Email = "owner@example.test"
		u.PasswordHash = hash
		u.Role = enums.UserRoleMerchant
	})
	merchantID := uuid.New()
	fx.merchants.merchant = &models.Merchant{ID: merchantID, OwnerUserID: user.ID}

	result, err := fx.svc.Login(context.Background(), LoginParams{
		Email:    "owner@example.test",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Tokens.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, claims.MerchantID)
	assert.Equal(t, merchantID, *claims.MerchantID)
	assert.Equal(t, enums.UserRoleMerchant, claims.Role)
}

func TestRefreshRotatesSession(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	hash, err := security.HashPassword("correct-horse", config.PasswordConfig{})
	require.NoError(t, err)
	seedUser(t, fx.repo, func(u *models.User) {
		u.Email = "ada@example.test"
		u.PasswordHash = hash
	})

	login, err := fx.svc.Login(ctx, LoginParams{Email: "ada@example.test", Password: "correct-horse"})
	require.NoError(t, err)

	pair, err := fx.svc.Refresh(ctx, RefreshParams{
		AccessToken:  login.Tokens.AccessToken,
		RefreshToken: login.Tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, pair.RefreshToken)

	// The old refresh token is burned.
	_, err = fx.svc.Refresh(ctx, RefreshParams{
		AccessToken:  login.Tokens.AccessToken,
		RefreshToken: login.Tokens.RefreshToken,
	})
	assertAppCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestLogoutRevokesSessionAndRecordsEvent(t *testing.T) {
	fx := newAuthFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := fx.sessions.Generate(ctx, "access-1")
	require.NoError(t, err)

	require.NoError(t, fx.svc.Logout(ctx, LogoutParams{UserID: userID, AccessID: "access-1"}))
	assert.Contains(t, fx.sessions.revoked, "access-1")

	require.Len(t, fx.recorder.events, 1)
	assert.Equal(t, "auth.logout", fx.recorder.events[0].Action)
	require.NotNil(t, fx.recorder.events[0].ActorID)
	assert.Equal(t, userID, *fx.recorder.events[0].ActorID)
}
