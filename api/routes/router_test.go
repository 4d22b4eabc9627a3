package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/giftwavehq/giftwave-backend/internal/activity"
	"github.com/giftwavehq/giftwave-backend/internal/realtime"
	pkgAuth "github.com/giftwavehq/giftwave-backend/pkg/auth"
	"github.com/giftwavehq/giftwave-backend/pkg/auth/session"
	"github.com/giftwavehq/giftwave-backend/pkg/config"
	"github.com/giftwavehq/giftwave-backend/pkg/db/models"
	"github.com/giftwavehq/giftwave-backend/pkg/enums"
	"github.com/giftwavehq/giftwave-backend/pkg/logger"
	"github.com/giftwavehq/giftwave-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubActivityService struct{}

func (stubActivityService) List(ctx context.Context, params activity.ListParams) (*activity.ListResult, error) {
	return &activity.ListResult{Items: []models.ActivityLog{}, Page: pagination.Page{}}, nil
}

func (stubActivityService) Stats(ctx context.Context, params activity.StatsParams) (*activity.Stats, error) {
	return &activity.Stats{}, nil
}

func (stubActivityService) Timeline(ctx context.Context, params activity.TimelineParams) ([]models.ActivityLog, error) {
	return nil, nil
}

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	hub, err := realtime.NewHub(logg)
	if err != nil {
		t.Fatalf("new hub: %v", err)
	}
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
	}
	handler := NewRouter(Params{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Sessions: stubSessions{},
		Hub:      hub,
		Activity: stubActivityService{},
	})
	return handler, cfg.JWT
}

func mintToken(t *testing.T, cfg config.JWTConfig, role enums.UserRole, merchantID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		MerchantID: merchantID,
		Role:       role,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	handler, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadyChecksDependencies(t *testing.T) {
	handler, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	handler, _ := testRouter(t)
	paths := []string{
		"/api/v1/merchants/me",
		"/api/v1/notifications",
		"/api/v1/activity",
		"/api/admin/v1/merchants",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", path, resp.Code)
		}
	}
}

func TestAdminRoutesRejectMerchantToken(t *testing.T) {
	handler, jwtCfg := testRouter(t)
	merchantID := uuid.New()
	token := mintToken(t, jwtCfg, enums.UserRoleMerchant, &merchantID)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/merchants", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestMerchantActivityRejectsPlainUser(t *testing.T) {
	handler, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.UserRoleUser, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestMerchantActivityListServesMerchantToken(t *testing.T) {
	handler, jwtCfg := testRouter(t)
	merchantID := uuid.New()
	token := mintToken(t, jwtCfg, enums.UserRoleMerchant, &merchantID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activity", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminActivityStatsServesAdminToken(t *testing.T) {
	handler, jwtCfg := testRouter(t)
	token := mintToken(t, jwtCfg, enums.UserRoleAdmin, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/activity/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}
