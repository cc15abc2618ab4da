// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/service"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

// mockAuthService implements service.AuthService for unit tests.
// Each method field can be overridden per test case.
type mockAuthService struct {
	registerUserFn func(ctx context.Context, user models.User) (models.User, error)
	loginFn        func(ctx context.Context, user models.User) (models.User, error)
	createTokensFn func(ctx context.Context, userID string) (models.Token, models.Token, error)
	parseTokenFn   func(ctx context.Context, tokenString string, kind models.TokenKind) (models.Token, error)
}

func (m *mockAuthService) RegisterUser(ctx context.Context, user models.User) (models.User, error) {
	return m.registerUserFn(ctx, user)
}

func (m *mockAuthService) Login(ctx context.Context, user models.User) (models.User, error) {
	return m.loginFn(ctx, user)
}

func (m *mockAuthService) CreateTokens(ctx context.Context, userID string) (models.Token, models.Token, error) {
	if m.createTokensFn == nil {
		return stubTokens(userID)
	}
	return m.createTokensFn(ctx, userID)
}

func (m *mockAuthService) ParseToken(ctx context.Context, tokenString string, kind models.TokenKind) (models.Token, error) {
	return m.parseTokenFn(ctx, tokenString, kind)
}

var tokenExpiry = time.Now().Add(time.Hour).UTC().Truncate(time.Second)

func stubTokens(userID string) (models.Token, models.Token, error) {
	return models.Token{SignedString: "access-" + userID, UserID: userID, Kind: models.AccessToken, ExpiresAt: tokenExpiry},
		models.Token{SignedString: "refresh-" + userID, UserID: userID, Kind: models.RefreshToken, ExpiresAt: tokenExpiry.Add(time.Hour)},
		nil
}

func newHandlerWithAuth(t *testing.T, auth service.AuthService) *Handler {
	t.Helper()
	svcs := &service.Services{
		AppInfoService: &mockAppInfoService{version: "test"},
		AuthService:    auth,
	}
	return NewHandler(svcs, config.StructuredConfig{}, logger.Nop())
}

func userBody(t *testing.T, u models.User) string {
	t.Helper()
	b, err := json.Marshal(u)
	require.NoError(t, err)
	return string(b)
}

func decodeTokenPair(t *testing.T, rec *httptest.ResponseRecorder) models.TokenPair {
	t.Helper()
	var pair models.TokenPair
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pair))
	return pair
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		registerFn func(ctx context.Context, user models.User) (models.User, error)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: userBody(t, models.User{Login: "alice", Password: "secret"}),
			registerFn: func(_ context.Context, user models.User) (models.User, error) {
				return models.User{UserID: "u-1", Login: user.Login}, nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid JSON",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantBody:   app.MsgInvalidDataProvided,
		},
		{
			name: "invalid data",
			body: userBody(t, models.User{Login: "alice"}),
			registerFn: func(context.Context, models.User) (models.User, error) {
				return models.User{}, service.ErrInvalidDataProvided
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   app.MsgInvalidDataProvided,
		},
		{
			name: "login taken",
			body: userBody(t, models.User{Login: "alice", Password: "secret"}),
			registerFn: func(context.Context, models.User) (models.User, error) {
				return models.User{}, fmt.Errorf("user creation ended with error: %w", store.ErrLoginAlreadyExists)
			},
			wantStatus: http.StatusConflict,
			wantBody:   app.MsgLoginAlreadyExists,
		},
		{
			name: "storage failure",
			body: userBody(t, models.User{Login: "alice", Password: "secret"}),
			registerFn: func(context.Context, models.User) (models.User, error) {
				return models.User{}, errors.New("db down")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   app.MsgInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlerWithAuth(t, &mockAuthService{registerUserFn: tt.registerFn})

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.register(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, strings.TrimSpace(rec.Body.String()))
				return
			}

			pair := decodeTokenPair(t, rec)
			assert.Equal(t, "access-u-1", pair.AccessToken)
			assert.Equal(t, "refresh-u-1", pair.RefreshToken)
			assert.Equal(t, "u-1", pair.UserID)
			assert.Equal(t, tokenExpiry, pair.ExpiresAt)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("sets refresh cookie", func(t *testing.T) {
		h := newHandlerWithAuth(t, &mockAuthService{
			loginFn: func(_ context.Context, user models.User) (models.User, error) {
				assert.Equal(t, "alice", user.Login)
				return models.User{UserID: "u-7", Login: user.Login}, nil
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(userBody(t, models.User{Login: "alice", Password: "pw"})))
		rec := httptest.NewRecorder()
		h.login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "access-u-7", decodeTokenPair(t, rec).AccessToken)

		cookie := refreshCookie(rec)
		require.NotNil(t, cookie)
		assert.Equal(t, "refresh-u-7", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/api/auth", cookie.Path)
	})

	for name, err := range map[string]error{
		"wrong password": service.ErrWrongPassword,
		"unknown login":  store.ErrNoUserWasFound,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHandlerWithAuth(t, &mockAuthService{
				loginFn: func(context.Context, models.User) (models.User, error) { return models.User{}, err },
			})

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(userBody(t, models.User{Login: "alice", Password: "pw"})))
			rec := httptest.NewRecorder()
			h.login(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, app.MsgInvalidLoginPassword, strings.TrimSpace(rec.Body.String()))
			assert.Nil(t, refreshCookie(rec))
		})
	}

	t.Run("token creation fails", func(t *testing.T) {
		h := newHandlerWithAuth(t, &mockAuthService{
			loginFn: func(context.Context, models.User) (models.User, error) { return models.User{UserID: "u-1"}, nil },
			createTokensFn: func(context.Context, string) (models.Token, models.Token, error) {
				return models.Token{}, models.Token{}, service.ErrTokenCreationFailed
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(userBody(t, models.User{Login: "alice", Password: "pw"})))
		rec := httptest.NewRecorder()
		h.login(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	parse := func(_ context.Context, tokenString string, kind models.TokenKind) (models.Token, error) {
		if kind != models.RefreshToken || tokenString != "good-refresh" {
			return models.Token{}, service.ErrTokenIsExpiredOrInvalid
		}
		return models.Token{UserID: "u-3", Kind: kind}, nil
	}

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "good-refresh"}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer refresh token",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-refresh") },
			wantStatus: http.StatusOK,
		},
		{
			name:       "no credential",
			prepare:    func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejected credential",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer access-token") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandlerWithAuth(t, &mockAuthService{parseTokenFn: parse})

			req := httptest.NewRequest(http.MethodPost, "/api/auth/token", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			h.refreshToken(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, app.MsgTokenIsExpiredOrInvalid, strings.TrimSpace(rec.Body.String()))
				return
			}
			assert.Equal(t, "access-u-3", decodeTokenPair(t, rec).AccessToken)
			require.NotNil(t, refreshCookie(rec))
		})
	}
}
