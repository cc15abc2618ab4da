// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/mock"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

func newTestClientAuthService(t *testing.T) (*clientAuthService, *mock.MockServerAdapter, *mock.MockSessionRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)

	serverAdapter := mock.NewMockServerAdapter(ctrl)
	sessions := mock.NewMockSessionRepository(ctrl)

	svc := NewClientAuthService(sessions, serverAdapter, logger.Nop()).(*clientAuthService)
	svc.now = func() time.Time { return clientNow }

	return svc, serverAdapter, sessions
}

func TestClientAuthService_Login_StoresSession(t *testing.T) {
	svc, serverAdapter, sessions := newTestClientAuthService(t)
	ctx := context.Background()
	user := models.User{Login: "alice", Password: "s3cret"}

	want := models.Session{UserID: "u-1", AccessToken: "at", RefreshToken: "rt", UpdatedAt: clientNow}

	serverAdapter.EXPECT().Login(ctx, user).Return(models.TokenPair{UserID: "u-1", AccessToken: "at", RefreshToken: "rt"}, nil)
	serverAdapter.EXPECT().Session().Return(models.Session{})
	serverAdapter.EXPECT().SetSession(want)
	sessions.EXPECT().SaveSession(ctx, want).Return(nil)

	got, err := svc.Login(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClientAuthService_Login_Errors(t *testing.T) {
	tests := []struct {
		name      string
		serverErr error
		wantErr   error
	}{
		{
			name:      "wrong password",
			serverErr: fmt.Errorf("%w: %s", adapter.ErrUnauthorized, app.MsgInvalidLoginPassword),
			wantErr:   ErrWrongPassword,
		},
		{
			name:      "server unreachable",
			serverErr: fmt.Errorf("%w: dial tcp: connection refused", adapter.ErrTransport),
			wantErr:   ErrTransport,
		},
		{
			name:      "server error",
			serverErr: fmt.Errorf("%w: %s", adapter.ErrInternalServerError, app.MsgInternalServerError),
			wantErr:   ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, serverAdapter, _ := newTestClientAuthService(t)
			serverAdapter.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.TokenPair{}, tt.serverErr)

			_, err := svc.Login(context.Background(), models.User{Login: "alice", Password: "pw"})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClientAuthService_Register(t *testing.T) {
	t.Run("invalid credentials never reach the server", func(t *testing.T) {
		svc, _, _ := newTestClientAuthService(t)

		_, err := svc.Register(context.Background(), models.User{Login: "alice"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("login taken", func(t *testing.T) {
		svc, serverAdapter, _ := newTestClientAuthService(t)
		serverAdapter.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(models.TokenPair{}, fmt.Errorf("%w: %s", adapter.ErrConflict, app.MsgLoginAlreadyExists))

		_, err := svc.Register(context.Background(), models.User{Login: "alice", Password: "pw"})
		require.ErrorIs(t, err, ErrLoginAlreadyExists)
	})
}

func TestClientAuthService_RestoreSession(t *testing.T) {
	t.Run("stored session is handed to the transport", func(t *testing.T) {
		svc, serverAdapter, sessions := newTestClientAuthService(t)
		stored := models.Session{UserID: "u-1", AccessToken: "at", RefreshToken: "rt"}

		sessions.EXPECT().LoadSession(gomock.Any()).Return(stored, nil)
		serverAdapter.EXPECT().SetSession(stored)

		got, err := svc.RestoreSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("nothing stored", func(t *testing.T) {
		svc, _, sessions := newTestClientAuthService(t)
		sessions.EXPECT().LoadSession(gomock.Any()).Return(models.Session{}, store.ErrSessionNotFound)

		_, err := svc.RestoreSession(context.Background())
		require.ErrorIs(t, err, ErrNotAuthenticated)
	})

	t.Run("storage failure", func(t *testing.T) {
		svc, _, sessions := newTestClientAuthService(t)
		sessions.EXPECT().LoadSession(gomock.Any()).Return(models.Session{}, errors.New("disk I/O error"))

		_, err := svc.RestoreSession(context.Background())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestClientAuthService_Logout(t *testing.T) {
	svc, serverAdapter, sessions := newTestClientAuthService(t)

	serverAdapter.EXPECT().SetSession(models.Session{})
	sessions.EXPECT().ClearSession(gomock.Any()).Return(nil)

	require.NoError(t, svc.Logout(context.Background()))
}
