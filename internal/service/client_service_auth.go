// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/internal/validators"
	"github.com/nnsi/hono-practice-sub008/models"
)

type clientAuthService struct {
	sessions  store.SessionRepository
	adapter   adapter.ServerAdapter
	validator validators.Validator

	now func() time.Time

	logger *logger.Logger
}

func NewClientAuthService(sessions store.SessionRepository, serverAdapter adapter.ServerAdapter, logger *logger.Logger) ClientAuthService {
	return &clientAuthService{
		sessions:  sessions,
		adapter:   serverAdapter,
		validator: validators.NewSyncValidator(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

func (a *clientAuthService) Register(ctx context.Context, user models.User) (models.Session, error) {
	return a.authenticate(ctx, user, a.adapter.Register)
}

func (a *clientAuthService) Login(ctx context.Context, user models.User) (models.Session, error) {
	return a.authenticate(ctx, user, a.adapter.Login)
}

func (a *clientAuthService) authenticate(
	ctx context.Context,
	user models.User,
	call func(context.Context, models.User) (models.TokenPair, error),
) (models.Session, error) {
	if err := a.validator.Validate(ctx, user); err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	pair, err := call(ctx, user)
	if err != nil {
		return models.Session{}, mapAdapterError(err)
	}

	session := models.SessionFrom(pair, a.adapter.Session(), a.now())
	a.adapter.SetSession(session)

	if err = a.sessions.SaveSession(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}

	a.logger.Info().Str("user_id", session.UserID).Msg("session established")
	return session, nil
}

// RestoreSession implements ClientAuthService. The stored access token may be
// expired; the transport refreshes it on the first rejected call.
func (a *clientAuthService) RestoreSession(ctx context.Context) (models.Session, error) {
	session, err := a.sessions.LoadSession(ctx)
	if errors.Is(err, store.ErrSessionNotFound) {
		return models.Session{}, ErrNotAuthenticated
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}

	a.adapter.SetSession(session)
	return session, nil
}

func (a *clientAuthService) Logout(ctx context.Context) error {
	a.adapter.SetSession(models.Session{})
	return a.sessions.ClearSession(ctx)
}

// currentUserID returns the user of the adapter's session.
func currentUserID(serverAdapter adapter.ServerAdapter) (string, error) {
	session := serverAdapter.Session()
	if session.UserID == "" || session.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	return session.UserID, nil
}
