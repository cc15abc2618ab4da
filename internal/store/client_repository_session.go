// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/models"
)

type sessionRepository struct {
	*DB
	logger *logger.Logger
}

// NewSessionRepository constructs the SQLite [SessionRepository]. The
// session table holds at most one row.
func NewSessionRepository(db *DB, logger *logger.Logger) SessionRepository {
	return &sessionRepository{
		DB:     db,
		logger: logger,
	}
}

func (s *sessionRepository) SaveSession(ctx context.Context, session models.Session) error {
	if _, err := s.DB.ExecContext(ctx, saveSession,
		session.UserID,
		session.AccessToken,
		session.RefreshToken,
		session.UpdatedAt,
	); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "sessionRepository.SaveSession").
			Msg("failed to save session")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (s *sessionRepository) LoadSession(ctx context.Context) (models.Session, error) {
	var session models.Session
	err := s.DB.QueryRowContext(ctx, loadSession).Scan(
		&session.UserID,
		&session.AccessToken,
		&session.RefreshToken,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return session, nil
}

func (s *sessionRepository) ClearSession(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, clearSession); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
