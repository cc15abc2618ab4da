// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/models"
)

type userRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewUserRepository returns the PostgreSQL [UserRepository].
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("UserRepository created")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	var created models.User

	// create user in db
	err := r.db.QueryRowContext(ctx, createUser, user.UserID, user.Login, user.PasswordHash, user.PasswordSalt).
		Scan(&created.UserID, &created.Login, &created.PasswordHash, &created.PasswordSalt, &created.CreatedAt)
	if err != nil {
		r.logger.Err(err).Str("func", "*userRepository.CreateUser").Msg("error creating user")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrLoginAlreadyExists
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return created, nil
}

func (r *userRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	var found models.User

	// find user by login
	err := r.db.QueryRowContext(ctx, findUserByLogin, login).
		Scan(&found.UserID, &found.Login, &found.PasswordHash, &found.PasswordSalt, &found.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNoUserWasFound
		}
		r.logger.Err(err).Str("func", "*userRepository.FindUserByLogin").Msg("error finding user")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return found, nil
}
