// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/models"
)

type queueRepository struct {
	*DB
	logger *logger.Logger
}

// NewQueueRepository constructs the PostgreSQL [QueueRepository].
func NewQueueRepository(db *DB, logger *logger.Logger) QueueRepository {
	return &queueRepository{
		DB:     db,
		logger: logger,
	}
}

func (q *queueRepository) Enqueue(ctx context.Context, ops ...models.QueuedOperation) error {
	log := logger.FromContext(ctx)

	if len(ops) == 0 {
		log.Warn().
			Str("func", "queueRepository.Enqueue").
			Msg("no operations provided")
		return nil
	}

	return q.inTx(ctx, func(tx *sql.Tx) error {
		for idx, op := range ops {
			clientID := sql.NullString{String: op.ClientID, Valid: op.ClientID != ""}

			if _, err := tx.ExecContext(ctx, insertQueued,
				op.ID,
				op.UserID,
				clientID,
				string(op.EntityType),
				op.EntityID,
				string(op.Operation),
				nullableJSON(op.Payload),
				op.Timestamp,
				int64(op.SequenceNumber),
				nullableInt64(op.Version),
				string(models.QueuePending),
				op.CreatedAt,
			); err != nil {
				log.Err(err).
					Str("func", "queueRepository.Enqueue").
					Int("iteration", idx+1).
					Int("total", len(ops)).
					Msg("failed to insert queued operation")
				return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
			}
		}
		return nil
	})
}

func (q *queueRepository) ClaimBatch(ctx context.Context, userID string, batchSize, maxRetries int, now time.Time) ([]models.QueuedOperation, error) {
	log := logger.FromContext(ctx)

	var claimed []models.QueuedOperation
	err := q.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, claimQueued, userID, maxRetries, now.Add(-staleClaimAfter), batchSize)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}

		claimed, err = scanQueued(rows)
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]string, len(claimed))
		for i := range claimed {
			ids[i] = claimed[i].ID
			claimed[i].Status = models.QueueProcessing
		}

		query, args, err := buildMarkProcessingQuery(ids, now)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		return nil
	})
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.ClaimBatch").
			Str("user_id", userID).
			Msg("failed to claim queued operations")
		return nil, err
	}

	return claimed, nil
}

func (q *queueRepository) Complete(ctx context.Context, id string, status models.QueueStatus, errMsg *string, now time.Time) error {
	retryIncrement := 0
	if status == models.QueueFailed {
		retryIncrement = 1
	}

	res, err := q.DB.ExecContext(ctx, completeQueued, id, string(status), nullableString(errMsg), retryIncrement, now)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "queueRepository.Complete").
			Str("id", id).
			Msg("failed to complete queued operation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrQueuedOperationNotFound
	}

	return nil
}

func (q *queueRepository) CountProcessable(ctx context.Context, userID string, maxRetries int) (int, error) {
	var count int
	if err := q.DB.QueryRowContext(ctx, countProcessable, userID, maxRetries).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return count, nil
}

func (q *queueRepository) UsersWithPending(ctx context.Context, maxRetries, limit int) ([]string, error) {
	rows, err := q.DB.QueryContext(ctx, selectUsersWithPending, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	users := make([]string, 0, limit)
	for rows.Next() {
		var userID string
		if err = rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		users = append(users, userID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return users, nil
}

func scanQueued(rows *sql.Rows) ([]models.QueuedOperation, error) {
	defer rows.Close()

	ops := make([]models.QueuedOperation, 0, 16)
	for rows.Next() {
		var (
			op           models.QueuedOperation
			clientID     sql.NullString
			entityType   string
			operation    string
			payload      []byte
			sequence     int64
			version      sql.NullInt64
			status       string
			errorMessage sql.NullString
		)

		if err := rows.Scan(
			&op.ID,
			&op.UserID,
			&clientID,
			&entityType,
			&op.EntityID,
			&operation,
			&payload,
			&op.Timestamp,
			&sequence,
			&version,
			&status,
			&op.RetryCount,
			&errorMessage,
			&op.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}

		op.ClientID = clientID.String
		op.EntityType = models.EntityType(entityType)
		op.Operation = models.OperationType(operation)
		if len(payload) > 0 {
			op.Payload = json.RawMessage(payload)
		}
		op.SequenceNumber = uint64(sequence)
		op.Version = int64Ptr(version)
		op.Status = models.QueueStatus(status)
		op.ErrorMessage = stringPtr(errorMessage)

		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return ops, nil
}
