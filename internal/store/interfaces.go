// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"time"

	"github.com/nnsi/hono-practice-sub008/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// UserRepository stores server accounts.
type UserRepository interface {
	// CreateUser inserts user and returns the stored row. A taken login
	// yields [ErrLoginAlreadyExists].
	CreateUser(ctx context.Context, user models.User) (models.User, error)

	// FindUserByLogin returns the user with login or [ErrNoUserWasFound].
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// SyncRepository is the server's store of record for synchronised entities.
type SyncRepository interface {
	// ApplyOperation decides and applies one pushed operation in its own
	// transaction: idempotency by client id and fingerprint first, then
	// [models.DecideOperation]. An applied operation bumps the entity
	// version, appends to the change log and is remembered as processed.
	// The returned error is reserved for storage failures; every domain
	// outcome is a [models.SyncResult].
	ApplyOperation(ctx context.Context, userID string, op models.SyncOperation, now time.Time) (models.SyncResult, error)

	// FindAppliedFingerprints returns the canonical strings of the
	// fingerprints already applied for userID.
	FindAppliedFingerprints(ctx context.Context, userID string, fingerprints []models.OperationFingerprint) (map[string]bool, error)

	// GetChanges reads the change log in server order.
	GetChanges(ctx context.Context, query models.ChangeQuery) ([]models.ChangeRecord, error)

	// GetSyncStatus aggregates the server-side sync metadata of userID.
	GetSyncStatus(ctx context.Context, userID string) (models.AggregateStatus, error)
}

// QueueRepository is the server-buffered operation queue.
type QueueRepository interface {
	// Enqueue stores operations as pending.
	Enqueue(ctx context.Context, ops ...models.QueuedOperation) error

	// ClaimBatch locks up to batchSize processable operations of userID in
	// sequence order and marks them processing. Rows locked by a concurrent
	// claim are skipped.
	ClaimBatch(ctx context.Context, userID string, batchSize, maxRetries int, now time.Time) ([]models.QueuedOperation, error)

	// Complete stores the outcome of a claimed operation. A failed outcome
	// counts one more retry.
	Complete(ctx context.Context, id string, status models.QueueStatus, errMsg *string, now time.Time) error

	// CountProcessable counts operations of userID a claim would consider.
	CountProcessable(ctx context.Context, userID string, maxRetries int) (int, error)

	// UsersWithPending lists up to limit users that have processable
	// operations.
	UsersWithPending(ctx context.Context, maxRetries, limit int) ([]string, error)
}
