// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"time"

	"github.com/nnsi/hono-practice-sub008/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// LocalSyncRepository is the client's local store: entity copies, the
// operation queue, sync metadata, recorded conflicts and the pull watermark.
// Every method that touches more than one table runs in one transaction.
type LocalSyncRepository interface {
	// RecordMutation saves record, appends op to the queue with the next
	// sequence number and moves the entity's metadata to pending. It returns
	// op as queued.
	RecordMutation(ctx context.Context, record models.EntityRecord, op models.SyncOperation, userID string, now time.Time) (models.SyncOperation, error)

	// GetEntity returns the local copy of key or [ErrEntityNotFound].
	GetEntity(ctx context.Context, key models.EntityKey) (models.EntityRecord, error)

	// ListEntities returns local copies of entityType, or of every type when
	// entityType is empty.
	ListEntities(ctx context.Context, entityType models.EntityType) ([]models.EntityRecord, error)

	// PendingOperations returns the queue in sequence order.
	PendingOperations(ctx context.Context) ([]models.SyncOperation, error)

	// GetMetadata returns the stored metadata of keys. Keys never synced are
	// absent from the result.
	GetMetadata(ctx context.Context, keys []models.EntityKey) (map[models.EntityKey]models.SyncMetadata, error)

	// ListMetadata returns all stored metadata.
	ListMetadata(ctx context.Context) ([]models.SyncMetadata, error)

	// SaveMetadata upserts metas.
	SaveMetadata(ctx context.Context, metas ...models.SyncMetadata) error

	// CompleteOperation removes an acknowledged op from the queue, saves
	// meta and, when version is set, records the server version on the
	// local copy.
	CompleteOperation(ctx context.Context, op models.SyncOperation, version *int64, meta models.SyncMetadata, now time.Time) error

	// ParkOperation moves conflict.Operation from the queue to the conflicts
	// table and saves meta.
	ParkOperation(ctx context.Context, conflict models.Conflict, meta models.SyncMetadata) error

	// ApplyServerChange applies one pulled change. When a queued operation
	// targets the same entity the local copy is left untouched and the
	// recorded pull conflict is returned instead.
	ApplyServerChange(ctx context.Context, change models.EntityChange, userID string, now time.Time) (*models.Conflict, error)

	// ListConflicts returns recorded conflicts, oldest first.
	ListConflicts(ctx context.Context) ([]models.Conflict, error)

	// GetConflict returns the conflict of clientID or [ErrConflictNotFound].
	GetConflict(ctx context.Context, clientID string) (models.Conflict, error)

	// RequeueConflict drops the conflict of op.ClientID and queues op again
	// with a new sequence number.
	RequeueConflict(ctx context.Context, op models.SyncOperation, userID string, now time.Time) (models.SyncOperation, error)

	// AcceptServerState drops the conflict and the queued operation of
	// clientID and stores record as the local copy with synced metadata.
	AcceptServerState(ctx context.Context, clientID string, record models.EntityRecord, userID string, now time.Time) error

	// Watermark returns the change-log cursor the next pull resumes from,
	// empty before the first pull.
	Watermark(ctx context.Context) (string, error)

	// SetWatermark stores the pull cursor.
	SetWatermark(ctx context.Context, cursor string) error
}

// SessionRepository persists the client's credentials.
type SessionRepository interface {
	// SaveSession replaces the stored session.
	SaveSession(ctx context.Context, session models.Session) error

	// LoadSession returns the stored session or [ErrSessionNotFound].
	LoadSession(ctx context.Context) (models.Session, error)

	// ClearSession forgets the stored session.
	ClearSession(ctx context.Context) error
}
