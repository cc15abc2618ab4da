// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"

	"github.com/nnsi/hono-practice-sub008/models"
)

// ClientAuthService manages the client's session with the sync server.
type ClientAuthService interface {
	// Register creates an account on the server and stores the new session.
	Register(ctx context.Context, user models.User) (models.Session, error)

	// Login authenticates against the server and stores the new session.
	Login(ctx context.Context, user models.User) (models.Session, error)

	// RestoreSession loads the stored session into the transport.
	// It returns ErrNotAuthenticated when nothing is stored.
	RestoreSession(ctx context.Context) (models.Session, error)

	// Logout forgets the stored session.
	Logout(ctx context.Context) error
}

// ClientEntityService records local mutations. Every mutation is applied to
// the local copy and queued for the next push in one step, so it works
// offline.
type ClientEntityService interface {
	// Create stores a new entity. An empty entityID is generated.
	Create(ctx context.Context, entityType models.EntityType, entityID string, payload json.RawMessage) (models.EntityRecord, error)

	Update(ctx context.Context, key models.EntityKey, payload json.RawMessage) (models.EntityRecord, error)

	// Delete archives the entity. Deleting an archived entity is a no-op.
	Delete(ctx context.Context, key models.EntityKey) error

	Get(ctx context.Context, key models.EntityKey) (models.EntityRecord, error)
	List(ctx context.Context, entityType models.EntityType) ([]models.EntityRecord, error)
}

// ClientSyncService runs sync cycles and exposes their results.
type ClientSyncService interface {
	// Sync runs one push-then-pull cycle. Concurrent callers share the
	// running cycle and receive the same report.
	Sync(ctx context.Context, trigger models.SyncTrigger) (models.CycleReport, error)

	// Status summarises local metadata. Entities in a chunk awaiting the
	// server are reported as syncing.
	Status(ctx context.Context) (models.AggregateStatus, error)

	// Conflicts returns recorded conflicts, oldest first.
	Conflicts(ctx context.Context) ([]models.Conflict, error)

	// ResolveConflict applies the caller's decision for the conflict of
	// clientID.
	ResolveConflict(ctx context.Context, clientID string, resolution models.ConflictResolution) error
}

// ClientSyncJob runs sync cycles in the background: on an interval, on
// reconnect and on demand.
type ClientSyncJob interface {
	// Start launches the job. A running job is stopped first.
	Start(ctx context.Context)

	// Stop cancels the job and waits for it to exit.
	Stop()

	// Trigger asks for a cycle as soon as possible. It also lifts a pause
	// caused by an authentication failure.
	Trigger()

	// Online reports the result of the last connectivity probe.
	Online() bool
}
