// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// EntityType names a kind of synchronised domain entity. Payloads of every
// entity type are opaque to the sync engine.
type EntityType string

const (
	EntityActivity    EntityType = "activity"
	EntityActivityLog EntityType = "activityLog"
	EntityTask        EntityType = "task"
	EntityGoal        EntityType = "goal"
)

// AllEntityTypes lists every entity type in a stable order.
var AllEntityTypes = []EntityType{EntityActivity, EntityActivityLog, EntityTask, EntityGoal}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	return slices.Contains(AllEntityTypes, t)
}

// OperationType is the kind of mutation carried by a [SyncOperation] or an
// [EntityChange].
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// Valid reports whether o is create, update or delete.
func (o OperationType) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// RequiresPayload reports whether an operation of this kind must carry a
// payload.
func (o OperationType) RequiresPayload() bool {
	return o == OperationCreate || o == OperationUpdate
}

// EntityKey identifies one entity across all entity types.
type EntityKey struct {
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s/%s", k.EntityType, k.EntityID)
}

// EntityState is the discriminant of [EntityRecord].
type EntityState string

const (
	// EntityStateNew marks an entity created locally that the server has not
	// acknowledged yet. It has no server version.
	EntityStateNew EntityState = "new"
	// EntityStatePersisted marks an entity known by the server at Version.
	EntityStatePersisted EntityState = "persisted"
	// EntityStateArchived marks a tombstoned entity.
	EntityStateArchived EntityState = "archived"
)

// EntityRecord is the client's local copy of one entity. Which fields are
// meaningful is decided by State only:
//
//	new       Payload
//	persisted Payload, Version
//	archived  Version (last known), Payload may be empty
type EntityRecord struct {
	State      EntityState     `json:"state"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Version    int64           `json:"version"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// NewLocalEntity builds a record for an entity created on this device.
func NewLocalEntity(entityType EntityType, entityID string, payload json.RawMessage, now time.Time) EntityRecord {
	return EntityRecord{
		State:      EntityStateNew,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
		UpdatedAt:  now,
	}
}

// NewPersistedEntity builds a record for an entity the server holds at version.
func NewPersistedEntity(entityType EntityType, entityID string, payload json.RawMessage, version int64, now time.Time) EntityRecord {
	return EntityRecord{
		State:      EntityStatePersisted,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    payload,
		Version:    version,
		UpdatedAt:  now,
	}
}

// NewArchivedEntity builds a tombstone.
func NewArchivedEntity(entityType EntityType, entityID string, version int64, now time.Time) EntityRecord {
	return EntityRecord{
		State:      EntityStateArchived,
		EntityType: entityType,
		EntityID:   entityID,
		Version:    version,
		UpdatedAt:  now,
	}
}

// Key returns the entity identity of the record.
func (r EntityRecord) Key() EntityKey {
	return EntityKey{EntityType: r.EntityType, EntityID: r.EntityID}
}

// ServerVersion returns the version the server last acknowledged. The second
// result is false for records in the new state.
func (r EntityRecord) ServerVersion() (int64, bool) {
	if r.State == EntityStateNew {
		return 0, false
	}
	return r.Version, true
}

// WithPayload returns the record after a local edit. A new record stays new,
// an archived record is revived as persisted at its last version.
func (r EntityRecord) WithPayload(payload json.RawMessage, now time.Time) EntityRecord {
	r.Payload = payload
	r.UpdatedAt = now
	if r.State == EntityStateArchived {
		r.State = EntityStatePersisted
	}
	return r
}

// Archive returns the tombstone of r.
func (r EntityRecord) Archive(now time.Time) EntityRecord {
	return NewArchivedEntity(r.EntityType, r.EntityID, r.Version, now)
}
