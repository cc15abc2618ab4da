// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// ConflictSource tells which protocol detected a conflict.
type ConflictSource string

const (
	// ConflictFromPush is a stale-version rejection of a pushed operation.
	ConflictFromPush ConflictSource = "push"
	// ConflictFromPull is a server change for an entity with an unsynced
	// local edit.
	ConflictFromPull ConflictSource = "pull"
)

// MsgPendingLocalChange describes a pull conflict.
const MsgPendingLocalChange = "pending local change"

// Conflict is a detected divergence between a local operation and the
// authoritative server state. The engine records conflicts and never
// resolves them on its own.
type Conflict struct {
	ClientID      string          `json:"clientId"`
	EntityType    EntityType      `json:"entityType"`
	EntityID      string          `json:"entityId"`
	Source        ConflictSource  `json:"source"`
	LocalPayload  json.RawMessage `json:"localPayload,omitempty"`
	ServerPayload json.RawMessage `json:"serverPayload,omitempty"`
	ServerVersion *int64          `json:"serverVersion,omitempty"`
	ServerDeleted bool            `json:"serverDeleted,omitempty"`
	Message       string          `json:"message,omitempty"`
	DetectedAt    time.Time       `json:"detectedAt"`

	// Operation is the parked operation of a push conflict. Pull conflicts
	// leave it nil; their operation is still queued.
	Operation *SyncOperation `json:"operation,omitempty"`
}

// WithServerState fills the server side of c from a conflict result payload.
func (c Conflict) WithServerState(data ConflictData) Conflict {
	version := data.Version
	c.ServerPayload = data.Payload
	c.ServerVersion = &version
	c.ServerDeleted = data.Deleted
	return c
}

// WithServerChange moves the server side of c to change. A change older
// than the recorded server version leaves c as it is.
func (c Conflict) WithServerChange(change EntityChange) Conflict {
	if c.ServerVersion != nil && *c.ServerVersion >= change.Version {
		return c
	}
	version := change.Version
	c.ServerPayload = change.Payload
	c.ServerVersion = &version
	c.ServerDeleted = change.Operation == OperationDelete
	return c
}

// Key returns the conflicting entity.
func (c Conflict) Key() EntityKey {
	return EntityKey{EntityType: c.EntityType, EntityID: c.EntityID}
}

// ConflictResolution is the integrating application's decision for one
// conflict.
type ConflictResolution string

const (
	// KeepLocal re-sends the local operation against the server version.
	KeepLocal ConflictResolution = "keep_local"
	// AcceptServer drops the local operation and adopts the server state.
	AcceptServer ConflictResolution = "accept_server"
)

// Valid reports whether r is a known resolution.
func (r ConflictResolution) Valid() bool {
	return r == KeepLocal || r == AcceptServer
}
