// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncOperation is a queued local mutation intent awaiting transmission.
//
// ClientID is the idempotency key of the mutation: replaying an operation
// with the same ClientID never applies it twice on the server.
// SequenceNumber grows strictly per client and fixes the transmission order.
type SyncOperation struct {
	ClientID       string          `json:"clientId"`
	EntityType     EntityType      `json:"entityType"`
	EntityID       string          `json:"entityId"`
	Operation      OperationType   `json:"operation"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	SequenceNumber uint64          `json:"sequenceNumber"`
	Version        *int64          `json:"version,omitempty"`
}

// Key returns the entity targeted by the operation.
func (o SyncOperation) Key() EntityKey {
	return EntityKey{EntityType: o.EntityType, EntityID: o.EntityID}
}

// Fingerprint returns the duplicate-detection fingerprint of the operation.
func (o SyncOperation) Fingerprint() OperationFingerprint {
	return OperationFingerprint{
		EntityType: o.EntityType,
		EntityID:   o.EntityID,
		Timestamp:  o.Timestamp,
		Operation:  o.Operation,
	}
}

// OperationFingerprint identifies an operation independently of its
// ClientID: two operations with equal fingerprints describe the same change.
type OperationFingerprint struct {
	EntityType EntityType    `json:"entityType"`
	EntityID   string        `json:"entityId"`
	Timestamp  time.Time     `json:"timestamp"`
	Operation  OperationType `json:"operation"`
}

// String renders the fingerprint in a canonical form usable as a map key.
func (f OperationFingerprint) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", f.EntityType, f.EntityID, f.Timestamp.UTC().Format(time.RFC3339Nano), f.Operation)
}

// ResultStatus is the per-item outcome of a push.
type ResultStatus string

const (
	ResultSuccess  ResultStatus = "success"
	ResultConflict ResultStatus = "conflict"
	ResultError    ResultStatus = "error"
	ResultSkipped  ResultStatus = "skipped"
)

// SyncResult is the server verdict for one pushed [SyncOperation]. It is the
// canonical per-item representation; chunk summaries are derived from it by
// [OutcomeFromResults].
type SyncResult struct {
	ClientID     string          `json:"clientId"`
	ServerID     string          `json:"serverId,omitempty"`
	Status       ResultStatus    `json:"status"`
	Error        string          `json:"error,omitempty"`
	Message      string          `json:"message,omitempty"`
	ConflictData json.RawMessage `json:"conflictData,omitempty"`
	Version      *int64          `json:"version,omitempty"`
}

// EntityChange is one server-side change returned by pull.
type EntityChange struct {
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Operation  OperationType   `json:"operation"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Version    int64           `json:"version"`
}

// Key returns the entity the change applies to.
func (c EntityChange) Key() EntityKey {
	return EntityKey{EntityType: c.EntityType, EntityID: c.EntityID}
}

// ChunkOutcome summarises the disposition of one pushed chunk by client id.
//
//	success  -> SyncedIDs
//	conflict -> ServerWins
//	skipped  -> SkippedIDs
//	error    -> FailedIDs
type ChunkOutcome struct {
	SyncedIDs  []string `json:"syncedIds"`
	ServerWins []string `json:"serverWins"`
	SkippedIDs []string `json:"skippedIds"`
	FailedIDs  []string `json:"failedIds"`
}

// NewChunkOutcome returns an outcome with all fields empty and non-nil.
func NewChunkOutcome() ChunkOutcome {
	return ChunkOutcome{
		SyncedIDs:  []string{},
		ServerWins: []string{},
		SkippedIDs: []string{},
		FailedIDs:  []string{},
	}
}

// Add records one per-item result.
func (c *ChunkOutcome) Add(result SyncResult) {
	switch result.Status {
	case ResultSuccess:
		c.SyncedIDs = append(c.SyncedIDs, result.ClientID)
	case ResultConflict:
		c.ServerWins = append(c.ServerWins, result.ClientID)
	case ResultSkipped:
		c.SkippedIDs = append(c.SkippedIDs, result.ClientID)
	case ResultError:
		c.FailedIDs = append(c.FailedIDs, result.ClientID)
	}
}

// Len returns the number of items recorded in the outcome.
func (c ChunkOutcome) Len() int {
	return len(c.SyncedIDs) + len(c.ServerWins) + len(c.SkippedIDs) + len(c.FailedIDs)
}

// OutcomeFromResults folds per-item results into a chunk summary, keeping
// the order of results inside every field.
func OutcomeFromResults(results []SyncResult) ChunkOutcome {
	outcome := NewChunkOutcome()
	for _, r := range results {
		outcome.Add(r)
	}
	return outcome
}

// MergeSyncResults concatenates every field of the given outcomes in order.
func MergeSyncResults(outcomes ...ChunkOutcome) ChunkOutcome {
	merged := NewChunkOutcome()
	for _, o := range outcomes {
		merged.SyncedIDs = append(merged.SyncedIDs, o.SyncedIDs...)
		merged.ServerWins = append(merged.ServerWins, o.ServerWins...)
		merged.SkippedIDs = append(merged.SkippedIDs, o.SkippedIDs...)
		merged.FailedIDs = append(merged.FailedIDs, o.FailedIDs...)
	}
	return merged
}
