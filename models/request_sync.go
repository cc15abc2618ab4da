// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// Batch and page limits shared by the client and the server.
const (
	DefaultChunkSize = 100
	MaxPushBatchSize = 100

	DefaultPullLimit = 100
	MaxPullLimit     = 1000

	DefaultProcessBatchSize  = 50
	MaxProcessBatchSize      = 100
	DefaultProcessMaxRetries = 3
	MaxProcessMaxRetries     = 10
)

// PushRequest carries one chunk of local operations.
//
// SyncToken is the client's pull watermark; server changes after it are
// piggybacked on the response. LastSyncTimestamp is honoured when no token
// is sent.
//
// Hash is the hex HMAC of the JSON encoding of Items; it lets the server
// reject payloads altered in transit.
type PushRequest struct {
	Items             []SyncOperation `json:"items"`
	LastSyncTimestamp *time.Time      `json:"lastSyncTimestamp,omitempty"`
	SyncToken         string          `json:"syncToken,omitempty"`
	ClientVersion     string          `json:"clientVersion,omitempty"`
	Hash              string          `json:"hash,omitempty"`
}

// PullRequest asks for server changes after a watermark. Cursor is a
// change-log position issued by the server and is the watermark of resumed
// pulls; LastSyncTimestamp only narrows a pull that has no cursor yet.
type PullRequest struct {
	LastSyncTimestamp *time.Time   `json:"lastSyncTimestamp,omitempty"`
	EntityTypes       []EntityType `json:"entityTypes,omitempty"`
	Limit             int          `json:"limit,omitempty"`
	Cursor            string       `json:"cursor,omitempty"`
}

// WithDefaults returns r with a zero Limit replaced by [DefaultPullLimit].
func (r PullRequest) WithDefaults() PullRequest {
	if r.Limit == 0 {
		r.Limit = DefaultPullLimit
	}
	return r
}

// DuplicateCheckRequest lists operation fingerprints the client is about to
// push.
type DuplicateCheckRequest struct {
	Operations []OperationFingerprint `json:"operations"`
}

// EnqueueOperation is an operation handed to the server-buffered queue.
// ClientID is optional; when set it is used as the idempotency key at
// processing time.
type EnqueueOperation struct {
	ClientID       string          `json:"clientId,omitempty"`
	EntityType     EntityType      `json:"entityType"`
	EntityID       string          `json:"entityId"`
	Operation      OperationType   `json:"operation"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	SequenceNumber uint64          `json:"sequenceNumber"`
	Version        *int64          `json:"version,omitempty"`
}

// EnqueueOperationFrom converts a queued client operation.
func EnqueueOperationFrom(op SyncOperation) EnqueueOperation {
	return EnqueueOperation{
		ClientID:       op.ClientID,
		EntityType:     op.EntityType,
		EntityID:       op.EntityID,
		Operation:      op.Operation,
		Payload:        op.Payload,
		Timestamp:      op.Timestamp,
		SequenceNumber: op.SequenceNumber,
		Version:        op.Version,
	}
}

// EnqueueRequest hands operations to the server-buffered queue.
type EnqueueRequest struct {
	Operations []EnqueueOperation `json:"operations"`
}

// ProcessRequest asks the server to drain its buffered queue. Nil fields take
// their defaults.
type ProcessRequest struct {
	BatchSize  *int `json:"batchSize,omitempty"`
	MaxRetries *int `json:"maxRetries,omitempty"`
}

// Limits returns the effective batch size and retry limit.
func (r ProcessRequest) Limits() (batchSize, maxRetries int) {
	batchSize, maxRetries = DefaultProcessBatchSize, DefaultProcessMaxRetries
	if r.BatchSize != nil {
		batchSize = *r.BatchSize
	}
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return batchSize, maxRetries
}
