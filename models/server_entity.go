// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Result messages attached to non-success push results.
const (
	MsgDuplicate       = "duplicate"
	MsgSuperseded      = "superseded"
	MsgVersionConflict = "version conflict"
	MsgEntityExists    = "entity already exists"
	MsgEntityNotFound  = "entity not found"
	MsgEntityDeleted   = "entity deleted"
	MsgBlocked         = "blocked by an earlier failed operation"
)

// ErrInvalidCursor is returned by [DecodeCursor] for a token it did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// ServerEntity is the server's authoritative copy of one entity.
// UpdatedAt is the client timestamp of the last applied operation.
type ServerEntity struct {
	UserID     string          `json:"userId"`
	EntityType EntityType      `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Version    int64           `json:"version"`
	Deleted    bool            `json:"deleted"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ConflictData is the authoritative server state returned with a conflict
// result.
type ConflictData struct {
	Payload json.RawMessage `json:"payload,omitempty"`
	Version int64           `json:"version"`
	Deleted bool            `json:"deleted,omitempty"`
}

// ConflictData returns the conflict payload describing e.
func (e ServerEntity) ConflictData() ConflictData {
	return ConflictData{Payload: e.Payload, Version: e.Version, Deleted: e.Deleted}
}

// Verdict is the outcome of [DecideOperation].
type Verdict int

const (
	VerdictApply Verdict = iota
	VerdictConflict
	VerdictSkip
	VerdictReject
)

// OperationDecision tells the server what to do with one pushed operation.
type OperationDecision struct {
	Verdict Verdict
	Message string
}

// Status converts the verdict into the per-item result status.
func (d OperationDecision) Status() ResultStatus {
	switch d.Verdict {
	case VerdictConflict:
		return ResultConflict
	case VerdictSkip:
		return ResultSkipped
	case VerdictReject:
		return ResultError
	}
	return ResultSuccess
}

// DecideOperation applies the optimistic concurrency rules to op against the
// current server copy of its entity. current is nil when the server never
// saw the entity.
//
// Idempotency by client id and fingerprint is checked by the caller before
// this function is reached.
func DecideOperation(op SyncOperation, current *ServerEntity) OperationDecision {
	if current == nil {
		switch op.Operation {
		case OperationUpdate:
			return OperationDecision{Verdict: VerdictReject, Message: MsgEntityNotFound}
		case OperationDelete:
			return OperationDecision{Verdict: VerdictSkip, Message: MsgSuperseded}
		}
		return OperationDecision{Verdict: VerdictApply}
	}

	if op.Version != nil && *op.Version != current.Version {
		return OperationDecision{Verdict: VerdictConflict, Message: MsgVersionConflict}
	}

	switch op.Operation {
	case OperationCreate:
		if !current.Deleted && op.Version == nil {
			return OperationDecision{Verdict: VerdictConflict, Message: MsgEntityExists}
		}
	case OperationUpdate:
		if current.Deleted {
			return OperationDecision{Verdict: VerdictConflict, Message: MsgEntityDeleted}
		}
	case OperationDelete:
		if current.Deleted {
			return OperationDecision{Verdict: VerdictSkip, Message: MsgSuperseded}
		}
	}

	if op.Version == nil && op.Timestamp.Before(current.UpdatedAt) {
		return OperationDecision{Verdict: VerdictSkip, Message: MsgSuperseded}
	}

	return OperationDecision{Verdict: VerdictApply}
}

// NextServerEntity returns the entity after op is applied on top of current
// (nil for a first write). The version starts at 1 and grows by one per
// applied operation.
func NextServerEntity(userID string, op SyncOperation, current *ServerEntity) ServerEntity {
	next := ServerEntity{
		UserID:     userID,
		EntityType: op.EntityType,
		EntityID:   op.EntityID,
		Payload:    op.Payload,
		Version:    1,
		UpdatedAt:  op.Timestamp,
	}
	if current != nil {
		next.Version = current.Version + 1
	}
	if op.Operation == OperationDelete {
		next.Payload = nil
		next.Deleted = true
	}
	return next
}

// Change returns the change-log entry describing e.
func (e ServerEntity) Change(operation OperationType) EntityChange {
	return EntityChange{
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Operation:  operation,
		Payload:    e.Payload,
		Timestamp:  e.UpdatedAt,
		Version:    e.Version,
	}
}

// ChangeRecord is one row of the server change log. Seq orders the log per
// server; RecordedAt is the server time used as the pull watermark.
type ChangeRecord struct {
	EntityChange
	Seq        int64     `json:"-"`
	ClientID   string    `json:"-"`
	RecordedAt time.Time `json:"-"`
}

// ChangeQuery selects change-log rows of one user.
type ChangeQuery struct {
	UserID           string
	Since            *time.Time
	AfterSeq         int64
	EntityTypes      []EntityType
	ExcludeClientIDs []string
	Limit            int
}

// EncodeCursor returns the opaque pagination token for a change-log position.
func EncodeCursor(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte("seq:" + strconv.FormatInt(seq, 10)))
}

// DecodeCursor parses a token produced by [EncodeCursor]. An empty cursor
// decodes to position 0.
func DecodeCursor(cursor string) (int64, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || len(raw) < 5 || string(raw[:4]) != "seq:" {
		return 0, ErrInvalidCursor
	}
	seq, err := strconv.ParseInt(string(raw[4:]), 10, 64)
	if err != nil || seq < 0 {
		return 0, ErrInvalidCursor
	}
	return seq, nil
}

// QueueStatus is the state of an operation in the server-buffered queue.
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueDone       QueueStatus = "done"
	QueueFailed     QueueStatus = "failed"
)

// QueuedOperation is an operation waiting in the server-buffered queue.
type QueuedOperation struct {
	EnqueueOperation
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	Status       QueueStatus `json:"status"`
	RetryCount   int         `json:"retryCount"`
	ErrorMessage *string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// SyncOperation returns the operation to apply. Buffered operations without
// a client id are keyed by their queue id.
func (q QueuedOperation) SyncOperation() SyncOperation {
	clientID := q.ClientID
	if clientID == "" {
		clientID = "queue:" + q.ID
	}
	return SyncOperation{
		ClientID:       clientID,
		EntityType:     q.EntityType,
		EntityID:       q.EntityID,
		Operation:      q.Operation,
		Payload:        q.Payload,
		Timestamp:      q.Timestamp,
		SequenceNumber: q.SequenceNumber,
		Version:        q.Version,
	}
}

// Enqueued returns the response descriptor of q.
func (q QueuedOperation) Enqueued() EnqueuedOperation {
	return EnqueuedOperation{
		ID:             q.ID,
		EntityType:     q.EntityType,
		EntityID:       q.EntityID,
		Operation:      q.Operation,
		SequenceNumber: q.SequenceNumber,
	}
}
