// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// PushResponse answers a [PushRequest]. Results follow the request order.
type PushResponse struct {
	Results       []SyncResult   `json:"results"`
	ServerChanges []EntityChange `json:"serverChanges,omitempty"`
	SyncTimestamp time.Time      `json:"syncTimestamp"`
	NextSyncToken string         `json:"nextSyncToken,omitempty"`
	HasMore       bool           `json:"hasMore"`
}

// PullResponse answers a [PullRequest]. NextCursor is the change-log
// position after this page: it continues the pull while HasMore is true and
// is the watermark of the following pull once HasMore is false.
// NextTimestamp is the newest recorded time seen, kept for display.
type PullResponse struct {
	Changes       []EntityChange `json:"changes"`
	HasMore       bool           `json:"hasMore"`
	NextTimestamp *time.Time     `json:"nextTimestamp,omitempty"`
	NextCursor    string         `json:"nextCursor,omitempty"`
}

// DuplicateCheckResult reports whether one fingerprint was already applied.
type DuplicateCheckResult struct {
	OperationFingerprint
	IsDuplicate bool `json:"isDuplicate"`
}

// DuplicateCheckResponse answers a [DuplicateCheckRequest] in request order.
type DuplicateCheckResponse struct {
	Results []DuplicateCheckResult `json:"results"`
}

// EnqueuedOperation describes an operation accepted into the server buffer.
type EnqueuedOperation struct {
	ID             string        `json:"id"`
	EntityType     EntityType    `json:"entityType"`
	EntityID       string        `json:"entityId"`
	Operation      OperationType `json:"operation"`
	SequenceNumber uint64        `json:"sequenceNumber"`
}

// EnqueueResponse answers an [EnqueueRequest].
type EnqueueResponse struct {
	EnqueuedCount int                 `json:"enqueuedCount"`
	Operations    []EnqueuedOperation `json:"operations"`
}

// ProcessResponse answers a [ProcessRequest].
type ProcessResponse struct {
	ProcessedCount int  `json:"processedCount"`
	FailedCount    int  `json:"failedCount"`
	HasMore        bool `json:"hasMore"`
}
