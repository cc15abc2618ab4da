// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"math"
	"time"
)

// DefaultMaxRetries is the number of failed attempts after which an entity is
// no longer retried automatically.
const DefaultMaxRetries = 3

// SyncStatus is the sync state of one entity.
type SyncStatus string

const (
	StatusPending SyncStatus = "pending"
	StatusSyncing SyncStatus = "syncing"
	StatusSynced  SyncStatus = "synced"
	StatusFailed  SyncStatus = "failed"
)

// SyncMetadata tracks the sync state of one entity. It is created lazily on
// the first sync attempt and never deleted by the engine.
//
// Allowed transitions:
//
//	pending -> syncing -> synced | failed
//	failed  -> syncing
//	synced | failed -> pending    (new local mutation only)
type SyncMetadata struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	EntityType   EntityType `json:"entityType"`
	EntityID     string     `json:"entityId"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	Status       SyncStatus `json:"status"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	RetryCount   int        `json:"retryCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewSyncMetadata returns pending metadata for an entity seen for the first
// time.
func NewSyncMetadata(id, userID string, key EntityKey, now time.Time) SyncMetadata {
	return SyncMetadata{
		ID:         id,
		UserID:     userID,
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Key returns the entity the metadata belongs to.
func (m SyncMetadata) Key() EntityKey {
	return EntityKey{EntityType: m.EntityType, EntityID: m.EntityID}
}

// MarkAsSyncing moves m to syncing whatever its prior state.
func (m SyncMetadata) MarkAsSyncing(now time.Time) SyncMetadata {
	m.Status = StatusSyncing
	m.UpdatedAt = now
	return m
}

// MarkAsSynced moves m to synced and clears the failure bookkeeping.
func (m SyncMetadata) MarkAsSynced(now time.Time) SyncMetadata {
	synced := now
	m.Status = StatusSynced
	m.LastSyncedAt = &synced
	m.ErrorMessage = nil
	m.RetryCount = 0
	m.UpdatedAt = now
	return m
}

// MarkAsFailed moves m to failed and counts the attempt.
func (m SyncMetadata) MarkAsFailed(errMsg string, now time.Time) SyncMetadata {
	m.Status = StatusFailed
	m.ErrorMessage = &errMsg
	m.RetryCount++
	m.UpdatedAt = now
	return m
}

// MarkAsPending re-opens synced or failed metadata after a new local
// mutation. Retry accounting is kept so repeated failures of the same entity
// stay visible. Syncing metadata is left to the attempt in flight.
func (m SyncMetadata) MarkAsPending(now time.Time) SyncMetadata {
	if m.Status == StatusSyncing {
		return m
	}
	m.Status = StatusPending
	m.UpdatedAt = now
	return m
}

// CanRetrySync reports whether a failed entity may be sent again.
func (m SyncMetadata) CanRetrySync(maxRetries int) bool {
	return m.Status == StatusFailed && m.RetryCount < maxRetries
}

// RetryExhausted reports whether m failed too many times to be retried
// without manual intervention.
func (m SyncMetadata) RetryExhausted(maxRetries int) bool {
	return m.Status == StatusFailed && m.RetryCount >= maxRetries
}

// AggregateStatus is the observer-facing summary of all tracked entities.
type AggregateStatus struct {
	PendingCount   int        `json:"pendingCount"`
	SyncingCount   int        `json:"syncingCount"`
	SyncedCount    int        `json:"syncedCount"`
	FailedCount    int        `json:"failedCount"`
	TotalCount     int        `json:"totalCount"`
	SyncPercentage int        `json:"syncPercentage"`
	LastSyncedAt   *time.Time `json:"lastSyncedAt,omitempty"`
}

// NewAggregateStatus builds the summary from per-status counts.
func NewAggregateStatus(counts map[SyncStatus]int, lastSyncedAt *time.Time) AggregateStatus {
	s := AggregateStatus{
		PendingCount: counts[StatusPending],
		SyncingCount: counts[StatusSyncing],
		SyncedCount:  counts[StatusSynced],
		FailedCount:  counts[StatusFailed],
		LastSyncedAt: lastSyncedAt,
	}
	s.TotalCount = s.PendingCount + s.SyncingCount + s.SyncedCount + s.FailedCount
	if s.TotalCount > 0 {
		s.SyncPercentage = int(math.Round(float64(s.SyncedCount) * 100 / float64(s.TotalCount)))
	}
	return s
}

// SummarizeMetadata counts metadata by status. Entities for which syncing
// reports true are counted as syncing whatever their stored status.
func SummarizeMetadata(metas []SyncMetadata, syncing func(EntityKey) bool) AggregateStatus {
	counts := make(map[SyncStatus]int, 4)
	var last *time.Time

	for _, m := range metas {
		status := m.Status
		if syncing != nil && syncing(m.Key()) {
			status = StatusSyncing
		}
		counts[status]++

		if m.LastSyncedAt != nil && (last == nil || m.LastSyncedAt.After(*last)) {
			t := *m.LastSyncedAt
			last = &t
		}
	}

	return NewAggregateStatus(counts, last)
}
