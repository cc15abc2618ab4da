// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncTrigger names what started a sync cycle.
type SyncTrigger string

const (
	TriggerManual    SyncTrigger = "manual"
	TriggerInterval  SyncTrigger = "interval"
	TriggerReconnect SyncTrigger = "reconnect"
	TriggerStartup   SyncTrigger = "startup"
)

// PushReport summarises the push phase of a cycle.
type PushReport struct {
	// Outcome merges the per-chunk outcomes in send order.
	Outcome ChunkOutcome `json:"outcome"`

	// ChunksSent counts chunks that reached the server.
	ChunksSent int `json:"chunksSent"`

	// Exhausted lists client ids held back because their entity exceeded
	// the retry limit.
	Exhausted []string `json:"exhausted,omitempty"`

	// ServerChanges counts piggybacked changes applied locally.
	ServerChanges int `json:"serverChanges"`

	// Buffered is true when the operations went through enqueue/process.
	Buffered bool `json:"buffered,omitempty"`
}

// PullReport summarises the pull phase of a cycle.
type PullReport struct {
	Pages     int    `json:"pages"`
	Applied   int    `json:"applied"`
	Conflicts int    `json:"conflicts"`
	Watermark string `json:"watermark,omitempty"`
}

// CycleReport is what every waiter of one sync cycle receives.
type CycleReport struct {
	Trigger    SyncTrigger     `json:"trigger"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Push       PushReport      `json:"push"`
	Pull       PullReport      `json:"pull"`
	Status     AggregateStatus `json:"status"`
}
