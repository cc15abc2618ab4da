// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSyncResults_Empty(t *testing.T) {
	got := MergeSyncResults()

	assert.NotNil(t, got.SyncedIDs)
	assert.NotNil(t, got.ServerWins)
	assert.NotNil(t, got.SkippedIDs)
	assert.NotNil(t, got.FailedIDs)
	assert.Zero(t, got.Len())

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"syncedIds":[],"serverWins":[],"skippedIds":[],"failedIds":[]}`, string(raw))
}

func TestMergeSyncResults_PreservesOrder(t *testing.T) {
	a := ChunkOutcome{SyncedIDs: []string{"1", "2"}, ServerWins: []string{"3"}, SkippedIDs: nil}
	b := ChunkOutcome{SyncedIDs: []string{"4"}, SkippedIDs: []string{"5"}, FailedIDs: []string{"6"}}

	got := MergeSyncResults(a, b)

	assert.Equal(t, []string{"1", "2", "4"}, got.SyncedIDs)
	assert.Equal(t, []string{"3"}, got.ServerWins)
	assert.Equal(t, []string{"5"}, got.SkippedIDs)
	assert.Equal(t, []string{"6"}, got.FailedIDs)
}

func TestOutcomeFromResults_CanonicalMapping(t *testing.T) {
	results := []SyncResult{
		{ClientID: "a", Status: ResultSuccess},
		{ClientID: "b", Status: ResultConflict},
		{ClientID: "c", Status: ResultSkipped},
		{ClientID: "d", Status: ResultError},
		{ClientID: "e", Status: ResultSuccess},
	}

	got := OutcomeFromResults(results)

	assert.Equal(t, []string{"a", "e"}, got.SyncedIDs)
	assert.Equal(t, []string{"b"}, got.ServerWins)
	assert.Equal(t, []string{"c"}, got.SkippedIDs)
	assert.Equal(t, []string{"d"}, got.FailedIDs)
	assert.Equal(t, 5, got.Len())
}

func TestOperationFingerprint_String(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 600_000_000, time.FixedZone("X", 3600))
	op := SyncOperation{
		ClientID:   "c-1",
		EntityType: EntityGoal,
		EntityID:   "g-1",
		Operation:  OperationUpdate,
		Timestamp:  ts,
	}

	assert.Equal(t, "goal|g-1|2026-01-02T02:04:05.6Z|update", op.Fingerprint().String())
}

func TestSyncOperation_JSONFieldNames(t *testing.T) {
	v := int64(3)
	op := SyncOperation{
		ClientID:       "c-1",
		EntityType:     EntityActivityLog,
		EntityID:       "l-1",
		Operation:      OperationCreate,
		Payload:        json.RawMessage(`{"n":1}`),
		Timestamp:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		SequenceNumber: 7,
		Version:        &v,
	}

	raw, err := json.Marshal(op)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"clientId":"c-1","entityType":"activityLog","entityId":"l-1",
		"operation":"create","payload":{"n":1},
		"timestamp":"2026-01-01T00:00:00Z","sequenceNumber":7,"version":3
	}`, string(raw))
}

func TestEnumsValid(t *testing.T) {
	for _, et := range AllEntityTypes {
		assert.True(t, et.Valid(), et)
	}
	assert.False(t, EntityType("note").Valid())

	assert.True(t, OperationDelete.Valid())
	assert.False(t, OperationType("upsert").Valid())
	assert.False(t, OperationDelete.RequiresPayload())
	assert.True(t, OperationCreate.RequiresPayload())
}

func TestPullRequest_WithDefaults(t *testing.T) {
	assert.Equal(t, DefaultPullLimit, PullRequest{}.WithDefaults().Limit)
	assert.Equal(t, 5, PullRequest{Limit: 5}.WithDefaults().Limit)
}

func TestProcessRequest_Limits(t *testing.T) {
	b, m := ProcessRequest{}.Limits()
	assert.Equal(t, DefaultProcessBatchSize, b)
	assert.Equal(t, DefaultProcessMaxRetries, m)

	ten, zero := 10, 0
	b, m = ProcessRequest{BatchSize: &ten, MaxRetries: &zero}.Limits()
	assert.Equal(t, 10, b)
	assert.Equal(t, 0, m)
}
