// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/models"
)

var (
	localEntityColumns   = []string{"entity_type", "entity_id", "state", "payload", "version", "updated_at"}
	localOpColumns       = []string{"client_id", "entity_type", "entity_id", "operation", "payload", "op_timestamp", "sequence_number", "version"}
	localMetadataColumns = []string{"id", "user_id", "entity_type", "entity_id", "last_synced_at", "status", "error_message", "retry_count", "created_at", "updated_at"}
	conflictColumns      = []string{
		"client_id", "entity_type", "entity_id", "source", "local_payload", "server_payload", "server_version",
		"server_deleted", "message", "detected_at", "operation", "op_timestamp", "sequence_number", "version",
	}
)

func newTestLocalRepo(t *testing.T) (LocalSyncRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db := &DB{DB: conn, logger: logger.Nop()}
	return NewLocalSyncRepository(db, func() string { return "meta-1" }, logger.Nop()), mock
}

var localNow = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func localOperation(version *int64) models.SyncOperation {
	return models.SyncOperation{
		ClientID:   "c-2",
		EntityType: models.EntityActivity,
		EntityID:   "a-1",
		Operation:  models.OperationUpdate,
		Payload:    json.RawMessage(`{"name":"run"}`),
		Timestamp:  localNow,
		Version:    version,
	}
}

func TestRecordMutation_FirstOperationKeepsVersion(t *testing.T) {
	repo, mock := newTestLocalRepo(t)
	op := localOperation(ptr(int64(4)))
	record := models.NewPersistedEntity(models.EntityActivity, "a-1", op.Payload, 4, localNow)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO entities`).
		WithArgs("activity", "a-1", "persisted", `{"name":"run"}`, int64(4), localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM sync_queue\s+WHERE entity_type`).
		WithArgs("activity", "a-1").
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "payload"}))
	mock.ExpectQuery(`UPDATE sync_state`).
		WithArgs(sequenceKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(9)))
	mock.ExpectExec(`INSERT INTO sync_queue`).
		WithArgs("c-2", "activity", "a-1", "update", `{"name":"run"}`, localNow, int64(9), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM sync_metadata\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows(localMetadataColumns))
	mock.ExpectExec(`INSERT INTO sync_metadata`).
		WithArgs("meta-1", "u-1", "activity", "a-1", nil, "pending", nil, 0, localNow, localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	queued, err := repo.RecordMutation(context.Background(), record, op, "u-1", localNow)
	require.NoError(t, err)

	assert.Equal(t, uint64(9), queued.SequenceNumber)
	require.NotNil(t, queued.Version)
	assert.Equal(t, int64(4), *queued.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordMutation_FollowUpDropsVersion(t *testing.T) {
	repo, mock := newTestLocalRepo(t)
	op := localOperation(ptr(int64(4)))
	record := models.NewPersistedEntity(models.EntityActivity, "a-1", op.Payload, 4, localNow)
	synced := localNow.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO entities`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM sync_queue\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "payload"}).AddRow("c-1", `{"name":"walk"}`))
	mock.ExpectQuery(`UPDATE sync_state`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(10)))
	mock.ExpectExec(`INSERT INTO sync_queue`).
		WithArgs("c-2", "activity", "a-1", "update", `{"name":"run"}`, localNow, int64(10), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM sync_metadata\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows(localMetadataColumns).
			AddRow("meta-7", "u-1", "activity", "a-1", synced, "synced", nil, 0, synced, synced))
	mock.ExpectExec(`INSERT INTO sync_metadata`).
		WithArgs("meta-7", "u-1", "activity", "a-1", synced, "pending", nil, 0, synced, localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	queued, err := repo.RecordMutation(context.Background(), record, op, "u-1", localNow)
	require.NoError(t, err)

	assert.Nil(t, queued.Version)
	assert.Equal(t, uint64(10), queued.SequenceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPendingOperations(t *testing.T) {
	repo, mock := newTestLocalRepo(t)

	mock.ExpectQuery(`FROM sync_queue\s+ORDER BY sequence_number`).
		WillReturnRows(sqlmock.NewRows(localOpColumns).
			AddRow("c-1", "task", "t-1", "create", `{"a":1}`, localNow, int64(1), nil).
			AddRow("c-2", "task", "t-1", "delete", nil, localNow, int64(2), int64(1)))

	ops, err := repo.PendingOperations(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, uint64(1), ops[0].SequenceNumber)
	assert.JSONEq(t, `{"a":1}`, string(ops[0].Payload))
	assert.Nil(t, ops[0].Version)
	assert.Nil(t, ops[1].Payload)
	require.NotNil(t, ops[1].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyServerChange_SkipsKnownVersion(t *testing.T) {
	repo, mock := newTestLocalRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM entities\s+WHERE entity_type`).
		WithArgs("task", "t-1").
		WillReturnRows(sqlmock.NewRows(localEntityColumns).AddRow("task", "t-1", "persisted", `{}`, int64(3), localNow))
	mock.ExpectCommit()

	conflict, err := repo.ApplyServerChange(context.Background(),
		models.EntityChange{EntityType: models.EntityTask, EntityID: "t-1", Operation: models.OperationUpdate, Version: 3},
		"u-1", localNow)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyServerChange_PendingLocalChangeConflicts(t *testing.T) {
	repo, mock := newTestLocalRepo(t)
	change := models.EntityChange{
		EntityType: models.EntityTask,
		EntityID:   "t-1",
		Operation:  models.OperationUpdate,
		Payload:    json.RawMessage(`{"title":"server"}`),
		Version:    5,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM entities\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows(localEntityColumns).AddRow("task", "t-1", "persisted", `{"title":"local"}`, int64(3), localNow))
	mock.ExpectQuery(`FROM sync_queue\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "payload"}).AddRow("c-9", `{"title":"local"}`))
	mock.ExpectExec(`INSERT INTO conflicts`).
		WithArgs("c-9", "task", "t-1", "pull", `{"title":"local"}`, `{"title":"server"}`, int64(5), false,
			models.MsgPendingLocalChange, localNow, nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conflict, err := repo.ApplyServerChange(context.Background(), change, "u-1", localNow)
	require.NoError(t, err)
	require.NotNil(t, conflict)

	assert.Equal(t, models.ConflictFromPull, conflict.Source)
	assert.Equal(t, "c-9", conflict.ClientID)
	require.NotNil(t, conflict.ServerVersion)
	assert.Equal(t, int64(5), *conflict.ServerVersion)
	assert.Nil(t, conflict.Operation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyServerChange_DeleteArchives(t *testing.T) {
	repo, mock := newTestLocalRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM entities\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows(localEntityColumns))
	mock.ExpectQuery(`FROM sync_queue\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "payload"}))
	mock.ExpectQuery(`FROM conflicts\s+WHERE entity_type`).
		WithArgs("goal", "g-1").
		WillReturnRows(sqlmock.NewRows(conflictColumns))
	mock.ExpectExec(`INSERT INTO entities`).
		WithArgs("goal", "g-1", "archived", nil, int64(2), localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM sync_metadata\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows(localMetadataColumns))
	mock.ExpectExec(`INSERT INTO sync_metadata`).
		WithArgs("meta-1", "u-1", "goal", "g-1", localNow, "synced", nil, 0, localNow, localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conflict, err := repo.ApplyServerChange(context.Background(),
		models.EntityChange{EntityType: models.EntityGoal, EntityID: "g-1", Operation: models.OperationDelete, Version: 2},
		"u-1", localNow)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyServerChange_ParkedEditKeepsLocalCopy(t *testing.T) {
	repo, mock := newTestLocalRepo(t)
	change := models.EntityChange{
		EntityType: models.EntityActivity,
		EntityID:   "a-1",
		Operation:  models.OperationUpdate,
		Payload:    json.RawMessage(`{"name":"cycle"}`),
		Version:    4,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM entities\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows(localEntityColumns).AddRow("activity", "a-1", "persisted", `{"name":"run"}`, int64(2), localNow))
	mock.ExpectQuery(`FROM sync_queue\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "payload"}))
	mock.ExpectQuery(`FROM conflicts\s+WHERE entity_type`).
		WithArgs("activity", "a-1").
		WillReturnRows(sqlmock.NewRows(conflictColumns).
			AddRow("c-2", "activity", "a-1", "push", `{"name":"run"}`, `{"name":"swim"}`, int64(3), false,
				models.MsgVersionConflict, localNow, "update", localNow, int64(4), int64(2)))
	// only the conflict is rewritten; no entity or metadata write follows
	mock.ExpectExec(`INSERT INTO conflicts`).
		WithArgs("c-2", "activity", "a-1", "push", `{"name":"run"}`, `{"name":"cycle"}`, int64(4), false,
			models.MsgVersionConflict, localNow, "update", localNow, int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conflict, err := repo.ApplyServerChange(context.Background(), change, "u-1", localNow)
	require.NoError(t, err)
	require.NotNil(t, conflict)

	assert.Equal(t, "c-2", conflict.ClientID)
	require.NotNil(t, conflict.ServerVersion)
	assert.Equal(t, int64(4), *conflict.ServerVersion)
	assert.JSONEq(t, `{"name":"run"}`, string(conflict.LocalPayload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteOperation(t *testing.T) {
	repo, mock := newTestLocalRepo(t)
	op := localOperation(nil)
	meta := models.NewSyncMetadata("meta-1", "u-1", op.Key(), localNow).MarkAsSyncing(localNow).MarkAsSynced(localNow)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sync_queue`).
		WithArgs("c-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE entities SET`).
		WithArgs("activity", "a-1", int64(6), localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO sync_metadata`).
		WithArgs("meta-1", "u-1", "activity", "a-1", localNow, "synced", nil, 0, localNow, localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CompleteOperation(context.Background(), op, ptr(int64(6)), meta, localNow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParkOperation(t *testing.T) {
	repo, mock := newTestLocalRepo(t)
	op := localOperation(ptr(int64(2)))
	op.SequenceNumber = 4
	conflict := models.Conflict{
		ClientID:     op.ClientID,
		EntityType:   op.EntityType,
		EntityID:     op.EntityID,
		Source:       models.ConflictFromPush,
		LocalPayload: op.Payload,
		Message:      models.MsgVersionConflict,
		DetectedAt:   localNow,
		Operation:    &op,
	}.WithServerState(models.ConflictData{Payload: json.RawMessage(`{"name":"swim"}`), Version: 3})
	meta := models.NewSyncMetadata("meta-1", "u-1", op.Key(), localNow).MarkAsSyncing(localNow).MarkAsFailed(models.MsgVersionConflict, localNow)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sync_queue`).WithArgs("c-2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO conflicts`).
		WithArgs("c-2", "activity", "a-1", "push", `{"name":"run"}`, `{"name":"swim"}`, int64(3), false,
			models.MsgVersionConflict, localNow, "update", localNow, int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO sync_metadata`).
		WithArgs("meta-1", "u-1", "activity", "a-1", nil, "failed", models.MsgVersionConflict, 1, localNow, localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ParkOperation(context.Background(), conflict, meta))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConflict(t *testing.T) {
	repo, mock := newTestLocalRepo(t)

	mock.ExpectQuery(`FROM conflicts WHERE client_id`).
		WithArgs("c-2").
		WillReturnRows(sqlmock.NewRows(conflictColumns).
			AddRow("c-2", "activity", "a-1", "push", `{"name":"run"}`, `{"name":"swim"}`, int64(3), false,
				models.MsgVersionConflict, localNow, "update", localNow, int64(4), int64(2)))

	c, err := repo.GetConflict(context.Background(), "c-2")
	require.NoError(t, err)

	require.NotNil(t, c.Operation)
	assert.Equal(t, models.OperationUpdate, c.Operation.Operation)
	assert.Equal(t, uint64(4), c.Operation.SequenceNumber)
	assert.JSONEq(t, `{"name":"run"}`, string(c.Operation.Payload))
	require.NotNil(t, c.ServerVersion)
	assert.Equal(t, int64(3), *c.ServerVersion)
}

func TestGetConflict_NotFound(t *testing.T) {
	repo, mock := newTestLocalRepo(t)

	mock.ExpectQuery(`FROM conflicts WHERE client_id`).WillReturnRows(sqlmock.NewRows(conflictColumns))

	_, err := repo.GetConflict(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrConflictNotFound)
}

func TestRequeueConflict(t *testing.T) {
	repo, mock := newTestLocalRepo(t)
	op := localOperation(ptr(int64(3)))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM conflicts`).WithArgs("c-2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM sync_queue`).WithArgs("c-2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`UPDATE sync_state`).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(21)))
	mock.ExpectExec(`INSERT INTO sync_queue`).
		WithArgs("c-2", "activity", "a-1", "update", `{"name":"run"}`, localNow, int64(21), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM sync_metadata\s+WHERE entity_type`).
		WillReturnRows(sqlmock.NewRows(localMetadataColumns).
			AddRow("meta-1", "u-1", "activity", "a-1", nil, "failed", models.MsgVersionConflict, 1, localNow, localNow))
	mock.ExpectExec(`INSERT INTO sync_metadata`).
		WithArgs("meta-1", "u-1", "activity", "a-1", nil, "pending", models.MsgVersionConflict, 1, localNow, localNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	queued, err := repo.RequeueConflict(context.Background(), op, "u-1", localNow)
	require.NoError(t, err)
	assert.Equal(t, uint64(21), queued.SequenceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWatermark(t *testing.T) {
	repo, mock := newTestLocalRepo(t)

	mock.ExpectQuery(`SELECT value FROM sync_state`).
		WithArgs(watermarkKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	w, err := repo.Watermark(context.Background())
	require.NoError(t, err)
	assert.Empty(t, w)

	cursor := models.EncodeCursor(42)
	mock.ExpectExec(`INSERT INTO sync_state`).
		WithArgs(watermarkKey, cursor).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetWatermark(context.Background(), cursor))

	mock.ExpectQuery(`SELECT value FROM sync_state`).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(cursor))

	w, err = repo.Watermark(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cursor, w)
	assert.NoError(t, mock.ExpectationsWereMet())
}
