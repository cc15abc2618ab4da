// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/mock"
	"github.com/nnsi/hono-practice-sub008/models"
)

var serverNow = time.Date(2026, 5, 10, 8, 30, 0, 0, time.UTC)

func newTestSyncService(t *testing.T, maxServerChanges int) (*syncService, *mock.MockSyncRepository, *mock.MockQueueRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)

	syncRepo := mock.NewMockSyncRepository(ctrl)
	queueRepo := mock.NewMockQueueRepository(ctrl)

	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("q-%d", seq)
	}

	svc := NewSyncService(syncRepo, queueRepo, maxServerChanges, newID, logger.Nop()).(*syncService)
	svc.now = func() time.Time { return serverNow }

	return svc, syncRepo, queueRepo
}

func pushOp(clientID, entityID string, operation models.OperationType) models.SyncOperation {
	op := models.SyncOperation{
		ClientID:   clientID,
		EntityType: models.EntityActivity,
		EntityID:   entityID,
		Operation:  operation,
		Timestamp:  serverNow.Add(-time.Minute),
	}
	if operation.RequiresPayload() {
		op.Payload = json.RawMessage(`{"name":"running"}`)
	}
	return op
}

func changeRecord(seq int64, entityID string, recordedAt time.Time) models.ChangeRecord {
	return models.ChangeRecord{
		EntityChange: models.EntityChange{
			EntityType: models.EntityActivity,
			EntityID:   entityID,
			Operation:  models.OperationUpdate,
			Payload:    json.RawMessage(`{"name":"walking"}`),
			Timestamp:  recordedAt,
			Version:    seq,
		},
		Seq:        seq,
		ClientID:   fmt.Sprintf("other-%d", seq),
		RecordedAt: recordedAt,
	}
}

func TestSyncService_Push_ResultsInRequestOrder(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 10)
	ctx := context.Background()

	ops := []models.SyncOperation{
		pushOp("c-1", "a-1", models.OperationCreate),
		pushOp("c-2", "a-2", models.OperationUpdate),
		pushOp("c-3", "a-3", models.OperationDelete),
	}
	version := int64(1)

	gomock.InOrder(
		syncRepo.EXPECT().ApplyOperation(ctx, "u-1", ops[0], serverNow).
			Return(models.SyncResult{ClientID: "c-1", Status: models.ResultSuccess, ServerID: "a-1", Version: &version}, nil),
		syncRepo.EXPECT().ApplyOperation(ctx, "u-1", ops[1], serverNow).
			Return(models.SyncResult{ClientID: "c-2", Status: models.ResultConflict, Message: models.MsgVersionConflict}, nil),
		syncRepo.EXPECT().ApplyOperation(ctx, "u-1", ops[2], serverNow).
			Return(models.SyncResult{ClientID: "c-3", Status: models.ResultSkipped, Message: models.MsgDuplicate}, nil),
	)

	resp, err := svc.Push(ctx, "u-1", models.PushRequest{Items: ops})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, []string{"c-1", "c-2", "c-3"}, []string{resp.Results[0].ClientID, resp.Results[1].ClientID, resp.Results[2].ClientID})
	assert.Equal(t, models.ResultConflict, resp.Results[1].Status)
	assert.Equal(t, serverNow, resp.SyncTimestamp)
	assert.Empty(t, resp.ServerChanges, "no watermark, no piggybacked changes")
	assert.False(t, resp.HasMore)
}

func TestSyncService_Push_StorageFailureIsPerItem(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 10)
	ctx := context.Background()

	ops := []models.SyncOperation{
		pushOp("c-1", "a-1", models.OperationCreate),
		pushOp("c-2", "a-2", models.OperationCreate),
	}

	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", ops[0], serverNow).
		Return(models.SyncResult{}, errors.New("connection reset"))
	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", ops[1], serverNow).
		Return(models.SyncResult{ClientID: "c-2", Status: models.ResultSuccess}, nil)

	resp, err := svc.Push(ctx, "u-1", models.PushRequest{Items: ops})
	require.NoError(t, err)

	assert.Equal(t, models.SyncResult{ClientID: "c-1", Status: models.ResultError, Error: app.MsgInternalServerError}, resp.Results[0])
	assert.Equal(t, models.ResultSuccess, resp.Results[1].Status)
}

func TestSyncService_Push_BlocksFollowersOfRejectedOperation(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 10)
	ctx := context.Background()

	stale := int64(1)
	first := pushOp("c-1", "a-1", models.OperationUpdate)
	first.Version = &stale
	follower := pushOp("c-2", "a-1", models.OperationUpdate)
	other := pushOp("c-3", "a-2", models.OperationCreate)

	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", first, serverNow).
		Return(models.SyncResult{ClientID: "c-1", Status: models.ResultConflict, Message: models.MsgVersionConflict}, nil)
	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", other, serverNow).
		Return(models.SyncResult{ClientID: "c-3", Status: models.ResultSuccess}, nil)

	resp, err := svc.Push(ctx, "u-1", models.PushRequest{Items: []models.SyncOperation{first, follower, other}})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	assert.Equal(t, models.ResultConflict, resp.Results[0].Status)
	assert.Equal(t, models.SyncResult{ClientID: "c-2", Status: models.ResultError, Error: models.MsgBlocked}, resp.Results[1])
	assert.Equal(t, models.ResultSuccess, resp.Results[2].Status)
}

func TestSyncService_Push_PiggybacksServerChanges(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 2)
	ctx := context.Background()

	since := serverNow.Add(-time.Hour)
	op := pushOp("c-1", "a-1", models.OperationCreate)

	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", op, serverNow).
		Return(models.SyncResult{ClientID: "c-1", Status: models.ResultSuccess}, nil)
	syncRepo.EXPECT().GetChanges(ctx, models.ChangeQuery{
		UserID:           "u-1",
		Since:            &since,
		ExcludeClientIDs: []string{"c-1"},
		Limit:            3,
	}).Return([]models.ChangeRecord{
		changeRecord(4, "a-7", since.Add(time.Minute)),
		changeRecord(5, "a-8", since.Add(2*time.Minute)),
		changeRecord(6, "a-9", since.Add(3*time.Minute)),
	}, nil)

	resp, err := svc.Push(ctx, "u-1", models.PushRequest{Items: []models.SyncOperation{op}, LastSyncTimestamp: &since})
	require.NoError(t, err)

	require.Len(t, resp.ServerChanges, 2)
	assert.Equal(t, "a-7", resp.ServerChanges[0].EntityID)
	assert.Equal(t, "a-8", resp.ServerChanges[1].EntityID)
	assert.True(t, resp.HasMore)
	assert.Equal(t, models.EncodeCursor(5), resp.NextSyncToken)
}

func TestSyncService_Push_PiggybacksAfterSyncToken(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 5)
	ctx := context.Background()

	since := serverNow.Add(-time.Hour)
	op := pushOp("c-1", "a-1", models.OperationCreate)

	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", op, serverNow).
		Return(models.SyncResult{ClientID: "c-1", Status: models.ResultSuccess}, nil)
	syncRepo.EXPECT().GetChanges(ctx, models.ChangeQuery{
		UserID:           "u-1",
		AfterSeq:         11,
		ExcludeClientIDs: []string{"c-1"},
		Limit:            6,
	}).Return([]models.ChangeRecord{changeRecord(12, "a-4", since)}, nil)

	resp, err := svc.Push(ctx, "u-1", models.PushRequest{
		Items:             []models.SyncOperation{op},
		SyncToken:         models.EncodeCursor(11),
		LastSyncTimestamp: &since,
	})
	require.NoError(t, err)

	require.Len(t, resp.ServerChanges, 1)
	assert.False(t, resp.HasMore)
	assert.Equal(t, models.EncodeCursor(12), resp.NextSyncToken)
}

func TestSyncService_Push_WithoutWatermarkSkipsChanges(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 5)
	ctx := context.Background()

	op := pushOp("c-1", "a-1", models.OperationCreate)
	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", op, serverNow).
		Return(models.SyncResult{ClientID: "c-1", Status: models.ResultSuccess}, nil)

	resp, err := svc.Push(ctx, "u-1", models.PushRequest{Items: []models.SyncOperation{op}})
	require.NoError(t, err)
	assert.Empty(t, resp.ServerChanges)
	assert.Empty(t, resp.NextSyncToken)
}

func TestSyncService_Push_ChangeReadFailureKeepsResults(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 10)
	ctx := context.Background()

	since := serverNow.Add(-time.Hour)
	op := pushOp("c-1", "a-1", models.OperationCreate)

	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", op, serverNow).
		Return(models.SyncResult{ClientID: "c-1", Status: models.ResultSuccess}, nil)
	syncRepo.EXPECT().GetChanges(ctx, gomock.Any()).Return(nil, errors.New("timeout"))

	resp, err := svc.Push(ctx, "u-1", models.PushRequest{Items: []models.SyncOperation{op}, LastSyncTimestamp: &since})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.ServerChanges)
}

func TestSyncService_Pull(t *testing.T) {
	since := serverNow.Add(-time.Hour)

	t.Run("last page", func(t *testing.T) {
		svc, syncRepo, _ := newTestSyncService(t, 10)
		ctx := context.Background()

		syncRepo.EXPECT().GetChanges(ctx, models.ChangeQuery{
			UserID:      "u-1",
			Since:       &since,
			EntityTypes: []models.EntityType{models.EntityActivity},
			Limit:       3,
		}).Return([]models.ChangeRecord{
			changeRecord(1, "a-1", since.Add(2*time.Minute)),
			changeRecord(2, "a-2", since.Add(time.Minute)),
		}, nil)

		resp, err := svc.Pull(ctx, "u-1", models.PullRequest{
			LastSyncTimestamp: &since,
			EntityTypes:       []models.EntityType{models.EntityActivity},
			Limit:             2,
		})
		require.NoError(t, err)

		assert.Len(t, resp.Changes, 2)
		assert.False(t, resp.HasMore)
		assert.Equal(t, models.EncodeCursor(2), resp.NextCursor, "position of the last row")
		require.NotNil(t, resp.NextTimestamp)
		assert.Equal(t, since.Add(2*time.Minute), *resp.NextTimestamp, "newest recorded_at of the page")
	})

	t.Run("more pages", func(t *testing.T) {
		svc, syncRepo, _ := newTestSyncService(t, 10)
		ctx := context.Background()

		syncRepo.EXPECT().GetChanges(ctx, models.ChangeQuery{UserID: "u-1", AfterSeq: 7, Limit: 3}).
			Return([]models.ChangeRecord{
				changeRecord(8, "a-1", since),
				changeRecord(9, "a-2", since),
				changeRecord(10, "a-3", since),
			}, nil)

		resp, err := svc.Pull(ctx, "u-1", models.PullRequest{Limit: 2, Cursor: models.EncodeCursor(7)})
		require.NoError(t, err)

		assert.Len(t, resp.Changes, 2)
		assert.True(t, resp.HasMore)
		assert.Equal(t, models.EncodeCursor(9), resp.NextCursor)
	})

	t.Run("empty page keeps the watermark", func(t *testing.T) {
		svc, syncRepo, _ := newTestSyncService(t, 10)
		ctx := context.Background()

		syncRepo.EXPECT().GetChanges(ctx, gomock.Any()).Return(nil, nil)

		resp, err := svc.Pull(ctx, "u-1", models.PullRequest{LastSyncTimestamp: &since})
		require.NoError(t, err)

		assert.Empty(t, resp.Changes)
		require.NotNil(t, resp.NextTimestamp)
		assert.Equal(t, since, *resp.NextTimestamp)
	})

	t.Run("empty page keeps the cursor", func(t *testing.T) {
		svc, syncRepo, _ := newTestSyncService(t, 10)
		ctx := context.Background()

		syncRepo.EXPECT().GetChanges(ctx, models.ChangeQuery{UserID: "u-1", AfterSeq: 12, Limit: 3}).Return(nil, nil)

		resp, err := svc.Pull(ctx, "u-1", models.PullRequest{Limit: 2, Cursor: models.EncodeCursor(12)})
		require.NoError(t, err)

		assert.Empty(t, resp.Changes)
		assert.False(t, resp.HasMore)
		assert.Equal(t, models.EncodeCursor(12), resp.NextCursor)
	})

	t.Run("cursor wins over timestamp", func(t *testing.T) {
		svc, syncRepo, _ := newTestSyncService(t, 10)
		ctx := context.Background()

		syncRepo.EXPECT().GetChanges(ctx, models.ChangeQuery{UserID: "u-1", AfterSeq: 3, Limit: 3}).Return(nil, nil)

		_, err := svc.Pull(ctx, "u-1", models.PullRequest{Limit: 2, Cursor: models.EncodeCursor(3), LastSyncTimestamp: &since})
		require.NoError(t, err)
	})

	t.Run("default limit", func(t *testing.T) {
		svc, syncRepo, _ := newTestSyncService(t, 10)
		ctx := context.Background()

		syncRepo.EXPECT().GetChanges(ctx, models.ChangeQuery{UserID: "u-1", Limit: models.DefaultPullLimit + 1}).Return(nil, nil)

		_, err := svc.Pull(ctx, "u-1", models.PullRequest{})
		require.NoError(t, err)
	})

	t.Run("forged cursor", func(t *testing.T) {
		svc, _, _ := newTestSyncService(t, 10)

		_, err := svc.Pull(context.Background(), "u-1", models.PullRequest{Cursor: "%%%"})
		require.ErrorIs(t, err, models.ErrInvalidCursor)
	})
}

func TestSyncService_CheckDuplicates(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 10)
	ctx := context.Background()

	applied := pushOp("c-1", "a-1", models.OperationCreate).Fingerprint()
	fresh := pushOp("c-2", "a-2", models.OperationCreate).Fingerprint()
	fps := []models.OperationFingerprint{applied, fresh}

	syncRepo.EXPECT().FindAppliedFingerprints(ctx, "u-1", fps).
		Return(map[string]bool{applied.String(): true}, nil)

	resp, err := svc.CheckDuplicates(ctx, "u-1", models.DuplicateCheckRequest{Operations: fps})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].IsDuplicate)
	assert.False(t, resp.Results[1].IsDuplicate)
	assert.Equal(t, fresh, resp.Results[1].OperationFingerprint)
}

func TestSyncService_Enqueue(t *testing.T) {
	svc, _, queueRepo := newTestSyncService(t, 10)
	ctx := context.Background()

	first := models.EnqueueOperationFrom(pushOp("c-1", "a-1", models.OperationCreate))
	second := models.EnqueueOperationFrom(pushOp("", "a-2", models.OperationDelete))

	queueRepo.EXPECT().Enqueue(ctx,
		models.QueuedOperation{EnqueueOperation: first, ID: "q-1", UserID: "u-1", Status: models.QueuePending, CreatedAt: serverNow},
		models.QueuedOperation{EnqueueOperation: second, ID: "q-2", UserID: "u-1", Status: models.QueuePending, CreatedAt: serverNow},
	).Return(nil)

	resp, err := svc.Enqueue(ctx, "u-1", models.EnqueueRequest{Operations: []models.EnqueueOperation{first, second}})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.EnqueuedCount)
	assert.Equal(t, "q-2", resp.Operations[1].ID)
	assert.Equal(t, models.OperationDelete, resp.Operations[1].Operation)
}

func TestSyncService_Process(t *testing.T) {
	svc, syncRepo, queueRepo := newTestSyncService(t, 10)
	ctx := context.Background()

	applied := models.QueuedOperation{ID: "q-1", UserID: "u-1", EnqueueOperation: models.EnqueueOperationFrom(pushOp("c-1", "a-1", models.OperationCreate))}
	conflicting := models.QueuedOperation{ID: "q-2", UserID: "u-1", EnqueueOperation: models.EnqueueOperationFrom(pushOp("", "a-2", models.OperationUpdate))}
	broken := models.QueuedOperation{ID: "q-3", UserID: "u-1", EnqueueOperation: models.EnqueueOperationFrom(pushOp("c-3", "a-3", models.OperationUpdate))}

	batch, retries := 10, 2
	queueRepo.EXPECT().ClaimBatch(ctx, "u-1", batch, retries, serverNow).
		Return([]models.QueuedOperation{applied, conflicting, broken}, nil)

	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", applied.SyncOperation(), serverNow).
		Return(models.SyncResult{ClientID: "c-1", Status: models.ResultSuccess}, nil)
	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", conflicting.SyncOperation(), serverNow).
		Return(models.SyncResult{ClientID: "queue:q-2", Status: models.ResultConflict, Message: models.MsgVersionConflict}, nil)
	syncRepo.EXPECT().ApplyOperation(ctx, "u-1", broken.SyncOperation(), serverNow).
		Return(models.SyncResult{}, errors.New("deadlock"))

	conflictMsg := models.MsgVersionConflict
	internalMsg := app.MsgInternalServerError
	queueRepo.EXPECT().Complete(ctx, "q-1", models.QueueDone, nil, serverNow).Return(nil)
	queueRepo.EXPECT().Complete(ctx, "q-2", models.QueueFailed, &conflictMsg, serverNow).Return(nil)
	queueRepo.EXPECT().Complete(ctx, "q-3", models.QueueFailed, &internalMsg, serverNow).Return(nil)
	queueRepo.EXPECT().CountProcessable(ctx, "u-1", retries).Return(2, nil)

	resp, err := svc.Process(ctx, "u-1", models.ProcessRequest{BatchSize: &batch, MaxRetries: &retries})
	require.NoError(t, err)

	assert.Equal(t, models.ProcessResponse{ProcessedCount: 1, FailedCount: 2, HasMore: true}, resp)
}

func TestSyncService_Process_ClaimFailure(t *testing.T) {
	svc, _, queueRepo := newTestSyncService(t, 10)
	ctx := context.Background()

	queueRepo.EXPECT().ClaimBatch(ctx, "u-1", models.DefaultProcessBatchSize, models.DefaultProcessMaxRetries, serverNow).
		Return(nil, errors.New("db down"))

	_, err := svc.Process(ctx, "u-1", models.ProcessRequest{})
	require.Error(t, err)
}

func TestSyncService_Status(t *testing.T) {
	svc, syncRepo, _ := newTestSyncService(t, 10)
	ctx := context.Background()

	want := models.NewAggregateStatus(map[models.SyncStatus]int{models.StatusSynced: 3, models.StatusFailed: 1}, nil)
	syncRepo.EXPECT().GetSyncStatus(ctx, "u-1").Return(want, nil)

	got, err := svc.Status(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 75, got.SyncPercentage)
}
