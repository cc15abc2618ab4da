// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nnsi/hono-practice-sub008/models"
)

var opTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validOperation() models.SyncOperation {
	return models.SyncOperation{
		ClientID:       "c-1",
		EntityType:     models.EntityTask,
		EntityID:       "task-1",
		Operation:      models.OperationCreate,
		Payload:        json.RawMessage(`{"title":"write report"}`),
		Timestamp:      opTime,
		SequenceNumber: 1,
	}
}

func operations(n int) []models.SyncOperation {
	ops := make([]models.SyncOperation, n)
	for i := range ops {
		ops[i] = validOperation()
	}
	return ops
}

func TestValidate_Dispatch(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()

	t.Run("unsupported type", func(t *testing.T) {
		require.ErrorIs(t, v.Validate(ctx, "a string"), ErrUnsupportedType)
	})

	t.Run("operation value and pointer", func(t *testing.T) {
		op := validOperation()
		require.NoError(t, v.Validate(ctx, op))
		require.NoError(t, v.Validate(ctx, &op))
	})

	t.Run("pull request pointer", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, &models.PullRequest{}))
	})
}

func TestValidateOperation(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()

	tests := []struct {
		name   string
		modify func(*models.SyncOperation)
		want   error
	}{
		{name: "valid create", modify: func(*models.SyncOperation) {}},
		{name: "empty client id", modify: func(op *models.SyncOperation) { op.ClientID = " " }, want: ErrEmptyClientID},
		{name: "unknown entity type", modify: func(op *models.SyncOperation) { op.EntityType = "note" }, want: ErrInvalidEntityType},
		{name: "empty entity id", modify: func(op *models.SyncOperation) { op.EntityID = "" }, want: ErrEmptyEntityID},
		{name: "unknown operation", modify: func(op *models.SyncOperation) { op.Operation = "upsert" }, want: ErrInvalidOperation},
		{name: "create without payload", modify: func(op *models.SyncOperation) { op.Payload = nil }, want: ErrEmptyPayload},
		{name: "update with null payload", modify: func(op *models.SyncOperation) {
			op.Operation = models.OperationUpdate
			op.Payload = json.RawMessage("null")
		}, want: ErrEmptyPayload},
		{name: "delete without payload", modify: func(op *models.SyncOperation) {
			op.Operation = models.OperationDelete
			op.Payload = nil
		}},
		{name: "malformed payload", modify: func(op *models.SyncOperation) { op.Payload = json.RawMessage(`{"title":`) }, want: ErrInvalidPayload},
		{name: "zero timestamp", modify: func(op *models.SyncOperation) { op.Timestamp = time.Time{} }, want: ErrEmptyTimestamp},
		{name: "negative version", modify: func(op *models.SyncOperation) {
			version := int64(-1)
			op.Version = &version
		}, want: ErrInvalidVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := validOperation()
			tt.modify(&op)

			err := v.Validate(ctx, op)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateOperation_FieldScoping(t *testing.T) {
	v := NewSyncValidator()
	op := validOperation()
	op.ClientID = ""

	require.NoError(t, v.Validate(context.Background(), op, FieldEntityType, FieldEntityID))
	require.ErrorIs(t, v.Validate(context.Background(), op, "colour"), ErrUnknownField)
}

func TestValidatePushRequest(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()

	require.ErrorIs(t, v.Validate(ctx, models.PushRequest{}), ErrEmptyBatch)
	require.NoError(t, v.Validate(ctx, models.PushRequest{Items: operations(models.MaxPushBatchSize)}))
	require.ErrorIs(t, v.Validate(ctx, models.PushRequest{Items: operations(models.MaxPushBatchSize + 1)}), ErrBatchTooLarge)

	// item contents are not part of the envelope
	bad := validOperation()
	bad.EntityType = "note"
	require.NoError(t, v.Validate(ctx, models.PushRequest{Items: []models.SyncOperation{bad}}))

	require.NoError(t, v.Validate(ctx, models.PushRequest{Items: operations(1), SyncToken: models.EncodeCursor(9)}))
	require.ErrorIs(t, v.Validate(ctx, models.PushRequest{Items: operations(1), SyncToken: "forged"}), ErrInvalidCursor)
}

func TestValidatePullRequest(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.PullRequest
		want error
	}{
		{name: "defaults", req: models.PullRequest{}},
		{name: "max limit", req: models.PullRequest{Limit: models.MaxPullLimit}},
		{name: "limit above max", req: models.PullRequest{Limit: models.MaxPullLimit + 1}, want: ErrInvalidLimit},
		{name: "negative limit", req: models.PullRequest{Limit: -5}, want: ErrInvalidLimit},
		{name: "known types", req: models.PullRequest{EntityTypes: []models.EntityType{models.EntityGoal, models.EntityActivityLog}}},
		{name: "unknown type", req: models.PullRequest{EntityTypes: []models.EntityType{"habit"}}, want: ErrInvalidEntityType},
		{name: "issued cursor", req: models.PullRequest{Cursor: models.EncodeCursor(42)}},
		{name: "forged cursor", req: models.PullRequest{Cursor: "not-a-cursor"}, want: ErrInvalidCursor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.req)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateDuplicateCheckRequest(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()

	fp := validOperation().Fingerprint()
	require.NoError(t, v.Validate(ctx, models.DuplicateCheckRequest{Operations: []models.OperationFingerprint{fp}}))
	require.ErrorIs(t, v.Validate(ctx, models.DuplicateCheckRequest{}), ErrEmptyBatch)

	fp.Timestamp = time.Time{}
	require.ErrorIs(t, v.Validate(ctx, models.DuplicateCheckRequest{Operations: []models.OperationFingerprint{fp}}), ErrEmptyTimestamp)
}

func TestValidateEnqueueRequest(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()

	op := models.EnqueueOperationFrom(validOperation())
	op.ClientID = ""
	require.NoError(t, v.Validate(ctx, models.EnqueueRequest{Operations: []models.EnqueueOperation{op}}))

	op.Operation = models.OperationUpdate
	op.Payload = nil
	require.ErrorIs(t, v.Validate(ctx, models.EnqueueRequest{Operations: []models.EnqueueOperation{op}}), ErrEmptyPayload)

	require.ErrorIs(t, v.Validate(ctx, models.EnqueueRequest{}), ErrEmptyBatch)
}

func TestValidateProcessRequest(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()
	intPtr := func(i int) *int { return &i }

	require.NoError(t, v.Validate(ctx, models.ProcessRequest{}))
	require.NoError(t, v.Validate(ctx, models.ProcessRequest{BatchSize: intPtr(100), MaxRetries: intPtr(0)}))
	require.ErrorIs(t, v.Validate(ctx, models.ProcessRequest{BatchSize: intPtr(0)}), ErrInvalidBatchSize)
	require.ErrorIs(t, v.Validate(ctx, models.ProcessRequest{BatchSize: intPtr(101)}), ErrInvalidBatchSize)
	require.ErrorIs(t, v.Validate(ctx, models.ProcessRequest{MaxRetries: intPtr(11)}), ErrInvalidMaxRetries)
	require.ErrorIs(t, v.Validate(ctx, models.ProcessRequest{MaxRetries: intPtr(-1)}), ErrInvalidMaxRetries)
}

func TestValidateCredentials(t *testing.T) {
	v := NewSyncValidator()
	ctx := context.Background()

	require.NoError(t, v.Validate(ctx, models.User{Login: "alice", Password: "secret"}))
	require.ErrorIs(t, v.Validate(ctx, models.User{Password: "secret"}), ErrEmptyLogin)
	require.ErrorIs(t, v.Validate(ctx, models.User{Login: "al ice", Password: "secret"}), ErrInvalidLoginFormat)
	require.ErrorIs(t, v.Validate(ctx, models.User{Login: "alice"}), ErrEmptyPassword)
}
