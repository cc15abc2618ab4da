// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

// syncService is the concrete implementation of SyncService. Requests are
// expected to be validated by the wrapping syncValidationService.
type syncService struct {
	syncRepository  store.SyncRepository
	queueRepository store.QueueRepository

	// maxServerChanges caps changes piggybacked on a push response.
	maxServerChanges int

	newID func() string
	now   func() time.Time

	logger *logger.Logger
}

// NewSyncService constructs a SyncService over the server repositories.
func NewSyncService(syncRepository store.SyncRepository, queueRepository store.QueueRepository, maxServerChanges int, newID func() string, logger *logger.Logger) SyncService {
	if maxServerChanges <= 0 {
		maxServerChanges = models.DefaultPullLimit
	}

	return &syncService{
		syncRepository:   syncRepository,
		queueRepository:  queueRepository,
		maxServerChanges: maxServerChanges,
		newID:            newID,
		now:              func() time.Time { return time.Now().UTC() },
		logger:           logger,
	}
}

// Push implements SyncService.
//
// Items are applied one by one, each in its own transaction. A storage
// failure of one item becomes an error result for that item and the rest of
// the chunk is still applied.
func (s *syncService) Push(ctx context.Context, userID string, req models.PushRequest) (models.PushResponse, error) {
	log := logger.FromContext(ctx)
	now := s.now()

	results := make([]models.SyncResult, 0, len(req.Items))
	clientIDs := make([]string, 0, len(req.Items))
	// unversioned followers of a rejected operation must not overwrite the
	// state the rejection protects
	blocked := make(map[models.EntityKey]struct{})
	for _, op := range req.Items {
		clientIDs = append(clientIDs, op.ClientID)
		now = s.now()

		if _, ok := blocked[op.Key()]; ok && op.Version == nil {
			results = append(results, models.SyncResult{
				ClientID: op.ClientID,
				Status:   models.ResultError,
				Error:    models.MsgBlocked,
			})
			continue
		}

		result, err := s.syncRepository.ApplyOperation(ctx, userID, op, now)
		if err != nil {
			log.Err(err).
				Str("func", "syncService.Push").
				Str("client_id", op.ClientID).
				Str("entity", op.Key().String()).
				Msg("failed to apply operation")
			result = models.SyncResult{
				ClientID: op.ClientID,
				Status:   models.ResultError,
				Error:    app.MsgInternalServerError,
			}
		}
		if result.Status == models.ResultConflict || result.Status == models.ResultError {
			blocked[op.Key()] = struct{}{}
		}
		results = append(results, result)
	}

	resp := models.PushResponse{
		Results:       results,
		SyncTimestamp: now,
	}

	if req.SyncToken == "" && req.LastSyncTimestamp == nil {
		return resp, nil
	}

	afterSeq, err := models.DecodeCursor(req.SyncToken)
	if err != nil {
		log.Warn().
			Str("func", "syncService.Push").
			Msg("ignoring unreadable sync token")
		return resp, nil
	}
	query := models.ChangeQuery{
		UserID:           userID,
		AfterSeq:         afterSeq,
		ExcludeClientIDs: clientIDs,
		Limit:            s.maxServerChanges + 1,
	}
	if req.SyncToken == "" {
		query.Since = req.LastSyncTimestamp
	}

	records, err := s.syncRepository.GetChanges(ctx, query)
	if err != nil {
		// the results are final, changes will be pulled later
		log.Err(err).
			Str("func", "syncService.Push").
			Msg("failed to read piggybacked server changes")
		return resp, nil
	}

	if len(records) > s.maxServerChanges {
		records = records[:s.maxServerChanges]
		resp.HasMore = true
	}
	resp.ServerChanges = changesOf(records)
	if len(records) > 0 {
		resp.NextSyncToken = models.EncodeCursor(records[len(records)-1].Seq)
	}

	return resp, nil
}

// Pull implements SyncService.
//
// The cursor is a change-log position and takes precedence over the
// timestamp watermark. One row more than the page size is read to tell
// whether the page is the last one. NextCursor is the position of the last
// returned row, or the request cursor for an empty page.
func (s *syncService) Pull(ctx context.Context, userID string, req models.PullRequest) (models.PullResponse, error) {
	req = req.WithDefaults()

	afterSeq, err := models.DecodeCursor(req.Cursor)
	if err != nil {
		return models.PullResponse{}, err
	}

	query := models.ChangeQuery{
		UserID:      userID,
		AfterSeq:    afterSeq,
		EntityTypes: req.EntityTypes,
		Limit:       req.Limit + 1,
	}
	if req.Cursor == "" {
		query.Since = req.LastSyncTimestamp
	}

	records, err := s.syncRepository.GetChanges(ctx, query)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncService.Pull").
			Str("user_id", userID).
			Msg("failed to read change log")
		return models.PullResponse{}, fmt.Errorf("read change log: %w", err)
	}

	resp := models.PullResponse{NextTimestamp: req.LastSyncTimestamp, NextCursor: req.Cursor}
	if len(records) > req.Limit {
		records = records[:req.Limit]
		resp.HasMore = true
	}
	resp.Changes = changesOf(records)

	for _, r := range records {
		if resp.NextTimestamp == nil || r.RecordedAt.After(*resp.NextTimestamp) {
			recorded := r.RecordedAt
			resp.NextTimestamp = &recorded
		}
	}
	if len(records) > 0 {
		resp.NextCursor = models.EncodeCursor(records[len(records)-1].Seq)
	}

	return resp, nil
}

// CheckDuplicates implements SyncService.
func (s *syncService) CheckDuplicates(ctx context.Context, userID string, req models.DuplicateCheckRequest) (models.DuplicateCheckResponse, error) {
	applied, err := s.syncRepository.FindAppliedFingerprints(ctx, userID, req.Operations)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncService.CheckDuplicates").
			Str("user_id", userID).
			Msg("failed to look up fingerprints")
		return models.DuplicateCheckResponse{}, fmt.Errorf("look up fingerprints: %w", err)
	}

	results := make([]models.DuplicateCheckResult, 0, len(req.Operations))
	for _, fp := range req.Operations {
		results = append(results, models.DuplicateCheckResult{
			OperationFingerprint: fp,
			IsDuplicate:          applied[fp.String()],
		})
	}

	return models.DuplicateCheckResponse{Results: results}, nil
}

// Enqueue implements SyncService.
func (s *syncService) Enqueue(ctx context.Context, userID string, req models.EnqueueRequest) (models.EnqueueResponse, error) {
	now := s.now()

	queued := make([]models.QueuedOperation, 0, len(req.Operations))
	for _, op := range req.Operations {
		queued = append(queued, models.QueuedOperation{
			EnqueueOperation: op,
			ID:               s.newID(),
			UserID:           userID,
			Status:           models.QueuePending,
			CreatedAt:        now,
		})
	}

	if err := s.queueRepository.Enqueue(ctx, queued...); err != nil {
		return models.EnqueueResponse{}, fmt.Errorf("enqueue operations: %w", err)
	}

	resp := models.EnqueueResponse{
		EnqueuedCount: len(queued),
		Operations:    make([]models.EnqueuedOperation, 0, len(queued)),
	}
	for _, q := range queued {
		resp.Operations = append(resp.Operations, q.Enqueued())
	}

	return resp, nil
}

// Process implements SyncService.
//
// Claimed operations go through the same decision path as pushed ones.
// Applied and skipped operations are done; conflicts and errors are failed
// and claimed again until maxRetries is exceeded.
func (s *syncService) Process(ctx context.Context, userID string, req models.ProcessRequest) (models.ProcessResponse, error) {
	log := logger.FromContext(ctx)
	batchSize, maxRetries := req.Limits()
	now := s.now()

	claimed, err := s.queueRepository.ClaimBatch(ctx, userID, batchSize, maxRetries, now)
	if err != nil {
		return models.ProcessResponse{}, fmt.Errorf("claim queued operations: %w", err)
	}

	var resp models.ProcessResponse
	for _, q := range claimed {
		status, errMsg := models.QueueDone, (*string)(nil)

		result, err := s.syncRepository.ApplyOperation(ctx, userID, q.SyncOperation(), now)
		switch {
		case err != nil:
			log.Err(err).
				Str("func", "syncService.Process").
				Str("queue_id", q.ID).
				Msg("failed to apply queued operation")
			status, errMsg = models.QueueFailed, ptrTo(app.MsgInternalServerError)
		case result.Status == models.ResultConflict || result.Status == models.ResultError:
			msg := result.Message
			if msg == "" {
				msg = result.Error
			}
			status, errMsg = models.QueueFailed, &msg
		}

		if err = s.queueRepository.Complete(ctx, q.ID, status, errMsg, now); err != nil {
			return resp, fmt.Errorf("complete queued operation %s: %w", q.ID, err)
		}

		if status == models.QueueDone {
			resp.ProcessedCount++
		} else {
			resp.FailedCount++
		}
	}

	remaining, err := s.queueRepository.CountProcessable(ctx, userID, maxRetries)
	if err != nil {
		return resp, fmt.Errorf("count queued operations: %w", err)
	}
	resp.HasMore = remaining > 0

	return resp, nil
}

// Status implements SyncService.
func (s *syncService) Status(ctx context.Context, userID string) (models.AggregateStatus, error) {
	status, err := s.syncRepository.GetSyncStatus(ctx, userID)
	if err != nil {
		return models.AggregateStatus{}, fmt.Errorf("read sync status: %w", err)
	}
	return status, nil
}

func changesOf(records []models.ChangeRecord) []models.EntityChange {
	changes := make([]models.EntityChange, 0, len(records))
	for _, r := range records {
		changes = append(changes, r.EntityChange)
	}
	return changes
}

func ptrTo[T any](v T) *T {
	return &v
}
