// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
	"github.com/nnsi/hono-practice-sub008/models"
)

// inFlightTracker remembers the entities of chunks awaiting a server answer.
// Their metadata is not written while the request is open.
type inFlightTracker struct {
	mu   sync.RWMutex
	keys map[models.EntityKey]int
}

func newInFlightTracker() *inFlightTracker {
	return &inFlightTracker{keys: make(map[models.EntityKey]int)}
}

func (t *inFlightTracker) add(keys []models.EntityKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		t.keys[k]++
	}
}

func (t *inFlightTracker) remove(keys []models.EntityKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		if t.keys[k] <= 1 {
			delete(t.keys, k)
			continue
		}
		t.keys[k]--
	}
}

func (t *inFlightTracker) contains(key models.EntityKey) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.keys[key] > 0
}

// clientPusher drains the local queue to the server chunk by chunk.
//
// Chunks are sent strictly one after another. A chunk whose request fails
// leaves the queue and the metadata exactly as they were; the cycle stops
// there and the next cycle starts again from that chunk.
type clientPusher struct {
	repository store.LocalSyncRepository
	adapter    adapter.ServerAdapter
	puller     *clientPuller
	tracker    *inFlightTracker

	cfg           config.ClientSync
	clientVersion string

	newID func() string
	now   func() time.Time

	logger *logger.Logger
}

func (p *clientPusher) buffered() bool {
	return p.cfg.PushMode == config.PushModeBuffered
}

func (p *clientPusher) push(ctx context.Context, userID string) (models.PushReport, error) {
	report := models.PushReport{Outcome: models.NewChunkOutcome(), Buffered: p.buffered()}

	ops, err := p.repository.PendingOperations(ctx)
	if err != nil {
		return report, fmt.Errorf("load queue: %w", err)
	}
	if len(ops) == 0 {
		return report, nil
	}

	stored, err := p.repository.GetMetadata(ctx, entityKeys(ops))
	if err != nil {
		return report, fmt.Errorf("load metadata: %w", err)
	}
	metas := newCycleMetadata(stored)

	held, err := p.conflictedEntities(ctx)
	if err != nil {
		return report, err
	}

	sendable := make([]models.SyncOperation, 0, len(ops))
	for _, op := range ops {
		if _, ok := held[op.Key()]; ok {
			continue
		}
		if meta, ok := metas.byKey[op.Key()]; ok && meta.RetryExhausted(p.cfg.MaxRetries) {
			report.Exhausted = append(report.Exhausted, op.ClientID)
			continue
		}
		sendable = append(sendable, op)
	}

	watermark, err := p.repository.Watermark(ctx)
	if err != nil {
		return report, fmt.Errorf("load watermark: %w", err)
	}

	for i, chunk := range utils.ChunkArray(sendable, p.cfg.ChunkSize) {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		outcome, changes, err := p.pushChunk(ctx, userID, chunk, metas, watermark)
		report.Outcome = models.MergeSyncResults(report.Outcome, outcome)
		report.ServerChanges += changes
		if err != nil {
			p.logger.Warn().Err(err).
				Int("chunk", i).
				Int("size", len(chunk)).
				Msg("push stopped")
			return report, err
		}
		report.ChunksSent++
	}

	if p.buffered() && report.ChunksSent > 0 {
		if err = p.process(ctx); err != nil {
			return report, err
		}
	}

	return report, nil
}

// conflictedEntities returns entities with an open conflict. Their queued
// operations wait for a resolution.
func (p *clientPusher) conflictedEntities(ctx context.Context) (map[models.EntityKey]struct{}, error) {
	conflicts, err := p.repository.ListConflicts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load conflicts: %w", err)
	}

	held := make(map[models.EntityKey]struct{}, len(conflicts))
	for _, c := range conflicts {
		held[c.Key()] = struct{}{}
	}
	return held, nil
}

func (p *clientPusher) pushChunk(
	ctx context.Context,
	userID string,
	chunk []models.SyncOperation,
	metas *cycleMetadata,
	watermark string,
) (models.ChunkOutcome, int, error) {
	outcome := models.NewChunkOutcome()

	keys := entityKeys(chunk)
	p.tracker.add(keys)
	defer p.tracker.remove(keys)

	// an answered request is always applied, even when the cycle is cancelled
	callCtx := context.WithoutCancel(ctx)

	if p.cfg.PrefilterDuplicates {
		var err error
		chunk, err = p.dropDuplicates(callCtx, userID, chunk, metas, &outcome)
		if err != nil || len(chunk) == 0 {
			return outcome, 0, err
		}
	}

	if p.buffered() {
		return outcome, 0, p.enqueueChunk(callCtx, userID, chunk, metas, &outcome)
	}

	resp, err := p.adapter.Push(callCtx, models.PushRequest{
		Items:         chunk,
		SyncToken:     watermark,
		ClientVersion: p.clientVersion,
	})
	if err != nil {
		return outcome, 0, mapAdapterError(err)
	}

	results := make(map[string]models.SyncResult, len(resp.Results))
	for _, r := range resp.Results {
		results[r.ClientID] = r
	}

	for _, op := range chunk {
		r, ok := results[op.ClientID]
		if !ok {
			p.logger.Warn().Str("client_id", op.ClientID).Msg("no result for pushed operation")
			continue
		}
		if err = p.applyResult(callCtx, userID, op, r, metas); err != nil {
			return outcome, 0, err
		}
		outcome.Add(r)
	}

	applied, _, err := p.puller.applyChanges(callCtx, userID, resp.ServerChanges)
	if err != nil {
		return outcome, applied, err
	}

	return outcome, applied, nil
}

// applyResult stores the server verdict for one operation. metas keeps the
// running metadata of every entity touched in the cycle; a rejected entity
// is counted as failed once however many of its operations come back
// rejected.
func (p *clientPusher) applyResult(
	ctx context.Context,
	userID string,
	op models.SyncOperation,
	r models.SyncResult,
	metas *cycleMetadata,
) error {
	now := p.now()
	key := op.Key()
	_, counted := metas.failed[key]

	meta := p.metadataFor(userID, key, metas, now)
	if !counted {
		meta = meta.MarkAsSyncing(now)
	}

	var err error
	switch r.Status {
	case models.ResultSuccess:
		meta = meta.MarkAsSynced(now)
		err = p.repository.CompleteOperation(ctx, op, r.Version, meta, now)

	case models.ResultSkipped:
		meta = meta.MarkAsSynced(now)
		err = p.repository.CompleteOperation(ctx, op, nil, meta, now)

	case models.ResultConflict:
		if !counted {
			meta = meta.MarkAsFailed(models.MsgVersionConflict, now)
		}
		metas.failed[key] = struct{}{}
		err = p.repository.ParkOperation(ctx, p.pushConflict(op, r, now), meta)

	case models.ResultError:
		if counted {
			// the operation stays queued behind the failure already recorded
			return nil
		}
		msg := r.Error
		if msg == "" {
			msg = r.Message
		}
		meta = meta.MarkAsFailed(msg, now)
		metas.failed[key] = struct{}{}
		err = p.repository.SaveMetadata(ctx, meta)

	default:
		p.logger.Warn().
			Str("client_id", op.ClientID).
			Str("status", string(r.Status)).
			Msg("unknown result status, operation kept")
		return nil
	}
	if err != nil {
		return fmt.Errorf("store result of %s: %w", op.ClientID, err)
	}

	metas.byKey[key] = meta
	return nil
}

func (p *clientPusher) pushConflict(op models.SyncOperation, r models.SyncResult, now time.Time) models.Conflict {
	message := r.Message
	if message == "" {
		message = models.MsgVersionConflict
	}

	c := models.Conflict{
		ClientID:     op.ClientID,
		EntityType:   op.EntityType,
		EntityID:     op.EntityID,
		Source:       models.ConflictFromPush,
		LocalPayload: op.Payload,
		Message:      message,
		DetectedAt:   now,
		Operation:    &op,
	}

	if len(r.ConflictData) > 0 {
		var data models.ConflictData
		if err := json.Unmarshal(r.ConflictData, &data); err != nil {
			p.logger.Warn().Err(err).Str("client_id", op.ClientID).Msg("unreadable conflict data")
			return c
		}
		c = c.WithServerState(data)
	}
	return c
}

// dropDuplicates asks the server which operations of chunk it already
// applied and completes them locally without sending them again.
func (p *clientPusher) dropDuplicates(
	ctx context.Context,
	userID string,
	chunk []models.SyncOperation,
	metas *cycleMetadata,
	outcome *models.ChunkOutcome,
) ([]models.SyncOperation, error) {
	fingerprints := make([]models.OperationFingerprint, 0, len(chunk))
	for _, op := range chunk {
		fingerprints = append(fingerprints, op.Fingerprint())
	}

	resp, err := p.adapter.CheckDuplicates(ctx, models.DuplicateCheckRequest{Operations: fingerprints})
	if err != nil {
		return nil, mapAdapterError(err)
	}

	duplicate := make(map[string]bool, len(resp.Results))
	for _, r := range resp.Results {
		if r.IsDuplicate {
			duplicate[r.OperationFingerprint.String()] = true
		}
	}

	rest := make([]models.SyncOperation, 0, len(chunk))
	for _, op := range chunk {
		if !duplicate[op.Fingerprint().String()] {
			rest = append(rest, op)
			continue
		}

		r := models.SyncResult{ClientID: op.ClientID, Status: models.ResultSkipped, Message: models.MsgDuplicate}
		if err = p.applyResult(ctx, userID, op, r, metas); err != nil {
			return nil, err
		}
		outcome.Add(r)
	}
	return rest, nil
}

// enqueueChunk hands chunk to the server buffer. Accepted operations leave
// the local queue; the server owns them from now on.
func (p *clientPusher) enqueueChunk(
	ctx context.Context,
	userID string,
	chunk []models.SyncOperation,
	metas *cycleMetadata,
	outcome *models.ChunkOutcome,
) error {
	req := models.EnqueueRequest{Operations: make([]models.EnqueueOperation, 0, len(chunk))}
	for _, op := range chunk {
		req.Operations = append(req.Operations, models.EnqueueOperationFrom(op))
	}

	if _, err := p.adapter.Enqueue(ctx, req); err != nil {
		return mapAdapterError(err)
	}

	for _, op := range chunk {
		r := models.SyncResult{ClientID: op.ClientID, Status: models.ResultSuccess}
		if err := p.applyResult(ctx, userID, op, r, metas); err != nil {
			return err
		}
		outcome.Add(r)
	}
	return nil
}

// process drains the server buffer. Operations that fail there are reported
// through the server status and the change log, not through the local queue.
func (p *clientPusher) process(ctx context.Context) error {
	callCtx := context.WithoutCancel(ctx)
	for {
		resp, err := p.adapter.Process(callCtx, models.ProcessRequest{})
		if err != nil {
			return mapAdapterError(err)
		}

		p.logger.Debug().
			Int("processed", resp.ProcessedCount).
			Int("failed", resp.FailedCount).
			Bool("has_more", resp.HasMore).
			Msg("server queue processed")

		if !resp.HasMore || resp.ProcessedCount+resp.FailedCount == 0 {
			return nil
		}
		if err = ctx.Err(); err != nil {
			return err
		}
	}
}

func (p *clientPusher) metadataFor(userID string, key models.EntityKey, metas *cycleMetadata, now time.Time) models.SyncMetadata {
	if meta, ok := metas.byKey[key]; ok {
		return meta
	}
	return models.NewSyncMetadata(p.newID(), userID, key, now)
}

// cycleMetadata is the running metadata of the entities one push touches.
// failed holds the entities whose failure this push has already counted.
type cycleMetadata struct {
	byKey  map[models.EntityKey]models.SyncMetadata
	failed map[models.EntityKey]struct{}
}

func newCycleMetadata(stored map[models.EntityKey]models.SyncMetadata) *cycleMetadata {
	if stored == nil {
		stored = make(map[models.EntityKey]models.SyncMetadata)
	}
	return &cycleMetadata{
		byKey:  stored,
		failed: make(map[models.EntityKey]struct{}),
	}
}

func entityKeys(ops []models.SyncOperation) []models.EntityKey {
	seen := make(map[models.EntityKey]struct{}, len(ops))
	keys := make([]models.EntityKey, 0, len(ops))
	for _, op := range ops {
		if _, ok := seen[op.Key()]; ok {
			continue
		}
		seen[op.Key()] = struct{}{}
		keys = append(keys, op.Key())
	}
	return keys
}
