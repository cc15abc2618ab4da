// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

var clientNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

// memLocalRepo is an in-memory LocalSyncRepository with the same queueing
// rules as the SQLite one.
type memLocalRepo struct {
	mu        sync.Mutex
	entities  map[models.EntityKey]models.EntityRecord
	queue     []models.SyncOperation
	nextSeq   uint64
	metas     map[models.EntityKey]models.SyncMetadata
	conflicts map[string]models.Conflict
	watermark string
}

func newMemLocalRepo() *memLocalRepo {
	return &memLocalRepo{
		entities:  make(map[models.EntityKey]models.EntityRecord),
		metas:     make(map[models.EntityKey]models.SyncMetadata),
		conflicts: make(map[string]models.Conflict),
	}
}

func (m *memLocalRepo) transition(key models.EntityKey, userID string, now time.Time, fn func(models.SyncMetadata) models.SyncMetadata) {
	meta, ok := m.metas[key]
	if !ok {
		meta = models.NewSyncMetadata("meta-"+key.EntityID, userID, key, now)
	}
	m.metas[key] = fn(meta)
}

func (m *memLocalRepo) hasQueued(key models.EntityKey) bool {
	for _, op := range m.queue {
		if op.Key() == key {
			return true
		}
	}
	return false
}

func (m *memLocalRepo) enqueue(op models.SyncOperation) models.SyncOperation {
	m.nextSeq++
	op.SequenceNumber = m.nextSeq
	m.queue = append(m.queue, op)
	return op
}

func (m *memLocalRepo) dequeue(clientID string) {
	delete(m.conflicts, clientID)
	for i, op := range m.queue {
		if op.ClientID == clientID {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

func (m *memLocalRepo) RecordMutation(_ context.Context, record models.EntityRecord, op models.SyncOperation, userID string, now time.Time) (models.SyncOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasQueued(op.Key()) {
		op.Version = nil
	}
	m.entities[record.Key()] = record
	queued := m.enqueue(op)
	m.transition(op.Key(), userID, now, func(meta models.SyncMetadata) models.SyncMetadata {
		return meta.MarkAsPending(now)
	})
	return queued, nil
}

func (m *memLocalRepo) GetEntity(_ context.Context, key models.EntityKey) (models.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.entities[key]
	if !ok {
		return models.EntityRecord{}, store.ErrEntityNotFound
	}
	return record, nil
}

func (m *memLocalRepo) ListEntities(_ context.Context, entityType models.EntityType) ([]models.EntityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EntityRecord
	for _, r := range m.entities {
		if entityType == "" || r.EntityType == entityType {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

func (m *memLocalRepo) PendingOperations(context.Context) ([]models.SyncOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SyncOperation(nil), m.queue...), nil
}

func (m *memLocalRepo) GetMetadata(_ context.Context, keys []models.EntityKey) (map[models.EntityKey]models.SyncMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[models.EntityKey]models.SyncMetadata, len(keys))
	for _, k := range keys {
		if meta, ok := m.metas[k]; ok {
			out[k] = meta
		}
	}
	return out, nil
}

func (m *memLocalRepo) ListMetadata(context.Context) ([]models.SyncMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SyncMetadata, 0, len(m.metas))
	for _, meta := range m.metas {
		out = append(out, meta)
	}
	return out, nil
}

func (m *memLocalRepo) SaveMetadata(_ context.Context, metas ...models.SyncMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, meta := range metas {
		m.metas[meta.Key()] = meta
	}
	return nil
}

func (m *memLocalRepo) CompleteOperation(_ context.Context, op models.SyncOperation, version *int64, meta models.SyncMetadata, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dequeue(op.ClientID)
	if record, ok := m.entities[op.Key()]; ok && version != nil {
		record.Version = *version
		if record.State == models.EntityStateNew {
			record.State = models.EntityStatePersisted
		}
		record.UpdatedAt = now
		m.entities[op.Key()] = record
	}
	m.metas[meta.Key()] = meta
	return nil
}

func (m *memLocalRepo) ParkOperation(_ context.Context, conflict models.Conflict, meta models.SyncMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dequeue(conflict.ClientID)
	m.conflicts[conflict.ClientID] = conflict
	m.metas[meta.Key()] = meta
	return nil
}

func (m *memLocalRepo) ApplyServerChange(_ context.Context, change models.EntityChange, userID string, now time.Time) (*models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := change.Key()
	if existing, ok := m.entities[key]; ok {
		if v, known := existing.ServerVersion(); known && v >= change.Version {
			return nil, nil
		}
	}

	var latest *models.SyncOperation
	for i := range m.queue {
		if m.queue[i].Key() == key {
			latest = &m.queue[i]
		}
	}
	if latest != nil {
		version := change.Version
		c := models.Conflict{
			ClientID:      latest.ClientID,
			EntityType:    key.EntityType,
			EntityID:      key.EntityID,
			Source:        models.ConflictFromPull,
			LocalPayload:  latest.Payload,
			ServerPayload: change.Payload,
			ServerVersion: &version,
			ServerDeleted: change.Operation == models.OperationDelete,
			Message:       models.MsgPendingLocalChange,
			DetectedAt:    now,
		}
		m.conflicts[c.ClientID] = c
		return &c, nil
	}
	for id, parked := range m.conflicts {
		if parked.Key() == key {
			refreshed := parked.WithServerChange(change)
			m.conflicts[id] = refreshed
			return &refreshed, nil
		}
	}

	record := models.NewPersistedEntity(key.EntityType, key.EntityID, change.Payload, change.Version, now)
	if change.Operation == models.OperationDelete {
		record = models.NewArchivedEntity(key.EntityType, key.EntityID, change.Version, now)
	}
	m.entities[key] = record
	m.transition(key, userID, now, func(meta models.SyncMetadata) models.SyncMetadata {
		return meta.MarkAsSyncing(now).MarkAsSynced(now)
	})
	return nil, nil
}

func (m *memLocalRepo) ListConflicts(context.Context) ([]models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Conflict, 0, len(m.conflicts))
	for _, c := range m.conflicts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

func (m *memLocalRepo) GetConflict(_ context.Context, clientID string) (models.Conflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conflicts[clientID]
	if !ok {
		return models.Conflict{}, store.ErrConflictNotFound
	}
	return c, nil
}

func (m *memLocalRepo) RequeueConflict(_ context.Context, op models.SyncOperation, userID string, now time.Time) (models.SyncOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dequeue(op.ClientID)
	queued := m.enqueue(op)
	if _, ok := m.metas[op.Key()]; ok {
		m.transition(op.Key(), userID, now, func(meta models.SyncMetadata) models.SyncMetadata {
			return meta.MarkAsPending(now)
		})
	}
	return queued, nil
}

func (m *memLocalRepo) AcceptServerState(_ context.Context, clientID string, record models.EntityRecord, userID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dequeue(clientID)
	m.entities[record.Key()] = record
	m.transition(record.Key(), userID, now, func(meta models.SyncMetadata) models.SyncMetadata {
		return meta.MarkAsSyncing(now).MarkAsSynced(now)
	})
	return nil
}

func (m *memLocalRepo) Watermark(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watermark, nil
}

func (m *memLocalRepo) SetWatermark(_ context.Context, cursor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watermark = cursor
	return nil
}

// stubAdapter is a ServerAdapter whose calls are served by fn fields. A nil
// field answers with an empty response.
type stubAdapter struct {
	mu      sync.Mutex
	session models.Session

	pushFn    func(ctx context.Context, req models.PushRequest) (models.PushResponse, error)
	pullFn    func(ctx context.Context, req models.PullRequest) (models.PullResponse, error)
	enqueueFn func(ctx context.Context, req models.EnqueueRequest) (models.EnqueueResponse, error)
	processFn func(ctx context.Context, req models.ProcessRequest) (models.ProcessResponse, error)
}

func newStubAdapter() *stubAdapter {
	return &stubAdapter{session: models.Session{UserID: "u-1", AccessToken: "at", RefreshToken: "rt"}}
}

func (s *stubAdapter) SetSession(session models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *stubAdapter) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *stubAdapter) Register(context.Context, models.User) (models.TokenPair, error) {
	return models.TokenPair{}, nil
}

func (s *stubAdapter) Login(context.Context, models.User) (models.TokenPair, error) {
	return models.TokenPair{}, nil
}

func (s *stubAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	if s.pushFn == nil {
		return acceptAll(req, 1), nil
	}
	return s.pushFn(ctx, req)
}

func (s *stubAdapter) Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	if s.pullFn == nil {
		return models.PullResponse{NextCursor: req.Cursor}, nil
	}
	return s.pullFn(ctx, req)
}

func (s *stubAdapter) CheckDuplicates(context.Context, models.DuplicateCheckRequest) (models.DuplicateCheckResponse, error) {
	return models.DuplicateCheckResponse{}, nil
}

func (s *stubAdapter) Enqueue(ctx context.Context, req models.EnqueueRequest) (models.EnqueueResponse, error) {
	if s.enqueueFn == nil {
		return models.EnqueueResponse{EnqueuedCount: len(req.Operations)}, nil
	}
	return s.enqueueFn(ctx, req)
}

func (s *stubAdapter) Process(ctx context.Context, req models.ProcessRequest) (models.ProcessResponse, error) {
	if s.processFn == nil {
		return models.ProcessResponse{}, nil
	}
	return s.processFn(ctx, req)
}

func (s *stubAdapter) Status(context.Context) (models.AggregateStatus, error) {
	return models.AggregateStatus{}, nil
}

func (s *stubAdapter) Ping(context.Context) error { return nil }

// acceptAll answers every item of req with success at version.
func acceptAll(req models.PushRequest, version int64) models.PushResponse {
	resp := models.PushResponse{SyncTimestamp: clientNow}
	for _, op := range req.Items {
		v := version
		resp.Results = append(resp.Results, models.SyncResult{
			ClientID: op.ClientID,
			ServerID: op.EntityID,
			Status:   models.ResultSuccess,
			Version:  &v,
		})
	}
	return resp
}
