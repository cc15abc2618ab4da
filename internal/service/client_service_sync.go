// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

const syncFlightKey = "sync"

type clientSyncService struct {
	repository store.LocalSyncRepository
	adapter    adapter.ServerAdapter

	pusher  *clientPusher
	puller  *clientPuller
	tracker *inFlightTracker

	// group lets concurrent callers share one cycle
	group singleflight.Group
	// mu keeps conflict resolution out of a running cycle
	mu sync.Mutex

	now func() time.Time

	logger *logger.Logger
}

// NewClientSyncService wires the push and pull phases over the local
// repository and the server adapter.
func NewClientSyncService(
	repository store.LocalSyncRepository,
	serverAdapter adapter.ServerAdapter,
	cfg config.ClientSync,
	clientVersion string,
	newID func() string,
	logger *logger.Logger,
) ClientSyncService {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = models.DefaultChunkSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = models.DefaultMaxRetries
	}
	if cfg.PullLimit <= 0 {
		cfg.PullLimit = models.DefaultPullLimit
	}

	entityTypes := make([]models.EntityType, 0, len(cfg.EntityTypes))
	for _, t := range cfg.EntityTypes {
		entityTypes = append(entityTypes, models.EntityType(t))
	}

	now := func() time.Time { return time.Now().UTC() }
	tracker := newInFlightTracker()

	puller := &clientPuller{
		repository:  repository,
		adapter:     serverAdapter,
		limit:       cfg.PullLimit,
		entityTypes: entityTypes,
		now:         now,
		logger:      logger,
	}

	return &clientSyncService{
		repository: repository,
		adapter:    serverAdapter,
		pusher: &clientPusher{
			repository:    repository,
			adapter:       serverAdapter,
			puller:        puller,
			tracker:       tracker,
			cfg:           cfg,
			clientVersion: clientVersion,
			newID:         newID,
			now:           now,
			logger:        logger,
		},
		puller:  puller,
		tracker: tracker,
		now:     now,
		logger:  logger,
	}
}

// Sync implements ClientSyncService. A caller whose ctx ends stops waiting;
// the cycle itself only observes the ctx of the caller that started it.
func (s *clientSyncService) Sync(ctx context.Context, trigger models.SyncTrigger) (models.CycleReport, error) {
	ch := s.group.DoChan(syncFlightKey, func() (any, error) {
		return s.runCycle(ctx, trigger)
	})

	select {
	case <-ctx.Done():
		return models.CycleReport{}, ctx.Err()
	case res := <-ch:
		report, _ := res.Val.(models.CycleReport)
		return report, res.Err
	}
}

func (s *clientSyncService) runCycle(ctx context.Context, trigger models.SyncTrigger) (models.CycleReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := models.CycleReport{Trigger: trigger, StartedAt: s.now()}

	userID, err := currentUserID(s.adapter)
	if err != nil {
		return report, err
	}

	log := s.logger.With().Str("trigger", string(trigger)).Logger()
	log.Info().Msg("sync cycle started")

	report.Push, err = s.pusher.push(ctx, userID)
	if err == nil {
		report.Pull, err = s.puller.pull(ctx, userID)
	}

	report.FinishedAt = s.now()
	if status, statusErr := s.Status(ctx); statusErr == nil {
		report.Status = status
	}

	if err != nil {
		log.Warn().Err(err).
			Int("chunks_sent", report.Push.ChunksSent).
			Msg("sync cycle failed")
		return report, err
	}

	log.Info().
		Int("synced", len(report.Push.Outcome.SyncedIDs)).
		Int("conflicts", len(report.Push.Outcome.ServerWins)+report.Pull.Conflicts).
		Int("failed", len(report.Push.Outcome.FailedIDs)).
		Int("pulled", report.Pull.Applied).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("sync cycle finished")

	return report, nil
}

func (s *clientSyncService) Status(ctx context.Context) (models.AggregateStatus, error) {
	metas, err := s.repository.ListMetadata(ctx)
	if err != nil {
		return models.AggregateStatus{}, fmt.Errorf("load metadata: %w", err)
	}
	return models.SummarizeMetadata(metas, s.tracker.contains), nil
}

func (s *clientSyncService) Conflicts(ctx context.Context) ([]models.Conflict, error) {
	return s.repository.ListConflicts(ctx)
}

// ResolveConflict implements ClientSyncService. The decision covers the whole
// entity: every open conflict and queued operation of it.
//
// keep_local queues the entity's operations again in their original order,
// the first one based on the server version so it wins on the next push.
// accept_server drops them and stores the server state as the local copy.
func (s *clientSyncService) ResolveConflict(ctx context.Context, clientID string, resolution models.ConflictResolution) error {
	if !resolution.Valid() {
		return fmt.Errorf("%w: unknown resolution %q", ErrValidation, resolution)
	}

	userID, err := currentUserID(s.adapter)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conflict, err := s.repository.GetConflict(ctx, clientID)
	if err != nil {
		return fmt.Errorf("load conflict: %w", err)
	}

	related, server, err := s.entityConflicts(ctx, conflict)
	if err != nil {
		return err
	}

	queued, err := s.repository.PendingOperations(ctx)
	if err != nil {
		return fmt.Errorf("load queue: %w", err)
	}
	entityOps := make([]models.SyncOperation, 0, len(queued)+1)
	for _, c := range related {
		if c.Operation != nil {
			entityOps = append(entityOps, *c.Operation)
		}
	}
	for _, op := range queued {
		if op.Key() == conflict.Key() {
			entityOps = append(entityOps, op)
		}
	}
	sort.SliceStable(entityOps, func(i, j int) bool {
		return entityOps[i].SequenceNumber < entityOps[j].SequenceNumber
	})

	now := s.now()
	switch resolution {
	case models.KeepLocal:
		err = s.keepLocal(ctx, userID, entityOps, server, now)
	case models.AcceptServer:
		err = s.acceptServer(ctx, userID, related, entityOps, server, now)
	}
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("client_id", clientID).
		Str("entity", conflict.Key().String()).
		Str("resolution", string(resolution)).
		Msg("conflict resolved")
	return nil
}

// entityConflicts returns every conflict of the entity of c and the newest
// server state among them.
func (s *clientSyncService) entityConflicts(ctx context.Context, c models.Conflict) ([]models.Conflict, models.Conflict, error) {
	all, err := s.repository.ListConflicts(ctx)
	if err != nil {
		return nil, models.Conflict{}, fmt.Errorf("load conflicts: %w", err)
	}

	server := c
	related := make([]models.Conflict, 0, 1)
	for _, other := range all {
		if other.Key() != c.Key() {
			continue
		}
		related = append(related, other)
		if other.ServerVersion != nil && (server.ServerVersion == nil || *other.ServerVersion > *server.ServerVersion) {
			server = other
		}
	}
	return related, server, nil
}

func (s *clientSyncService) keepLocal(ctx context.Context, userID string, ops []models.SyncOperation, server models.Conflict, now time.Time) error {
	for i, op := range ops {
		if i == 0 {
			if server.ServerVersion != nil {
				version := *server.ServerVersion
				op.Version = &version
			}
			if server.ServerDeleted && op.Operation == models.OperationUpdate {
				op.Operation = models.OperationCreate
			}
		} else {
			op.Version = nil
		}

		if _, err := s.repository.RequeueConflict(ctx, op, userID, now); err != nil {
			return fmt.Errorf("requeue %s: %w", op.ClientID, err)
		}
	}
	return nil
}

func (s *clientSyncService) acceptServer(
	ctx context.Context,
	userID string,
	related []models.Conflict,
	ops []models.SyncOperation,
	server models.Conflict,
	now time.Time,
) error {
	if server.ServerVersion == nil {
		return fmt.Errorf("%w: server state of %s is unknown", ErrValidation, server.Key())
	}

	record := models.NewPersistedEntity(server.EntityType, server.EntityID, server.ServerPayload, *server.ServerVersion, now)
	if server.ServerDeleted {
		record = models.NewArchivedEntity(server.EntityType, server.EntityID, *server.ServerVersion, now)
	}

	seen := make(map[string]struct{}, len(related)+len(ops))
	ids := make([]string, 0, len(related)+len(ops))
	for _, c := range related {
		seen[c.ClientID] = struct{}{}
		ids = append(ids, c.ClientID)
	}
	for _, op := range ops {
		if _, ok := seen[op.ClientID]; !ok {
			ids = append(ids, op.ClientID)
		}
	}

	for _, id := range ids {
		if err := s.repository.AcceptServerState(ctx, id, record, userID, now); err != nil {
			return fmt.Errorf("accept server state for %s: %w", id, err)
		}
	}
	return nil
}
