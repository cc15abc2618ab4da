// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/service"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

const (
	// usersPerTick bounds how many users one tick drains.
	usersPerTick = 50

	// processParallelism bounds concurrent per-user drains.
	processParallelism = 4

	// maxRoundsPerUser bounds the process calls for one user per tick, so a
	// constantly refilled queue cannot starve the others.
	maxRoundsPerUser = 10
)

// QueueWorker periodically drains the server-buffered operation queue of
// every user that has processable entries.
type QueueWorker struct {
	queue    store.QueueRepository
	sync     service.SyncService
	interval time.Duration
	logger   *logger.Logger
}

func NewQueueWorker(queue store.QueueRepository, sync service.SyncService, interval time.Duration, logger *logger.Logger) *QueueWorker {
	return &QueueWorker{
		queue:    queue,
		sync:     sync,
		interval: interval,
		logger:   logger,
	}
}

func (q *QueueWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	q.logger.Info().Dur("interval", q.interval).Msg("queue worker started")
	for {
		select {
		case <-ctx.Done():
			q.logger.Info().Msg("queue worker stopped")
			return
		case <-ticker.C:
			if err := q.drain(ctx); err != nil && ctx.Err() == nil {
				q.logger.Err(err).Str("func", "*QueueWorker.Run").Msg("queue drain failed")
			}
		}
	}
}

// drain processes the queues of up to usersPerTick users. A failure for one
// user does not stop the others; the first error is returned.
func (q *QueueWorker) drain(ctx context.Context) error {
	_, maxRetries := models.ProcessRequest{}.Limits()

	users, err := q.queue.UsersWithPending(ctx, maxRetries, usersPerTick)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(processParallelism)
	for _, userID := range users {
		g.Go(func() error {
			return q.drainUser(ctx, userID)
		})
	}
	return g.Wait()
}

func (q *QueueWorker) drainUser(ctx context.Context, userID string) error {
	for range maxRoundsPerUser {
		resp, err := q.sync.Process(ctx, userID, models.ProcessRequest{})
		if err != nil {
			q.logger.Err(err).Str("func", "*QueueWorker.drainUser").Str("user_id", userID).Msg("process failed")
			return err
		}

		q.logger.Debug().
			Str("user_id", userID).
			Int("processed", resp.ProcessedCount).
			Int("failed", resp.FailedCount).
			Msg("queue batch processed")

		if !resp.HasMore || ctx.Err() != nil {
			return nil
		}
	}
	return nil
}
