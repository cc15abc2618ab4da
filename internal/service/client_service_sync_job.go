// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/models"
)

const (
	defaultSyncInterval         = 5 * time.Minute
	defaultConnectivityInterval = 30 * time.Second
	defaultBackoffMin           = time.Second
	defaultBackoffMax           = 5 * time.Minute
)

type clientSyncJob struct {
	syncService ClientSyncService
	adapter     adapter.ServerAdapter
	cfg         config.ClientWorkers

	triggers chan models.SyncTrigger

	online atomic.Bool
	// paused is set after an authentication failure; only a manual trigger
	// lifts it
	paused atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewClientSyncJob creates a clientSyncJob. The job is idle until Start is
// called.
func NewClientSyncJob(syncService ClientSyncService, serverAdapter adapter.ServerAdapter, cfg config.ClientWorkers, logger *logger.Logger) ClientSyncJob {
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.ConnectivityInterval <= 0 {
		cfg.ConnectivityInterval = defaultConnectivityInterval
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = defaultBackoffMin
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = max(defaultBackoffMax, cfg.BackoffMin)
	}

	return &clientSyncJob{
		syncService: syncService,
		adapter:     serverAdapter,
		cfg:         cfg,
		triggers:    make(chan models.SyncTrigger, 1),
		logger:      logger,
	}
}

// Start implements ClientSyncJob. It stops any previously running job, then
// launches the sync loop and the connectivity monitor. A startup cycle runs
// right away.
func (j *clientSyncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(2)
	j.mu.Unlock()

	j.online.Store(true)
	j.enqueue(models.TriggerStartup)

	go func() {
		defer j.wg.Done()
		j.loop(jobCtx)
	}()

	go func() {
		defer j.wg.Done()
		j.monitor(jobCtx)
	}()
}

// Stop implements ClientSyncJob. It cancels both goroutines and blocks until
// they have exited. Safe to call when the job is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *clientSyncJob) Trigger() {
	j.paused.Store(false)
	j.enqueue(models.TriggerManual)
}

func (j *clientSyncJob) Online() bool {
	return j.online.Load()
}

// enqueue never blocks: a trigger already waiting covers the new one.
func (j *clientSyncJob) enqueue(trigger models.SyncTrigger) {
	select {
	case j.triggers <- trigger:
	default:
	}
}

func (j *clientSyncJob) newBackoff() retry.Backoff {
	b := retry.NewExponential(j.cfg.BackoffMin)
	b = retry.WithJitterPercent(10, b)
	return retry.WithCappedDuration(j.cfg.BackoffMax, b)
}

func (j *clientSyncJob) loop(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.SyncInterval)
	defer ticker.Stop()

	backoff := j.newBackoff()
	var retryTimer *time.Timer
	var retryC <-chan time.Time

	stopRetry := func() {
		if retryTimer != nil {
			retryTimer.Stop()
		}
		retryTimer, retryC = nil, nil
	}
	defer stopRetry()

	run := func(trigger models.SyncTrigger) {
		stopRetry()

		_, err := j.syncService.Sync(ctx, trigger)
		switch {
		case err == nil:
			backoff = j.newBackoff()
		case errors.Is(err, context.Canceled):
		case errors.Is(err, ErrReauthenticationRequired), errors.Is(err, ErrNotAuthenticated):
			j.paused.Store(true)
			j.logger.Warn().Err(err).Msg("background sync paused until the next manual sync")
		default:
			d, stop := backoff.Next()
			if stop {
				return
			}
			j.logger.Warn().Err(err).Dur("retry_in", d).Msg("sync cycle failed")
			retryTimer = time.NewTimer(d)
			retryC = retryTimer.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-j.triggers:
			if trigger != models.TriggerManual && j.paused.Load() {
				continue
			}
			run(trigger)
		case <-retryC:
			retryTimer, retryC = nil, nil
			if !j.paused.Load() {
				run(models.TriggerInterval)
			}
		case <-ticker.C:
			// a scheduled retry takes precedence over the interval
			if retryC == nil && !j.paused.Load() && j.Online() {
				run(models.TriggerInterval)
			}
		}
	}
}

// monitor probes the server and triggers a cycle when it becomes reachable
// again.
func (j *clientSyncJob) monitor(ctx context.Context) {
	ticker := time.NewTicker(j.cfg.ConnectivityInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := j.adapter.Ping(ctx)
			online := err == nil
			if was := j.online.Swap(online); was == online {
				continue
			}

			if online {
				j.logger.Info().Msg("server reachable again")
				j.enqueue(models.TriggerReconnect)
				continue
			}
			j.logger.Warn().Err(err).Msg("server unreachable")
		}
	}
}
