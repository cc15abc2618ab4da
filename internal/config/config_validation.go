// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nnsi/hono-practice-sub008/models"
)

// Push modes accepted by [Sync.PushMode].
const (
	PushModeDirect   = "direct"
	PushModeBuffered = "buffered"
)

// validate checks that the merged server configuration can start the server.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: empty database DSN", ErrInvalidStorageConfigs)
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("%w: http address and request timeout are required", ErrInvalidServerConfigs)
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" ||
		cfg.App.AccessTokenDuration <= 0 || cfg.App.RefreshTokenDuration <= 0 {
		return fmt.Errorf("%w: token settings are incomplete", ErrInvalidAppConfigs)
	}

	if cfg.Server.MaxServerChanges < 0 || cfg.Server.MaxServerChanges > models.MaxPullLimit {
		return fmt.Errorf("%w: max server changes must be within 0..%d", ErrInvalidServerConfigs, models.MaxPullLimit)
	}

	if cfg.Workers.QueueInterval < 0 {
		return fmt.Errorf("%w: negative queue interval", ErrInvalidWorkerConfigs)
	}

	return nil
}

// Validate checks the client configuration after flags were applied.
func (cfg *ClientConfig) Validate() error {
	if cfg.Storage.Path == "" || strings.Contains(cfg.Storage.Path, ":memory:") {
		return fmt.Errorf("%w: a file-backed database path is required", ErrInvalidStorageConfigs)
	}

	u, err := url.Parse(cfg.Adapter.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" || cfg.Adapter.RequestTimeout <= 0 {
		return fmt.Errorf("%w: server url and request timeout are required", ErrInvalidAdapterConfigs)
	}

	s := cfg.Sync
	if s.ChunkSize < 1 || s.ChunkSize > models.MaxPushBatchSize {
		return fmt.Errorf("%w: chunk size must be within 1..%d", ErrInvalidSyncConfigs, models.MaxPushBatchSize)
	}
	if s.PullLimit < 1 || s.PullLimit > models.MaxPullLimit {
		return fmt.Errorf("%w: pull limit must be within 1..%d", ErrInvalidSyncConfigs, models.MaxPullLimit)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("%w: negative max retries", ErrInvalidSyncConfigs)
	}
	if s.PushMode != PushModeDirect && s.PushMode != PushModeBuffered {
		return fmt.Errorf("%w: unknown push mode %q", ErrInvalidSyncConfigs, s.PushMode)
	}
	for _, et := range s.EntityTypes {
		if !models.EntityType(et).Valid() {
			return fmt.Errorf("%w: unknown entity type %q", ErrInvalidSyncConfigs, et)
		}
	}

	w := cfg.Workers
	if w.SyncInterval <= 0 || w.ConnectivityInterval <= 0 || w.BackoffMin <= 0 || w.BackoffMax < w.BackoffMin {
		return fmt.Errorf("%w: intervals must be positive and backoff max >= min", ErrInvalidWorkerConfigs)
	}

	return nil
}
