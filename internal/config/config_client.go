// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// ClientApp holds client-side application settings.
type ClientApp struct {
	// HashKey signs push batches. Empty disables signing.
	HashKey string
	// Version is sent as clientVersion on push.
	Version string
	// LogLevel and LogFile configure the rotated client log.
	LogLevel string
	LogFile  string
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// ServerURL is the base URL of the sync server.
	ServerURL string
	// RequestTimeout is the per-call timeout.
	RequestTimeout time.Duration
	// CookieAuth selects cookie-based refresh.
	CookieAuth bool
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// Path is the SQLite database file.
	Path string
}

// ClientSync holds the engine's limits as seen by the client.
type ClientSync struct {
	ChunkSize           int
	MaxRetries          int
	PullLimit           int
	EntityTypes         []string
	PushMode            string
	PrefilterDuplicates bool
}

// ClientWorkers contains client background job settings.
type ClientWorkers struct {
	SyncInterval         time.Duration
	ConnectivityInterval time.Duration
	BackoffMin           time.Duration
	BackoffMax           time.Duration
}

// ClientConfig is the client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Sync    ClientSync
	Workers ClientWorkers
}

// GetClientConfig builds a client config from env and the JSON file at
// jsonPath (or $CONFIG when jsonPath is empty). The client's command-line
// flags are applied by the caller before [ClientConfig.Validate].
func GetClientConfig(jsonPath string) (*ClientConfig, error) {
	b := newConfigBuilder().withEnv()
	if jsonPath == "" && len(b.configs) > 0 {
		jsonPath = b.configs[0].JSONFilePath
	}

	cfg, err := b.withJSONPath(jsonPath).merge()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return newClientConfig(cfg), nil
}

func newClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		App: ClientApp{
			HashKey:  cfg.App.HashKey,
			Version:  cfg.App.Version,
			LogLevel: cfg.App.LogLevel,
			LogFile:  cfg.App.LogFile,
		},
		Adapter: ClientAdapter{
			ServerURL:      cfg.Adapter.ServerURL,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			CookieAuth:     cfg.Adapter.CookieAuth,
		},
		Storage: ClientStorage{
			Path: cfg.Storage.Local.Path,
		},
		Sync: ClientSync{
			ChunkSize:           cfg.Sync.ChunkSize,
			MaxRetries:          cfg.Sync.MaxRetries,
			PullLimit:           cfg.Sync.PullLimit,
			EntityTypes:         cfg.Sync.EntityTypes,
			PushMode:            cfg.Sync.PushMode,
			PrefilterDuplicates: cfg.Sync.PrefilterDuplicates,
		},
		Workers: ClientWorkers{
			SyncInterval:         cfg.Workers.SyncInterval,
			ConnectivityInterval: cfg.Workers.ConnectivityInterval,
			BackoffMin:           cfg.Workers.BackoffMin,
			BackoffMax:           cfg.Workers.BackoffMax,
		},
	}
}
