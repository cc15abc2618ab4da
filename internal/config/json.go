// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk layout of the JSON config file.
type StructuredJSONConfig struct {
	App struct {
		TokenSignKey         string   `json:"token_sign_key"`
		TokenIssuer          string   `json:"token_issuer"`
		AccessTokenDuration  Duration `json:"access_token_duration"`
		RefreshTokenDuration Duration `json:"refresh_token_duration"`
		HashKey              string   `json:"hash_key"`
		Version              string   `json:"version"`
		LogLevel             string   `json:"log_level"`
		LogFile              string   `json:"log_file"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Local struct {
			Path string `json:"path"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress      string   `json:"http_address"`
		GRPCAddress      string   `json:"grpc_address"`
		RequestTimeout   Duration `json:"request_timeout"`
		MaxServerChanges int      `json:"max_server_changes"`
		SecureCookies    bool     `json:"secure_cookies"`
	} `json:"server,omitempty"`

	Sync struct {
		ChunkSize           int      `json:"chunk_size"`
		MaxRetries          int      `json:"max_retries"`
		PullLimit           int      `json:"pull_limit"`
		EntityTypes         []string `json:"entity_types"`
		PushMode            string   `json:"push_mode"`
		PrefilterDuplicates bool     `json:"prefilter_duplicates"`
	} `json:"sync,omitempty"`

	Adapter struct {
		ServerURL      string   `json:"server_url"`
		RequestTimeout Duration `json:"request_timeout"`
		CookieAuth     bool     `json:"cookie_auth"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval         Duration `json:"sync_interval"`
		ConnectivityInterval Duration `json:"connectivity_interval"`
		BackoffMin           Duration `json:"backoff_min"`
		BackoffMax           Duration `json:"backoff_max"`
		QueueInterval        Duration `json:"queue_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var j StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&j); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:         j.App.TokenSignKey,
			TokenIssuer:          j.App.TokenIssuer,
			AccessTokenDuration:  time.Duration(j.App.AccessTokenDuration),
			RefreshTokenDuration: time.Duration(j.App.RefreshTokenDuration),
			HashKey:              j.App.HashKey,
			Version:              j.App.Version,
			LogLevel:             j.App.LogLevel,
			LogFile:              j.App.LogFile,
		},
		Storage: Storage{
			DB:    DB{DSN: j.Storage.DB.DSN},
			Local: Local{Path: j.Storage.Local.Path},
		},
		Server: Server{
			HTTPAddress:      j.Server.HTTPAddress,
			GRPCAddress:      j.Server.GRPCAddress,
			RequestTimeout:   time.Duration(j.Server.RequestTimeout),
			MaxServerChanges: j.Server.MaxServerChanges,
			SecureCookies:    j.Server.SecureCookies,
		},
		Sync: Sync{
			ChunkSize:           j.Sync.ChunkSize,
			MaxRetries:          j.Sync.MaxRetries,
			PullLimit:           j.Sync.PullLimit,
			EntityTypes:         j.Sync.EntityTypes,
			PushMode:            j.Sync.PushMode,
			PrefilterDuplicates: j.Sync.PrefilterDuplicates,
		},
		Adapter: Adapter{
			ServerURL:      j.Adapter.ServerURL,
			RequestTimeout: time.Duration(j.Adapter.RequestTimeout),
			CookieAuth:     j.Adapter.CookieAuth,
		},
		Workers: Workers{
			SyncInterval:         time.Duration(j.Workers.SyncInterval),
			ConnectivityInterval: time.Duration(j.Workers.ConnectivityInterval),
			BackoffMin:           time.Duration(j.Workers.BackoffMin),
			BackoffMax:           time.Duration(j.Workers.BackoffMax),
			QueueInterval:        time.Duration(j.Workers.QueueInterval),
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
