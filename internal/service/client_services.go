// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
)

type ClientServices struct {
	AuthService   ClientAuthService
	EntityService ClientEntityService
	SyncService   ClientSyncService
	SyncJob       ClientSyncJob
}

func NewClientServices(storages *store.ClientStorages, serverAdapter adapter.ServerAdapter, cfg config.ClientConfig, logger *logger.Logger) *ClientServices {
	ids := utils.NewUUIDGenerator()

	syncSvc := NewClientSyncService(storages.SyncRepository, serverAdapter, cfg.Sync, cfg.App.Version, ids.Generate, logger)

	return &ClientServices{
		AuthService:   NewClientAuthService(storages.SessionRepository, serverAdapter, logger),
		EntityService: NewClientEntityService(storages.SyncRepository, serverAdapter, ids.Generate, logger),
		SyncService:   syncSvc,
		SyncJob:       NewClientSyncJob(syncSvc, serverAdapter, cfg.Workers, logger),
	}
}
