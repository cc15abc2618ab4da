// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
)

type Services struct {
	AuthService    AuthService
	SyncService    SyncService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, cfg config.StructuredConfig, logger *logger.Logger) (*Services, error) {
	ids := utils.NewUUIDGenerator()

	appInfoService, err := NewAppInfoService(cfg.App, logger)
	if err != nil {
		return nil, err
	}

	syncService := NewSyncService(storages.SyncRepository, storages.QueueRepository, cfg.Server.MaxServerChanges, ids.Generate, logger)

	return &Services{
		AuthService:    NewAuthService(storages.UserRepository, cfg.App, ids.Generate, logger),
		SyncService:    NewSyncValidationService().Wrap(syncService),
		AppInfoService: appInfoService,
	}, nil
}
