// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/service"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
)

type Handler struct {
	services *service.Services

	// hashKey enables the push integrity check when set.
	hashKey string

	requestTimeout time.Duration
	secureCookies  bool

	logger *logger.Logger
}

func NewHandler(services *service.Services, cfg config.StructuredConfig, logger *logger.Logger) *Handler {
	if cfg.App.HashKey != "" {
		utils.InitHasherPool(cfg.App.HashKey)
	}

	logger.Info().Msg("http handler created")
	return &Handler{
		services:       services,
		hashKey:        cfg.App.HashKey,
		requestTimeout: cfg.Server.RequestTimeout,
		secureCookies:  cfg.Server.SecureCookies,
		logger:         logger,
	}
}
