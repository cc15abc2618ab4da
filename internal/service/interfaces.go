// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/nnsi/hono-practice-sub008/models"
)

// SyncService is the server side of the sync protocol. Every method works on
// the entities of userID only.
type SyncService interface {
	// Push applies a chunk of operations item by item and answers with one
	// result per item in request order. Piggybacked server changes are
	// returned when the request carries a watermark.
	Push(ctx context.Context, userID string, req models.PushRequest) (models.PushResponse, error)

	// Pull returns one page of the change log after the watermark or cursor.
	Pull(ctx context.Context, userID string, req models.PullRequest) (models.PullResponse, error)

	// CheckDuplicates reports which fingerprints were already applied.
	CheckDuplicates(ctx context.Context, userID string, req models.DuplicateCheckRequest) (models.DuplicateCheckResponse, error)

	// Enqueue stores operations in the server-buffered queue.
	Enqueue(ctx context.Context, userID string, req models.EnqueueRequest) (models.EnqueueResponse, error)

	// Process drains one batch of the buffered queue.
	Process(ctx context.Context, userID string, req models.ProcessRequest) (models.ProcessResponse, error)

	// Status aggregates the server-side sync metadata.
	Status(ctx context.Context, userID string) (models.AggregateStatus, error)
}

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)

	// CreateTokens issues an access token and a refresh credential.
	CreateTokens(ctx context.Context, userID string) (access, refresh models.Token, err error)

	// ParseToken validates tokenString as a token of the given kind.
	ParseToken(ctx context.Context, tokenString string, kind models.TokenKind) (models.Token, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// SyncServiceWrapper defines middleware composition for SyncService.
// Implementations wrap an existing SyncService to add behavior such as
// validation.
type SyncServiceWrapper interface {
	Wrap(SyncService) SyncService
}
