// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client's transport to the sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the client
// services from the wire protocol. The HTTP implementation
// ([NewHTTPServerAdapter]) attaches the bearer token to every call and
// recovers from an expired access token with a single shared refresh.
//
// HTTP status codes are mapped to the sentinel values in errors.go so that
// callers can use [errors.Is] (e.g. [ErrUnauthorized] for 401). Calls that
// never got a response are wrapped in [ErrTransport].
package adapter

import (
	"context"

	"github.com/nnsi/hono-practice-sub008/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the sync
// server.
type ServerAdapter interface {
	// SetSession replaces the credentials attached to subsequent requests.
	SetSession(session models.Session)

	// Session returns the credentials currently held by the adapter.
	Session() models.Session

	// Register creates an account and returns its first token pair. The
	// session is updated on success.
	Register(ctx context.Context, user models.User) (models.TokenPair, error)

	// Login authenticates with login and password. The session is updated on
	// success.
	Login(ctx context.Context, user models.User) (models.TokenPair, error)

	// Push sends one chunk of operations. The integrity hash is computed
	// automatically when a hash key is configured.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull fetches one page of server changes.
	Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error)

	// CheckDuplicates asks which fingerprints the server already applied.
	CheckDuplicates(ctx context.Context, req models.DuplicateCheckRequest) (models.DuplicateCheckResponse, error)

	// Enqueue hands operations to the server-buffered queue.
	Enqueue(ctx context.Context, req models.EnqueueRequest) (models.EnqueueResponse, error)

	// Process asks the server to drain its buffered queue.
	Process(ctx context.Context, req models.ProcessRequest) (models.ProcessResponse, error)

	// Status returns the server-side aggregate sync status of the user.
	Status(ctx context.Context) (models.AggregateStatus, error)

	// Ping probes connectivity. It does not require authentication.
	Ping(ctx context.Context) error
}

// SessionStore persists rotated credentials so a refreshed session survives
// a restart.
type SessionStore interface {
	SaveSession(ctx context.Context, session models.Session) error
}
