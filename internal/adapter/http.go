// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
	"github.com/nnsi/hono-practice-sub008/models"
)

type httpServerAdapter struct {
	transport *authTransport

	hashKey string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs the HTTP implementation of [ServerAdapter].
// It normalises the base URL from adapterCfg.ServerURL and configures the
// per-call timeout and cookie jar of the underlying resty client. sessions
// may be nil, in which case refreshed credentials live in memory only.
func NewHTTPServerAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, sessions SessionStore, log *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter server url: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout)

	return &httpServerAdapter{
		transport: newAuthTransport(client, adapterCfg.CookieAuth, sessions, log),
		hashKey:   appCfg.HashKey,
		logger:    log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetSession implements [ServerAdapter].
func (h *httpServerAdapter) SetSession(session models.Session) {
	h.transport.setSession(session)
}

// Session implements [ServerAdapter].
func (h *httpServerAdapter) Session() models.Session {
	return h.transport.currentSession()
}

// Register implements [ServerAdapter]. POST /api/auth/register.
func (h *httpServerAdapter) Register(ctx context.Context, user models.User) (models.TokenPair, error) {
	return h.authenticate(ctx, "/api/auth/register", user)
}

// Login implements [ServerAdapter]. POST /api/auth/login. The server also
// sets the refresh cookie, which the client's cookie jar keeps for
// cookie-based refresh.
func (h *httpServerAdapter) Login(ctx context.Context, user models.User) (models.TokenPair, error) {
	return h.authenticate(ctx, "/api/auth/login", user)
}

func (h *httpServerAdapter) authenticate(ctx context.Context, path string, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	if err := h.transport.do(ctx, http.MethodPost, path, user, &pair); err != nil {
		return models.TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return models.TokenPair{}, fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}

	h.SetSession(models.SessionFrom(pair, models.Session{}, time.Now().UTC()))
	return pair, nil
}

// Push implements [ServerAdapter]. POST /api/sync/push.
func (h *httpServerAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	if h.hashKey != "" {
		hash, err := utils.HashJSON(req.Items, h.hashKey)
		if err != nil {
			return models.PushResponse{}, err
		}
		req.Hash = hash
	}

	var resp models.PushResponse
	if err := h.transport.do(ctx, http.MethodPost, "/api/sync/push", req, &resp); err != nil {
		return models.PushResponse{}, err
	}
	return resp, nil
}

// Pull implements [ServerAdapter]. POST /api/sync/pull.
func (h *httpServerAdapter) Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	var resp models.PullResponse
	if err := h.transport.do(ctx, http.MethodPost, "/api/sync/pull", req, &resp); err != nil {
		return models.PullResponse{}, err
	}
	return resp, nil
}

// CheckDuplicates implements [ServerAdapter]. POST /api/sync/check-duplicates.
func (h *httpServerAdapter) CheckDuplicates(ctx context.Context, req models.DuplicateCheckRequest) (models.DuplicateCheckResponse, error) {
	var resp models.DuplicateCheckResponse
	if err := h.transport.do(ctx, http.MethodPost, "/api/sync/check-duplicates", req, &resp); err != nil {
		return models.DuplicateCheckResponse{}, err
	}
	return resp, nil
}

// Enqueue implements [ServerAdapter]. POST /api/sync/enqueue.
func (h *httpServerAdapter) Enqueue(ctx context.Context, req models.EnqueueRequest) (models.EnqueueResponse, error) {
	var resp models.EnqueueResponse
	if err := h.transport.do(ctx, http.MethodPost, "/api/sync/enqueue", req, &resp); err != nil {
		return models.EnqueueResponse{}, err
	}
	return resp, nil
}

// Process implements [ServerAdapter]. POST /api/sync/process.
func (h *httpServerAdapter) Process(ctx context.Context, req models.ProcessRequest) (models.ProcessResponse, error) {
	var resp models.ProcessResponse
	if err := h.transport.do(ctx, http.MethodPost, "/api/sync/process", req, &resp); err != nil {
		return models.ProcessResponse{}, err
	}
	return resp, nil
}

// Status implements [ServerAdapter]. GET /api/sync/status.
func (h *httpServerAdapter) Status(ctx context.Context) (models.AggregateStatus, error) {
	var resp models.AggregateStatus
	if err := h.transport.do(ctx, http.MethodGet, "/api/sync/status", nil, &resp); err != nil {
		return models.AggregateStatus{}, err
	}
	return resp, nil
}

// Ping implements [ServerAdapter]. GET /api/ping.
func (h *httpServerAdapter) Ping(ctx context.Context) error {
	resp, err := h.transport.client.R().SetContext(ctx).Get("/api/ping")
	if err != nil {
		return fmt.Errorf("%w: ping: %w", ErrTransport, err)
	}
	return mapHTTPError(resp)
}
