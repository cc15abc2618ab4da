// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
	"github.com/nnsi/hono-practice-sub008/models"
)

const (
	authPathPrefix = "/api/auth/"
	refreshPath    = "/api/auth/token"
	refreshKey     = "refresh"
)

// authTransport sends requests with the current access token and recovers
// from one 401 per request by refreshing the session.
//
// All refreshes go through refreshGroup, so any number of concurrent 401s
// share one network refresh and observe the same outcome. The group slot is
// released when that refresh returns.
type authTransport struct {
	client     *utils.HTTPClient
	cookieAuth bool
	sessions   SessionStore

	mu      sync.RWMutex
	session models.Session

	refreshGroup singleflight.Group

	logger *logger.Logger
}

func newAuthTransport(client *utils.HTTPClient, cookieAuth bool, sessions SessionStore, log *logger.Logger) *authTransport {
	return &authTransport{client: client, cookieAuth: cookieAuth, sessions: sessions, logger: log}
}

func (t *authTransport) setSession(s models.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = s
}

func (t *authTransport) currentSession() models.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session
}

func (t *authTransport) accessToken() string {
	return t.currentSession().AccessToken
}

// do performs one request and decodes a 2xx body into result.
func (t *authTransport) do(ctx context.Context, method, path string, body, result any) error {
	token := t.accessToken()

	resp, err := t.send(ctx, method, path, body, result, token)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusUnauthorized || isAuthPath(path) {
		return mapHTTPError(resp)
	}

	newToken, refreshErr := t.refresh(ctx, token)
	if refreshErr != nil {
		t.logger.Err(refreshErr).Str("func", "*authTransport.do").Str("path", path).Msg("token refresh failed")
		return mapHTTPError(resp)
	}

	// replay exactly once; a second 401 is returned as is
	resp, err = t.send(ctx, method, path, body, result, newToken)
	if err != nil {
		return err
	}
	return mapHTTPError(resp)
}

func (t *authTransport) send(ctx context.Context, method, path string, body, result any, token string) (*resty.Response, error) {
	req := t.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if token != "" && !isAuthPath(path) {
		req.SetHeader("Authorization", "Bearer "+token)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	return resp, nil
}

// refresh returns a fresh access token. stale is the token the failed
// request was sent with: if the session already moved past it, the current
// token is returned without calling the server.
func (t *authTransport) refresh(ctx context.Context, stale string) (string, error) {
	if current := t.accessToken(); current != "" && current != stale {
		return current, nil
	}

	v, err, _ := t.refreshGroup.Do(refreshKey, func() (any, error) {
		if current := t.accessToken(); current != "" && current != stale {
			return current, nil
		}
		// one waiter's cancellation must not fail the others
		return t.requestRefresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *authTransport) requestRefresh(ctx context.Context) (string, error) {
	previous := t.currentSession()

	req := t.client.R().SetContext(ctx)
	if !t.cookieAuth {
		if previous.RefreshToken == "" {
			return "", ErrNoRefreshCredential
		}
		req.SetHeader("Authorization", "Bearer "+previous.RefreshToken)
	}

	var pair models.TokenPair
	resp, err := req.SetResult(&pair).Post(refreshPath)
	if err != nil {
		return "", fmt.Errorf("%w: refresh: %w", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return "", err
	}
	if pair.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh response without access token", ErrUnauthorized)
	}

	session := models.SessionFrom(pair, previous, time.Now().UTC())
	t.setSession(session)

	if t.sessions != nil {
		if err = t.sessions.SaveSession(ctx, session); err != nil {
			// the in-memory session is already rotated; a lost write only
			// costs a re-login after restart
			t.logger.Err(err).Str("func", "*authTransport.requestRefresh").Msg("error persisting refreshed session")
		}
	}

	t.logger.Debug().Str("func", "*authTransport.requestRefresh").Msg("session refreshed")
	return session.AccessToken, nil
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, authPathPrefix)
}
