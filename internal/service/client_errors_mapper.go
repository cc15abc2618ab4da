// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/app"
)

// mapAdapterError translates the adapter's transport error into the client
// error taxonomy.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	msg := extractBody(err)

	switch {
	case errors.Is(err, adapter.ErrUnauthorized):
		if msg == app.MsgInvalidLoginPassword {
			return ErrWrongPassword
		}
		return fmt.Errorf("%w: %w", ErrReauthenticationRequired, err)

	case errors.Is(err, adapter.ErrNoRefreshCredential),
		errors.Is(err, adapter.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrReauthenticationRequired, err)

	case errors.Is(err, adapter.ErrTransport),
		errors.Is(err, adapter.ErrTooManyRequests),
		errors.Is(err, adapter.ErrInternalServerError),
		errors.Is(err, adapter.ErrBadGateway),
		errors.Is(err, adapter.ErrServiceUnavailable):
		return fmt.Errorf("%w: %w", ErrTransport, err)

	case errors.Is(err, adapter.ErrBadRequest),
		errors.Is(err, adapter.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrValidation, msg)

	case errors.Is(err, adapter.ErrConflict):
		if msg == app.MsgLoginAlreadyExists {
			return ErrLoginAlreadyExists
		}
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	}

	return err
}

// extractBody extracts the body from a message of the form "bad request: <body>"
func extractBody(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx != -1 {
		return msg[idx+2:]
	}
	return msg
}
