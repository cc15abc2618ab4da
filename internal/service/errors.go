// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "errors"

var (
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrWrongPassword           = errors.New("wrong password")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrVersionIsNotSpecified   = errors.New("app version is not specified")
)

// Client engine taxonomy. Adapter and store errors are translated into these
// before they leave the client services.
var (
	// ErrTransport means no usable server response was received. The cycle
	// is retried as a whole; no metadata was changed.
	ErrTransport = errors.New("sync transport failure")

	// ErrReauthenticationRequired means the server rejected the credentials
	// even after a refresh and a replay.
	ErrReauthenticationRequired = errors.New("re-authentication required")

	// ErrValidation means the server rejected a request as malformed.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is a version conflict surfaced to the caller.
	ErrConflict = errors.New("sync conflict")

	// ErrRetryExhausted is returned for entities that failed too often to be
	// retried automatically.
	ErrRetryExhausted = errors.New("sync retries exhausted")

	// ErrSyncInProgress is returned when a cycle cannot start because one is
	// running and the caller asked not to wait.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNotAuthenticated is returned by operations that need a session
	// before login.
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrLoginAlreadyExists = errors.New("login already exists")
)
