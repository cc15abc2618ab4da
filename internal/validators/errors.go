// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyClientID      = errors.New("client id is required")
	ErrEmptyEntityID      = errors.New("entity id is required")
	ErrInvalidEntityType  = errors.New("invalid entity type")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrEmptyPayload       = errors.New("payload is required for create and update")
	ErrInvalidPayload     = errors.New("payload is not valid JSON")
	ErrEmptyTimestamp     = errors.New("timestamp is required")
	ErrInvalidVersion     = errors.New("invalid version")
	ErrEmptyBatch         = errors.New("batch cannot be empty")
	ErrBatchTooLarge      = errors.New("batch is too large")
	ErrDuplicateClientID  = errors.New("client id repeated in batch")
	ErrInvalidLimit       = errors.New("invalid limit")
	ErrInvalidCursor      = errors.New("invalid cursor")
	ErrInvalidBatchSize   = errors.New("invalid batch size")
	ErrInvalidMaxRetries  = errors.New("invalid max retries")
	ErrEmptyLogin         = errors.New("login is required")
	ErrEmptyPassword      = errors.New("password is required")
	ErrInvalidLoginFormat = errors.New("login must not contain whitespace")
)
