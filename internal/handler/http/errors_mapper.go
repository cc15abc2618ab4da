// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"

	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/service"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/internal/validators"
	"github.com/nnsi/hono-practice-sub008/models"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrWrongPassword:           http.StatusUnauthorized,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,

	validators.ErrUnsupportedType:    http.StatusBadRequest,
	validators.ErrEmptyClientID:      http.StatusBadRequest,
	validators.ErrEmptyEntityID:      http.StatusBadRequest,
	validators.ErrInvalidEntityType:  http.StatusBadRequest,
	validators.ErrInvalidOperation:   http.StatusBadRequest,
	validators.ErrEmptyPayload:       http.StatusBadRequest,
	validators.ErrInvalidPayload:     http.StatusBadRequest,
	validators.ErrEmptyTimestamp:     http.StatusBadRequest,
	validators.ErrInvalidVersion:     http.StatusBadRequest,
	validators.ErrEmptyBatch:         http.StatusBadRequest,
	validators.ErrBatchTooLarge:      http.StatusBadRequest,
	validators.ErrDuplicateClientID:  http.StatusBadRequest,
	validators.ErrInvalidLimit:       http.StatusBadRequest,
	validators.ErrInvalidCursor:      http.StatusBadRequest,
	validators.ErrInvalidBatchSize:   http.StatusBadRequest,
	validators.ErrInvalidMaxRetries:  http.StatusBadRequest,
	validators.ErrEmptyLogin:         http.StatusBadRequest,
	validators.ErrEmptyPassword:      http.StatusBadRequest,
	validators.ErrInvalidLoginFormat: http.StatusBadRequest,

	models.ErrInvalidCursor: http.StatusBadRequest,

	store.ErrLoginAlreadyExists:      http.StatusConflict,
	store.ErrNoUserWasFound:          http.StatusNotFound,
	store.ErrQueuedOperationNotFound: http.StatusNotFound,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// messageFromStatus returns the response body written for an error mapped to
// status. Details stay in the log.
func messageFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return app.MsgInvalidDataProvided
	case http.StatusUnauthorized:
		return app.MsgTokenIsExpiredOrInvalid
	case http.StatusConflict:
		return app.MsgLoginAlreadyExists
	case http.StatusInternalServerError:
		return app.MsgInternalServerError
	}
	return http.StatusText(status)
}
