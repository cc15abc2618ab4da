// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nnsi/hono-practice-sub008/models"
)

// Field name constants used to restrict validation of a value to a subset of
// its fields.
const (
	FieldClientID   = "client_id"
	FieldEntityType = "entity_type"
	FieldEntityID   = "entity_id"
	FieldOperation  = "operation"
	FieldPayload    = "payload"
	FieldTimestamp  = "timestamp"
	FieldVersion    = "version"

	FieldItems       = "items"
	FieldEntityTypes = "entity_types"
	FieldLimit       = "limit"
	FieldCursor      = "cursor"
	FieldSyncToken   = "sync_token"
	FieldOperations  = "operations"
	FieldBatchSize   = "batch_size"
	FieldMaxRetries  = "max_retries"

	FieldLogin    = "login"
	FieldPassword = "password"
)

// SyncValidator checks sync protocol requests. Envelopes (batch sizes,
// limits, cursors) and single operations are validated separately so a
// caller can turn a bad item into a per-item error instead of rejecting the
// whole batch.
type SyncValidator struct {
}

func NewSyncValidator() Validator {
	return &SyncValidator{}
}

func (v *SyncValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.SyncOperation:
		return v.validateOperation(ctx, value, fields...)
	case *models.SyncOperation:
		return v.validateOperation(ctx, *value, fields...)

	case models.PushRequest:
		return v.validatePushRequest(ctx, value, fields...)
	case *models.PushRequest:
		return v.validatePushRequest(ctx, *value, fields...)

	case models.PullRequest:
		return v.validatePullRequest(ctx, value, fields...)
	case *models.PullRequest:
		return v.validatePullRequest(ctx, *value, fields...)

	case models.DuplicateCheckRequest:
		return v.validateDuplicateCheckRequest(ctx, value, fields...)
	case *models.DuplicateCheckRequest:
		return v.validateDuplicateCheckRequest(ctx, *value, fields...)

	case models.EnqueueRequest:
		return v.validateEnqueueRequest(ctx, value, fields...)
	case *models.EnqueueRequest:
		return v.validateEnqueueRequest(ctx, *value, fields...)

	case models.ProcessRequest:
		return v.validateProcessRequest(ctx, value, fields...)
	case *models.ProcessRequest:
		return v.validateProcessRequest(ctx, *value, fields...)

	case models.User:
		return v.validateCredentials(ctx, value, fields...)
	case *models.User:
		return v.validateCredentials(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *SyncValidator) validateOperation(_ context.Context, op models.SyncOperation, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldClientID, FieldEntityType, FieldEntityID, FieldOperation, FieldPayload, FieldTimestamp, FieldVersion}
	}

	for _, f := range fields {
		switch f {
		case FieldClientID:
			if strings.TrimSpace(op.ClientID) == "" {
				return ErrEmptyClientID
			}
		case FieldEntityType:
			if !op.EntityType.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidEntityType, op.EntityType)
			}
		case FieldEntityID:
			if strings.TrimSpace(op.EntityID) == "" {
				return ErrEmptyEntityID
			}
		case FieldOperation:
			if !op.Operation.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidOperation, op.Operation)
			}
		case FieldPayload:
			if err := validatePayload(op.Operation, op.Payload); err != nil {
				return err
			}
		case FieldTimestamp:
			if op.Timestamp.IsZero() {
				return ErrEmptyTimestamp
			}
		case FieldVersion:
			if op.Version != nil && *op.Version < 0 {
				return ErrInvalidVersion
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

// validatePushRequest checks the envelope only. Items are validated one by
// one by the caller.
func (v *SyncValidator) validatePushRequest(_ context.Context, req models.PushRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldItems, FieldSyncToken}
	}

	for _, f := range fields {
		switch f {
		case FieldItems:
			if err := validateBatchLen(len(req.Items)); err != nil {
				return err
			}
		case FieldSyncToken:
			if _, err := models.DecodeCursor(req.SyncToken); err != nil {
				return ErrInvalidCursor
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func (v *SyncValidator) validatePullRequest(_ context.Context, req models.PullRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldLimit, FieldEntityTypes, FieldCursor}
	}

	for _, f := range fields {
		switch f {
		case FieldLimit:
			limit := req.WithDefaults().Limit
			if limit < 1 || limit > models.MaxPullLimit {
				return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidLimit, limit, models.MaxPullLimit)
			}
		case FieldEntityTypes:
			for _, t := range req.EntityTypes {
				if !t.Valid() {
					return fmt.Errorf("%w: %q", ErrInvalidEntityType, t)
				}
			}
		case FieldCursor:
			if _, err := models.DecodeCursor(req.Cursor); err != nil {
				return ErrInvalidCursor
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func (v *SyncValidator) validateDuplicateCheckRequest(_ context.Context, req models.DuplicateCheckRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldOperations}
	}

	for _, f := range fields {
		switch f {
		case FieldOperations:
			if err := validateBatchLen(len(req.Operations)); err != nil {
				return err
			}
			for _, fp := range req.Operations {
				if !fp.EntityType.Valid() {
					return fmt.Errorf("%w: %q", ErrInvalidEntityType, fp.EntityType)
				}
				if fp.EntityID == "" {
					return ErrEmptyEntityID
				}
				if !fp.Operation.Valid() {
					return fmt.Errorf("%w: %q", ErrInvalidOperation, fp.Operation)
				}
				if fp.Timestamp.IsZero() {
					return ErrEmptyTimestamp
				}
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

// validateEnqueueRequest rejects the whole request on the first bad
// operation. Buffered operations have no per-item answer to carry an error.
func (v *SyncValidator) validateEnqueueRequest(ctx context.Context, req models.EnqueueRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldOperations}
	}

	for _, f := range fields {
		switch f {
		case FieldOperations:
			if err := validateBatchLen(len(req.Operations)); err != nil {
				return err
			}
			for i, op := range req.Operations {
				// client id is optional here
				err := v.validateOperation(ctx, models.SyncOperation{
					EntityType: op.EntityType,
					EntityID:   op.EntityID,
					Operation:  op.Operation,
					Payload:    op.Payload,
					Timestamp:  op.Timestamp,
					Version:    op.Version,
				}, FieldEntityType, FieldEntityID, FieldOperation, FieldPayload, FieldTimestamp, FieldVersion)
				if err != nil {
					return fmt.Errorf("operation %d: %w", i, err)
				}
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func (v *SyncValidator) validateProcessRequest(_ context.Context, req models.ProcessRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldBatchSize, FieldMaxRetries}
	}

	batchSize, maxRetries := req.Limits()
	for _, f := range fields {
		switch f {
		case FieldBatchSize:
			if batchSize < 1 || batchSize > models.MaxProcessBatchSize {
				return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidBatchSize, batchSize, models.MaxProcessBatchSize)
			}
		case FieldMaxRetries:
			if maxRetries < 0 || maxRetries > models.MaxProcessMaxRetries {
				return fmt.Errorf("%w: %d not in 0..%d", ErrInvalidMaxRetries, maxRetries, models.MaxProcessMaxRetries)
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func (v *SyncValidator) validateCredentials(_ context.Context, user models.User, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldLogin, FieldPassword}
	}

	for _, f := range fields {
		switch f {
		case FieldLogin:
			if user.Login == "" {
				return ErrEmptyLogin
			}
			if strings.ContainsAny(user.Login, " \t\r\n") {
				return ErrInvalidLoginFormat
			}
		case FieldPassword:
			if user.Password == "" {
				return ErrEmptyPassword
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, f)
		}
	}

	return nil
}

func validateBatchLen(n int) error {
	if n == 0 {
		return ErrEmptyBatch
	}
	if n > models.MaxPushBatchSize {
		return fmt.Errorf("%w: %d items, max %d", ErrBatchTooLarge, n, models.MaxPushBatchSize)
	}
	return nil
}

func validatePayload(op models.OperationType, payload json.RawMessage) error {
	if len(payload) == 0 || string(payload) == "null" {
		if op.RequiresPayload() {
			return ErrEmptyPayload
		}
		return nil
	}
	if !json.Valid(payload) {
		return ErrInvalidPayload
	}
	return nil
}
