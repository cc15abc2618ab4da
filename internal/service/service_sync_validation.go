// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/validators"
	"github.com/nnsi/hono-practice-sub008/models"
)

// SyncValidationService validates requests before handing them to the
// wrapped SyncService. Envelope errors reject the request; a bad push item
// becomes an error result for that item only.
type SyncValidationService struct {
	inner     SyncService
	validator validators.Validator
}

func NewSyncValidationService() SyncServiceWrapper {
	return &SyncValidationService{
		validator: validators.NewSyncValidator(),
	}
}

func (v *SyncValidationService) Push(ctx context.Context, userID string, req models.PushRequest) (models.PushResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.PushResponse{}, fmt.Errorf("error during push validation: %w", err)
	}

	results := make([]models.SyncResult, len(req.Items))
	valid := make([]models.SyncOperation, 0, len(req.Items))
	positions := make([]int, 0, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))

	for i, op := range req.Items {
		err := v.validator.Validate(ctx, op)
		if err == nil {
			if _, dup := seen[op.ClientID]; dup {
				err = validators.ErrDuplicateClientID
			}
		}
		if err != nil {
			logger.FromContext(ctx).Warn().Err(err).
				Str("func", "SyncValidationService.Push").
				Str("client_id", op.ClientID).
				Msg("invalid push item")
			results[i] = models.SyncResult{ClientID: op.ClientID, Status: models.ResultError, Error: err.Error()}
			continue
		}

		seen[op.ClientID] = struct{}{}
		valid = append(valid, op)
		positions = append(positions, i)
	}

	if len(valid) == 0 {
		return models.PushResponse{Results: results}, nil
	}

	inner := req
	inner.Items = valid
	resp, err := v.inner.Push(ctx, userID, inner)
	if err != nil {
		return models.PushResponse{}, err
	}

	for i, r := range resp.Results {
		if i < len(positions) {
			results[positions[i]] = r
		}
	}
	resp.Results = results

	return resp, nil
}

func (v *SyncValidationService) Pull(ctx context.Context, userID string, req models.PullRequest) (models.PullResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.PullResponse{}, fmt.Errorf("error during pull validation: %w", err)
	}
	return v.inner.Pull(ctx, userID, req.WithDefaults())
}

func (v *SyncValidationService) CheckDuplicates(ctx context.Context, userID string, req models.DuplicateCheckRequest) (models.DuplicateCheckResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.DuplicateCheckResponse{}, fmt.Errorf("error during duplicate check validation: %w", err)
	}
	return v.inner.CheckDuplicates(ctx, userID, req)
}

func (v *SyncValidationService) Enqueue(ctx context.Context, userID string, req models.EnqueueRequest) (models.EnqueueResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.EnqueueResponse{}, fmt.Errorf("error during enqueue validation: %w", err)
	}
	return v.inner.Enqueue(ctx, userID, req)
}

func (v *SyncValidationService) Process(ctx context.Context, userID string, req models.ProcessRequest) (models.ProcessResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.ProcessResponse{}, fmt.Errorf("error during process validation: %w", err)
	}
	return v.inner.Process(ctx, userID, req)
}

func (v *SyncValidationService) Status(ctx context.Context, userID string) (models.AggregateStatus, error) {
	return v.inner.Status(ctx, userID)
}

func (v *SyncValidationService) Wrap(wrapped SyncService) SyncService {
	v.inner = wrapped
	return v
}
