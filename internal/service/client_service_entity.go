// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/internal/validators"
	"github.com/nnsi/hono-practice-sub008/models"
)

type clientEntityService struct {
	repository store.LocalSyncRepository
	adapter    adapter.ServerAdapter
	validator  validators.Validator

	newID func() string
	now   func() time.Time

	logger *logger.Logger
}

func NewClientEntityService(repository store.LocalSyncRepository, serverAdapter adapter.ServerAdapter, newID func() string, logger *logger.Logger) ClientEntityService {
	return &clientEntityService{
		repository: repository,
		adapter:    serverAdapter,
		validator:  validators.NewSyncValidator(),
		newID:      newID,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger,
	}
}

// Create implements ClientEntityService. Creating over an archived entity
// revives it at its last known server version.
func (e *clientEntityService) Create(ctx context.Context, entityType models.EntityType, entityID string, payload json.RawMessage) (models.EntityRecord, error) {
	if entityID == "" {
		entityID = e.newID()
	}
	now := e.now()

	record := models.NewLocalEntity(entityType, entityID, payload, now)
	existing, err := e.repository.GetEntity(ctx, record.Key())
	switch {
	case err == nil && existing.State != models.EntityStateArchived:
		return models.EntityRecord{}, fmt.Errorf("%w: %s already exists", ErrValidation, record.Key())
	case err == nil:
		record = existing.WithPayload(payload, now)
	case !errors.Is(err, store.ErrEntityNotFound):
		return models.EntityRecord{}, fmt.Errorf("load entity: %w", err)
	}

	op := e.operation(record, models.OperationCreate, payload, now)
	if err = e.record(ctx, record, op, now); err != nil {
		return models.EntityRecord{}, err
	}
	return record, nil
}

func (e *clientEntityService) Update(ctx context.Context, key models.EntityKey, payload json.RawMessage) (models.EntityRecord, error) {
	existing, err := e.repository.GetEntity(ctx, key)
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("load entity: %w", err)
	}
	if existing.State == models.EntityStateArchived {
		return models.EntityRecord{}, fmt.Errorf("%w: %s is deleted", ErrValidation, key)
	}

	now := e.now()
	record := existing.WithPayload(payload, now)
	op := e.operation(record, models.OperationUpdate, payload, now)
	if err = e.record(ctx, record, op, now); err != nil {
		return models.EntityRecord{}, err
	}
	return record, nil
}

func (e *clientEntityService) Delete(ctx context.Context, key models.EntityKey) error {
	existing, err := e.repository.GetEntity(ctx, key)
	if err != nil {
		return fmt.Errorf("load entity: %w", err)
	}
	if existing.State == models.EntityStateArchived {
		return nil
	}

	now := e.now()
	record := existing.Archive(now)
	op := e.operation(existing, models.OperationDelete, nil, now)
	return e.record(ctx, record, op, now)
}

func (e *clientEntityService) Get(ctx context.Context, key models.EntityKey) (models.EntityRecord, error) {
	return e.repository.GetEntity(ctx, key)
}

func (e *clientEntityService) List(ctx context.Context, entityType models.EntityType) ([]models.EntityRecord, error) {
	return e.repository.ListEntities(ctx, entityType)
}

// operation builds the queued intent for a mutation of record. The version is
// the one the server last acknowledged; the repository drops it when an
// earlier operation of the entity is still queued.
func (e *clientEntityService) operation(record models.EntityRecord, operation models.OperationType, payload json.RawMessage, now time.Time) models.SyncOperation {
	op := models.SyncOperation{
		ClientID:   e.newID(),
		EntityType: record.EntityType,
		EntityID:   record.EntityID,
		Operation:  operation,
		Payload:    payload,
		Timestamp:  now,
	}
	if version, ok := record.ServerVersion(); ok {
		op.Version = &version
	}
	return op
}

func (e *clientEntityService) record(ctx context.Context, record models.EntityRecord, op models.SyncOperation, now time.Time) error {
	userID, err := currentUserID(e.adapter)
	if err != nil {
		return err
	}

	if err = e.validator.Validate(ctx, op); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	queued, err := e.repository.RecordMutation(ctx, record, op, userID, now)
	if err != nil {
		return fmt.Errorf("record mutation: %w", err)
	}

	e.logger.Debug().
		Str("client_id", queued.ClientID).
		Str("entity", queued.Key().String()).
		Str("operation", string(queued.Operation)).
		Uint64("seq", queued.SequenceNumber).
		Msg("mutation queued")
	return nil
}
