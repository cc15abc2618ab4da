// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/models"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type localSyncRepository struct {
	*DB
	logger *logger.Logger
	newID  func() string
}

// NewLocalSyncRepository constructs the SQLite [LocalSyncRepository]. newID
// issues ids of new metadata rows.
func NewLocalSyncRepository(db *DB, newID func() string, logger *logger.Logger) LocalSyncRepository {
	return &localSyncRepository{
		DB:     db,
		logger: logger,
		newID:  newID,
	}
}

// RecordMutation queues op behind any operation already queued for the same
// entity. Only the first queued operation of an entity carries the
// optimistic-lock version; later ones are ordered by timestamp on the server.
func (l *localSyncRepository) RecordMutation(ctx context.Context, record models.EntityRecord, op models.SyncOperation, userID string, now time.Time) (models.SyncOperation, error) {
	log := logger.FromContext(ctx)

	var queued models.SyncOperation
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		if err := saveEntity(ctx, tx, record); err != nil {
			return err
		}

		_, hasQueued, err := latestQueuedFor(ctx, tx, op.Key())
		if err != nil {
			return err
		}
		if hasQueued {
			op.Version = nil
		}

		if queued, err = insertOperation(ctx, tx, op); err != nil {
			return err
		}

		return l.transitionMetadata(ctx, tx, op.Key(), userID, now, func(m models.SyncMetadata, existed bool) models.SyncMetadata {
			if !existed {
				return m
			}
			return m.MarkAsPending(now)
		})
	})
	if err != nil {
		log.Err(err).
			Str("func", "localSyncRepository.RecordMutation").
			Str("entity", op.Key().String()).
			Msg("failed to record local mutation")
		return models.SyncOperation{}, err
	}

	return queued, nil
}

func (l *localSyncRepository) GetEntity(ctx context.Context, key models.EntityKey) (models.EntityRecord, error) {
	record, err := scanEntity(l.DB.QueryRowContext(ctx, getLocalEntity, string(key.EntityType), key.EntityID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.EntityRecord{}, ErrEntityNotFound
	}
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return record, nil
}

func (l *localSyncRepository) ListEntities(ctx context.Context, entityType models.EntityType) ([]models.EntityRecord, error) {
	rows, err := l.DB.QueryContext(ctx, listLocalEntities, string(entityType))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.EntityRecord, 0, 50)
	for rows.Next() {
		record, scanErr := scanEntity(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func (l *localSyncRepository) PendingOperations(ctx context.Context) ([]models.SyncOperation, error) {
	log := logger.FromContext(ctx)

	rows, err := l.DB.QueryContext(ctx, listLocalOperations)
	if err != nil {
		log.Err(err).
			Str("func", "localSyncRepository.PendingOperations").
			Msg("failed to list queued operations")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ops := make([]models.SyncOperation, 0, 100)
	for rows.Next() {
		op, scanErr := scanOperation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		ops = append(ops, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return ops, nil
}

func (l *localSyncRepository) GetMetadata(ctx context.Context, keys []models.EntityKey) (map[models.EntityKey]models.SyncMetadata, error) {
	metas := make(map[models.EntityKey]models.SyncMetadata, len(keys))
	for _, key := range keys {
		if _, seen := metas[key]; seen {
			continue
		}
		meta, found, err := loadMetadata(ctx, l.DB, key)
		if err != nil {
			return nil, err
		}
		if found {
			metas[key] = meta
		}
	}
	return metas, nil
}

func (l *localSyncRepository) ListMetadata(ctx context.Context) ([]models.SyncMetadata, error) {
	rows, err := l.DB.QueryContext(ctx, listLocalMetadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	metas := make([]models.SyncMetadata, 0, 50)
	for rows.Next() {
		meta, scanErr := scanMetadata(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		metas = append(metas, meta)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return metas, nil
}

func (l *localSyncRepository) SaveMetadata(ctx context.Context, metas ...models.SyncMetadata) error {
	if len(metas) == 0 {
		return nil
	}
	if len(metas) == 1 {
		return saveMetadata(ctx, l.DB, metas[0])
	}

	return l.inTx(ctx, func(tx *sql.Tx) error {
		for _, meta := range metas {
			if err := saveMetadata(ctx, tx, meta); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *localSyncRepository) CompleteOperation(ctx context.Context, op models.SyncOperation, version *int64, meta models.SyncMetadata, now time.Time) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteLocalOperation, op.ClientID); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}

		if version != nil {
			if _, err := tx.ExecContext(ctx, setLocalEntityVersion, string(op.EntityType), op.EntityID, *version, now); err != nil {
				return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
			}
		}

		return saveMetadata(ctx, tx, meta)
	})
}

func (l *localSyncRepository) ParkOperation(ctx context.Context, conflict models.Conflict, meta models.SyncMetadata) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteLocalOperation, conflict.ClientID); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		if err := saveConflict(ctx, tx, conflict); err != nil {
			return err
		}
		return saveMetadata(ctx, tx, meta)
	})
}

func (l *localSyncRepository) ApplyServerChange(ctx context.Context, change models.EntityChange, userID string, now time.Time) (*models.Conflict, error) {
	var conflict *models.Conflict

	err := l.inTx(ctx, func(tx *sql.Tx) error {
		key := change.Key()

		existing, err := scanEntity(tx.QueryRowContext(ctx, getLocalEntity, string(key.EntityType), key.EntityID))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("%w: %w", ErrScanningRow, err)
		default:
			// our own acknowledged change coming back
			if v, known := existing.ServerVersion(); known && v >= change.Version {
				return nil
			}
		}

		queued, hasQueued, err := latestQueuedFor(ctx, tx, key)
		if err != nil {
			return err
		}
		if hasQueued {
			version := change.Version
			conflict = &models.Conflict{
				ClientID:      queued.ClientID,
				EntityType:    key.EntityType,
				EntityID:      key.EntityID,
				Source:        models.ConflictFromPull,
				LocalPayload:  queued.Payload,
				ServerPayload: change.Payload,
				ServerVersion: &version,
				ServerDeleted: change.Operation == models.OperationDelete,
				Message:       models.MsgPendingLocalChange,
				DetectedAt:    now,
			}
			return saveConflict(ctx, tx, *conflict)
		}

		// a parked edit is still unsynced: the newer server state goes to
		// its conflict, the local copy stays
		parked, hasParked, err := openConflictFor(ctx, tx, key)
		if err != nil {
			return err
		}
		if hasParked {
			refreshed := parked.WithServerChange(change)
			conflict = &refreshed
			return saveConflict(ctx, tx, refreshed)
		}

		record := models.NewPersistedEntity(key.EntityType, key.EntityID, change.Payload, change.Version, now)
		if change.Operation == models.OperationDelete {
			record = models.NewArchivedEntity(key.EntityType, key.EntityID, change.Version, now)
		}
		if err = saveEntity(ctx, tx, record); err != nil {
			return err
		}

		return l.transitionMetadata(ctx, tx, key, userID, now, func(m models.SyncMetadata, _ bool) models.SyncMetadata {
			return m.MarkAsSyncing(now).MarkAsSynced(now)
		})
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "localSyncRepository.ApplyServerChange").
			Str("entity", change.Key().String()).
			Msg("failed to apply server change")
		return nil, err
	}

	return conflict, nil
}

func (l *localSyncRepository) ListConflicts(ctx context.Context) ([]models.Conflict, error) {
	rows, err := l.DB.QueryContext(ctx, listConflicts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	conflicts := make([]models.Conflict, 0, 10)
	for rows.Next() {
		c, scanErr := scanConflict(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		conflicts = append(conflicts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return conflicts, nil
}

func (l *localSyncRepository) GetConflict(ctx context.Context, clientID string) (models.Conflict, error) {
	c, err := scanConflict(l.DB.QueryRowContext(ctx, getConflict, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conflict{}, ErrConflictNotFound
	}
	if err != nil {
		return models.Conflict{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return c, nil
}

func (l *localSyncRepository) RequeueConflict(ctx context.Context, op models.SyncOperation, userID string, now time.Time) (models.SyncOperation, error) {
	var queued models.SyncOperation

	err := l.inTx(ctx, func(tx *sql.Tx) error {
		if err := removeConflictAndOperation(ctx, tx, op.ClientID); err != nil {
			return err
		}

		var err error
		if queued, err = insertOperation(ctx, tx, op); err != nil {
			return err
		}

		return l.transitionMetadata(ctx, tx, op.Key(), userID, now, func(m models.SyncMetadata, existed bool) models.SyncMetadata {
			if !existed {
				return m
			}
			return m.MarkAsPending(now)
		})
	})
	if err != nil {
		return models.SyncOperation{}, err
	}

	return queued, nil
}

func (l *localSyncRepository) AcceptServerState(ctx context.Context, clientID string, record models.EntityRecord, userID string, now time.Time) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		if err := removeConflictAndOperation(ctx, tx, clientID); err != nil {
			return err
		}
		if err := saveEntity(ctx, tx, record); err != nil {
			return err
		}
		return l.transitionMetadata(ctx, tx, record.Key(), userID, now, func(m models.SyncMetadata, _ bool) models.SyncMetadata {
			return m.MarkAsSyncing(now).MarkAsSynced(now)
		})
	})
}

func (l *localSyncRepository) Watermark(ctx context.Context) (string, error) {
	var cursor string
	err := l.DB.QueryRowContext(ctx, getState, watermarkKey).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return cursor, nil
}

func (l *localSyncRepository) SetWatermark(ctx context.Context, cursor string) error {
	if _, err := l.DB.ExecContext(ctx, setState, watermarkKey, cursor); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// transitionMetadata loads the metadata of key, creating pending metadata
// when the entity has none yet, applies transition and saves the result.
func (l *localSyncRepository) transitionMetadata(
	ctx context.Context,
	q querier,
	key models.EntityKey,
	userID string,
	now time.Time,
	transition func(m models.SyncMetadata, existed bool) models.SyncMetadata,
) error {
	meta, found, err := loadMetadata(ctx, q, key)
	if err != nil {
		return err
	}
	if !found {
		meta = models.NewSyncMetadata(l.newID(), userID, key, now)
	}
	if userID != "" {
		meta.UserID = userID
	}
	return saveMetadata(ctx, q, transition(meta, found))
}

func removeConflictAndOperation(ctx context.Context, q querier, clientID string) error {
	if _, err := q.ExecContext(ctx, deleteConflict, clientID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if _, err := q.ExecContext(ctx, deleteLocalOperation, clientID); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func saveEntity(ctx context.Context, q querier, record models.EntityRecord) error {
	if _, err := q.ExecContext(ctx, upsertLocalEntity,
		string(record.EntityType),
		record.EntityID,
		string(record.State),
		nullableText(record.Payload),
		record.Version,
		record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func insertOperation(ctx context.Context, q querier, op models.SyncOperation) (models.SyncOperation, error) {
	var seq int64
	if err := q.QueryRowContext(ctx, nextSequence, sequenceKey).Scan(&seq); err != nil {
		return models.SyncOperation{}, fmt.Errorf("%w: allocate sequence: %w", ErrExecutingStatement, err)
	}
	op.SequenceNumber = uint64(seq)

	if _, err := q.ExecContext(ctx, insertLocalOperation,
		op.ClientID,
		string(op.EntityType),
		op.EntityID,
		string(op.Operation),
		nullableText(op.Payload),
		op.Timestamp,
		seq,
		nullableInt64(op.Version),
	); err != nil {
		return models.SyncOperation{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return op, nil
}

// latestQueuedFor returns the newest queued operation of key.
func latestQueuedFor(ctx context.Context, q querier, key models.EntityKey) (models.SyncOperation, bool, error) {
	var (
		op      = models.SyncOperation{EntityType: key.EntityType, EntityID: key.EntityID}
		payload sql.NullString
	)

	err := q.QueryRowContext(ctx, latestLocalOperationForEntity, string(key.EntityType), key.EntityID).
		Scan(&op.ClientID, &payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.SyncOperation{}, false, nil
	case err != nil:
		return models.SyncOperation{}, false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	op.Payload = rawJSON(payload)
	return op, true, nil
}

func openConflictFor(ctx context.Context, q querier, key models.EntityKey) (models.Conflict, bool, error) {
	c, err := scanConflict(q.QueryRowContext(ctx, latestConflictForEntity, string(key.EntityType), key.EntityID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.Conflict{}, false, nil
	case err != nil:
		return models.Conflict{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return c, true, nil
}

func loadMetadata(ctx context.Context, q querier, key models.EntityKey) (models.SyncMetadata, bool, error) {
	meta, err := scanMetadata(q.QueryRowContext(ctx, getLocalMetadata, string(key.EntityType), key.EntityID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.SyncMetadata{}, false, nil
	case err != nil:
		return models.SyncMetadata{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return meta, true, nil
}

func saveMetadata(ctx context.Context, q querier, meta models.SyncMetadata) error {
	if _, err := q.ExecContext(ctx, upsertLocalMetadata,
		meta.ID,
		meta.UserID,
		string(meta.EntityType),
		meta.EntityID,
		nullableTime(meta.LastSyncedAt),
		string(meta.Status),
		nullableString(meta.ErrorMessage),
		meta.RetryCount,
		meta.CreatedAt,
		meta.UpdatedAt,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func saveConflict(ctx context.Context, q querier, c models.Conflict) error {
	var (
		operation, timestamp, sequence, version any
	)
	if op := c.Operation; op != nil {
		operation = string(op.Operation)
		timestamp = op.Timestamp
		sequence = int64(op.SequenceNumber)
		version = nullableInt64(op.Version)
	}

	if _, err := q.ExecContext(ctx, upsertConflict,
		c.ClientID,
		string(c.EntityType),
		c.EntityID,
		string(c.Source),
		nullableText(c.LocalPayload),
		nullableText(c.ServerPayload),
		nullableInt64(c.ServerVersion),
		c.ServerDeleted,
		c.Message,
		c.DetectedAt,
		operation,
		timestamp,
		sequence,
		version,
	); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func scanEntity(s rowScanner) (models.EntityRecord, error) {
	var (
		record     models.EntityRecord
		entityType string
		state      string
		payload    sql.NullString
	)
	if err := s.Scan(&entityType, &record.EntityID, &state, &payload, &record.Version, &record.UpdatedAt); err != nil {
		return models.EntityRecord{}, err
	}
	record.EntityType = models.EntityType(entityType)
	record.State = models.EntityState(state)
	record.Payload = rawJSON(payload)
	return record, nil
}

func scanOperation(s rowScanner) (models.SyncOperation, error) {
	var (
		op         models.SyncOperation
		entityType string
		operation  string
		payload    sql.NullString
		sequence   int64
		version    sql.NullInt64
	)
	if err := s.Scan(&op.ClientID, &entityType, &op.EntityID, &operation, &payload, &op.Timestamp, &sequence, &version); err != nil {
		return models.SyncOperation{}, err
	}
	op.EntityType = models.EntityType(entityType)
	op.Operation = models.OperationType(operation)
	op.Payload = rawJSON(payload)
	op.SequenceNumber = uint64(sequence)
	op.Version = int64Ptr(version)
	return op, nil
}

func scanMetadata(s rowScanner) (models.SyncMetadata, error) {
	var (
		meta         models.SyncMetadata
		entityType   string
		status       string
		lastSyncedAt sql.NullTime
		errorMessage sql.NullString
	)
	if err := s.Scan(
		&meta.ID,
		&meta.UserID,
		&entityType,
		&meta.EntityID,
		&lastSyncedAt,
		&status,
		&errorMessage,
		&meta.RetryCount,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	); err != nil {
		return models.SyncMetadata{}, err
	}
	meta.EntityType = models.EntityType(entityType)
	meta.Status = models.SyncStatus(status)
	meta.LastSyncedAt = timePtr(lastSyncedAt)
	meta.ErrorMessage = stringPtr(errorMessage)
	return meta, nil
}

func scanConflict(s rowScanner) (models.Conflict, error) {
	var (
		c             models.Conflict
		entityType    string
		source        string
		localPayload  sql.NullString
		serverPayload sql.NullString
		serverVersion sql.NullInt64
		message       sql.NullString
		operation     sql.NullString
		opTimestamp   sql.NullTime
		sequence      sql.NullInt64
		version       sql.NullInt64
	)
	if err := s.Scan(
		&c.ClientID,
		&entityType,
		&c.EntityID,
		&source,
		&localPayload,
		&serverPayload,
		&serverVersion,
		&c.ServerDeleted,
		&message,
		&c.DetectedAt,
		&operation,
		&opTimestamp,
		&sequence,
		&version,
	); err != nil {
		return models.Conflict{}, err
	}

	c.EntityType = models.EntityType(entityType)
	c.Source = models.ConflictSource(source)
	c.LocalPayload = rawJSON(localPayload)
	c.ServerPayload = rawJSON(serverPayload)
	c.ServerVersion = int64Ptr(serverVersion)
	c.Message = message.String

	if operation.Valid {
		c.Operation = &models.SyncOperation{
			ClientID:       c.ClientID,
			EntityType:     c.EntityType,
			EntityID:       c.EntityID,
			Operation:      models.OperationType(operation.String),
			Payload:        c.LocalPayload,
			Timestamp:      opTimestamp.Time,
			SequenceNumber: uint64(sequence.Int64),
			Version:        int64Ptr(version),
		}
	}
	return c, nil
}

// SQLite keeps payloads as TEXT.
func nullableText(payload json.RawMessage) any {
	if len(payload) == 0 {
		return nil
	}
	return string(payload)
}

func rawJSON(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
