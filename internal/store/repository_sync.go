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

// syncRepository is the PostgreSQL-backed implementation of
// [SyncRepository]. Entities, the change log, processed operations and the
// server-side sync metadata live in the same database so every pushed
// operation is applied atomically.
type syncRepository struct {
	*DB
	logger *logger.Logger
	newID  func() string
}

// NewSyncRepository constructs a [SyncRepository]. newID issues ids of new
// metadata rows.
func NewSyncRepository(db *DB, newID func() string, logger *logger.Logger) SyncRepository {
	return &syncRepository{
		DB:     db,
		logger: logger,
		newID:  newID,
	}
}

func (s *syncRepository) ApplyOperation(ctx context.Context, userID string, op models.SyncOperation, now time.Time) (models.SyncResult, error) {
	log := logger.FromContext(ctx)

	var result models.SyncResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		result, txErr = s.applyInTx(ctx, tx, userID, op, now)
		return txErr
	})
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.ApplyOperation").
			Str("user_id", userID).
			Str("client_id", op.ClientID).
			Msg("failed to apply operation")
		return models.SyncResult{}, err
	}

	log.Debug().
		Str("func", "syncRepository.ApplyOperation").
		Str("client_id", op.ClientID).
		Str("status", string(result.Status)).
		Msg("operation processed")

	return result, nil
}

func (s *syncRepository) applyInTx(ctx context.Context, tx *sql.Tx, userID string, op models.SyncOperation, now time.Time) (models.SyncResult, error) {
	result := models.SyncResult{ClientID: op.ClientID, ServerID: op.EntityID}

	// idempotency: same client id already processed
	version, found, err := scanVersion(tx.QueryRowContext(ctx, selectProcessedByClientID, userID, op.ClientID))
	if err != nil {
		return result, err
	}
	if found {
		result.Status = models.ResultSkipped
		result.Message = models.MsgDuplicate
		result.Version = &version
		return result, nil
	}

	// same change re-sent under another client id
	version, found, err = scanVersion(tx.QueryRowContext(ctx, selectProcessedByFingerprint,
		userID, string(op.EntityType), op.EntityID, op.Timestamp, string(op.Operation)))
	if err != nil {
		return result, err
	}
	if found {
		result.Status = models.ResultSkipped
		result.Message = models.MsgDuplicate
		result.Version = &version
		return result, nil
	}

	current, err := selectEntity(ctx, tx, userID, op.EntityType, op.EntityID)
	if err != nil {
		return result, err
	}

	decision := models.DecideOperation(op, current)
	result.Status = decision.Status()
	key := op.Key()

	switch decision.Verdict {
	case models.VerdictSkip:
		result.Message = decision.Message
		if current != nil {
			v := current.Version
			result.Version = &v
		}
		return result, nil

	case models.VerdictReject:
		result.Error = decision.Message
		return result, s.touchMetadata(ctx, tx, userID, key, now, func(m models.SyncMetadata) models.SyncMetadata {
			return m.MarkAsSyncing(now).MarkAsFailed(decision.Message, now)
		})

	case models.VerdictConflict:
		conflictData, marshalErr := json.Marshal(current.ConflictData())
		if marshalErr != nil {
			return result, fmt.Errorf("marshal conflict data: %w", marshalErr)
		}
		v := current.Version
		result.Message = decision.Message
		result.ConflictData = conflictData
		result.Version = &v
		return result, s.touchMetadata(ctx, tx, userID, key, now, func(m models.SyncMetadata) models.SyncMetadata {
			return m.MarkAsSyncing(now).MarkAsFailed(decision.Message, now)
		})
	}

	next := models.NextServerEntity(userID, op, current)

	if _, err = tx.ExecContext(ctx, upsertEntity,
		userID,
		string(next.EntityType),
		next.EntityID,
		nullableJSON(next.Payload),
		next.Version,
		next.Deleted,
		next.UpdatedAt,
	); err != nil {
		return result, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if _, err = tx.ExecContext(ctx, lockUserChangeLog, userID); err != nil {
		return result, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	var seq int64
	if err = tx.QueryRowContext(ctx, insertChange,
		userID,
		op.ClientID,
		string(next.EntityType),
		next.EntityID,
		string(op.Operation),
		nullableJSON(next.Payload),
		next.Version,
		op.Timestamp,
	).Scan(&seq); err != nil {
		return result, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if _, err = tx.ExecContext(ctx, insertProcessed,
		userID,
		op.ClientID,
		string(op.EntityType),
		op.EntityID,
		string(op.Operation),
		op.Timestamp,
		next.Version,
		now,
	); err != nil {
		return result, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = s.touchMetadata(ctx, tx, userID, key, now, func(m models.SyncMetadata) models.SyncMetadata {
		return m.MarkAsSyncing(now).MarkAsSynced(now)
	}); err != nil {
		return result, err
	}

	v := next.Version
	result.Version = &v
	return result, nil
}

// touchMetadata loads (or lazily creates) the metadata of key, applies
// transition and stores the result.
func (s *syncRepository) touchMetadata(
	ctx context.Context,
	tx *sql.Tx,
	userID string,
	key models.EntityKey,
	now time.Time,
	transition func(models.SyncMetadata) models.SyncMetadata,
) error {
	var (
		meta         models.SyncMetadata
		lastSyncedAt sql.NullTime
		errorMessage sql.NullString
		status       string
	)

	err := tx.QueryRowContext(ctx, selectMetadataForUpdate, userID, string(key.EntityType), key.EntityID).
		Scan(&meta.ID, &lastSyncedAt, &status, &errorMessage, &meta.RetryCount, &meta.CreatedAt, &meta.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		meta = models.NewSyncMetadata(s.newID(), userID, key, now)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrScanningRow, err)
	default:
		meta.UserID = userID
		meta.EntityType = key.EntityType
		meta.EntityID = key.EntityID
		meta.Status = models.SyncStatus(status)
		meta.LastSyncedAt = timePtr(lastSyncedAt)
		meta.ErrorMessage = stringPtr(errorMessage)
	}

	meta = transition(meta)

	if _, err = tx.ExecContext(ctx, upsertMetadata,
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

func (s *syncRepository) FindAppliedFingerprints(ctx context.Context, userID string, fingerprints []models.OperationFingerprint) (map[string]bool, error) {
	log := logger.FromContext(ctx)

	applied := make(map[string]bool, len(fingerprints))
	if len(fingerprints) == 0 {
		return applied, nil
	}

	query, args, err := buildFingerprintQuery(userID, fingerprints)
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.FindAppliedFingerprints").
			Str("user_id", userID).
			Msg("failed to create query")
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.FindAppliedFingerprints").
			Str("user_id", userID).
			Msg("failed to execute fingerprint query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	wanted := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		wanted[fp.String()] = struct{}{}
	}

	for rows.Next() {
		var (
			fp         models.OperationFingerprint
			entityType string
			operation  string
		)
		if err = rows.Scan(&entityType, &fp.EntityID, &fp.Timestamp, &operation); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		fp.EntityType = models.EntityType(entityType)
		fp.Operation = models.OperationType(operation)

		if _, ok := wanted[fp.String()]; ok {
			applied[fp.String()] = true
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return applied, nil
}

func (s *syncRepository) GetChanges(ctx context.Context, query models.ChangeQuery) ([]models.ChangeRecord, error) {
	log := logger.FromContext(ctx)

	sqlQuery, args, err := buildGetChangesQuery(query)
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.GetChanges").
			Str("user_id", query.UserID).
			Msg("failed to create query")
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		log.Err(err).
			Str("func", "syncRepository.GetChanges").
			Str("user_id", query.UserID).
			Msg("failed to execute query for getting changes")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	changes := make([]models.ChangeRecord, 0, max(query.Limit, 0))

	for rows.Next() {
		var (
			rec        models.ChangeRecord
			entityType string
			operation  string
			payload    []byte
		)

		scanErr := rows.Scan(
			&rec.Seq,
			&rec.ClientID,
			&entityType,
			&rec.EntityID,
			&operation,
			&payload,
			&rec.Version,
			&rec.Timestamp,
			&rec.RecordedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "syncRepository.GetChanges").
				Str("user_id", query.UserID).
				Msg("failed to scan change row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		rec.EntityType = models.EntityType(entityType)
		rec.Operation = models.OperationType(operation)
		if len(payload) > 0 {
			rec.Payload = json.RawMessage(payload)
		}
		changes = append(changes, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "syncRepository.GetChanges").
			Str("user_id", query.UserID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return changes, nil
}

func (s *syncRepository) GetSyncStatus(ctx context.Context, userID string) (models.AggregateStatus, error) {
	rows, err := s.DB.QueryContext(ctx, selectStatusCounts, userID)
	if err != nil {
		return models.AggregateStatus{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	counts := make(map[models.SyncStatus]int, 4)
	var last *time.Time

	for rows.Next() {
		var (
			status   string
			count    int
			lastSeen sql.NullTime
		)
		if err = rows.Scan(&status, &count, &lastSeen); err != nil {
			return models.AggregateStatus{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		counts[models.SyncStatus(status)] = count
		if lastSeen.Valid && (last == nil || lastSeen.Time.After(*last)) {
			last = timePtr(lastSeen)
		}
	}

	if err = rows.Err(); err != nil {
		return models.AggregateStatus{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return models.NewAggregateStatus(counts, last), nil
}

func scanVersion(row *sql.Row) (int64, bool, error) {
	var version int64
	err := row.Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return version, true, nil
}

func selectEntity(ctx context.Context, tx *sql.Tx, userID string, entityType models.EntityType, entityID string) (*models.ServerEntity, error) {
	var (
		entity  = models.ServerEntity{UserID: userID, EntityType: entityType, EntityID: entityID}
		payload []byte
	)

	err := tx.QueryRowContext(ctx, selectEntityForUpdate, userID, string(entityType), entityID).
		Scan(&payload, &entity.Version, &entity.Deleted, &entity.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if len(payload) > 0 {
		entity.Payload = json.RawMessage(payload)
	}
	return &entity, nil
}
