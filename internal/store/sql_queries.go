// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/nnsi/hono-practice-sub008/models"
)

// staleClaimAfter releases operations left in processing by a crashed
// worker.
const staleClaimAfter = 5 * time.Minute

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	createUser = `INSERT INTO users (user_id, login, password_hash, password_salt)
    VALUES ($1, $2, $3, $4)
    RETURNING user_id, login, password_hash, password_salt, created_at;`

	findUserByLogin = `SELECT user_id, login, password_hash, password_salt, created_at
    FROM users
    WHERE login = $1;`

	selectProcessedByClientID = `SELECT server_version
		FROM processed_operations
		WHERE user_id = $1 AND client_id = $2;`

	selectProcessedByFingerprint = `SELECT server_version
		FROM processed_operations
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3 AND op_timestamp = $4 AND operation = $5
		LIMIT 1;`

	selectEntityForUpdate = `SELECT payload, version, deleted, updated_at
		FROM entities
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		FOR UPDATE;`

	upsertEntity = `INSERT INTO entities (user_id, entity_type, entity_id, payload, version, deleted, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, entity_type, entity_id) DO UPDATE SET
			payload    = EXCLUDED.payload,
			version    = EXCLUDED.version,
			deleted    = EXCLUDED.deleted,
			updated_at = EXCLUDED.updated_at;`

	// lockUserChangeLog serialises change-log appends of one user until
	// commit, so server_seq grows in commit order within a user's log.
	lockUserChangeLog = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0));`

	insertChange = `INSERT INTO change_log (
			user_id,
			client_id,
			entity_type,
			entity_id,
			operation,
			payload,
			version,
			op_timestamp,
			recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, clock_timestamp())
		RETURNING server_seq;`

	insertProcessed = `INSERT INTO processed_operations (
			user_id,
			client_id,
			entity_type,
			entity_id,
			operation,
			op_timestamp,
			server_version,
			processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	selectMetadataForUpdate = `SELECT id, last_synced_at, status, error_message, retry_count, created_at, updated_at
		FROM sync_metadata
		WHERE user_id = $1 AND entity_type = $2 AND entity_id = $3
		FOR UPDATE;`

	upsertMetadata = `INSERT INTO sync_metadata (
			id,
			user_id,
			entity_type,
			entity_id,
			last_synced_at,
			status,
			error_message,
			retry_count,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, entity_type, entity_id) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			status         = EXCLUDED.status,
			error_message  = EXCLUDED.error_message,
			retry_count    = EXCLUDED.retry_count,
			updated_at     = EXCLUDED.updated_at;`

	selectStatusCounts = `SELECT status, COUNT(*), MAX(last_synced_at)
		FROM sync_metadata
		WHERE user_id = $1
		GROUP BY status;`

	insertQueued = `INSERT INTO sync_queue (
			id,
			user_id,
			client_id,
			entity_type,
			entity_id,
			operation,
			payload,
			op_timestamp,
			sequence_number,
			version,
			status,
			retry_count,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $12);`

	claimQueued = `SELECT id, user_id, client_id, entity_type, entity_id, operation, payload, op_timestamp,
			sequence_number, version, status, retry_count, error_message, created_at
		FROM sync_queue
		WHERE user_id = $1
			AND (status = 'pending'
				OR (status = 'failed' AND retry_count <= $2)
				OR (status = 'processing' AND updated_at < $3))
		ORDER BY sequence_number, created_at
		LIMIT $4
		FOR UPDATE SKIP LOCKED;`

	completeQueued = `UPDATE sync_queue SET
			status        = $2,
			error_message = $3,
			retry_count   = retry_count + $4,
			updated_at    = $5
		WHERE id = $1;`

	countProcessable = `SELECT COUNT(*)
		FROM sync_queue
		WHERE user_id = $1 AND (status = 'pending' OR (status = 'failed' AND retry_count <= $2));`

	selectUsersWithPending = `SELECT DISTINCT user_id
		FROM sync_queue
		WHERE status = 'pending' OR (status = 'failed' AND retry_count <= $1)
		LIMIT $2;`
)

// buildGetChangesQuery selects change-log rows of query.UserID in server
// order. Optional filters are added only when set.
func buildGetChangesQuery(query models.ChangeQuery) (string, []any, error) {
	builder := psql.
		Select(
			"server_seq",
			"client_id",
			"entity_type",
			"entity_id",
			"operation",
			"payload",
			"version",
			"op_timestamp",
			"recorded_at",
		).
		From("change_log").
		Where(sq.Eq{"user_id": query.UserID})

	if query.Since != nil {
		builder = builder.Where(sq.Gt{"recorded_at": *query.Since})
	}
	if query.AfterSeq > 0 {
		builder = builder.Where(sq.Gt{"server_seq": query.AfterSeq})
	}
	if len(query.EntityTypes) > 0 {
		builder = builder.Where(sq.Eq{"entity_type": entityTypeStrings(query.EntityTypes)})
	}
	if len(query.ExcludeClientIDs) > 0 {
		builder = builder.Where(sq.NotEq{"client_id": query.ExcludeClientIDs})
	}

	builder = builder.OrderBy("server_seq")
	if query.Limit > 0 {
		builder = builder.Limit(uint64(query.Limit))
	}

	sqlQuery, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return sqlQuery, args, nil
}

// buildFingerprintQuery narrows processed operations of userID to the
// entities named in fingerprints. Exact fingerprint matching is done by the
// caller.
func buildFingerprintQuery(userID string, fingerprints []models.OperationFingerprint) (string, []any, error) {
	entityIDs := make([]string, 0, len(fingerprints))
	seen := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		if _, ok := seen[fp.EntityID]; ok {
			continue
		}
		seen[fp.EntityID] = struct{}{}
		entityIDs = append(entityIDs, fp.EntityID)
	}

	sqlQuery, args, err := psql.
		Select("entity_type", "entity_id", "op_timestamp", "operation").
		From("processed_operations").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"entity_id": entityIDs}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return sqlQuery, args, nil
}

// buildMarkProcessingQuery flags claimed queue rows.
func buildMarkProcessingQuery(ids []string, now time.Time) (string, []any, error) {
	sqlQuery, args, err := psql.
		Update("sync_queue").
		Set("status", string(models.QueueProcessing)).
		Set("updated_at", now).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return sqlQuery, args, nil
}

func entityTypeStrings(types []models.EntityType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
