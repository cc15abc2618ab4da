// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

// SQLite binds ?N parameters by number, so a query may reuse or reorder them.

const (
	watermarkKey = "pull_cursor"
	sequenceKey  = "sequence"
)

const (
	upsertLocalEntity = `
		INSERT INTO entities (entity_type, entity_id, state, payload, version, updated_at)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			state      = excluded.state,
			payload    = excluded.payload,
			version    = excluded.version,
			updated_at = excluded.updated_at;`

	getLocalEntity = `
		SELECT entity_type, entity_id, state, payload, version, updated_at
		FROM entities
		WHERE entity_type = ?1 AND entity_id = ?2;`

	listLocalEntities = `
		SELECT entity_type, entity_id, state, payload, version, updated_at
		FROM entities
		WHERE (?1 = '' OR entity_type = ?1)
		ORDER BY entity_type, entity_id;`

	setLocalEntityVersion = `
		UPDATE entities SET
			version    = ?3,
			state      = CASE WHEN state = 'archived' THEN 'archived' ELSE 'persisted' END,
			updated_at = ?4
		WHERE entity_type = ?1 AND entity_id = ?2;`

	nextSequence = `
		UPDATE sync_state SET value = CAST(value AS INTEGER) + 1
		WHERE key = ?1
		RETURNING CAST(value AS INTEGER);`

	insertLocalOperation = `
		INSERT INTO sync_queue (client_id, entity_type, entity_id, operation, payload, op_timestamp, sequence_number, version)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8);`

	listLocalOperations = `
		SELECT client_id, entity_type, entity_id, operation, payload, op_timestamp, sequence_number, version
		FROM sync_queue
		ORDER BY sequence_number;`

	latestLocalOperationForEntity = `
		SELECT client_id, payload
		FROM sync_queue
		WHERE entity_type = ?1 AND entity_id = ?2
		ORDER BY sequence_number DESC
		LIMIT 1;`

	deleteLocalOperation = `DELETE FROM sync_queue WHERE client_id = ?1;`

	getLocalMetadata = `
		SELECT id, user_id, entity_type, entity_id, last_synced_at, status, error_message, retry_count, created_at, updated_at
		FROM sync_metadata
		WHERE entity_type = ?1 AND entity_id = ?2;`

	listLocalMetadata = `
		SELECT id, user_id, entity_type, entity_id, last_synced_at, status, error_message, retry_count, created_at, updated_at
		FROM sync_metadata
		ORDER BY entity_type, entity_id;`

	upsertLocalMetadata = `
		INSERT INTO sync_metadata (id, user_id, entity_type, entity_id, last_synced_at, status, error_message, retry_count, created_at, updated_at)
		VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			user_id        = excluded.user_id,
			last_synced_at = excluded.last_synced_at,
			status         = excluded.status,
			error_message  = excluded.error_message,
			retry_count    = excluded.retry_count,
			updated_at     = excluded.updated_at;`

	upsertConflict = `
		INSERT INTO conflicts (
			client_id,
			entity_type,
			entity_id,
			source,
			local_payload,
			server_payload,
			server_version,
			server_deleted,
			message,
			detected_at,
			operation,
			op_timestamp,
			sequence_number,
			version
		) VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11, ?12, ?13, ?14)
		ON CONFLICT (client_id) DO UPDATE SET
			source          = excluded.source,
			local_payload   = excluded.local_payload,
			server_payload  = excluded.server_payload,
			server_version  = excluded.server_version,
			server_deleted  = excluded.server_deleted,
			message         = excluded.message,
			detected_at     = excluded.detected_at,
			operation       = excluded.operation,
			op_timestamp    = excluded.op_timestamp,
			sequence_number = excluded.sequence_number,
			version         = excluded.version;`

	selectConflictColumns = `
		SELECT client_id, entity_type, entity_id, source, local_payload, server_payload, server_version,
			server_deleted, message, detected_at, operation, op_timestamp, sequence_number, version
		FROM conflicts`

	listConflicts = selectConflictColumns + ` ORDER BY detected_at, client_id;`

	getConflict = selectConflictColumns + ` WHERE client_id = ?1;`

	latestConflictForEntity = selectConflictColumns + `
		WHERE entity_type = ?1 AND entity_id = ?2
		ORDER BY detected_at DESC, client_id DESC
		LIMIT 1;`

	deleteConflict = `DELETE FROM conflicts WHERE client_id = ?1;`

	getState = `SELECT value FROM sync_state WHERE key = ?1;`

	setState = `
		INSERT INTO sync_state (key, value) VALUES (?1, ?2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`

	saveSession = `
		INSERT INTO session (id, user_id, access_token, refresh_token, updated_at)
		VALUES (1, ?1, ?2, ?3, ?4)
		ON CONFLICT (id) DO UPDATE SET
			user_id       = excluded.user_id,
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			updated_at    = excluded.updated_at;`

	loadSession = `SELECT user_id, access_token, refresh_token, updated_at FROM session WHERE id = 1;`

	clearSession = `DELETE FROM session;`
)
