// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
	"github.com/nnsi/hono-practice-sub008/models"
)

// pushHashing verifies the HMAC of the push items against the hash field of
// the request. It is a no-op when the server has no hash key.
//
// The digest is recomputed over the re-encoded items, so it does not depend
// on the whitespace or field order the client sent.
func (h *Handler) pushHashing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.hashKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		log := logger.FromRequest(r)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Err(err).Str("func", "*Handler.pushHashing").Msg("failed to read request body")
			http.Error(w, app.MsgInternalServerError, http.StatusInternalServerError)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		var req models.PushRequest
		if err = json.Unmarshal(body, &req); err != nil {
			log.Err(err).Str("func", "*Handler.pushHashing").Msg("failed to decode JSON")
			http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
			return
		}

		items, err := json.Marshal(req.Items)
		if err != nil {
			log.Err(err).Str("func", "*Handler.pushHashing").Msg("failed to marshal push items")
			http.Error(w, app.MsgInternalServerError, http.StatusInternalServerError)
			return
		}

		hashedBody := hex.EncodeToString(utils.Hash(items))
		if !utils.EqualHex(hashedBody, req.Hash) {
			log.Error().Str("func", "*Handler.pushHashing").
				Str("hash from request", req.Hash).
				Str("hashed body", hashedBody).
				Msg("hashes are not equal")
			http.Error(w, app.MsgIntegrityCheckFailed, http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}
