// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
	"github.com/nnsi/hono-practice-sub008/models"
)

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	var req models.PushRequest
	userID, ok := h.decodeSyncRequest(w, r, "*Handler.push", &req)
	if !ok {
		return
	}

	resp, err := h.services.SyncService.Push(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, "*Handler.push", err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	var req models.PullRequest
	userID, ok := h.decodeSyncRequest(w, r, "*Handler.pull", &req)
	if !ok {
		return
	}

	resp, err := h.services.SyncService.Pull(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, "*Handler.pull", err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) checkDuplicates(w http.ResponseWriter, r *http.Request) {
	var req models.DuplicateCheckRequest
	userID, ok := h.decodeSyncRequest(w, r, "*Handler.checkDuplicates", &req)
	if !ok {
		return
	}

	resp, err := h.services.SyncService.CheckDuplicates(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, "*Handler.checkDuplicates", err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request) {
	var req models.EnqueueRequest
	userID, ok := h.decodeSyncRequest(w, r, "*Handler.enqueue", &req)
	if !ok {
		return
	}

	resp, err := h.services.SyncService.Enqueue(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, "*Handler.enqueue", err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusAccepted)
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var req models.ProcessRequest
	userID, ok := h.decodeSyncRequest(w, r, "*Handler.process", &req)
	if !ok {
		return
	}

	resp, err := h.services.SyncService.Process(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, "*Handler.process", err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		log.Error().Str("func", "*Handler.status").Msg("no user ID was given")
		http.Error(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
		return
	}

	resp, err := h.services.SyncService.Status(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "*Handler.status", err)
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

// decodeSyncRequest reads the authenticated user id and decodes the body into
// req. On failure the response is already written.
func (h *Handler) decodeSyncRequest(w http.ResponseWriter, r *http.Request, fn string, req any) (string, bool) {
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		log.Error().Str("func", fn).Msg("no user ID was given")
		http.Error(w, app.MsgNoUserIDProvided, http.StatusUnauthorized)
		return "", false
	}

	if err := utils.DecodeJSON(r.Body, req); err != nil {
		log.Err(err).Str("func", fn).Msg("invalid JSON was passed")
		http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		return "", false
	}

	return userID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, fn string, err error) {
	status := statusFromError(err)

	event := logger.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		event = logger.FromRequest(r).Error()
	}
	event.Err(err).Str("func", fn).Int("status", status).Msg("request failed")

	http.Error(w, messageFromStatus(status), status)
}
