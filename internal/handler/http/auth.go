// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/app"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/service"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/internal/utils"
	"github.com/nnsi/hono-practice-sub008/models"
)

// refreshCookieName holds the refresh credential of cookie-based sessions.
const refreshCookieName = "refresh_token"

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var user models.User
	if err := utils.DecodeJSON(r.Body, &user); err != nil {
		log.Err(err).Str("func", "*Handler.register").Msg("invalid JSON was passed")
		http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		return
	}

	registeredUser, err := h.services.AuthService.RegisterUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg("invalid data provided")
			http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		case errors.Is(err, store.ErrLoginAlreadyExists):
			log.Err(err).Msg("login already exists")
			http.Error(w, app.MsgLoginAlreadyExists, http.StatusConflict)
		default:
			log.Err(err).Msg("unexpected error occurred during user registration")
			http.Error(w, app.MsgInternalServerError, http.StatusInternalServerError)
		}
		return
	}

	h.writeTokens(w, r, registeredUser.UserID, http.StatusCreated)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var user models.User
	if err := utils.DecodeJSON(r.Body, &user); err != nil {
		log.Err(err).Str("func", "*Handler.login").Msg("invalid JSON was passed")
		http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		return
	}

	foundUser, err := h.services.AuthService.Login(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDataProvided):
			log.Err(err).Msg("invalid data provided")
			http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
		case errors.Is(err, store.ErrNoUserWasFound), errors.Is(err, service.ErrWrongPassword):
			log.Err(err).Msg("no user was found/wrong password")
			http.Error(w, app.MsgInvalidLoginPassword, http.StatusUnauthorized)
		default:
			log.Err(err).Msg("unexpected error occurred during user login")
			http.Error(w, app.MsgInternalServerError, http.StatusInternalServerError)
		}
		return
	}

	log.Debug().Str("user_id", foundUser.UserID).Msg("user successfully logged in")

	h.writeTokens(w, r, foundUser.UserID, http.StatusOK)
}

// refreshToken rotates the credentials. The refresh credential comes from the
// cookie or, for non-browser clients, from the bearer header.
func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	tokenString := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		tokenString = cookie.Value
	}
	if tokenString == "" {
		var err error
		if tokenString, err = utils.ParseBearerToken(r.Header.Get("Authorization")); err != nil {
			log.Err(err).Str("func", "*Handler.refreshToken").Msg("no refresh credential")
			http.Error(w, app.MsgTokenIsExpiredOrInvalid, http.StatusUnauthorized)
			return
		}
	}

	token, err := h.services.AuthService.ParseToken(r.Context(), tokenString, models.RefreshToken)
	if err != nil {
		log.Err(err).Str("func", "*Handler.refreshToken").Msg("refresh credential rejected")
		http.Error(w, app.MsgTokenIsExpiredOrInvalid, http.StatusUnauthorized)
		return
	}

	h.writeTokens(w, r, token.UserID, http.StatusOK)
}

// writeTokens issues a token pair for userID, sets the refresh cookie and
// writes the pair as JSON.
func (h *Handler) writeTokens(w http.ResponseWriter, r *http.Request, userID string, status int) {
	log := logger.FromRequest(r)

	access, refresh, err := h.services.AuthService.CreateTokens(r.Context(), userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.writeTokens").Msg("creation of tokens failed")
		http.Error(w, app.MsgInternalServerError, http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refresh.SignedString,
		Path:     "/api/auth",
		Expires:  refresh.ExpiresAt,
		MaxAge:   int(time.Until(refresh.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})

	utils.WriteJSON(w, models.TokenPair{
		AccessToken:  access.SignedString,
		RefreshToken: refresh.SignedString,
		ExpiresAt:    access.ExpiresAt,
		UserID:       userID,
	}, status)
}
