// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind separates short-lived access tokens from refresh credentials.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// TokenClaims is the JWT claim set issued by the server. The subject holds
// the user id.
type TokenClaims struct {
	jwt.RegisteredClaims

	// Kind prevents a refresh credential from being accepted as an access
	// token and the other way round.
	Kind TokenKind `json:"kind"`
}

// Token is a signed JWT together with the values extracted from it.
type Token struct {
	// SignedString is the compact JWS form sent over the wire.
	SignedString string `json:"-"`

	UserID    string    `json:"-"`
	Kind      TokenKind `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// String returns the compact JWS serialization of the token.
func (t Token) String() string {
	return t.SignedString
}

// TokenPair is returned by login and refresh. RefreshToken is empty when the
// server keeps the refresh credential in a cookie only.
type TokenPair struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
}

// Session is the client's persisted authentication state.
type Session struct {
	UserID       string    `json:"userId"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SessionFrom builds a session from a freshly issued token pair. An empty
// refresh token keeps the previous one.
func SessionFrom(pair TokenPair, previous Session, now time.Time) Session {
	s := Session{
		UserID:       pair.UserID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UpdatedAt:    now,
	}
	if s.RefreshToken == "" {
		s.RefreshToken = previous.RefreshToken
	}
	if s.UserID == "" {
		s.UserID = previous.UserID
	}
	return s
}
