// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// User is an account owning synchronised entities.
type User struct {
	// UserID is the opaque server-assigned identifier.
	UserID string `json:"id,omitempty"`

	// Login is the unique user login.
	Login string `json:"login"`

	// Password is the plain password received on register/login. It is never
	// persisted.
	Password string `json:"password,omitempty"`

	// PasswordHash and PasswordSalt hold the argon2id derivation of Password.
	PasswordHash string `json:"-"`
	PasswordSalt string `json:"-"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
