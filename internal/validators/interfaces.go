// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks sync protocol requests before they reach the
// services.
//
// A [Validator] validates a value and can be restricted to named fields, so
// the same validator serves whole-request checks and targeted checks of a
// single operation inside a batch.
package validators

import "context"

// Validator validates arbitrary input values.
type Validator interface {
	// Validate validates the provided input and optionally restricts
	// validation to specific named fields.
	Validate(context.Context, any, ...string) error
}
