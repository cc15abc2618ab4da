// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers runs the sync server's background jobs.
// It defines the Worker interface and a Workers aggregate that starts every
// configured worker and waits for all of them on shutdown.
package workers

import "context"

// Worker is a background job of the server.
//
// Run blocks until ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
}
