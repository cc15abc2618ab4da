// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the sync client's command-line runtime.
//
// It wires the local store, the server adapter and the client services into
// cobra commands: session management, local entity mutations, manual and
// background synchronization, and conflict resolution.
package client
