// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http implements the HTTP transport of the sync server.
//
// It exposes the auth and sync routes on a chi router. Authentication,
// request tracing, access logging, compression and the push integrity check
// are middleware; handlers decode the request, call the service layer and
// map its errors to status codes.
package http
