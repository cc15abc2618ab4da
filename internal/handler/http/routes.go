// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)
	router.Use(withGZipRequest, middleware.Compress(5, "application/json", "text/plain"))
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	router.Get("/api/ping", h.ping)
	router.Get("/api/version", h.getServerVersion)

	// routes without authorization
	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/token", h.refreshToken)
	})

	router.Route("/api/sync", func(r chi.Router) {
		r.Use(h.auth)

		r.With(h.pushHashing).Post("/push", h.push)
		r.Post("/pull", h.pull)
		r.Post("/check-duplicates", h.checkDuplicates)
		r.Post("/enqueue", h.enqueue)
		r.Post("/process", h.process)
		r.Get("/status", h.status)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
