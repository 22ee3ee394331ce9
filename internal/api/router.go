package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter assembles the route tree.
//
// Health and metrics are always reachable without a token so local
// monitoring keeps working when auth is enabled. Everything else sits
// behind the bearer token middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.bodyLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/devices", s.handleListDevices)
			r.Get("/devices/{id}", s.handleGetDevice)
			r.Get("/devices/{id}/state", s.handleGetDeviceState)
			r.Post("/devices/{id}/command", s.handleSendCommand)

			r.Get(s.wsCfg.Path, s.handleWebSocket)
		})
	})

	return r
}
