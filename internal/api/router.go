// Package api assembles the HTTP surface of the service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/chatledger/chatledger/internal/api/handlers"
	"github.com/chatledger/chatledger/internal/api/middleware"
)

// NewRouter builds the router with the standard middleware stack.
func NewRouter(h *handlers.LedgerHandler, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         3600,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/records/text", h.IngestText)
		r.Post("/records/image", h.IngestImage)
		r.Get("/records", h.List)
		r.Patch("/records/{id}", h.Update)
		r.Delete("/records", h.Delete)
		r.Get("/report", h.Report)
		r.Get("/export.csv", h.ExportCSV)
	})

	return r
}
