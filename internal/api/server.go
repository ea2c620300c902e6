// Package api is the console's HTTP surface: the import pipeline entry
// point, telemetry snapshots and their SSE relay, the CRUD proxy the
// thin list/detail panels use, and automation control.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/vitrine/dmconsole/internal/autoctl"
	"github.com/vitrine/dmconsole/internal/dbapi"
	"github.com/vitrine/dmconsole/internal/importer"
	"github.com/vitrine/dmconsole/internal/telemetry"
)

// Server bundles the console's handlers and their collaborators.
type Server struct {
	store     *dbapi.Client
	auto      *autoctl.Client
	imports   *importer.Service
	rdb       *redis.Client
	progress  *progressStore
	telemetry *telemetry.State
	hub       *StreamHub
}

// NewServer creates the API server. The returned StreamHub must be fed
// by the telemetry consumer's relay hook.
func NewServer(store *dbapi.Client, auto *autoctl.Client, imports *importer.Service, state *telemetry.State, rdb *redis.Client) *Server {
	return &Server{
		store:     store,
		auto:      auto,
		imports:   imports,
		rdb:       rdb,
		progress:  newProgressStore(rdb),
		telemetry: state,
		hub:       NewStreamHub(),
	}
}

// Hub returns the SSE relay hub.
func (s *Server) Hub() *StreamHub {
	return s.hub
}

// Router builds the chi router with all console routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute)) // imports run synchronously
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/import", func(r chi.Router) {
		r.Post("/{kind}", s.handleImport)
		r.Get("/{jobID}/progress", s.handleImportProgress)
	})

	r.Get("/entities/{kind}", s.handleListEntities)

	r.Route("/telemetry", func(r chi.Router) {
		r.Get("/", s.handleTelemetrySnapshot)
		r.Get("/stream", s.hub.HandleSSE)
	})

	r.Route("/automation", func(r chi.Router) {
		r.Post("/start", s.handleAutomationStart)
		r.Post("/stop", s.handleAutomationStop)
		r.Get("/status", s.handleAutomationStatus)
	})

	r.Post("/templates/preview", s.handleTemplatePreview)

	r.HandleFunc("/proxy/*", s.handleProxy)

	return r
}
