package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitrine/dmconsole/internal/domain"
	"github.com/vitrine/dmconsole/internal/pkg/httputil"
)

// handleTelemetrySnapshot returns the current aggregate state: the
// connectivity flag, the session counters, and the rolling log lines.
func (s *Server) handleTelemetrySnapshot(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, s.telemetry.Snapshot())
}

// handleListEntities serves the cached list view for kind. "?fresh=1"
// bypasses the cache.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	kind := domain.EntityKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		httputil.BadRequest(w, "unknown entity kind: "+string(kind))
		return
	}

	fresh := r.URL.Query().Get("fresh") != ""
	records, err := s.store.List(r.Context(), kind, fresh)
	if err != nil {
		httputil.BadGateway(w, err.Error())
		return
	}
	httputil.OK(w, records)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":           "ok",
		"stream_connected": s.telemetry.Snapshot().Connected,
		"stream_clients":   s.hub.ClientCount(),
	})
}
