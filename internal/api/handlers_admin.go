package api

import (
	"net/http"
	"strings"

	"github.com/vitrine/dmconsole/internal/pkg/httputil"
	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

// handleAutomationStart asks the automation process to start its send
// loop.
func (s *Server) handleAutomationStart(w http.ResponseWriter, r *http.Request) {
	if err := s.auto.Start(r.Context()); err != nil {
		httputil.BadGateway(w, err.Error())
		return
	}
	logger.Info("automation: start requested")
	httputil.OK(w, map[string]string{"status": "started"})
}

// handleAutomationStop asks the automation process to stop after the
// current cycle.
func (s *Server) handleAutomationStop(w http.ResponseWriter, r *http.Request) {
	if err := s.auto.Stop(r.Context()); err != nil {
		httputil.BadGateway(w, err.Error())
		return
	}
	logger.Info("automation: stop requested")
	httputil.OK(w, map[string]string{"status": "stopping"})
}

// handleAutomationStatus reads the automation loop state.
func (s *Server) handleAutomationStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.auto.GetStatus(r.Context())
	if err != nil {
		httputil.BadGateway(w, err.Error())
		return
	}
	httputil.OK(w, st)
}

// handleProxy forwards a request verbatim to the database API and
// relays status and body back, so the console's CRUD panels need no
// per-resource handlers here.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/proxy/")

	status, body, err := s.store.Proxy(r.Context(), r.Method, path, r.URL.RawQuery, r.Body)
	if err != nil {
		httputil.BadGateway(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.Debug("proxy: writing response", "error", err)
	}
}
