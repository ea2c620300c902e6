package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/osteele/liquid"

	"github.com/vitrine/dmconsole/internal/pkg/httputil"
)

var previewEngine = liquid.NewEngine()

type previewRequest struct {
	Text     string         `json:"text"`
	Bindings map[string]any `json:"bindings"`
}

type previewResponse struct {
	Rendered string   `json:"rendered"`
	Parts    []string `json:"parts"`
}

// handleTemplatePreview renders a message template against sample
// bindings. A ";" in the rendered text splits the message into the
// separate sends the automation process would make.
func (s *Server) handleTemplatePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.BadRequest(w, "template text is required")
		return
	}

	rendered, err := previewEngine.ParseAndRenderString(req.Text, req.Bindings)
	if err != nil {
		httputil.BadRequest(w, "template error: "+err.Error())
		return
	}

	httputil.OK(w, previewResponse{
		Rendered: rendered,
		Parts:    splitParts(rendered),
	})
}

// splitParts breaks a rendered message on ";" into trimmed, non-empty
// message parts.
func splitParts(rendered string) []string {
	parts := make([]string, 0, 2)
	for _, p := range strings.Split(rendered, ";") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
