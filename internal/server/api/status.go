package api

import (
	"encoding/json"
	"net/http"
)

// StatusHandler serves the bridge status and the streaming toggle.
type StatusHandler struct {
	ctl Controller
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(ctl Controller) *StatusHandler {
	return &StatusHandler{ctl: ctl}
}

type streamingRequest struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET /api/status and PUT /api/streaming.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/status" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctl.Status())

	case r.URL.Path == "/api/streaming" && r.Method == http.MethodPut:
		var req streamingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.ctl.SetStreaming(*req.Enabled)
		writeJSON(w, http.StatusOK, h.ctl.Status())

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
