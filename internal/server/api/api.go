// Package api provides the HTTP handlers for the bridge control API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/posebridge/internal/app"
)

// Controller is the running bridge as driven by the API.
type Controller interface {
	Status() app.Status
	SessionID() string
	RequestZero()
	RequestResetCalibration()
	SetStreaming(enabled bool)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
