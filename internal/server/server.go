// Package server provides the HTTP control API and live frame telemetry.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/posebridge/internal/server/api"
	"github.com/ayusman/posebridge/internal/store"
)

// Config holds the server configuration. Controller is required for the
// status and calibration endpoints, Store for the history endpoints.
type Config struct {
	StaticDir  string
	Controller api.Controller
	Store      *store.Store
	Frames     *FrameHub
}

// Server is the HTTP server for the bridge.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Controller != nil {
		status := api.NewStatusHandler(s.config.Controller)
		s.mux.Handle("/api/status", status)
		s.mux.Handle("/api/streaming", status)
		s.mux.Handle("/api/calibration", api.NewCalibrationHandler(s.config.Controller, s.config.Store))

		if s.config.Store != nil {
			events := api.NewEventHandler(s.config.Controller, s.config.Store)
			s.mux.Handle("/api/events", events)
			s.mux.Handle("/api/events/", events)
		}
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/frames", s.config.Frames)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
