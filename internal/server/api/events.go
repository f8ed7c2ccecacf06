package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/posebridge/internal/store"
)

// Event list limits.
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

// EventHandler lists recorded gesture events.
type EventHandler struct {
	ctl   Controller
	store *store.Store
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(ctl Controller, s *store.Store) *EventHandler {
	return &EventHandler{ctl: ctl, store: s}
}

type eventResponse struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Name      string     `json:"name"`
	Distance  float64    `json:"distance"`
	Position  [3]float64 `json:"position"`
	FiredAt   string     `json:"fired_at"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

type countsResponse struct {
	SessionID string         `json:"session_id"`
	Counts    map[string]int `json:"counts"`
}

// ServeHTTP handles GET /api/events and GET /api/events/counts.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/events":
		h.list(w, r)
	case "/api/events/counts":
		h.counts(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *EventHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := DefaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxEventLimit)
	}

	events, err := h.store.Events().ListRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	response := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		response.Events = append(response.Events, eventResponse{
			ID:        e.ID,
			SessionID: e.SessionID,
			Name:      e.Name,
			Distance:  e.Distance,
			Position:  [3]float64{e.X, e.Y, e.Z},
			FiredAt:   e.FiredAt.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *EventHandler) counts(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = h.ctl.SessionID()
	}

	counts, err := h.store.Events().CountByName(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	writeJSON(w, http.StatusOK, countsResponse{SessionID: sessionID, Counts: counts})
}
