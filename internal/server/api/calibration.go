package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/posebridge/internal/store"
)

// CalibrationHandler requests recalibration and reports the stored offset.
type CalibrationHandler struct {
	ctl   Controller
	store *store.Store
}

// NewCalibrationHandler creates a CalibrationHandler. The store may be nil,
// in which case GET always reports no calibration.
func NewCalibrationHandler(ctl Controller, s *store.Store) *CalibrationHandler {
	return &CalibrationHandler{ctl: ctl, store: s}
}

type calibrationResponse struct {
	SessionID string     `json:"session_id"`
	Offset    [3]float64 `json:"offset"`
	Source    string     `json:"source"`
	CreatedAt string     `json:"created_at"`
}

type pendingResponse struct {
	Status string `json:"status"`
}

// ServeHTTP handles /api/calibration.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.latest(w, r)
	case http.MethodPost:
		h.ctl.RequestZero()
		writeJSON(w, http.StatusAccepted, pendingResponse{Status: "zero requested"})
	case http.MethodDelete:
		h.ctl.RequestResetCalibration()
		writeJSON(w, http.StatusAccepted, pendingResponse{Status: "reset requested"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// latest returns the newest stored calibration of the current session, or
// of any session with ?session=all.
func (h *CalibrationHandler) latest(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "No calibration recorded")
		return
	}

	sessionID := h.ctl.SessionID()
	if r.URL.Query().Get("session") == "all" {
		sessionID = ""
	}

	c, err := h.store.Calibrations().Latest(sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No calibration recorded")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get calibration")
		return
	}

	writeJSON(w, http.StatusOK, calibrationResponse{
		SessionID: c.SessionID,
		Offset:    [3]float64{c.X, c.Y, c.Z},
		Source:    c.Source,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
