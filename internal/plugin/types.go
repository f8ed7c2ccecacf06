// Package plugin runs external action plugins when gestures fire. A plugin
// is a directory holding a plugin.json manifest and an executable that reads
// one JSON Request on stdin and writes one JSON Response on stdout.
package plugin

import (
	"encoding/json"
	"time"
)

// Manifest describes a plugin and the actions it supports.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Position is the head-relative hand position at the moment a gesture fired.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action    string          `json:"action"`
	Gesture   string          `json:"gesture"`
	SessionID string          `json:"session_id"`
	FiredAt   time.Time       `json:"fired_at"`
	Position  Position        `json:"position"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Binding maps a gesture name to a plugin action.
type Binding struct {
	Gesture string
	Plugin  string
	Action  string
	Params  json.RawMessage
}
