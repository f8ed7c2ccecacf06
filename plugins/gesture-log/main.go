// Command gesture-log is a bridge plugin that appends every gesture it is
// sent to a JSON-lines file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/posebridge/internal/plugin"
)

// appendParams defines parameters for the append action.
type appendParams struct {
	Path string `json:"path"`
}

type entry struct {
	Gesture   string          `json:"gesture"`
	SessionID string          `json:"session_id"`
	FiredAt   string          `json:"fired_at"`
	Position  plugin.Position `json:"position"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "append":
		if err := handleAppend(req); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

func handleAppend(req plugin.Request) error {
	var p appendParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return fmt.Errorf("failed to parse params: %w", err)
		}
	}
	if p.Path == "" {
		return fmt.Errorf("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(p.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(entry{
		Gesture:   req.Gesture,
		SessionID: req.SessionID,
		FiredAt:   req.FiredAt.Format("2006-01-02T15:04:05.000Z07:00"),
		Position:  req.Position,
	})
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(plugin.Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(plugin.Response{Success: true})
}
