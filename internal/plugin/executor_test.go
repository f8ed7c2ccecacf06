package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeScriptPlugin writes an executable shell script plugin into dir.
func writeScriptPlugin(t *testing.T, dir, name, script string, actions ...string) *Plugin {
	t.Helper()

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	scriptPath := filepath.Join(pluginDir, "run.sh")
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Actions:    actions,
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return &Plugin{Manifest: manifest, Path: pluginDir, Executable: scriptPath}
}

func TestExecutor_Execute(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	plugin := writeScriptPlugin(t, t.TempDir(), "notify", `#!/bin/sh
echo '{"success":true,"data":{"message":"shown"}}'
`, "toast")

	executor := NewExecutor(5000)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action:  "toast",
		Gesture: "pipboy",
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("expected success=true, got false")
	}

	var data map[string]string
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "shown" {
		t.Errorf("expected message 'shown', got %q", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	// Echo the request back as the response data.
	plugin := writeScriptPlugin(t, t.TempDir(), "echo", `#!/bin/sh
input=$(cat)
printf '{"success":true,"data":%s}' "$input"
`, "echo")

	req := &Request{
		Action:    "echo",
		Gesture:   "pause",
		SessionID: "session-1",
		Position:  Position{X: 0.1, Y: -0.2, Z: 0.3},
		Params:    json.RawMessage(`{"key":"F5"}`),
	}

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, req)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var got Request
	if err := json.Unmarshal(response.Data, &got); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if got.Gesture != "pause" || got.SessionID != "session-1" {
		t.Errorf("echoed request = %+v", got)
	}
	if got.Position != req.Position {
		t.Errorf("position = %+v, want %+v", got.Position, req.Position)
	}
	if string(got.Params) != `{"key":"F5"}` {
		t.Errorf("params = %s", got.Params)
	}
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	plugin := writeScriptPlugin(t, t.TempDir(), "slow", `#!/bin/sh
exec sleep 5
`, "wait")

	start := time.Now()
	_, err := NewExecutor(100).Execute(context.Background(), plugin, &Request{Action: "wait"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("execution took %v, expected the timeout to cut it short", elapsed)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	plugin := writeScriptPlugin(t, t.TempDir(), "broken", `#!/bin/sh
echo '{"success":false,"error":"no such key"}'
`, "press")

	response, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "press"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Error != "no such key" {
		t.Errorf("expected error 'no such key', got %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	plugin := writeScriptPlugin(t, t.TempDir(), "garbage", `#!/bin/sh
echo 'not json'
`, "press")

	_, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "press"})
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to parse plugin response") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	plugin := writeScriptPlugin(t, t.TempDir(), "crash", `#!/bin/sh
echo 'boom' >&2
exit 1
`, "press")

	_, err := NewExecutor(5000).Execute(context.Background(), plugin, &Request{Action: "press"})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(1500)
	if executor.timeout != 1500*time.Millisecond {
		t.Errorf("timeout = %v, want 1.5s", executor.timeout)
	}
}
