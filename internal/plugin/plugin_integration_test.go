package plugin

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// buildGestureLog compiles plugins/gesture-log into a fresh plugin directory.
func buildGestureLog(t *testing.T) string {
	t.Helper()

	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not available")
	}

	src, err := filepath.Abs(filepath.Join("..", "..", "plugins", "gesture-log"))
	if err != nil {
		t.Fatalf("failed to resolve plugin source: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "gesture-log")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	exe := "gesture-log"
	if runtime.GOOS == "windows" {
		exe += ".exe"
	}
	build := exec.Command(goBin, "build", "-o", filepath.Join(dir, exe), ".")
	build.Dir = src
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build plugin: %v\n%s", err, out)
	}

	manifest, err := os.ReadFile(filepath.Join(src, "plugin.json"))
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(manifest, &m); err != nil {
		t.Fatalf("failed to parse manifest: %v", err)
	}
	m.Executable = exe
	manifest, _ = json.Marshal(m)
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return filepath.Dir(dir)
}

func TestPlugin_GestureLog_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	mgr := NewManager(buildGestureLog(t))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	plug, err := mgr.Get("gesture-log")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	logPath := filepath.Join(t.TempDir(), "events", "gestures.jsonl")
	params, _ := json.Marshal(map[string]string{"path": logPath})
	executor := NewExecutor(10000)

	for _, name := range []string{"pipboy", "pause"} {
		resp, err := executor.Execute(context.Background(), plug, &Request{
			Action:    "append",
			Gesture:   name,
			SessionID: "session-1",
			FiredAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Position:  Position{X: 0.12, Y: 0.24, Z: -0.29},
			Params:    params,
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !resp.Success {
			t.Fatalf("expected success, got error %q", resp.Error)
		}
	}

	f, err := os.Open(logPath)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line struct {
			Gesture string `json:"gesture"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("invalid log line %q: %v", scanner.Text(), err)
		}
		names = append(names, line.Gesture)
	}
	if len(names) != 2 || names[0] != "pipboy" || names[1] != "pause" {
		t.Errorf("unexpected log entries %v", names)
	}

	// Missing path parameter is reported by the plugin, not the executor.
	resp, err := executor.Execute(context.Background(), plug, &Request{Action: "append", Gesture: "pause"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success {
		t.Error("expected failure without a path")
	}
}
