package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	writeScriptPlugin(t, dir, "keyboard", "#!/bin/sh\n", "press", "type")

	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	p := plugins[0]
	if p.Manifest.Name != "keyboard" {
		t.Errorf("expected plugin name 'keyboard', got %q", p.Manifest.Name)
	}
	if p.Executable != filepath.Join(dir, "keyboard", "run.sh") {
		t.Errorf("unexpected executable path %q", p.Executable)
	}
	if !p.Manifest.Supports("type") || p.Manifest.Supports("scroll") {
		t.Errorf("unexpected action support for %v", p.Manifest.Actions)
	}
}

func TestManager_Discover_MultiplePlugins(t *testing.T) {
	dir := t.TempDir()
	writeScriptPlugin(t, dir, "zeta", "#!/bin/sh\n", "a")
	writeScriptPlugin(t, dir, "alpha", "#!/bin/sh\n", "b")

	// Stray files next to plugin directories are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "alpha" || plugins[1].Manifest.Name != "zeta" {
		t.Errorf("expected sorted names, got %q, %q", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}
}

func TestManager_Discover_EmptyDir(t *testing.T) {
	manager := NewManager(t.TempDir())
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Errorf("expected no plugins")
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing"))
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Errorf("expected no plugins")
	}

	if err := NewManager("").Discover(); err != nil {
		t.Fatalf("Discover() with no directory failed: %v", err)
	}
}

func TestManager_Discover_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad")
	if err := os.MkdirAll(bad, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(bad, "plugin.json"), []byte("{"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	writeScriptPlugin(t, dir, "good", "#!/bin/sh\n", "a")

	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(manager.List()) != 1 {
		t.Errorf("expected only the valid plugin, got %d", len(manager.List()))
	}
}

func TestManager_Get(t *testing.T) {
	dir := t.TempDir()
	writeScriptPlugin(t, dir, "keyboard", "#!/bin/sh\n", "press")

	manager := NewManager(dir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	p, err := manager.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if p.Path != filepath.Join(dir, "keyboard") {
		t.Errorf("unexpected path %q", p.Path)
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_PluginDir(t *testing.T) {
	if got := NewManager("/opt/plugins").PluginDir(); got != "/opt/plugins" {
		t.Errorf("PluginDir() = %q", got)
	}
}
