package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/posebridge/internal/app"
	"github.com/ayusman/posebridge/internal/store"
)

type stubController struct {
	zeros int
}

func (c *stubController) Status() app.Status       { return app.Status{SessionID: "s1", State: app.StateIdle} }
func (c *stubController) SessionID() string        { return "s1" }
func (c *stubController) RequestZero()             { c.zeros++ }
func (c *stubController) RequestResetCalibration() {}
func (c *stubController) SetStreaming(bool)        {}

func TestServer_Health(t *testing.T) {
	s := New(Config{})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}

		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()

			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create a test HTML file
	testContent := "<html><body>posebridge</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Create a CSS file for testing direct file access
	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != cssContent {
			t.Errorf("expected body %q, got %q", cssContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}

func TestServer_Routes(t *testing.T) {
	ctl := &stubController{}

	t.Run("control routes without store", func(t *testing.T) {
		s := New(Config{Controller: ctl})

		tests := []struct {
			method string
			path   string
			want   int
		}{
			{http.MethodGet, "/api/status", http.StatusOK},
			{http.MethodPost, "/api/calibration", http.StatusAccepted},
			{http.MethodGet, "/api/calibration", http.StatusNotFound},
			{http.MethodGet, "/api/events", http.StatusNotFound},
			{http.MethodGet, "/api/frames", http.StatusNotFound},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, rec.Code)
			}
		}
		if ctl.zeros != 1 {
			t.Errorf("expected one zero request, got %d", ctl.zeros)
		}
	})

	t.Run("history routes with store", func(t *testing.T) {
		st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		defer st.Close()

		s := New(Config{Controller: ctl, Store: st})
		for _, path := range []string{"/api/events", "/api/events/counts"} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Errorf("GET %s: expected status %d, got %d", path, http.StatusOK, rec.Code)
			}
		}
	})
}

func TestFrameHub_Broadcast(t *testing.T) {
	hub := NewFrameHub(10)
	ts := httptest.NewServer(New(Config{Frames: hub}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/frames"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	hub.Publish(app.Frame{Seq: 1, Time: start})
	// Within the rate limit: dropped unless a gesture fired.
	hub.Publish(app.Frame{Seq: 2, Time: start.Add(10 * time.Millisecond)})
	hub.Publish(app.Frame{Seq: 3, Time: start.Add(20 * time.Millisecond), Gestures: []string{"pause"}})
	hub.Publish(app.Frame{Seq: 4, Time: start.Add(200 * time.Millisecond)})

	var got []uint64
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for len(got) < 3 {
		var f app.Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read failed after %v: %v", got, err)
		}
		got = append(got, f.Seq)
	}

	want := []uint64{1, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected frames %v, got %v", want, got)
		}
	}
}

func TestFrameHub_NoClients(t *testing.T) {
	hub := NewFrameHub(0)
	if hub.minInterval != time.Second/DefaultFrameRate {
		t.Errorf("unexpected interval %v", hub.minInterval)
	}
	// Publishing without clients must not block or panic.
	hub.Publish(app.Frame{Seq: 1, Time: time.Now()})
}
