package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-sphere/pkg/figures"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	reg, err := figures.NewRegistry(figures.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return NewServer(opts, reg, nil)
}

func get(t *testing.T, s *Server, path string) (int, string) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRoutes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>sphere</h1>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := newTestServer(t, Options{Version: "v1.2.3", StaticDir: dir})

	// Hit the API once so the request histogram has a series.
	get(t, s, "/api/figures")

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/healthz", 200, `"status":"ok"`},
		{"/api/status", 200, `"version":"v1.2.3"`},
		{"/api/figures", 200, `"default"`},
		{"/api/config", 200, `"expression"`},
		{"/api/figures/missing", 404, "not found"},
		{"/metrics", 200, "sphere_http_request_duration_seconds"},
		{"/", 200, "<h1>sphere</h1>"},
		{"/nothing-here", 404, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, s, tt.path)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", status, tt.wantStatus, body)
			}
			if !strings.Contains(body, tt.wantBody) {
				t.Errorf("body does not contain %q: %.200s", tt.wantBody, body)
			}
		})
	}
}

func TestMetricsExposeFigures(t *testing.T) {
	s := newTestServer(t, Options{})

	// Let the default figure tick a few times.
	time.Sleep(100 * time.Millisecond)
	_, body := get(t, s, "/metrics")
	for _, want := range []string{"sphere_active_figures", `sphere_animator_ticks_total{figure="default"}`} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics lack %s", want)
		}
	}
}

func TestRequestMetricsSkipSockets(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{"/ws/figures/default/view", "/ws/figures/default/control", "/healthz"} {
		get(t, s, path)
	}
	_, body := get(t, s, "/metrics")
	if !strings.Contains(body, `route="/healthz"`) {
		t.Error("plain route was not recorded")
	}
	if strings.Contains(body, `route="/ws`) {
		t.Errorf("socket route recorded in request metrics")
	}
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(t, Options{})
	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("no Access-Control-Allow-Origin header")
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, Options{Addr: ":18099"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://localhost:18099/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
