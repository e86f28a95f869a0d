package figures

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-sphere/pkg/protocol"
)

func newTestApp(t *testing.T) (*Registry, *fiber.App) {
	t.Helper()
	r := newTestRegistry(t)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	r.RegisterRoutes(app)
	r.RegisterAPIRoutes(app.Group("/api"))
	return r, app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestAPIRoutes(t *testing.T) {
	_, app := newTestApp(t)

	tests := []struct {
		name, method, path, body string
		wantStatus               int
		wantBody                 string
	}{
		{"list", "GET", "/api/figures", "", 200, `"count":1`},
		{"stats", "GET", "/api/figures/stats", "", 200, `"figures":1`},
		{"default detail", "GET", "/api/figures/default", "", 200, `"layout"`},
		{"missing detail", "GET", "/api/figures/nope", "", 404, "figure not found"},
		{"delete default", "DELETE", "/api/figures/default", "", 409, "cannot be removed"},
		{"delete missing", "DELETE", "/api/figures/nope", "", 404, "figure not found"},
		{"negative size", "POST", "/api/figures", `{"size":-1}`, 400, "negative"},
		{"bad json", "POST", "/api/figures", `{"size":`, 400, "error"},
		{"samples", "POST", "/api/figures/default/samples", `{"values":[0.5]}`, 202, "queued"},
		{"samples at limit", "POST", "/api/figures/default/samples", `{"values":[` + strings.Repeat("0,", protocol.MaxSamples-1) + `0]}`, 202, "queued"},
		{"samples over limit", "POST", "/api/figures/default/samples", `{"values":[` + strings.Repeat("0,", protocol.MaxSamples) + `0]}`, 400, "exceeds"},
		{"samples missing", "POST", "/api/figures/nope/samples", `{"values":[0.5]}`, 404, "not found"},
		{"reset", "POST", "/api/figures/default/reset", "", 202, "queued"},
		{"config", "GET", "/api/config", "", 200, `"smoothing_factor":0.3`},
		{"ws without upgrade", "GET", "/ws/figures/default/view", "", 426, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", status, tt.wantStatus, body)
			}
			if !strings.Contains(string(body), tt.wantBody) {
				t.Errorf("body %s does not contain %q", body, tt.wantBody)
			}
		})
	}
}

func TestAPICreateAndDelete(t *testing.T) {
	r, app := newTestApp(t)

	status, body := do(t, app, "POST", "/api/figures", `{"size":300}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d: %s", status, body)
	}
	var detail Detail
	if err := json.Unmarshal(body, &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Size != 300 || detail.Layout.HeadRadius != 120 {
		t.Errorf("detail = %+v, want size 300 with head radius 120", detail.Info)
	}

	status, _ = do(t, app, "POST", "/api/figures", "")
	if status != fiber.StatusCreated {
		t.Errorf("create without body status = %d", status)
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}

	if status, body := do(t, app, "DELETE", "/api/figures/"+detail.ID, ""); status != fiber.StatusNoContent {
		t.Errorf("delete status = %d: %s", status, body)
	}
	if status, _ := do(t, app, "GET", "/api/figures/"+detail.ID, ""); status != fiber.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", status)
	}
}

func TestAPISamplesMoveTheMouth(t *testing.T) {
	r, app := newTestApp(t)

	deadline := time.Now().Add(2 * time.Second)
	for r.Default().Animator().Frame().SmoothedAmplitude < 0.5 {
		if time.Now().After(deadline) {
			t.Fatal("mouth never opened")
		}
		if status, body := do(t, app, "POST", "/api/figures/default/samples", `{"values":[0,1]}`); status != 202 {
			t.Fatalf("samples status = %d: %s", status, body)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
