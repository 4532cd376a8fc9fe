package http

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

func newHealthApp() *fiber.App {
	app := fiber.New()
	NewHealthHandler(nil, nil, nil).Register(app)
	return app
}

func TestHealthHandler_Health(t *testing.T) {
	app := newHealthApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	var body struct {
		Status string `json:"status"`
	}
	decodeBody(t, resp.Body, &body)
	if body.Status != "ok" {
		t.Errorf("status field = %q, want %q", body.Status, "ok")
	}
}

func TestHealthHandler_ReadyWithoutBackends(t *testing.T) {
	app := newHealthApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// Unconfigured backends are reported, not treated as failures.
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeBody(t, resp.Body, &body)
	if body.Status != "ready" {
		t.Errorf("status field = %q, want %q", body.Status, "ready")
	}
	for _, name := range []string{"postgres", "redis", "mongodb"} {
		if body.Checks[name] != "not configured" {
			t.Errorf("checks[%s] = %q, want %q", name, body.Checks[name], "not configured")
		}
	}
}

func TestHealthHandler_StatsWithoutPool(t *testing.T) {
	app := newHealthApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/health/stats", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
	}

	var body struct {
		Database any `json:"database"`
	}
	decodeBody(t, resp.Body, &body)
	if msg, ok := body.Database.(string); !ok || msg != "not configured" {
		t.Errorf("database field = %v, want %q", body.Database, "not configured")
	}
}

func decodeBody(t *testing.T, r io.Reader, v any) {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode body %q: %v", data, err)
	}
}
