package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func runHealth(t *testing.T, backend string, p Pinger) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)
	if err := HealthHandler(backend, p)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	return rec.Code, body
}

func TestHealthHandler_Memory(t *testing.T) {
	code, body := runHealth(t, "memory", nil)
	if code != http.StatusOK || body["status"] != "healthy" || body["backend"] != "memory" {
		t.Errorf("unexpected %d %v", code, body)
	}
}

func TestHealthHandler_Healthy(t *testing.T) {
	code, body := runHealth(t, "redis", fakePinger{})
	if code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("unexpected %d %v", code, body)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	code, body := runHealth(t, "redis", fakePinger{err: errors.New("connection refused")})
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", code)
	}
	if body["error"] != "connection refused" {
		t.Errorf("unexpected error field %v", body["error"])
	}
}
