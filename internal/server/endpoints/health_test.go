package endpoints

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpointRoute(t *testing.T) {
	e := &HealthEndpoint{}
	method, path, _ := e.Route()
	if method != "GET" || path != "/health" {
		t.Errorf("Route() = (%q, %q), want (GET, /health)", method, path)
	}
	if e.RequiresInit() {
		t.Error("HealthEndpoint.RequiresInit() = true, want false")
	}
}

func TestHealthEndpointHandlerReturnsOK(t *testing.T) {
	e := &HealthEndpoint{}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	e.handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}`+"\n" {
		t.Errorf("body = %q, want %q", got, `{"status":"ok"}`+"\n")
	}
}
