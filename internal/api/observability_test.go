package api

import (
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"arena/internal/config"
)

// TestDebugHandler tests health, frame rendering and 404s
func TestDebugHandler(t *testing.T) {
	h := NewDebugHandler(config.DefaultDebug(), newMockEngine())

	if rec := get(t, h, "/health"); rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("Unexpected health response: %d %q", rec.Code, rec.Body.String())
	}

	rec := get(t, h, "/debug/rooms/room1/frame.png?size=128")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("Expected PNG, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("Expected 128px frame, got %d", img.Bounds().Dx())
	}

	if rec := get(t, h, "/debug/rooms/room9/frame.png"); rec.Code != http.StatusNotFound {
		t.Errorf("Inactive room should 404, got %d", rec.Code)
	}
}

// TestDebugBasicAuth verifies credentials are enforced when configured
func TestDebugBasicAuth(t *testing.T) {
	cfg := config.DefaultDebug()
	cfg.BasicAuthUser = "ops"
	cfg.BasicAuthPass = "secret"
	h := NewDebugHandler(cfg, newMockEngine())

	if rec := get(t, h, "/health"); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without credentials, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.SetBasicAuth("ops", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with credentials, got %d", rec.Code)
	}
}

// TestDebugListenAddr verifies non-loopback addresses are forced local
func TestDebugListenAddr(t *testing.T) {
	t.Setenv("ALLOW_DEBUG_EXTERNAL", "")
	if got := debugListenAddr("127.0.0.1:7070"); got != "127.0.0.1:7070" {
		t.Errorf("Loopback address should be kept, got %s", got)
	}
	if got := debugListenAddr("0.0.0.0:6060"); got != "127.0.0.1:6060" {
		t.Errorf("External address should be forced local, got %s", got)
	}

	t.Setenv("ALLOW_DEBUG_EXTERNAL", "true")
	if got := debugListenAddr("0.0.0.0:6060"); got != "0.0.0.0:6060" {
		t.Errorf("Opt-in should allow external binding, got %s", got)
	}
}
