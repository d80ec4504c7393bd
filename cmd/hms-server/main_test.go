package main

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/config"
	"github.com/hospital/hms/internal/platform/auth"
)

func TestResolveSigningKey_FromEnv(t *testing.T) {
	want := make([]byte, 32)
	for i := range want {
		want[i] = byte(i)
	}
	hexStr := hex.EncodeToString(want)

	key, random, err := resolveSigningKey(hexStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if random {
		t.Error("expected random=false when the env var is set")
	}
	if hex.EncodeToString(key) != hexStr {
		t.Errorf("key mismatch: got %x, want %x", key, want)
	}
}

func TestResolveSigningKey_InvalidHex(t *testing.T) {
	if _, _, err := resolveSigningKey("not-valid-hex!!!"); err == nil {
		t.Fatal("expected error for invalid hex")
	}
}

func TestResolveSigningKey_Random(t *testing.T) {
	key, random, err := resolveSigningKey("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !random || len(key) != 32 {
		t.Errorf("expected a random 32-byte key, got %d bytes (random=%v)", len(key), random)
	}
	key2, _, _ := resolveSigningKey("")
	if hex.EncodeToString(key) == hex.EncodeToString(key2) {
		t.Error("two random keys should differ")
	}
}

func TestRateLimitConfig(t *testing.T) {
	rl := rateLimitConfig(&config.Config{})
	if rl.RequestsPerSecond != 50 || rl.BurstSize != 100 {
		t.Errorf("expected defaults, got %+v", rl)
	}
	rl = rateLimitConfig(&config.Config{RateLimitRPS: 5, RateLimitBurst: 7})
	if rl.RequestsPerSecond != 5 || rl.BurstSize != 7 {
		t.Errorf("expected overrides, got %+v", rl)
	}
}

func TestNewEcho_ProductionRequiresToken(t *testing.T) {
	cfg := &config.Config{Env: "production", RequestTimeout: time.Second}
	jwtCfg := auth.JWTConfig{SigningKey: []byte("0123456789abcdef0123456789abcdef"), Skipper: auth.AuthSkipper}
	e := newEcho(cfg, jwtCfg, zerolog.Nop())
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/api/patients", func(c echo.Context) error { return c.String(http.StatusOK, "[]") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health should be public, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set(auth.LegacyRoleHeader, "admin")
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("role header must not authenticate in production, got %d", rec.Code)
	}
}

func TestNewEcho_DevelopmentNeedsRoleHeader(t *testing.T) {
	cfg := &config.Config{Env: "development", RequestTimeout: time.Second}
	jwtCfg := auth.JWTConfig{SigningKey: []byte("0123456789abcdef0123456789abcdef"), Skipper: auth.AuthSkipper}
	e := newEcho(cfg, jwtCfg, newLogger(cfg))
	e.DELETE("/api/admin/staff/:id", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/staff/x", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without role header, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/staff/x", nil)
	req.Header.Set(auth.LegacyRoleHeader, "admin")
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 with role header, got %d", rec.Code)
	}
}
