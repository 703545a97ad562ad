package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("USE_MOCK", "")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "")
	t.Setenv("SESSION_BACKEND", "")

	cfg := Load()

	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.UseMock {
		t.Error("UseMock should default to false")
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	if cfg.SessionBackend != SessionBackendFile {
		t.Errorf("SessionBackend = %q, want %q", cfg.SessionBackend, SessionBackendFile)
	}
	if cfg.SessionFile == "" {
		t.Error("SessionFile should have a default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://lc.example.com/api/")
	t.Setenv("USE_MOCK", "true")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("SESSION_BACKEND", SessionBackendRedis)
	t.Setenv("JWT_EXPIRY_HOURS", "2")

	cfg := Load()

	if cfg.APIBaseURL != "https://lc.example.com/api" {
		t.Errorf("trailing slash not trimmed: %q", cfg.APIBaseURL)
	}
	if !cfg.UseMock {
		t.Error("UseMock should be true")
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.SessionBackend != SessionBackendRedis {
		t.Errorf("SessionBackend = %q", cfg.SessionBackend)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("JWTExpiry = %v", cfg.JWTExpiry)
	}
}

func TestGetEnvBoolFallsBackOnGarbage(t *testing.T) {
	t.Setenv("LC_TEST_BOOL", "maybe")
	if got := getEnvBool("LC_TEST_BOOL", true); !got {
		t.Error("expected fallback true for unparsable value")
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"http://a.com", []string{"http://a.com"}},
		{" http://a.com , ,http://b.com ", []string{"http://a.com", "http://b.com"}},
	}
	for _, tt := range tests {
		if got := parseOrigins(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRedisKeyNamespace(t *testing.T) {
	if got := StorageKey.Redis(StorageKey.AccessToken); got != "langcenter:session:accessToken" {
		t.Errorf("Redis key = %q", got)
	}
}
