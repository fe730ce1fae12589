package config

import (
	"testing"
	"time"
)

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GEOPOD_HOST", "0.0.0.0")
	t.Setenv("GEOPOD_PORT", "8080")
	t.Setenv("GEOPOD_REDIS_ADDR", "redis:6379")
	t.Setenv("GEOPOD_LOG_CONSOLE", "true")
	t.Setenv("GEOPOD_CLEANUP_RETRY_DELAY", "250ms")

	cfg := FromEnv()
	if cfg.Server.InternalAddress != "0.0.0.0" {
		t.Fatalf("InternalAddress=%q", cfg.Server.InternalAddress)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("Port=%d", cfg.Server.Port)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("RedisAddr=%q", cfg.RedisAddr)
	}
	if !cfg.LogConsole {
		t.Fatal("LogConsole=false")
	}
	if cfg.CleanupRetryDelay != 250*time.Millisecond {
		t.Fatalf("CleanupRetryDelay=%v", cfg.CleanupRetryDelay)
	}
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("GEOPOD_PORT", "not-a-number")
	t.Setenv("GEOPOD_CLEANUP_RETRY_DELAY", "soon")

	cfg := FromEnv()
	if cfg.Server.Port != 3000 {
		t.Fatalf("Port=%d want default 3000", cfg.Server.Port)
	}
	if cfg.CleanupRetryDelay != 500*time.Millisecond {
		t.Fatalf("CleanupRetryDelay=%v want default", cfg.CleanupRetryDelay)
	}
}

func TestServerConfig_BindAddr(t *testing.T) {
	s := ServerConfig{InternalAddress: "127.0.0.1", Port: 3000}
	if got := s.BindAddr(); got != "127.0.0.1:3000" {
		t.Fatalf("BindAddr=%q", got)
	}
}

func TestServerConfig_ExternalURL(t *testing.T) {
	cases := []struct {
		name string
		s    ServerConfig
		want string
	}{
		{
			name: "bare host gets scheme and port",
			s:    ServerConfig{ExternalAddress: "example.org", Port: 3000, APIPath: "/v1"},
			want: "http://example.org:3000/v1",
		},
		{
			name: "scheme-prefixed address used as-is",
			s:    ServerConfig{ExternalAddress: "https://geo.example.org", Port: 3000, APIPath: "/v1"},
			want: "https://geo.example.org/v1",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.s.ExternalURL(); got != tc.want {
				t.Fatalf("ExternalURL=%q want %q", got, tc.want)
			}
		})
	}
}
