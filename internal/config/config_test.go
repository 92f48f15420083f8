package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, BackendMemory, cfg.StorageBackend)
	require.Equal(t, 10*time.Second, cfg.APITimeout)
	require.Equal(t, 2*time.Second, cfg.StorageTimeout)
	require.Equal(t, "100", cfg.GuestShippingCost.String())
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	require.Equal(t, time.Minute, cfg.SessionSweep)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("STOREFRONT_API_URL", "https://shop.example.com/api/")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("GUEST_SHIPPING_COST", "49.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_IDLE_TIMEOUT", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "https://shop.example.com/api", cfg.APIBaseURL)
	require.Equal(t, BackendRedis, cfg.StorageBackend)
	require.Equal(t, 3*time.Second, cfg.APITimeout)
	require.Equal(t, "49.5", cfg.GuestShippingCost.String())
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, 2*time.Hour, cfg.SessionIdleTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":  {},
		"unknown backend": {"JWT_SECRET": "x", "STORAGE_BACKEND": "etcd"},
		"bad duration":    {"JWT_SECRET": "x", "API_TIMEOUT": "soon"},
		"negative cost":   {"JWT_SECRET": "x", "GUEST_SHIPPING_COST": "-1"},
		"bad level":       {"JWT_SECRET": "x", "LOG_LEVEL": "loud"},
		"zero sweep":      {"JWT_SECRET": "x", "SESSION_SWEEP_INTERVAL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
