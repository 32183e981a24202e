package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 256, cfg.MaxBatchRounds)
	require.False(t, cfg.DebugIncludeMessage)
	require.False(t, cfg.DebugIncludeTrace)
}

func TestOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DEBUG_INCLUDE_MESSAGE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	require.True(t, cfg.DebugIncludeMessage)
}
