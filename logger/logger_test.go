package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"development", "production", "PROD", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l)
	}
}

func TestWithFallback_UnbuildableConfig(t *testing.T) {
	cfg := configFor("production")
	cfg.OutputPaths = []string{filepath.Join(t.TempDir(), "missing", "dir", "app.log")}

	l, err := build(cfg)
	require.Error(t, err)
	assert.Nil(t, l)

	l = withFallback(build(cfg))
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Info("still logging", "mode", "fallback") })
}

func TestNewWithFallback(t *testing.T) {
	assert.NotNil(t, NewWithFallback("development"))
}
