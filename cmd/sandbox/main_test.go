package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, fs, err := parseFlags([]string{"--backend", "opengl", "-p", "--log-level", "debug"})
	require.NoError(t, err)
	assert.Equal(t, "opengl", opts.backend)
	assert.True(t, opts.profile)
	assert.Equal(t, slog.LevelDebug, opts.logLevel)
	assert.True(t, fs.Changed("backend"))
	assert.False(t, fs.Changed("config"))

	_, _, err = parseFlags([]string{"--log-level", "loud"})
	assert.ErrorContains(t, err, "--log-level")

	_, _, err = parseFlags([]string{"--fullscreen"})
	assert.Error(t, err)
}

func TestLoadConfigAppliesOnlyChangedFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandbox.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nbackend = \"opengl\"\n[engine]\nprofiling = true\n"), 0o644))

	opts, fs, err := parseFlags([]string{"--config", path})
	require.NoError(t, err)
	cfg, err := loadConfig(opts, fs)
	require.NoError(t, err)
	assert.Equal(t, "opengl", cfg.Renderer.Backend)
	assert.True(t, cfg.Engine.Profiling)

	opts, fs, err = parseFlags([]string{"--config", path, "--backend", "wgpu", "--profile=false"})
	require.NoError(t, err)
	cfg, err = loadConfig(opts, fs)
	require.NoError(t, err)
	assert.Equal(t, "wgpu", cfg.Renderer.Backend)
	assert.False(t, cfg.Engine.Profiling)

	opts, fs, err = parseFlags([]string{"--backend", "metal"})
	require.NoError(t, err)
	_, err = loadConfig(opts, fs)
	assert.ErrorContains(t, err, `unknown renderer backend "metal"`)
}

func TestClientAPIFor(t *testing.T) {
	assert.Equal(t, window.ClientAPIOpenGL, clientAPIFor(renderer.BackendTypeOpenGL))
	assert.Equal(t, window.ClientAPIWebGPU, clientAPIFor(renderer.BackendTypeWGPU))
}
