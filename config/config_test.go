package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	backend, err := cfg.BackendType()
	require.NoError(t, err)
	assert.Equal(t, renderer.BackendTypeWGPU, backend)

	mode, err := cfg.PresentMode()
	require.NoError(t, err)
	assert.Equal(t, renderer.PresentModeVSync, mode)

	interval, err := cfg.ProfileInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Second, interval)
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	src := `
[window]
width = 800

[renderer]
backend = "opengl"
clear_color = [0.0, 0.0, 0.0, 1.0]

[camera]
position = [1.0, 2.0, 3.0]
zoom = 30.0

[lines]
capacity = 4096
enabled = false
alpha = 0.5

[engine]
profiling = true
frame_limit = 60
`
	cfg, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep their defaults")
	assert.Equal(t, "opengl", cfg.Renderer.Backend)
	assert.Equal(t, 0.5, cfg.Lines.Alpha)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, cfg.Renderer.ClearColor)
	assert.Equal(t, [3]float32{1, 2, 3}, cfg.Camera.Position)
	assert.InDelta(t, 30.0, cfg.Camera.Zoom, 1e-6)
	assert.InDelta(t, -90.0, cfg.Camera.Yaw, 1e-6)
	assert.Equal(t, 4096, cfg.Lines.Capacity)
	assert.False(t, cfg.Lines.Enabled)
	assert.True(t, cfg.Engine.Profiling)
	assert.Equal(t, 60, cfg.Engine.FrameLimit)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[window]\nfullscreen = true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fullscreen")
}

func TestDecodeReportsSyntaxPosition(t *testing.T) {
	_, err := Decode(strings.NewReader("[window]\nwidth = \n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestValidateJoinsEveryViolation(t *testing.T) {
	cfg := Default()
	cfg.Window.Width = 0
	cfg.Renderer.Backend = "vulkan"
	cfg.Renderer.PresentMode = "mailbox"
	cfg.Renderer.MSAA = 2
	cfg.Renderer.ClearColor[0] = 2
	cfg.Camera.Zoom = 90
	cfg.Camera.Near = 0
	cfg.Lines.Capacity = -1
	cfg.Lines.Alpha = 1.5
	cfg.Engine.FrameLimit = -5
	cfg.Engine.ProfileInterval = "soon"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"window: size 0x720",
		`unknown renderer backend "vulkan"`,
		`unknown present mode "mailbox"`,
		"msaa 2",
		"clear_color[0]",
		"zoom 90",
		"near 0",
		"capacity -1",
		"alpha 1.5",
		"frame_limit -5",
		"profile_interval",
	} {
		assert.Contains(t, msg, want)
	}
	assert.Len(t, strings.Split(msg, "\n"), 11)
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	dir := t.TempDir()
	path := filepath.Join(dir, "sandbox.toml")
	require.NoError(t, os.WriteFile(path, []byte("[lines]\ncapacity = -3\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "capacity -3")

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeRoundTrips(t *testing.T) {
	want := Default()
	want.Renderer.Backend = "opengl"
	want.Lines.Capacity = 2048

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, want))
	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
