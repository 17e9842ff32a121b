package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngineWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	assert.Equal(t, "oxy sandbox", w.title)
	assert.Equal(t, ClientAPIWebGPU, w.ClientAPI())
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())
	assert.False(t, w.CursorCaptured())
}

func TestNewEngineWindowClampsToLimits(t *testing.T) {
	w := newEngineWindow(
		WithTitle("lines"),
		WithClientAPI(ClientAPIOpenGL),
		WithMinWidth(400),
		WithMaxHeight(600),
		WithWidth(100),
		WithHeight(5000),
	)
	assert.Equal(t, "lines", w.title)
	assert.Equal(t, ClientAPIOpenGL, w.ClientAPI())
	assert.Equal(t, 400, w.Width())
	assert.Equal(t, 600, w.Height())
}

func TestToggleCaptureNotifies(t *testing.T) {
	w := newEngineWindow()
	var states []bool
	w.SetCursorCaptureCallback(func(captured bool) { states = append(states, captured) })

	w.toggleCapture()
	w.toggleCapture()
	assert.Equal(t, []bool{true, false}, states)
	assert.False(t, w.CursorCaptured())
}

func TestResizedForwardsSize(t *testing.T) {
	w := newEngineWindow()
	var gotW, gotH int
	w.SetResizeCallback(func(width, height int) { gotW, gotH = width, height })

	w.resized(800, 450)
	assert.Equal(t, 800, gotW)
	assert.Equal(t, 450, gotH)
	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 450, w.Height())
}

func TestUnspawnedWindow(t *testing.T) {
	w := newEngineWindow()
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())

	// no platform window: these are no-ops
	w.RequestClose()
	w.SwapBuffers()
	w.ProcessMessages()
}

func TestClientAPIString(t *testing.T) {
	assert.Equal(t, "webgpu", ClientAPIWebGPU.String())
	assert.Equal(t, "opengl", ClientAPIOpenGL.String())
	assert.Equal(t, "ClientAPI(7)", ClientAPI(7).String())
}
