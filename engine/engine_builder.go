package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/camera"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/line_renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/scene"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfileInterval sets how often the profiler logs frame stats.
//
// Parameters:
//   - interval: the logging interval (values <= 0 mean one second)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfileInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = profiler.NewProfiler(interval)
	}
}

// WithWindow sets the window whose message loop drives the engine.
//
// Parameters:
//   - w: a spawned Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer that owns the frame. The engine releases it on exit.
//
// Parameters:
//   - r: a renderer created for the engine's window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithLineRenderer sets the line renderer scenes draw into. The engine destroys it on exit.
//
// Parameters:
//   - lr: a line renderer created on the renderer's device
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLineRenderer(lr line_renderer.LineRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.lines = lr
	}
}

// WithCamera sets the camera. Defaults to camera.NewCamera().
func WithCamera(cam camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = cam
	}
}

// WithCameraController sets the input controller. Defaults to camera.NewCameraController().
func WithCameraController(cc camera.CameraController) EngineBuilderOption {
	return func(e *engine) {
		e.controller = cc
	}
}

// WithScene registers a scene at the given z-index key during engine construction.
// Scenes are drawn in ascending key order.
//
// Parameters:
//   - key: the z-index determining draw order (lower draws first)
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithToggleKey sets the key that flips the line renderer on and off. Defaults to L.
func WithToggleKey(keyCode uint32) EngineBuilderOption {
	return func(e *engine) {
		e.toggleKey = keyCode
	}
}

// WithClipPlanes sets the near and far planes of the projection.
//
// Parameters:
//   - near: distance to the near plane, default 0.1
//   - far: distance to the far plane, default 100
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClipPlanes(near, far float32) EngineBuilderOption {
	return func(e *engine) {
		e.near, e.far = near, far
	}
}
