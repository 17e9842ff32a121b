package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/camera"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/profiler"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/line_renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/scene"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// engine implements the Engine interface.
// Every frame runs on the thread that drives the window's message loop.
type engine struct {
	window   window.Window
	renderer renderer.Renderer
	lines    line_renderer.LineRenderer

	camera     camera.Camera
	controller camera.CameraController

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderCallback func(deltaTime float32)

	scenes map[int]scene.Scene

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	toggleKey        uint32
	toggleHeld       bool
	near, far        float32
	aspect           float32

	startTime, lastTime float64
	frames              uint64
	err                 error
	stopped             bool

	sleep func(time.Duration)
	now   func() time.Time
}

// Engine drives the sandbox: it feeds window input to the camera controller, draws the
// active scenes into the line renderer and flushes it once per frame.
type Engine interface {
	// Window returns the underlying window.
	Window() window.Window

	// Renderer returns the renderer that owns the frame.
	Renderer() renderer.Renderer

	// LineRenderer returns the batched line renderer scenes draw into.
	LineRenderer() line_renderer.LineRenderer

	// Camera returns the fly camera.
	Camera() camera.Camera

	// Controller returns the input controller driving the camera.
	Controller() camera.CameraController

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderCallback registers the function called each frame after the scenes are drawn
	// and before the lines are flushed. Use it to push extra segments through LineRenderer.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are drawn in ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining draw order (lower draws first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key, or nil.
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	Scenes() map[int]scene.Scene

	// Frames returns the number of frames presented so far.
	Frames() uint64

	// Run drives frames until the window closes or a frame fails. The line renderer,
	// the renderer and the window are torn down in that order on every exit path,
	// including a panic inside a frame.
	//
	// Returns:
	//   - error: the first frame error or recovered panic, nil on a normal close
	Run() error

	// Quit asks the window to close; Run returns after the current frame.
	Quit()
}

// NewEngine wires the window's input callbacks to the camera controller and line renderer.
//
// Parameters:
//   - options: functional options; WithWindow, WithRenderer and WithLineRenderer are required
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: an error naming every missing collaborator
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		scenes:    make(map[int]scene.Scene),
		profiler:  profiler.NewProfiler(time.Second),
		toggleKey: common.KeyL,
		near:      0.1,
		far:       100,
		sleep:     time.Sleep,
		now:       time.Now,
	}

	for _, opt := range options {
		opt(e)
	}

	var errs []error
	if e.window == nil {
		errs = append(errs, errors.New("engine requires a window"))
	}
	if e.renderer == nil {
		errs = append(errs, errors.New("engine requires a renderer"))
	}
	if e.lines == nil {
		errs = append(errs, errors.New("engine requires a line renderer"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if e.camera == nil {
		e.camera = camera.NewCamera()
	}
	if e.controller == nil {
		e.controller = camera.NewCameraController()
	}
	e.controller.SetMouseLook(e.window.CursorCaptured())
	e.setAspect(e.window.Width(), e.window.Height())

	e.window.SetKeyDownCallback(e.keyDown)
	e.window.SetKeyUpCallback(e.keyUp)
	e.window.SetMouseMoveCallback(e.controller.MouseMove)
	e.window.SetScrollCallback(e.controller.Scroll)
	e.window.SetCursorCaptureCallback(e.controller.SetMouseLook)
	e.window.SetResizeCallback(e.resize)
	e.window.SetUpdateCallback(e.update)

	return e, nil
}

// keyDown flips the line renderer once per press of the toggle key and forwards
// every other key to the controller.
func (e *engine) keyDown(keyCode uint32) {
	if keyCode == e.toggleKey {
		if e.toggleHeld {
			return
		}
		e.toggleHeld = true
		enabled := e.lines.Toggle()
		common.Logger().Info("line renderer toggled", "enabled", enabled)
		return
	}
	e.controller.KeyDown(keyCode)
}

func (e *engine) keyUp(keyCode uint32) {
	if keyCode == e.toggleKey {
		e.toggleHeld = false
		return
	}
	e.controller.KeyUp(keyCode)
}

func (e *engine) setAspect(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.aspect = float32(width) / float32(height)
}

func (e *engine) resize(width, height int) {
	if err := e.renderer.Resize(width, height); err != nil {
		e.fail(fmt.Errorf("resize to %dx%d: %w", width, height, err))
		return
	}
	e.setAspect(width, height)
	common.Logger().Debug("surface resized", "width", width, "height", height)
}

// fail records the first error and asks the window to close.
func (e *engine) fail(err error) {
	if e.err == nil {
		e.err = err
		common.Logger().Error("frame failed", "frame", e.frames, "error", err)
	}
	e.window.RequestClose()
}

func (e *engine) update() {
	if e.err != nil {
		return
	}
	if err := e.frame(); err != nil {
		e.fail(err)
	}
}

// transform returns projection * view for the current camera and surface aspect.
// The model matrix is the identity.
func (e *engine) transform() mgl32.Mat4 {
	projection := e.renderer.Projection(e.camera.FieldOfView(), e.aspect, e.near, e.far)
	return projection.Mul4(e.camera.ViewMatrix())
}

// frame runs one input, draw, flush and present cycle.
func (e *engine) frame() error {
	started := e.now()

	now := e.window.Time()
	dt := float32(now - e.lastTime)
	e.lastTime = now

	e.controller.Apply(e.camera, dt)

	// a minimized window has no surface to draw into
	if e.window.Width() <= 0 || e.window.Height() <= 0 {
		return nil
	}

	if err := e.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	t := float32(now - e.startTime)
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		e.scenes[k].Draw(e.lines, t)
	}

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if err := e.lines.Flush(e.transform()); err != nil {
		// close the pass so teardown does not release a recording encoder
		_ = e.renderer.EndFrame()
		return fmt.Errorf("flush lines: %w", err)
	}

	if err := e.renderer.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	e.renderer.Present()
	e.frames++

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(started); remaining > 0 {
			e.sleep(remaining)
		}
	}
	return nil
}

func (e *engine) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in frame %d: %v", e.frames, r)
			common.Logger().Error("frame loop panicked", "frame", e.frames, "panic", r)
		}
		e.teardown()
	}()

	e.startTime = e.window.Time()
	e.lastTime = e.startTime
	common.Logger().Info("engine running",
		"backend", e.renderer.BackendType().String(),
		"width", e.window.Width(),
		"height", e.window.Height(),
	)

	e.window.ProcessMessages()
	return e.err
}

// teardown destroys GPU resources before the device and the device before the window.
func (e *engine) teardown() {
	if e.stopped {
		return
	}
	e.stopped = true

	e.lines.Destroy()
	e.renderer.Release()
	if err := e.window.Close(); err != nil {
		common.Logger().Warn("window close failed", "error", err)
	}
	common.Logger().Info("engine stopped", "frames", e.frames)
}

func (e *engine) Quit() {
	e.window.RequestClose()
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) LineRenderer() line_renderer.LineRenderer {
	return e.lines
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Controller() camera.CameraController {
	return e.controller
}

func (e *engine) Frames() uint64 {
	return e.frames
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderCallback registers the function called each frame before the flush.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
