package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/camera"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/line_renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/scene"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callLog is shared by the fakes so tests can assert ordering across collaborators.
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) { l.calls = append(l.calls, call) }

type fakeWindow struct {
	log *callLog

	width, height int
	time          float64
	running       bool
	closed        bool
	captured      bool
	maxIterations int
	iterations    int

	// beforeUpdate runs ahead of the update callback each iteration, standing in for input events.
	beforeUpdate func(iteration int)

	onUpdate        func()
	onResize        func(width, height int)
	onScroll        func(delta float32)
	onKeyDown       func(keyCode uint32)
	onKeyUp         func(keyCode uint32)
	onMouseMove     func(x, y float64)
	onCursorCapture func(captured bool)
}

var _ window.Window = &fakeWindow{}

func newFakeWindow(log *callLog, iterations int) *fakeWindow {
	return &fakeWindow{log: log, width: 800, height: 600, running: true, maxIterations: iterations}
}

func (w *fakeWindow) SetUpdateCallback(cb func())                     { w.onUpdate = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int))    { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32))        { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32))      { w.onKeyDown = cb }
func (w *fakeWindow) SetKeyUpCallback(cb func(keyCode uint32))        { w.onKeyUp = cb }
func (w *fakeWindow) SetMouseMoveCallback(cb func(x, y float64))      { w.onMouseMove = cb }
func (w *fakeWindow) SetCursorCaptureCallback(cb func(captured bool)) { w.onCursorCapture = cb }
func (w *fakeWindow) SetCursorCaptured(captured bool)                 { w.captured = captured }
func (w *fakeWindow) CursorCaptured() bool                            { return w.captured }
func (w *fakeWindow) ClientAPI() window.ClientAPI                     { return window.ClientAPIWebGPU }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor      { return nil }
func (w *fakeWindow) SwapBuffers()                                    {}
func (w *fakeWindow) Time() float64                                   { return w.time }
func (w *fakeWindow) IsRunning() bool                                 { return w.running }
func (w *fakeWindow) RequestClose()                                   { w.running = false }
func (w *fakeWindow) Width() int                                      { return w.width }
func (w *fakeWindow) Height() int                                     { return w.height }

func (w *fakeWindow) Close() error {
	if w.closed {
		return errors.New("window already closed")
	}
	w.closed = true
	w.running = false
	w.log.add("window.close")
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for w.running && w.iterations < w.maxIterations {
		w.iterations++
		w.time += 0.016
		if w.beforeUpdate != nil {
			w.beforeUpdate(w.iterations)
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
	}
}

type fakeRenderer struct {
	log *callLog

	projection mgl32.Mat4
	resizes    [][2]int
	resizeErr  error
	beginErr   error
	releases   int
}

var _ renderer.Renderer = &fakeRenderer{}

func (r *fakeRenderer) Device() renderer.Device                       { return nil }
func (r *fakeRenderer) BackendType() renderer.RendererBackendType     { return renderer.BackendTypeWGPU }
func (r *fakeRenderer) SetPresentMode(renderer.PresentMode)           {}
func (r *fakeRenderer) SetClearColor(red, green, blue, alpha float64) {}
func (r *fakeRenderer) Projection(fovYDeg, aspect, near, far float32) mgl32.Mat4 {
	return r.projection
}

func (r *fakeRenderer) Resize(width, height int) error {
	r.resizes = append(r.resizes, [2]int{width, height})
	return r.resizeErr
}

func (r *fakeRenderer) BeginFrame() error {
	r.log.add("begin")
	return r.beginErr
}

func (r *fakeRenderer) EndFrame() error {
	r.log.add("end")
	return nil
}

func (r *fakeRenderer) Present() { r.log.add("present") }

func (r *fakeRenderer) Release() {
	r.releases++
	r.log.add("renderer.release")
}

type fakeLines struct {
	log *callLog

	enabled    bool
	pushed     int
	transforms []mgl32.Mat4
	flushErr   error
	destroyed  int
}

var _ line_renderer.LineRenderer = &fakeLines{}

func (l *fakeLines) PushLine(posA, colorA, posB, colorB mgl32.Vec3) {
	if l.enabled {
		l.pushed++
	}
}

func (l *fakeLines) Flush(transform mgl32.Mat4) error {
	l.log.add("flush")
	l.transforms = append(l.transforms, transform)
	return l.flushErr
}

func (l *fakeLines) Destroy() {
	l.destroyed++
	l.log.add("lines.destroy")
}

func (l *fakeLines) SetEnabled(enabled bool) { l.enabled = enabled }
func (l *fakeLines) Enabled() bool           { return l.enabled }
func (l *fakeLines) Toggle() bool            { l.enabled = !l.enabled; return l.enabled }
func (l *fakeLines) Len() int                { return 0 }
func (l *fakeLines) FloatsPushed() int       { return 0 }
func (l *fakeLines) LastFloatsPushed() int   { return 0 }
func (l *fakeLines) Capacity() int           { return 0 }

type fixture struct {
	log      *callLog
	window   *fakeWindow
	renderer *fakeRenderer
	lines    *fakeLines
}

func newFixture(iterations int) *fixture {
	log := &callLog{}
	return &fixture{
		log:      log,
		window:   newFakeWindow(log, iterations),
		renderer: &fakeRenderer{log: log, projection: mgl32.Ident4()},
		lines:    &fakeLines{log: log, enabled: true},
	}
}

func (f *fixture) engine(t *testing.T, opts ...EngineBuilderOption) *engine {
	t.Helper()
	base := []EngineBuilderOption{WithWindow(f.window), WithRenderer(f.renderer), WithLineRenderer(f.lines)}
	e, err := NewEngine(append(base, opts...)...)
	require.NoError(t, err)
	return e.(*engine)
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	_, err := NewEngine()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window")
	assert.Contains(t, err.Error(), "renderer")
	assert.Contains(t, err.Error(), "line renderer")
}

func TestRunFrameOrderAndTeardown(t *testing.T) {
	f := newFixture(2)
	e := f.engine(t)

	require.NoError(t, e.Run())
	assert.Equal(t, []string{
		"begin", "flush", "end", "present",
		"begin", "flush", "end", "present",
		"lines.destroy", "renderer.release", "window.close",
	}, f.log.calls)
	assert.Equal(t, uint64(2), e.Frames())
	assert.Len(t, f.lines.transforms, 2)
}

func TestRunDrawsScenesInKeyOrder(t *testing.T) {
	f := newFixture(1)
	var order []string
	tracer := func(name string) scene.Primitive { return tracePrimitive{name: name, order: &order} }

	e := f.engine(t,
		WithScene(2, scene.NewScene(scene.WithPrimitive(tracer("top")))),
		WithScene(0, scene.NewScene(scene.WithPrimitive(tracer("bottom")))),
		WithScene(1, scene.NewScene(scene.WithPrimitive(tracer("hidden")), scene.WithActive(false))),
	)
	e.SetRenderCallback(func(float32) { order = append(order, "callback") })

	require.NoError(t, e.Run())
	assert.Equal(t, []string{"bottom", "top", "callback"}, order)
}

type tracePrimitive struct {
	name  string
	order *[]string
}

func (p tracePrimitive) Name() string { return p.name }
func (p tracePrimitive) Draw(sink scene.LineSink, _ float32) {
	*p.order = append(*p.order, p.name)
	sink.PushLine(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})
}

func TestRunStopsOnFlushError(t *testing.T) {
	f := newFixture(5)
	f.lines.flushErr = renderer.ErrOutOfBounds
	e := f.engine(t)

	err := e.Run()
	assert.ErrorIs(t, err, renderer.ErrOutOfBounds)
	assert.ErrorContains(t, err, "flush lines")
	assert.Equal(t, 1, f.window.iterations)
	assert.Equal(t, []string{"begin", "flush", "end", "lines.destroy", "renderer.release", "window.close"}, f.log.calls)
}

func TestRunStopsOnBeginFrameError(t *testing.T) {
	f := newFixture(5)
	f.renderer.beginErr = errors.New("surface lost")
	e := f.engine(t)

	err := e.Run()
	assert.ErrorContains(t, err, "begin frame: surface lost")
	assert.NotContains(t, f.log.calls, "flush")
	assert.Equal(t, 1, f.renderer.releases)
}

func TestRunRecoversPanic(t *testing.T) {
	f := newFixture(5)
	e := f.engine(t)
	e.SetRenderCallback(func(float32) { panic("boom") })

	err := e.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, f.lines.destroyed)
	assert.Equal(t, 1, f.renderer.releases)
	assert.True(t, f.window.closed)
}

func TestToggleKeyFlipsLineRenderer(t *testing.T) {
	f := newFixture(3)
	e := f.engine(t)
	f.window.beforeUpdate = func(i int) {
		switch i {
		case 1:
			f.window.onKeyDown(common.KeyL)
		case 2:
			f.window.onKeyDown(common.KeyW)
		}
	}

	require.NoError(t, e.Run())
	assert.False(t, f.lines.Enabled())
	assert.True(t, e.Controller().IsHeld(common.KeyW))
	assert.False(t, e.Controller().IsHeld(common.KeyL))
}

func TestToggleKeyIgnoresRepeatUntilRelease(t *testing.T) {
	f := newFixture(4)
	e := f.engine(t)
	f.window.beforeUpdate = func(i int) {
		switch i {
		case 1, 2:
			f.window.onKeyDown(common.KeyL)
		case 3:
			f.window.onKeyUp(common.KeyL)
		case 4:
			f.window.onKeyDown(common.KeyL)
		}
	}

	var states []bool
	e.SetRenderCallback(func(float32) { states = append(states, f.lines.Enabled()) })

	require.NoError(t, e.Run())
	assert.Equal(t, []bool{false, false, false, true}, states)
	assert.False(t, e.Controller().IsHeld(common.KeyL))
}

func TestInputMovesCamera(t *testing.T) {
	f := newFixture(2)
	cam := camera.NewCamera()
	e := f.engine(t, WithCamera(cam))
	start := cam.Position()

	f.window.beforeUpdate = func(i int) {
		if i == 1 {
			f.window.onKeyDown(common.KeyW)
		}
	}
	require.NoError(t, e.Run())

	// forward is -Z with the default yaw
	assert.Less(t, cam.Position()[2], start[2])
}

func TestCursorCaptureEnablesMouseLook(t *testing.T) {
	f := newFixture(0)
	e := f.engine(t)
	assert.False(t, e.Controller().MouseLook())

	f.window.onCursorCapture(true)
	assert.True(t, e.Controller().MouseLook())
}

func TestResizeUpdatesAspect(t *testing.T) {
	f := newFixture(0)
	e := f.engine(t)
	assert.InDelta(t, 800.0/600.0, e.aspect, 1e-6)

	f.window.onResize(1000, 500)
	assert.Equal(t, [][2]int{{1000, 500}}, f.renderer.resizes)
	assert.InDelta(t, 2.0, e.aspect, 1e-6)

	// a minimized window keeps the last aspect
	f.window.onResize(0, 0)
	assert.InDelta(t, 2.0, e.aspect, 1e-6)
}

func TestResizeErrorStopsRun(t *testing.T) {
	f := newFixture(5)
	f.renderer.resizeErr = errors.New("configure failed")
	e := f.engine(t)
	f.window.beforeUpdate = func(i int) {
		if i == 2 {
			f.window.onResize(640, 480)
		}
	}

	err := e.Run()
	assert.ErrorContains(t, err, "resize to 640x480: configure failed")
	assert.Equal(t, uint64(1), e.Frames())
}

func TestMinimizedWindowSkipsFrame(t *testing.T) {
	f := newFixture(2)
	f.window.width, f.window.height = 0, 0
	e := f.engine(t)

	require.NoError(t, e.Run())
	assert.Equal(t, []string{"lines.destroy", "renderer.release", "window.close"}, f.log.calls)
}

func TestTransformIsProjectionTimesView(t *testing.T) {
	f := newFixture(1)
	f.renderer.projection = mgl32.Scale3D(2, 3, 4)
	cam := camera.NewCamera(camera.WithPosition(mgl32.Vec3{1, 2, 3}))
	e := f.engine(t, WithCamera(cam))

	require.NoError(t, e.Run())
	require.Len(t, f.lines.transforms, 1)
	want := mgl32.Scale3D(2, 3, 4).Mul4(cam.ViewMatrix())
	assert.True(t, want.ApproxEqual(f.lines.transforms[0]))
}

func TestFrameLimitSleepsRemainder(t *testing.T) {
	f := newFixture(2)
	e := f.engine(t, WithRenderFrameLimit(50))
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }
	fixed := time.Unix(0, 0)
	e.now = func() time.Time { return fixed }

	require.NoError(t, e.Run())
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 20 * time.Millisecond}, slept)
}

func TestScenesRegistry(t *testing.T) {
	f := newFixture(0)
	s := scene.NewScene()
	e := f.engine(t, WithScene(3, s))

	assert.Same(t, s, e.Scene(3))
	e.AddScene(4, scene.NewScene())
	assert.Len(t, e.Scenes(), 2)
	e.RemoveScene(3)
	assert.Nil(t, e.Scene(3))
}
