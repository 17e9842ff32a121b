package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ClientAPI selects which graphics API the window prepares a surface for.
type ClientAPI int

const (
	// ClientAPIWebGPU creates the window without a GL context so a WebGPU surface can be attached.
	ClientAPIWebGPU ClientAPI = iota

	// ClientAPIOpenGL creates a 4.5 core, forward compatible GL context and makes it current.
	ClientAPIOpenGL
)

// String returns the lower-case name of the client API.
func (c ClientAPI) String() string {
	switch c {
	case ClientAPIWebGPU:
		return "webgpu"
	case ClientAPIOpenGL:
		return "opengl"
	}
	return fmt.Sprintf("ClientAPI(%d)", int(c))
}

// Window provides platform windowing and input event handling.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up, negative = down)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press events. Auto-repeat is not reported.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseMoveCallback sets the callback for cursor movement.
	//
	// Parameters:
	//   - callback: function receiving the cursor position in pixels
	SetMouseMoveCallback(callback func(x, y float64))

	// SetCursorCaptureCallback sets the callback fired when the right mouse button toggles
	// cursor capture.
	//
	// Parameters:
	//   - callback: function receiving the new capture state
	SetCursorCaptureCallback(callback func(captured bool))

	// SetCursorCaptured hides and locks the cursor when true, releases it when false.
	//
	// Parameters:
	//   - captured: the desired capture state
	SetCursorCaptured(captured bool)

	// CursorCaptured reports whether the cursor is currently captured.
	CursorCaptured() bool

	// ClientAPI returns the graphics API the window was created for.
	ClientAPI() ClientAPI

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SwapBuffers presents the back buffer of the GL context. No-op for WebGPU windows.
	SwapBuffers()

	// Time returns the seconds elapsed since the window system was initialized.
	Time() float64

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose marks the window for closing. The message loop exits on its next iteration.
	RequestClose()

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	clientAPI ClientAPI

	// size limits applied while resizing
	maxWidth, maxHeight int
	minWidth, minHeight int

	// width and height track the framebuffer size in pixels.
	width  int
	height int

	captured bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate        func()
	onResize        func(width, height int)
	onScroll        func(delta float32)
	onKeyDown       func(keyCode uint32)
	onKeyUp         func(keyCode uint32)
	onMouseMove     func(x, y float64)
	onCursorCapture func(captured bool)
}

var _ Window = &engineWindow{}

// newEngineWindow applies defaults and options without touching the platform layer.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "oxy sandbox",
		clientAPI: ClientAPIWebGPU,
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	w.width = max(w.minWidth, min(w.width, w.maxWidth))
	w.height = max(w.minHeight, min(w.height, w.maxHeight))
	return w
}

// NewWindow creates and shows a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	common.Logger().Info("window created",
		"title", w.title,
		"api", w.clientAPI.String(),
		"width", w.width,
		"height", w.height,
	)
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y float64)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SetCursorCaptureCallback(callback func(captured bool)) {
	w.onCursorCapture = callback
}

func (w *engineWindow) SetCursorCaptured(captured bool) {
	w.captured = captured
	platformSetCursorCaptured(w, captured)
}

func (w *engineWindow) CursorCaptured() bool {
	return w.captured
}

func (w *engineWindow) ClientAPI() ClientAPI {
	return w.clientAPI
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) SwapBuffers() {
	if w.clientAPI != ClientAPIOpenGL {
		return
	}
	platformSwapBuffers(w)
}

func (w *engineWindow) Time() float64 {
	return platformTime()
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// toggleCapture flips cursor capture and notifies the capture callback.
func (w *engineWindow) toggleCapture() {
	w.SetCursorCaptured(!w.captured)
	if w.onCursorCapture != nil {
		w.onCursorCapture(w.captured)
	}
}

// resized records a framebuffer size change and forwards it to the resize callback.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
