package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	released    bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	clearColor           [4]float64
}

// Renderer owns one GPU backend and drives its frame lifecycle. Resource creation goes through
// Device, which is passed explicitly to anything that needs GPU objects.
type Renderer interface {
	// Device returns the graphics context used to create programs, buffers and vertex arrays.
	//
	// Returns:
	//   - Device: the backend's device
	Device() Device

	// BackendType returns the backend this renderer was created with.
	BackendType() RendererBackendType

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	Resize(width, height int) error

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color each frame is cleared to.
	SetClearColor(r, g, b, a float64)

	// Projection returns a right-handed perspective projection in the backend's clip-space depth range.
	//
	// Parameters:
	//   - fovYDeg: vertical field of view in degrees
	//   - aspect: width divided by height
	//   - near, far: clip plane distances
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection(fovYDeg, aspect, near, far float32) mgl32.Mat4

	// BeginFrame acquires the next frame target and clears it.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the frame target could not be acquired
	BeginFrame() error

	// EndFrame finishes the frame and submits the recorded work to the GPU.
	// Does not present; call Present after EndFrame to display the frame.
	//
	// Returns:
	//   - error: an error if the frame could not be submitted
	EndFrame() error

	// Present presents the finished frame to the display.
	Present()

	// Release frees the backend. Calling it again is a no-op.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer for the given backend bound to the window.
// The window must have been created with the matching window.ClientAPI.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - win: the window whose surface or GL context the backend renders into
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the GPU adapter, device or context could not be acquired
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		clearColor:  [4]float64{0.1, 0.1, 0.1, 1.0},
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}
	if !msaa.Valid() {
		return nil, fmt.Errorf("invalid MSAA sample count %d", msaa)
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		if win.ClientAPI() != window.ClientAPIWebGPU {
			return nil, fmt.Errorf("backend %s requires a %s window, got %s", backendType, window.ClientAPIWebGPU, win.ClientAPI())
		}
		r.backend, err = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	case BackendTypeOpenGL:
		if win.ClientAPI() != window.ClientAPIOpenGL {
			return nil, fmt.Errorf("backend %s requires a %s window, got %s", backendType, window.ClientAPIOpenGL, win.ClientAPI())
		}
		r.backend, err = newGLRendererBackend(win)
	default:
		return nil, fmt.Errorf("unsupported renderer backend %s", backendType)
	}
	if err != nil {
		return nil, err
	}

	return r.init(win.Width(), win.Height())
}

// init applies pending options to a freshly created backend and configures the surface.
func (r *renderer) init(width, height int) (Renderer, error) {
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.SetClearColor(r.clearColor[0], r.clearColor[1], r.clearColor[2], r.clearColor[3])

	if err := r.backend.ConfigureSurface(width, height); err != nil {
		r.backend.Release()
		return nil, err
	}
	common.Logger().Info("renderer ready", "backend", r.backendType.String(), "width", width, "height", height)
	return r, nil
}

func (r *renderer) Device() Device {
	return r.backend
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Resize(width, height int) error {
	return r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(red, green, blue, alpha float64) {
	r.mu.Lock()
	r.clearColor = [4]float64{red, green, blue, alpha}
	r.mu.Unlock()
	r.backend.SetClearColor(red, green, blue, alpha)
}

func (r *renderer) Projection(fovYDeg, aspect, near, far float32) mgl32.Mat4 {
	return r.backend.Projection(fovYDeg, aspect, near, far)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.backend.Release()
	common.Logger().Info("renderer released", "backend", r.backendType.String())
}
