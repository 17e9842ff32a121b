package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeOpenGL selects the OpenGL 4.5 core backend.
	BackendTypeOpenGL
)

// String returns the name accepted by ParseBackendType.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeOpenGL:
		return "opengl"
	}
	return fmt.Sprintf("RendererBackendType(%d)", int(t))
}

// ParseBackendType maps a config or flag value onto a RendererBackendType. Matching is case-insensitive
// and accepts "wgpu", "webgpu", "opengl" and "gl".
//
// Parameters:
//   - s: the backend name
//
// Returns:
//   - RendererBackendType: the backend
//   - error: an error if the name is not recognized
func ParseBackendType(s string) (RendererBackendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	case "opengl", "gl":
		return BackendTypeOpenGL, nil
	}
	return 0, fmt.Errorf("unknown renderer backend %q", s)
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	}
	return fmt.Sprintf("PresentMode(%d)", int(m))
}

// SwapInterval returns the OpenGL swap interval for the mode: 1 waits for vertical blank, 0 does not.
func (m PresentMode) SwapInterval() int {
	if m == PresentModeUncapped {
		return 0
	}
	return 1
}

// ParsePresentMode maps "vsync" or "uncapped" onto a PresentMode.
//
// Parameters:
//   - s: the present mode name
//
// Returns:
//   - PresentMode: the mode
//   - error: an error if the name is not recognized
func ParsePresentMode(s string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vsync", "fifo":
		return PresentModeVSync, nil
	case "uncapped", "immediate":
		return PresentModeUncapped, nil
	}
	return 0, fmt.Errorf("unknown present mode %q", s)
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// Valid reports whether the count is one of the defined sample counts.
func (c MSAASampleCount) Valid() bool {
	switch c {
	case MSAAOff, MSAA4x, MSAA8x, MSAA16x:
		return true
	}
	return false
}

// RendererBackend is the contract both GPU backends implement. It extends Device with the
// surface and frame lifecycle the Renderer drives.
type RendererBackend interface {
	Device

	// ConfigureSurface (re)creates the swapchain and attachments for a new framebuffer size.
	// Zero sizes are ignored.
	ConfigureSurface(width, height int) error

	// SetPresentMode stores the present mode. It takes effect on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the frame is cleared to.
	SetClearColor(r, g, b, a float64)

	// Projection builds a right-handed perspective matrix in the backend's clip-space depth range.
	//
	// Parameters:
	//   - fovYDeg: vertical field of view in degrees
	//   - aspect: width divided by height
	//   - near, far: clip plane distances
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection(fovYDeg, aspect, near, far float32) mgl32.Mat4

	// BeginFrame starts a frame and clears the color and depth targets.
	BeginFrame() error

	// EndFrame finishes the frame and submits the recorded work.
	EndFrame() error

	// Present shows the finished frame.
	Present()

	// Release frees every resource the backend still owns.
	Release()
}
