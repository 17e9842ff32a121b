package camera

import "github.com/Carmen-Shannon/oxy-sandbox/common"

// KeyBinding maps a virtual key code to a movement direction.
type KeyBinding struct {
	Key       uint32
	Direction Direction
}

// DefaultKeyBindings are the WASD + Space/LeftShift fly bindings.
var DefaultKeyBindings = []KeyBinding{
	{Key: common.KeyW, Direction: DirectionForward},
	{Key: common.KeyS, Direction: DirectionBackward},
	{Key: common.KeyA, Direction: DirectionLeft},
	{Key: common.KeyD, Direction: DirectionRight},
	{Key: common.KeySpace, Direction: DirectionUp},
	{Key: common.KeyLeftShift, Direction: DirectionDown},
}

// CameraController turns raw window input into camera operations.
// Input events are accumulated between frames and consumed once per frame by Apply.
type CameraController interface {
	// KeyDown marks a key as held.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyDown(keyCode uint32)

	// KeyUp marks a key as released.
	//
	// Parameters:
	//   - keyCode: the virtual key code
	KeyUp(keyCode uint32)

	// MouseMove records a cursor position. The first sample after construction or
	// after ResetMouse only seeds the last position and produces no look delta.
	// Vertical deltas are inverted so moving the cursor up looks up.
	//
	// Parameters:
	//   - x, y: cursor position in window pixels
	MouseMove(x, y float64)

	// ResetMouse forgets the last cursor position, so the next MouseMove reseeds it.
	ResetMouse()

	// Scroll accumulates a scroll wheel delta.
	//
	// Parameters:
	//   - delta: scroll delta (positive = up)
	Scroll(delta float32)

	// SetMouseLook enables or disables pointer-driven look. While disabled, MouseMove
	// still tracks the cursor but accumulates nothing.
	//
	// Parameters:
	//   - enabled: whether mouse look is active
	SetMouseLook(enabled bool)

	// MouseLook reports whether pointer-driven look is active.
	MouseLook() bool

	// IsHeld reports whether a key is currently held.
	IsHeld(keyCode uint32) bool

	// Apply drives the camera with everything accumulated since the previous call:
	// Move for each held binding in binding order, then Look with the pointer delta,
	// then Zoom with the scroll delta. Accumulators are cleared afterwards.
	//
	// Parameters:
	//   - cam: the camera to drive
	//   - dt: frame time in seconds
	Apply(cam Camera, dt float32)
}

type cameraControllerImpl struct {
	bindings       []KeyBinding
	held           map[uint32]bool
	constrainPitch bool
	mouseLook      bool

	hasLast      bool
	lastX, lastY float64
	dx, dy       float32
	scroll       float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a fly controller with the default key bindings,
// pitch constrained and mouse look enabled.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the configured controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		bindings:       append([]KeyBinding(nil), DefaultKeyBindings...),
		held:           make(map[uint32]bool),
		constrainPitch: true,
		mouseLook:      true,
	}
	for _, opt := range options {
		opt(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) KeyDown(keyCode uint32) {
	cc.held[keyCode] = true
}

func (cc *cameraControllerImpl) KeyUp(keyCode uint32) {
	delete(cc.held, keyCode)
}

func (cc *cameraControllerImpl) MouseMove(x, y float64) {
	if !cc.hasLast {
		cc.lastX, cc.lastY = x, y
		cc.hasLast = true
		return
	}

	dx := float32(x - cc.lastX)
	dy := float32(cc.lastY - y)
	cc.lastX, cc.lastY = x, y

	if !cc.mouseLook {
		return
	}
	cc.dx += dx
	cc.dy += dy
}

func (cc *cameraControllerImpl) ResetMouse() {
	cc.hasLast = false
	cc.dx, cc.dy = 0, 0
}

func (cc *cameraControllerImpl) Scroll(delta float32) {
	cc.scroll += delta
}

func (cc *cameraControllerImpl) SetMouseLook(enabled bool) {
	cc.mouseLook = enabled
	cc.ResetMouse()
}

func (cc *cameraControllerImpl) MouseLook() bool {
	return cc.mouseLook
}

func (cc *cameraControllerImpl) IsHeld(keyCode uint32) bool {
	return cc.held[keyCode]
}

func (cc *cameraControllerImpl) Apply(cam Camera, dt float32) {
	for _, b := range cc.bindings {
		if cc.held[b.Key] {
			cam.Move(b.Direction, dt)
		}
	}

	if cc.dx != 0 || cc.dy != 0 {
		cam.Look(cc.dx, cc.dy, cc.constrainPitch)
	}

	if cc.scroll != 0 {
		cam.Zoom(cc.scroll)
	}

	cc.dx, cc.dy, cc.scroll = 0, 0, 0
}
