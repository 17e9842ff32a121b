package camera

import (
	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultYaw points the camera down -Z.
	DefaultYaw float32 = -90.0

	// DefaultPitch keeps the camera level with the horizon.
	DefaultPitch float32 = 0.0

	// DefaultSpeed is the movement speed in world units per second.
	DefaultSpeed float32 = 2.5

	// DefaultSensitivity scales raw pointer deltas into degrees.
	DefaultSensitivity float32 = 0.1

	// DefaultZoom is the initial vertical field of view in degrees.
	DefaultZoom float32 = 45.0

	// MinZoom and MaxZoom bound the field of view in degrees.
	MinZoom float32 = 1.0
	MaxZoom float32 = 45.0

	// MaxPitch bounds pitch in both directions when pitch is constrained.
	MaxPitch float32 = 89.0
)

type cameraImpl struct {
	position mgl32.Vec3
	worldUp  mgl32.Vec3
	basis    Basis

	yaw   float32
	pitch float32

	speed       float32
	sensitivity float32
	zoom        float32
}

// Camera is a free-fly perspective camera driven by yaw/pitch angles in degrees.
//
// The front, up and right vectors are derived state: they are recomputed from yaw and
// pitch after construction and after every Look, and never changed by Move or Zoom.
// A Camera is owned by the frame loop and is not safe for concurrent use.
type Camera interface {
	// Move translates the camera along one of its movement axes by speed * dt.
	// Up and Down follow the world up vector, Forward and Backward follow front,
	// Left and Right follow right. A negative dt moves the opposite way.
	//
	// Parameters:
	//   - direction: the axis and sign to move along
	//   - dt: elapsed time in seconds
	Move(direction Direction, dt float32)

	// Look rotates the camera by raw pointer deltas scaled by the camera sensitivity.
	// dx is added to yaw and dy to pitch. When constrainPitch is true the pitch is clamped
	// to [-89, 89] degrees. Yaw is never wrapped.
	//
	// Parameters:
	//   - dx: horizontal pointer delta
	//   - dy: vertical pointer delta (positive looks up)
	//   - constrainPitch: whether to clamp pitch to avoid flipping over the poles
	Look(dx, dy float32, constrainPitch bool)

	// Zoom subtracts dy from the field of view and clamps it to [1, 45] degrees.
	// A positive dy (scroll up) narrows the field of view.
	//
	// Parameters:
	//   - dy: scroll delta
	Zoom(dy float32)

	// ViewMatrix returns the right-handed look-at matrix from the camera position toward
	// position + front, using the camera up vector. The matrix is column-major.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	ViewMatrix() mgl32.Mat4

	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// Front returns the unit vector the camera looks along.
	Front() mgl32.Vec3

	// Up returns the camera's unit up vector.
	Up() mgl32.Vec3

	// Right returns the camera's unit right vector.
	Right() mgl32.Vec3

	// WorldUp returns the fixed world up reference.
	WorldUp() mgl32.Vec3

	// Yaw returns the yaw angle in degrees.
	Yaw() float32

	// Pitch returns the pitch angle in degrees.
	Pitch() float32

	// Speed returns the movement speed in world units per second.
	Speed() float32

	// Sensitivity returns the pointer-delta multiplier applied by Look.
	Sensitivity() float32

	// FieldOfView returns the current zoom level, the vertical field of view in degrees.
	FieldOfView() float32

	// SetPosition moves the camera to an absolute world-space position.
	//
	// Parameters:
	//   - position: the new position
	SetPosition(position mgl32.Vec3)

	// SetSpeed sets the movement speed in world units per second.
	//
	// Parameters:
	//   - speed: the new speed
	SetSpeed(speed float32)

	// SetSensitivity sets the pointer-delta multiplier applied by Look.
	//
	// Parameters:
	//   - sensitivity: the new sensitivity
	SetSensitivity(sensitivity float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new fly camera at the origin looking down -Z with default speed,
// sensitivity and zoom. Options are applied before the orientation basis is computed.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		worldUp:     mgl32.Vec3{0, 1, 0},
		yaw:         DefaultYaw,
		pitch:       DefaultPitch,
		speed:       DefaultSpeed,
		sensitivity: DefaultSensitivity,
		zoom:        DefaultZoom,
	}
	for _, option := range options {
		option(c)
	}
	c.updateBasis()
	return c
}

func (c *cameraImpl) Move(direction Direction, dt float32) {
	velocity := c.speed * dt
	switch direction {
	case DirectionUp:
		c.position = c.position.Add(c.worldUp.Mul(velocity))
	case DirectionDown:
		c.position = c.position.Sub(c.worldUp.Mul(velocity))
	case DirectionForward:
		c.position = c.position.Add(c.basis.Front.Mul(velocity))
	case DirectionBackward:
		c.position = c.position.Sub(c.basis.Front.Mul(velocity))
	case DirectionLeft:
		c.position = c.position.Sub(c.basis.Right.Mul(velocity))
	case DirectionRight:
		c.position = c.position.Add(c.basis.Right.Mul(velocity))
	}
}

func (c *cameraImpl) Look(dx, dy float32, constrainPitch bool) {
	c.yaw += dx * c.sensitivity
	c.pitch += dy * c.sensitivity

	if constrainPitch {
		c.pitch = common.Clamp(c.pitch, -MaxPitch, MaxPitch)
	}

	c.updateBasis()
}

func (c *cameraImpl) Zoom(dy float32) {
	c.zoom = common.Clamp(c.zoom-dy, MinZoom, MaxZoom)
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.basis.Front), c.basis.Up)
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	return c.position
}

func (c *cameraImpl) Front() mgl32.Vec3 {
	return c.basis.Front
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	return c.basis.Up
}

func (c *cameraImpl) Right() mgl32.Vec3 {
	return c.basis.Right
}

func (c *cameraImpl) WorldUp() mgl32.Vec3 {
	return c.worldUp
}

func (c *cameraImpl) Yaw() float32 {
	return c.yaw
}

func (c *cameraImpl) Pitch() float32 {
	return c.pitch
}

func (c *cameraImpl) Speed() float32 {
	return c.speed
}

func (c *cameraImpl) Sensitivity() float32 {
	return c.sensitivity
}

func (c *cameraImpl) FieldOfView() float32 {
	return c.zoom
}

func (c *cameraImpl) SetPosition(position mgl32.Vec3) {
	c.position = position
}

func (c *cameraImpl) SetSpeed(speed float32) {
	c.speed = speed
}

func (c *cameraImpl) SetSensitivity(sensitivity float32) {
	c.sensitivity = sensitivity
}

// updateBasis recomputes front, up and right from the current yaw and pitch.
// Only construction and Look call this.
func (c *cameraImpl) updateBasis() {
	c.basis = BasisFrom(c.yaw, c.pitch, c.worldUp)
}
