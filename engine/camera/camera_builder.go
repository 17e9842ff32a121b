package camera

import (
	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraBuilderOption is a functional option applied to a camera during construction via NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the camera's initial world-space position.
//
// Parameters:
//   - position: the starting position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(position mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = position
	}
}

// WithYaw sets the initial yaw in degrees.
//
// Parameters:
//   - yaw: rotation around the world up axis in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's yaw
func WithYaw(yaw float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.yaw = yaw
	}
}

// WithPitch sets the initial pitch in degrees. The value is clamped to [-89, 89].
//
// Parameters:
//   - pitch: elevation in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's pitch
func WithPitch(pitch float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.pitch = common.Clamp(pitch, -MaxPitch, MaxPitch)
	}
}

// WithSpeed sets the movement speed in world units per second.
//
// Parameters:
//   - speed: the movement speed
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's speed
func WithSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.speed = speed
	}
}

// WithSensitivity sets the multiplier applied to pointer deltas in Look.
//
// Parameters:
//   - sensitivity: the pointer sensitivity
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's sensitivity
func WithSensitivity(sensitivity float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.sensitivity = sensitivity
	}
}

// WithZoom sets the initial field of view in degrees, clamped to [1, 45].
//
// Parameters:
//   - zoom: vertical field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's zoom
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoom = common.Clamp(zoom, MinZoom, MaxZoom)
	}
}

// WithWorldUp overrides the world up reference. The vector is normalized; a zero vector is ignored.
//
// Parameters:
//   - up: the world up direction
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's world up vector
func WithWorldUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		if up.Len() == 0 {
			return
		}
		c.worldUp = up.Normalize()
	}
}
