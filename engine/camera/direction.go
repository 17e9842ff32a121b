package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Direction identifies one of the six movement directions a fly camera can translate along.
type Direction int

const (
	// DirectionUp moves along the world up vector.
	DirectionUp Direction = iota

	// DirectionDown moves against the world up vector.
	DirectionDown

	// DirectionForward moves along the camera's front vector.
	DirectionForward

	// DirectionBackward moves against the camera's front vector.
	DirectionBackward

	// DirectionLeft moves against the camera's right vector.
	DirectionLeft

	// DirectionRight moves along the camera's right vector.
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	}
	return "unknown"
}

// Basis is the orthonormal orientation frame derived from a yaw/pitch pair.
type Basis struct {
	Front mgl32.Vec3
	Up    mgl32.Vec3
	Right mgl32.Vec3
}

// BasisFrom derives the camera orientation frame from yaw and pitch given in degrees.
// Front points along (cos yaw·cos pitch, sin pitch, sin yaw·cos pitch), right is
// front × worldUp and up is right × front, both normalized.
//
// Parameters:
//   - yaw: rotation around the world up axis in degrees
//   - pitch: elevation above the horizontal plane in degrees
//   - worldUp: the fixed world up reference
//
// Returns:
//   - Basis: the front, up and right unit vectors
func BasisFrom(yaw, pitch float32, worldUp mgl32.Vec3) Basis {
	yawRad := mgl32.DegToRad(yaw)
	pitchRad := mgl32.DegToRad(pitch)

	front := mgl32.Vec3{
		math32.Cos(yawRad) * math32.Cos(pitchRad),
		math32.Sin(pitchRad),
		math32.Sin(yawRad) * math32.Cos(pitchRad),
	}.Normalize()
	right := front.Cross(worldUp).Normalize()
	up := right.Cross(front).Normalize()

	return Basis{Front: front, Up: up, Right: right}
}
