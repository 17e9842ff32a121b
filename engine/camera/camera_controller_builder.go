package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithKeyBinding binds a key to a movement direction. A key that is already bound is
// rebound in place, keeping its position in the binding order.
//
// Parameters:
//   - keyCode: the virtual key code
//   - direction: the direction the key moves the camera
//
// Returns:
//   - CameraControllerOption: functional option to add the binding
func WithKeyBinding(keyCode uint32, direction Direction) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		for i := range cc.bindings {
			if cc.bindings[i].Key == keyCode {
				cc.bindings[i].Direction = direction
				return
			}
		}
		cc.bindings = append(cc.bindings, KeyBinding{Key: keyCode, Direction: direction})
	}
}

// WithoutDefaultBindings clears the default WASD bindings. Combine with WithKeyBinding.
//
// Returns:
//   - CameraControllerOption: functional option to clear the bindings
func WithoutDefaultBindings() CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.bindings = nil
	}
}

// WithConstrainPitch sets whether Look clamps pitch to [-89, 89] degrees.
//
// Parameters:
//   - constrain: true to clamp pitch
//
// Returns:
//   - CameraControllerOption: functional option to set pitch constraint
func WithConstrainPitch(constrain bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.constrainPitch = constrain
	}
}

// WithMouseLook sets whether pointer movement drives Look from the start.
//
// Parameters:
//   - enabled: true to enable mouse look
//
// Returns:
//   - CameraControllerOption: functional option to set mouse look
func WithMouseLook(enabled bool) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseLook = enabled
	}
}
