package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithActive sets whether the scene is drawn.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithPrimitive appends a primitive to the scene.
//
// Parameters:
//   - p: the primitive to draw
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPrimitive(p Primitive) SceneBuilderOption {
	return func(s *scene) {
		s.primitives = append(s.primitives, p)
	}
}
