package shader

import "github.com/go-gl/mathgl/mgl32"

// Program is a compiled and linked GPU program with named uniform setters.
// Each renderer backend provides its own implementation; callers only see this interface.
//
// Setting a uniform the program does not declare is not an error: the name is logged once
// and the value is dropped.
type Program interface {
	// Key returns the identifier the program was compiled under.
	//
	// Returns:
	//   - string: the program key
	Key() string

	// Bind makes this the current program for subsequent uniform writes and draws.
	Bind()

	// SetUniformMat4 sets a 4x4 matrix uniform. The matrix is column-major.
	//
	// Parameters:
	//   - name: the uniform name
	//   - m: the matrix value
	SetUniformMat4(name string, m mgl32.Mat4)

	// SetUniformVec3 sets a three-component float uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//   - x, y, z: the components
	SetUniformVec3(name string, x, y, z float32)

	// SetUniformVec4 sets a four-component float uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//   - x, y, z, w: the components
	SetUniformVec4(name string, x, y, z, w float32)

	// SetUniformFloat sets a scalar float uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//   - v: the value
	SetUniformFloat(name string, v float32)

	// SetUniformInt sets a scalar integer uniform.
	//
	// Parameters:
	//   - name: the uniform name
	//   - v: the value
	SetUniformInt(name string, v int32)

	// AttributeLocation returns the input location of a named vertex attribute.
	//
	// Parameters:
	//   - name: the attribute name
	//
	// Returns:
	//   - int: the location, or -1 if the program has no such attribute
	AttributeLocation(name string) int

	// Release frees the GPU program. The program must not be used afterwards.
	Release()
}
