package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
)

var (
	// ErrUnknownBuffer is returned when a BufferHandle does not name a live buffer.
	ErrUnknownBuffer = errors.New("unknown buffer handle")

	// ErrUnknownVertexArray is returned when a VertexArrayHandle does not name a live vertex array.
	ErrUnknownVertexArray = errors.New("unknown vertex array handle")

	// ErrNoFrame is returned when a draw is issued outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrOutOfBounds is returned when a sub-range write exceeds the buffer size.
	ErrOutOfBounds = errors.New("write exceeds buffer bounds")
)

// BufferHandle names a vertex buffer owned by a Device. The zero handle is never issued.
type BufferHandle uint32

// VertexArrayHandle names a vertex input binding (buffer + attribute layout) owned by a Device.
// The zero handle is never issued.
type VertexArrayHandle uint32

// VertexAttribute describes one float32 vertex attribute inside an interleaved buffer.
type VertexAttribute struct {
	// Name is the shader input name, resolved through Program.AttributeLocation.
	Name string
	// Components is the number of float32 components (1 to 4).
	Components int
	// Offset is the byte offset of the attribute inside one vertex.
	Offset int
}

// ProgramDescriptor names the sources a Device compiles into a Program.
// The WebGPU device reads WGSLPath; the OpenGL device reads VertexPath and FragmentPath.
type ProgramDescriptor struct {
	Key          string
	WGSLPath     string
	VertexPath   string
	FragmentPath string

	// Overlay disables depth testing and depth writes so the program draws over the scene.
	Overlay bool
	// Blend enables straight alpha blending on the color target.
	Blend bool
}

// Device is the graphics context every GPU resource operation goes through. A Device is
// owned by a Renderer and is only valid on the thread that created it.
type Device interface {
	// CompileProgram compiles and links a line-list program from the descriptor's sources.
	// Success is logged at debug level and failures at error level with the driver's log.
	//
	// Parameters:
	//   - desc: the program sources and state
	//
	// Returns:
	//   - shader.Program: the linked program
	//   - error: the compile or link failure
	CompileProgram(desc ProgramDescriptor) (shader.Program, error)

	// CreateBuffer allocates a vertex buffer of size bytes with undefined content.
	//
	// Parameters:
	//   - label: a debug label
	//   - size: the allocation size in bytes
	//
	// Returns:
	//   - BufferHandle: the new buffer
	//   - error: an error if allocation fails
	CreateBuffer(label string, size int) (BufferHandle, error)

	// BufferData respecifies the whole buffer with data, reallocating it to len(data) bytes.
	// The handle stays valid.
	//
	// Parameters:
	//   - buf: the buffer to respecify
	//   - data: the new contents
	//
	// Returns:
	//   - error: ErrUnknownBuffer or a device failure
	BufferData(buf BufferHandle, data []byte) error

	// BufferSubData overwrites len(data) bytes starting at offset without reallocating.
	//
	// Parameters:
	//   - buf: the buffer to write
	//   - offset: the byte offset of the first written byte
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: ErrUnknownBuffer, ErrOutOfBounds or a device failure
	BufferSubData(buf BufferHandle, offset int, data []byte) error

	// CreateVertexArray binds buf as vertex input for program with the given stride and attributes.
	//
	// Parameters:
	//   - program: a program returned by CompileProgram on this device
	//   - buf: the vertex buffer
	//   - stride: the byte size of one vertex
	//   - attrs: the attributes read from each vertex
	//
	// Returns:
	//   - VertexArrayHandle: the new vertex array
	//   - error: an error if an attribute is unknown to the program or the layout does not match
	CreateVertexArray(program shader.Program, buf BufferHandle, stride int, attrs []VertexAttribute) (VertexArrayHandle, error)

	// DrawLines draws count vertices starting at first as a line list, using the program the
	// vertex array was created for.
	//
	// Parameters:
	//   - vao: the vertex array to draw
	//   - first: the first vertex
	//   - count: the number of vertices
	//
	// Returns:
	//   - error: ErrUnknownVertexArray, ErrNoFrame or a device failure
	DrawLines(vao VertexArrayHandle, first, count int) error

	// DeleteBuffer frees a buffer. Unknown handles are ignored.
	DeleteBuffer(buf BufferHandle)

	// DeleteVertexArray frees a vertex array. Unknown handles are ignored.
	DeleteVertexArray(vao VertexArrayHandle)
}
