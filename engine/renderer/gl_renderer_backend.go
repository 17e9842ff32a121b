package renderer

import (
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/window"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// glRendererBackendImpl renders through an OpenGL 4.5 core context using direct state access.
// Every call must happen on the thread that owns the window's context.
type glRendererBackendImpl struct {
	window     window.Window
	clearColor [4]float32

	buffers      map[BufferHandle]int
	vertexArrays map[VertexArrayHandle]*glProgram
	programs     map[*glProgram]struct{}

	inFrame bool
}

var _ RendererBackend = &glRendererBackendImpl{}

// newGLRendererBackend loads GL entry points for the window's current context.
//
// Parameters:
//   - win: a window created with window.ClientAPIOpenGL
//
// Returns:
//   - *glRendererBackendImpl: the backend
//   - error: an error if GL could not be initialized
func newGLRendererBackend(win window.Window) (*glRendererBackendImpl, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	common.Logger().Info("opengl context ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	return &glRendererBackendImpl{
		window:       win,
		clearColor:   [4]float32{0.1, 0.1, 0.1, 1.0},
		buffers:      make(map[BufferHandle]int),
		vertexArrays: make(map[VertexArrayHandle]*glProgram),
		programs:     make(map[*glProgram]struct{}),
	}, nil
}

func (b *glRendererBackendImpl) ConfigureSurface(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	return nil
}

// SetPresentMode sets the swap interval of the current context.
func (b *glRendererBackendImpl) SetPresentMode(mode PresentMode) {
	glfw.SwapInterval(mode.SwapInterval())
	common.Logger().Debug("swap interval set", "present_mode", mode.String(), "interval", mode.SwapInterval())
}

func (b *glRendererBackendImpl) SetClearColor(r, g, bl, a float64) {
	b.clearColor = [4]float32{float32(r), float32(g), float32(bl), float32(a)}
}

// Projection maps depth into OpenGL's [-1, 1] clip range.
func (b *glRendererBackendImpl) Projection(fovYDeg, aspect, near, far float32) mgl32.Mat4 {
	return common.PerspectiveNO(mgl32.DegToRad(fovYDeg), aspect, near, far)
}

func (b *glRendererBackendImpl) CompileProgram(desc ProgramDescriptor) (shader.Program, error) {
	prog, err := linkGLProgram(desc)
	if err != nil {
		common.Logger().Error("program compile failed", "program", desc.Key, "error", err)
		return nil, err
	}
	b.programs[prog] = struct{}{}
	common.Logger().Debug("program compiled", "program", desc.Key, "vertex", desc.VertexPath, "fragment", desc.FragmentPath)
	return prog, nil
}

func (b *glRendererBackendImpl) CreateBuffer(label string, size int) (BufferHandle, error) {
	if size < 0 {
		return 0, fmt.Errorf("buffer %s: negative size %d", label, size)
	}
	var name uint32
	gl.CreateBuffers(1, &name)
	if name == 0 {
		return 0, fmt.Errorf("buffer %s: glCreateBuffers returned no name", label)
	}
	gl.NamedBufferData(name, size, nil, gl.DYNAMIC_DRAW)
	gl.ObjectLabel(gl.BUFFER, name, int32(len(label)), gl.Str(cString(label)))
	h := BufferHandle(name)
	b.buffers[h] = size
	return h, nil
}

func (b *glRendererBackendImpl) BufferData(h BufferHandle, data []byte) error {
	if _, ok := b.buffers[h]; !ok {
		return ErrUnknownBuffer
	}
	gl.NamedBufferData(uint32(h), len(data), bytesPtr(data), gl.DYNAMIC_DRAW)
	b.buffers[h] = len(data)
	common.Logger().Debug("vertex buffer respecified", "buffer", uint32(h), "bytes", len(data))
	return nil
}

func (b *glRendererBackendImpl) BufferSubData(h BufferHandle, offset int, data []byte) error {
	size, ok := b.buffers[h]
	if !ok {
		return ErrUnknownBuffer
	}
	if offset < 0 || offset+len(data) > size {
		return fmt.Errorf("buffer %d: %d bytes at %d in %d: %w", uint32(h), len(data), offset, size, ErrOutOfBounds)
	}
	if len(data) == 0 {
		return nil
	}
	gl.NamedBufferSubData(uint32(h), offset, len(data), bytesPtr(data))
	return nil
}

// bytesPtr returns a pointer to the first byte, or nil for empty data.
func bytesPtr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(&data[0])
}

func (b *glRendererBackendImpl) CreateVertexArray(program shader.Program, buf BufferHandle, stride int, attrs []VertexAttribute) (VertexArrayHandle, error) {
	prog, ok := program.(*glProgram)
	if !ok {
		return 0, fmt.Errorf("program %s was not compiled by the OpenGL device", program.Key())
	}
	if _, ok := b.buffers[buf]; !ok {
		return 0, ErrUnknownBuffer
	}

	// resolve every location before creating GL objects
	locations := make([]uint32, len(attrs))
	for i, a := range attrs {
		loc := prog.AttributeLocation(a.Name)
		if loc < 0 {
			return 0, fmt.Errorf("program %s: vertex attribute %q is not a shader input", prog.key, a.Name)
		}
		if a.Components < 1 || a.Components > 4 {
			return 0, fmt.Errorf("program %s: vertex attribute %q has %d components, want 1 to 4", prog.key, a.Name, a.Components)
		}
		locations[i] = uint32(loc)
	}

	var vao uint32
	gl.CreateVertexArrays(1, &vao)
	if vao == 0 {
		return 0, fmt.Errorf("program %s: glCreateVertexArrays returned no name", prog.key)
	}
	gl.VertexArrayVertexBuffer(vao, 0, uint32(buf), 0, int32(stride))
	for i, a := range attrs {
		gl.VertexArrayAttribFormat(vao, locations[i], int32(a.Components), gl.FLOAT, false, uint32(a.Offset))
		gl.VertexArrayAttribBinding(vao, locations[i], 0)
		gl.EnableVertexArrayAttrib(vao, locations[i])
	}

	h := VertexArrayHandle(vao)
	b.vertexArrays[h] = prog
	return h, nil
}

func (b *glRendererBackendImpl) DrawLines(vao VertexArrayHandle, first, count int) error {
	prog, ok := b.vertexArrays[vao]
	if !ok {
		return ErrUnknownVertexArray
	}
	if !b.inFrame {
		return ErrNoFrame
	}
	if count <= 0 {
		return nil
	}

	prog.Bind()
	if prog.overlay {
		gl.Disable(gl.DEPTH_TEST)
		gl.DepthMask(false)
		defer func() {
			gl.Enable(gl.DEPTH_TEST)
			gl.DepthMask(true)
		}()
	}
	if prog.blend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		defer gl.Disable(gl.BLEND)
	}

	gl.BindVertexArray(uint32(vao))
	gl.DrawArrays(gl.LINES, int32(first), int32(count))
	gl.BindVertexArray(0)
	return nil
}

func (b *glRendererBackendImpl) DeleteBuffer(h BufferHandle) {
	if _, ok := b.buffers[h]; !ok {
		return
	}
	name := uint32(h)
	gl.DeleteBuffers(1, &name)
	delete(b.buffers, h)
}

func (b *glRendererBackendImpl) DeleteVertexArray(h VertexArrayHandle) {
	if _, ok := b.vertexArrays[h]; !ok {
		return
	}
	name := uint32(h)
	gl.DeleteVertexArrays(1, &name)
	delete(b.vertexArrays, h)
}

func (b *glRendererBackendImpl) BeginFrame() error {
	if b.inFrame {
		return fmt.Errorf("previous frame not ended")
	}
	gl.ClearColor(b.clearColor[0], b.clearColor[1], b.clearColor[2], b.clearColor[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	b.inFrame = true
	return nil
}

// EndFrame reports any pending GL error for the frame.
func (b *glRendererBackendImpl) EndFrame() error {
	if !b.inFrame {
		return ErrNoFrame
	}
	b.inFrame = false
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("opengl error 0x%04X", code)
	}
	return nil
}

func (b *glRendererBackendImpl) Present() {
	b.window.SwapBuffers()
}

func (b *glRendererBackendImpl) Release() {
	for h := range b.vertexArrays {
		b.DeleteVertexArray(h)
	}
	for h := range b.buffers {
		b.DeleteBuffer(h)
	}
	for prog := range b.programs {
		prog.Release()
	}
	clear(b.programs)
}
