package renderer

import (
	"fmt"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/go-gl/gl/v4.5-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// fragmentOutput is the fragment shader output bound to color attachment 0 before linking.
const fragmentOutput = "o_color"

// glProgram is a linked GLSL program with a uniform location cache.
type glProgram struct {
	key     string
	handle  uint32
	overlay bool
	blend   bool

	locations map[string]int32
	warned    map[string]bool
}

var _ shader.Program = &glProgram{}

// cString returns s with a trailing NUL, as the gl.Str helpers require.
func cString(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

// compileGLShader compiles one stage and returns the shader object or the driver's info log as an error.
func compileGLShader(kind uint32, path string) (uint32, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read shader source %s: %w", path, err)
	}

	handle := gl.CreateShader(kind)
	csources, free := gl.Strs(cString(string(src)))
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)
		return 0, fmt.Errorf("failed to compile %s: %s", path, strings.TrimRight(msg, "\x00"))
	}
	return handle, nil
}

// linkGLProgram compiles both stages, binds the fragment output and links them.
//
// Parameters:
//   - desc: the program descriptor with VertexPath and FragmentPath set
//
// Returns:
//   - *glProgram: the linked program
//   - error: the compile or link failure with the driver's info log
func linkGLProgram(desc ProgramDescriptor) (*glProgram, error) {
	if desc.VertexPath == "" || desc.FragmentPath == "" {
		return nil, fmt.Errorf("program %s: vertex and fragment GLSL sources are required", desc.Key)
	}

	vs, err := compileGLShader(gl.VERTEX_SHADER, desc.VertexPath)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", desc.Key, err)
	}
	defer gl.DeleteShader(vs)
	fs, err := compileGLShader(gl.FRAGMENT_SHADER, desc.FragmentPath)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", desc.Key, err)
	}
	defer gl.DeleteShader(fs)

	handle := gl.CreateProgram()
	gl.AttachShader(handle, vs)
	gl.AttachShader(handle, fs)
	gl.BindFragDataLocation(handle, 0, gl.Str(cString(fragmentOutput)))
	gl.LinkProgram(handle)
	gl.DetachShader(handle, vs)
	gl.DetachShader(handle, fs)

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)
		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteProgram(handle)
		return nil, fmt.Errorf("program %s: failed to link: %s", desc.Key, strings.TrimRight(msg, "\x00"))
	}

	return &glProgram{
		key:       desc.Key,
		handle:    handle,
		overlay:   desc.Overlay,
		blend:     desc.Blend,
		locations: make(map[string]int32),
		warned:    make(map[string]bool),
	}, nil
}

func (p *glProgram) Key() string {
	return p.key
}

func (p *glProgram) Bind() {
	gl.UseProgram(p.handle)
}

// location resolves and caches a uniform location. Unknown names are logged once.
func (p *glProgram) location(name string) (int32, bool) {
	loc, ok := p.locations[name]
	if !ok {
		loc = gl.GetUniformLocation(p.handle, gl.Str(cString(name)))
		p.locations[name] = loc
	}
	if loc < 0 {
		if !p.warned[name] {
			p.warned[name] = true
			common.Logger().Warn("unknown uniform", "program", p.key, "uniform", name)
		}
		return loc, false
	}
	return loc, true
}

func (p *glProgram) SetUniformMat4(name string, m mgl32.Mat4) {
	if loc, ok := p.location(name); ok {
		gl.ProgramUniformMatrix4fv(p.handle, loc, 1, false, &m[0])
	}
}

func (p *glProgram) SetUniformVec3(name string, x, y, z float32) {
	if loc, ok := p.location(name); ok {
		gl.ProgramUniform3f(p.handle, loc, x, y, z)
	}
}

func (p *glProgram) SetUniformVec4(name string, x, y, z, w float32) {
	if loc, ok := p.location(name); ok {
		gl.ProgramUniform4f(p.handle, loc, x, y, z, w)
	}
}

func (p *glProgram) SetUniformFloat(name string, v float32) {
	if loc, ok := p.location(name); ok {
		gl.ProgramUniform1f(p.handle, loc, v)
	}
}

func (p *glProgram) SetUniformInt(name string, v int32) {
	if loc, ok := p.location(name); ok {
		gl.ProgramUniform1i(p.handle, loc, v)
	}
}

func (p *glProgram) AttributeLocation(name string) int {
	return int(gl.GetAttribLocation(p.handle, gl.Str(cString(name))))
}

func (p *glProgram) Release() {
	if p.handle == 0 {
		return
	}
	gl.DeleteProgram(p.handle)
	p.handle = 0
}
