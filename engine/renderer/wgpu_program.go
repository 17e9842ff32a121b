package renderer

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// wgpuProgram is a WebGPU render pipeline plus the uniform buffers its shaders declare.
// Uniform setters write into the providers' staging copies; the backend uploads them before each draw.
type wgpuProgram struct {
	key      string
	pipeline pipeline.Pipeline
	vertex   shader.Shader
	fragment shader.Shader

	// providers holds one bind group provider per declared group index.
	providers map[int]bind_group_provider.BindGroupProvider
	// groups lists the provider group indices in ascending order.
	groups []int

	warned map[string]bool
}

var _ shader.Program = &wgpuProgram{}

// newWGPUProgram builds the host side of a program: one provider per bind group with a zeroed
// staging buffer per uniform binding. GPU buffers are attached later by the backend.
func newWGPUProgram(key string, p pipeline.Pipeline) *wgpuProgram {
	prog := &wgpuProgram{
		key:       key,
		pipeline:  p,
		vertex:    p.Shader(shader.ShaderTypeVertex),
		fragment:  p.Shader(shader.ShaderTypeFragment),
		providers: make(map[int]bind_group_provider.BindGroupProvider),
		warned:    make(map[string]bool),
	}

	merged := mergeBindGroupLayouts(prog.vertex.BindGroupLayoutDescriptors(), prog.fragment.BindGroupLayoutDescriptors())
	for g, desc := range merged {
		provider := bind_group_provider.NewBindGroupProvider(
			fmt.Sprintf("%s group %d", key, g),
			bind_group_provider.WithGroup(g),
		)
		for _, entry := range desc.Entries {
			provider.SetBuffer(int(entry.Binding), nil, entry.Buffer.MinBindingSize)
		}
		prog.providers[g] = provider
		prog.groups = append(prog.groups, g)
	}
	sort.Ints(prog.groups)
	return prog
}

func (p *wgpuProgram) Key() string {
	return p.key
}

// Bind is a no-op: the pipeline is set on the render pass when a vertex array is drawn.
func (p *wgpuProgram) Bind() {}

func (p *wgpuProgram) SetUniformMat4(name string, m mgl32.Mat4) {
	p.stage(name, common.SliceToBytes(m[:]))
}

func (p *wgpuProgram) SetUniformVec3(name string, x, y, z float32) {
	p.stage(name, common.SliceToBytes([]float32{x, y, z}))
}

func (p *wgpuProgram) SetUniformVec4(name string, x, y, z, w float32) {
	p.stage(name, common.SliceToBytes([]float32{x, y, z, w}))
}

func (p *wgpuProgram) SetUniformFloat(name string, v float32) {
	p.stage(name, common.SliceToBytes([]float32{v}))
}

func (p *wgpuProgram) SetUniformInt(name string, v int32) {
	p.stage(name, common.SliceToBytes([]int32{v}))
}

func (p *wgpuProgram) AttributeLocation(name string) int {
	return p.vertex.AttributeLocation(name)
}

// Release frees the uniform buffers, bind groups and the render pipeline.
func (p *wgpuProgram) Release() {
	for _, provider := range p.providers {
		provider.Release()
	}
	p.providers = map[int]bind_group_provider.BindGroupProvider{}
	p.groups = nil
	p.pipeline.Release()
}

// pendingWrites collects the dirty uniform bindings of every group.
func (p *wgpuProgram) pendingWrites() []bind_group_provider.BufferWrite {
	var writes []bind_group_provider.BufferWrite
	for _, g := range p.groups {
		writes = append(writes, p.providers[g].PendingWrites()...)
	}
	return writes
}

// stage resolves a uniform by name in the vertex then fragment stage and copies data into its staging bytes.
// Unknown names and size mismatches are logged once per name.
func (p *wgpuProgram) stage(name string, data []byte) {
	field, ok := p.vertex.UniformField(name)
	if !ok {
		field, ok = p.fragment.UniformField(name)
	}
	if !ok {
		p.warnOnce(name, "unknown uniform")
		return
	}
	if uint64(len(data)) > field.Size {
		p.warnOnce(name, "uniform value larger than its declaration", "size", field.Size, "value_size", len(data))
		return
	}
	provider, ok := p.providers[field.Group]
	if !ok {
		p.warnOnce(name, "uniform group has no buffer", "group", field.Group)
		return
	}
	if err := provider.Stage(field.Binding, field.Offset, data); err != nil {
		p.warnOnce(name, "uniform write failed", "error", err)
	}
}

func (p *wgpuProgram) warnOnce(name, msg string, args ...any) {
	if p.warned[name] {
		return
	}
	p.warned[name] = true
	common.Logger().Warn(msg, append([]any{"program", p.key, "uniform", name}, args...)...)
}

// vertexFormatFor returns the float32 vertex format with the given component count.
func vertexFormatFor(components int) (wgpu.VertexFormat, bool) {
	switch components {
	case 1:
		return wgpu.VertexFormatFloat32, true
	case 2:
		return wgpu.VertexFormatFloat32x2, true
	case 3:
		return wgpu.VertexFormatFloat32x3, true
	case 4:
		return wgpu.VertexFormatFloat32x4, true
	}
	return wgpu.VertexFormatUndefined, false
}

// validateVertexLayout checks a requested vertex array against the layout reflected from the vertex shader.
// Every requested attribute must exist, sit at the same offset and have the same float format, and the
// strides must agree.
//
// Parameters:
//   - layout: the reflected vertex buffer layout
//   - locate: resolves an attribute name to its shader location, -1 if unknown
//   - stride: the requested vertex stride in bytes
//   - attrs: the requested attributes
//
// Returns:
//   - error: the first mismatch found
func validateVertexLayout(layout wgpu.VertexBufferLayout, locate func(string) int, stride int, attrs []VertexAttribute) error {
	if uint64(stride) != layout.ArrayStride {
		return fmt.Errorf("vertex stride %d does not match shader stride %d", stride, layout.ArrayStride)
	}
	for _, a := range attrs {
		loc := locate(a.Name)
		if loc < 0 {
			return fmt.Errorf("vertex attribute %q is not a shader input", a.Name)
		}
		format, ok := vertexFormatFor(a.Components)
		if !ok {
			return fmt.Errorf("vertex attribute %q has %d components, want 1 to 4", a.Name, a.Components)
		}
		var found *wgpu.VertexAttribute
		for i := range layout.Attributes {
			if int(layout.Attributes[i].ShaderLocation) == loc {
				found = &layout.Attributes[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("vertex attribute %q at location %d is missing from the shader layout", a.Name, loc)
		}
		if found.Offset != uint64(a.Offset) {
			return fmt.Errorf("vertex attribute %q offset %d does not match shader offset %d", a.Name, a.Offset, found.Offset)
		}
		if found.Format != format {
			return fmt.Errorf("vertex attribute %q format %v does not match shader format %v", a.Name, format, found.Format)
		}
	}
	return nil
}
