package shader

import (
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lineShaderPath = filepath.Join("..", "..", "..", "assets", "shaders", "line_renderer.wgsl")

const paramsSource = `
struct Params {
    tint: vec3<f32>,
    strength: f32,
    scale: vec2<f32>,
    mvp: mat4x4<f32>,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(1) @binding(0) var<uniform> time: f32;

@fragment
fn main_fs() -> @location(0) vec4<f32> {
    return vec4<f32>(params.tint * params.strength * time, 1.0);
}
`

func TestLineShaderVertexReflection(t *testing.T) {
	s, err := NewShader("lines_vs", ShaderTypeVertex, lineShaderPath)
	require.NoError(t, err)

	assert.Equal(t, "lines_vs", s.Key())
	assert.Equal(t, ShaderTypeVertex, s.ShaderType())
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)

	require.Len(t, s.VertexLayouts(), 1)
	layout := s.VertexLayout(0)
	require.Len(t, layout, 1)
	assert.Equal(t, uint64(24), layout[0].ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout[0].StepMode)
	assert.Equal(t, []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
	}, layout[0].Attributes)

	assert.Equal(t, 0, s.AttributeLocation("i_position"))
	assert.Equal(t, 1, s.AttributeLocation("i_color"))
	assert.Equal(t, -1, s.AttributeLocation("clip_position"))

	field, ok := s.UniformField("u_pvm")
	require.True(t, ok)
	assert.Equal(t, UniformField{Group: 0, Binding: 0, Offset: 0, Size: 64}, field)

	alpha, ok := s.UniformField("u_alpha")
	require.True(t, ok)
	assert.Equal(t, UniformField{Group: 0, Binding: 0, Offset: 64, Size: 4}, alpha)

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[0].Buffer.Type)
	// mat4 plus f32, rounded up to the struct's 16-byte alignment
	assert.Equal(t, uint64(80), desc.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, desc.Entries[0].Visibility)
	assert.Equal(t, "transform", s.BindGroupVarName(0, 0))
	assert.Equal(t, "", s.BindGroupVarName(3, 0))
}

func TestLineShaderFragmentReflection(t *testing.T) {
	s, err := NewShader("lines_fs", ShaderTypeFragment, lineShaderPath)
	require.NoError(t, err)

	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts())
	assert.Equal(t, -1, s.AttributeLocation("i_position"))
	assert.Equal(t, wgpu.ShaderStageFragment, s.BindGroupLayoutDescriptor(0).Entries[0].Visibility)
}

func TestUniformFieldOffsets(t *testing.T) {
	s, err := NewShaderFromSource("params", ShaderTypeFragment, paramsSource)
	require.NoError(t, err)

	tests := []struct {
		name string
		want UniformField
	}{
		{"params", UniformField{Group: 0, Binding: 0, Offset: 0, Size: 96}},
		{"tint", UniformField{Group: 0, Binding: 0, Offset: 0, Size: 12}},
		{"strength", UniformField{Group: 0, Binding: 0, Offset: 12, Size: 4}},
		{"scale", UniformField{Group: 0, Binding: 0, Offset: 16, Size: 8}},
		{"mvp", UniformField{Group: 0, Binding: 0, Offset: 32, Size: 64}},
		{"time", UniformField{Group: 1, Binding: 0, Offset: 0, Size: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.UniformField(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := s.UniformField("missing")
	assert.False(t, ok)

	assert.Equal(t, uint64(96), s.BindGroupLayoutDescriptor(0).Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(4), s.BindGroupLayoutDescriptor(1).Entries[0].Buffer.MinBindingSize)
}

func TestNewShaderFromSourceReportsAllProblems(t *testing.T) {
	source := `
@group(0) @binding(0) var albedo: texture_2d<f32>;
@group(0) @binding(1) var albedoSampler: sampler;
`
	_, err := NewShaderFromSource("broken", ShaderTypeVertex, source)
	require.Error(t, err)
	assert.ErrorContains(t, err, "no @vertex entry point")
	assert.ErrorContains(t, err, "albedo")
	assert.ErrorContains(t, err, "albedoSampler")
}

func TestNewShaderMissingFile(t *testing.T) {
	_, err := NewShader("missing", ShaderTypeVertex, filepath.Join(t.TempDir(), "nope.wgsl"))
	assert.ErrorContains(t, err, "failed to read source file")

	_, err = NewShader("empty", ShaderTypeVertex, "")
	assert.ErrorContains(t, err, "no source path")
}

func TestCommentsAreIgnored(t *testing.T) {
	source := `
/* struct Old { @location(0) a: vec2f, }; /* nested */ still comment */
struct In {
    @location(0) pos: vec2f, // trailing
    // @location(1) dead: vec4f,
    @location(1) uv: vec2f,
};
@vertex fn main_vs(in: In) -> @builtin(position) vec4f { return vec4f(in.pos, 0.0, 1.0); }
`
	s, err := NewShaderFromSource("comments", ShaderTypeVertex, source)
	require.NoError(t, err)

	require.Len(t, s.VertexLayouts(), 1)
	assert.Equal(t, uint64(16), s.VertexLayout(0)[0].ArrayStride)
	assert.Equal(t, 1, s.AttributeLocation("uv"))
	assert.Equal(t, -1, s.AttributeLocation("dead"))
	assert.Equal(t, -1, s.AttributeLocation("a"))
}

func TestStripBlockCommentsNested(t *testing.T) {
	assert.Equal(t, "a  b", stripBlockComments("a /* x /* y */ z */ b"))
}

func TestSplitAtTopLevelCommas(t *testing.T) {
	parts := splitAtTopLevelCommas("a: array<f32, 4>, b: f32")
	require.Len(t, parts, 2)
	assert.Equal(t, "a: array<f32, 4>", parts[0])
}

func TestShaderTypeString(t *testing.T) {
	assert.Equal(t, "vertex", ShaderTypeVertex.String())
	assert.Equal(t, "fragment", ShaderTypeFragment.String())
}
