package line_renderer

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProgram struct {
	key      string
	binds    int
	mat4s    map[string]mgl32.Mat4
	floats   map[string]float32
	released int
}

var _ shader.Program = &fakeProgram{}

func (p *fakeProgram) Key() string { return p.key }
func (p *fakeProgram) Bind()       { p.binds++ }
func (p *fakeProgram) SetUniformMat4(name string, m mgl32.Mat4) {
	p.mat4s[name] = m
}
func (p *fakeProgram) SetUniformFloat(name string, v float32) {
	p.floats[name] = v
}
func (p *fakeProgram) SetUniformVec3(string, float32, float32, float32)          {}
func (p *fakeProgram) SetUniformVec4(string, float32, float32, float32, float32) {}
func (p *fakeProgram) SetUniformInt(string, int32)                               {}
func (p *fakeProgram) AttributeLocation(name string) int {
	switch name {
	case PositionAttribute:
		return 0
	case ColorAttribute:
		return 1
	}
	return -1
}
func (p *fakeProgram) Release() { p.released++ }

type draw struct {
	vao          renderer.VertexArrayHandle
	first, count int
}

// fakeDevice records every resource call and keeps a copy of the bytes each buffer holds.
type fakeDevice struct {
	program *fakeProgram
	desc    renderer.ProgramDescriptor

	buffers map[renderer.BufferHandle][]byte
	vaos    map[renderer.VertexArrayHandle]renderer.BufferHandle
	next    uint32

	stride int
	attrs  []renderer.VertexAttribute

	calls []string
	draws []draw

	compileErr, bufferErr, vaoErr, drawErr, subDataErr error

	deletedBuffers, deletedVAOs int
}

var _ renderer.Device = &fakeDevice{}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		buffers: make(map[renderer.BufferHandle][]byte),
		vaos:    make(map[renderer.VertexArrayHandle]renderer.BufferHandle),
	}
}

func (d *fakeDevice) CompileProgram(desc renderer.ProgramDescriptor) (shader.Program, error) {
	if d.compileErr != nil {
		return nil, d.compileErr
	}
	d.desc = desc
	d.program = &fakeProgram{key: desc.Key, mat4s: make(map[string]mgl32.Mat4), floats: make(map[string]float32)}
	return d.program, nil
}

func (d *fakeDevice) CreateBuffer(label string, size int) (renderer.BufferHandle, error) {
	if d.bufferErr != nil {
		return 0, d.bufferErr
	}
	d.next++
	h := renderer.BufferHandle(d.next)
	d.buffers[h] = make([]byte, size)
	return h, nil
}

func (d *fakeDevice) BufferData(buf renderer.BufferHandle, data []byte) error {
	if _, ok := d.buffers[buf]; !ok {
		return renderer.ErrUnknownBuffer
	}
	d.calls = append(d.calls, "data")
	d.buffers[buf] = append([]byte(nil), data...)
	return nil
}

func (d *fakeDevice) BufferSubData(buf renderer.BufferHandle, offset int, data []byte) error {
	d.calls = append(d.calls, "subdata")
	if d.subDataErr != nil {
		return d.subDataErr
	}
	held, ok := d.buffers[buf]
	if !ok {
		return renderer.ErrUnknownBuffer
	}
	if offset+len(data) > len(held) {
		return renderer.ErrOutOfBounds
	}
	copy(held[offset:], data)
	return nil
}

func (d *fakeDevice) CreateVertexArray(program shader.Program, buf renderer.BufferHandle, stride int, attrs []renderer.VertexAttribute) (renderer.VertexArrayHandle, error) {
	if d.vaoErr != nil {
		return 0, d.vaoErr
	}
	d.next++
	h := renderer.VertexArrayHandle(d.next)
	d.vaos[h] = buf
	d.stride = stride
	d.attrs = attrs
	return h, nil
}

func (d *fakeDevice) DrawLines(vao renderer.VertexArrayHandle, first, count int) error {
	d.calls = append(d.calls, "draw")
	if d.drawErr != nil {
		return d.drawErr
	}
	d.draws = append(d.draws, draw{vao: vao, first: first, count: count})
	return nil
}

func (d *fakeDevice) DeleteBuffer(buf renderer.BufferHandle) {
	d.deletedBuffers++
	delete(d.buffers, buf)
}

func (d *fakeDevice) DeleteVertexArray(vao renderer.VertexArrayHandle) {
	d.deletedVAOs++
	delete(d.vaos, vao)
}

// heldFloats returns the first n floats of the only buffer on the device.
func (d *fakeDevice) heldFloats(t *testing.T, n int) []float32 {
	t.Helper()
	require.Len(t, d.buffers, 1)
	for _, data := range d.buffers {
		out := make([]float32, n)
		require.GreaterOrEqual(t, len(data), n*4)
		copy(common.SliceToBytes(out), data[:n*4])
		return out
	}
	return nil
}

func newTestRenderer(t *testing.T, capacity int, opts ...LineRendererBuilderOption) (*lineRenderer, *fakeDevice) {
	t.Helper()
	dev := newFakeDevice()
	lr, err := NewLineRenderer(dev, capacity, opts...)
	require.NoError(t, err)
	return lr.(*lineRenderer), dev
}

var (
	red   = mgl32.Vec3{1, 0, 0}
	green = mgl32.Vec3{0, 1, 0}
	blue  = mgl32.Vec3{0, 0, 1}
)

func TestNewLineRendererAllocates(t *testing.T) {
	lr, dev := newTestRenderer(t, 1024, WithLabel("debug"), WithShaderSources("a.wgsl", "", "c.frag"), WithOverlay(true))

	assert.Equal(t, 1024, lr.Capacity())
	assert.Equal(t, 1024, lr.LastFloatsPushed())
	assert.Equal(t, 0, lr.FloatsPushed())
	assert.Equal(t, 0, lr.Len())
	assert.Equal(t, 1024, cap(lr.host))
	assert.True(t, lr.Enabled())

	assert.Equal(t, renderer.ProgramDescriptor{
		Key:          "debug",
		WGSLPath:     "a.wgsl",
		VertexPath:   DefaultVertexPath,
		FragmentPath: "c.frag",
		Overlay:      true,
	}, dev.desc)

	for _, data := range dev.buffers {
		assert.Len(t, data, 4096)
	}
	assert.Equal(t, 24, dev.stride)
	assert.Equal(t, []renderer.VertexAttribute{
		{Name: "i_position", Components: 3, Offset: 0},
		{Name: "i_color", Components: 3, Offset: 12},
	}, dev.attrs)
}

func TestNewLineRendererRejectsNegativeCapacity(t *testing.T) {
	_, err := NewLineRenderer(newFakeDevice(), -1)
	assert.ErrorIs(t, err, ErrNegativeCapacity)
}

func TestNewLineRendererReleasesOnFailure(t *testing.T) {
	t.Run("compile", func(t *testing.T) {
		dev := newFakeDevice()
		dev.compileErr = errors.New("bad shader")
		_, err := NewLineRenderer(dev, 16)
		assert.ErrorContains(t, err, "bad shader")
		assert.Zero(t, dev.deletedBuffers)
	})

	t.Run("buffer", func(t *testing.T) {
		dev := newFakeDevice()
		dev.bufferErr = errors.New("out of memory")
		_, err := NewLineRenderer(dev, 16)
		assert.ErrorContains(t, err, "out of memory")
		require.NotNil(t, dev.program)
		assert.Equal(t, 1, dev.program.released)
	})

	t.Run("vertex array", func(t *testing.T) {
		dev := newFakeDevice()
		dev.vaoErr = errors.New("layout mismatch")
		_, err := NewLineRenderer(dev, 16)
		assert.ErrorContains(t, err, "layout mismatch")
		assert.Equal(t, 1, dev.program.released)
		assert.Equal(t, 1, dev.deletedBuffers)
		assert.Zero(t, dev.deletedVAOs)
	})
}

func TestPushLineAppendsInterleaved(t *testing.T) {
	lr, _ := newTestRenderer(t, 0)

	lr.PushLine(mgl32.Vec3{1, 2, 3}, red, mgl32.Vec3{4, 5, 6}, blue)
	assert.Equal(t, []float32{1, 2, 3, 1, 0, 0, 4, 5, 6, 0, 0, 1}, lr.host)
	assert.Equal(t, 12, lr.FloatsPushed())

	// growth past the reserved capacity is transparent
	for range 100 {
		lr.PushLine(mgl32.Vec3{}, green, mgl32.Vec3{}, green)
	}
	assert.Equal(t, 101*SegmentFloats, lr.Len())
	assert.Equal(t, 101*SegmentFloats, lr.FloatsPushed())
}

func TestFlushRoundTrip(t *testing.T) {
	lr, dev := newTestRenderer(t, 1024)
	transform := mgl32.Translate3D(1, 2, 3)

	lr.PushLine(mgl32.Vec3{0, 0, 0}, red, mgl32.Vec3{1, 0, 0}, red)
	lr.PushLine(mgl32.Vec3{0, 0, 0}, green, mgl32.Vec3{0, 1, 0}, green)
	require.NoError(t, lr.Flush(transform))

	assert.Equal(t, 1, dev.program.binds)
	assert.Equal(t, transform, dev.program.mat4s[TransformUniform])
	require.Len(t, dev.draws, 1)
	assert.Equal(t, draw{vao: lr.vao, first: 0, count: 4}, dev.draws[0])
	assert.Equal(t, []float32{
		0, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0,
		0, 0, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0,
	}, dev.heldFloats(t, 24))

	assert.Equal(t, 0, lr.Len())
	assert.Equal(t, 0, lr.FloatsPushed())
	assert.Equal(t, 24, lr.LastFloatsPushed())
}

func TestFlushEmptyIsNoop(t *testing.T) {
	lr, dev := newTestRenderer(t, 1024)

	require.NoError(t, lr.Flush(mgl32.Ident4()))
	assert.Empty(t, dev.calls)
	assert.Zero(t, dev.program.binds)
	assert.Equal(t, 1024, lr.LastFloatsPushed())

	lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 1, 1}, red)
	require.NoError(t, lr.Flush(mgl32.Ident4()))
	require.NoError(t, lr.Flush(mgl32.Ident4()))

	assert.Len(t, dev.draws, 1)
	assert.Equal(t, 12, lr.LastFloatsPushed())
}

func TestFlushUploadStrategy(t *testing.T) {
	lr, dev := newTestRenderer(t, 1024)
	push := func(segments int) {
		for range segments {
			lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, red)
		}
	}

	// one segment fits the initial estimate of 1024 floats
	push(1)
	require.NoError(t, lr.Flush(mgl32.Ident4()))
	assert.Equal(t, []string{"subdata", "draw"}, dev.calls)
	assert.Equal(t, 12, lr.LastFloatsPushed())

	dev.calls = nil
	push(3)
	require.NoError(t, lr.Flush(mgl32.Ident4()))
	assert.Equal(t, []string{"data", "draw"}, dev.calls)
	assert.Equal(t, 36, lr.LastFloatsPushed())

	dev.calls = nil
	push(3)
	require.NoError(t, lr.Flush(mgl32.Ident4()))
	assert.Equal(t, []string{"subdata", "draw"}, dev.calls, "steady size reuses the allocation")

	dev.calls = nil
	push(2)
	require.NoError(t, lr.Flush(mgl32.Ident4()))
	assert.Equal(t, []string{"subdata", "draw"}, dev.calls, "shrinking size reuses the allocation")
	assert.Equal(t, 24, lr.LastFloatsPushed())

	assert.Equal(t, []draw{
		{vao: lr.vao, count: 2},
		{vao: lr.vao, count: 6},
		{vao: lr.vao, count: 6},
		{vao: lr.vao, count: 4},
	}, dev.draws)
}

func TestFlushGrowsPastCapacity(t *testing.T) {
	lr, dev := newTestRenderer(t, 12)

	lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, red)
	lr.PushLine(mgl32.Vec3{}, blue, mgl32.Vec3{0, 0, 1}, blue)
	require.NoError(t, lr.Flush(mgl32.Ident4()))

	assert.Equal(t, []string{"data", "draw"}, dev.calls)
	for _, data := range dev.buffers {
		assert.Len(t, data, 24*4)
	}
}

func TestDisabledPushIsNoop(t *testing.T) {
	lr, dev := newTestRenderer(t, 64, WithEnabled(false))
	assert.False(t, lr.Enabled())

	lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, red)
	assert.Equal(t, 0, lr.Len())
	assert.Equal(t, 0, lr.FloatsPushed())
	require.NoError(t, lr.Flush(mgl32.Ident4()))
	assert.Empty(t, dev.calls)

	assert.True(t, lr.Toggle())
	lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, red)

	// disabling keeps what was already pushed
	lr.SetEnabled(false)
	lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, red)
	assert.Equal(t, 12, lr.Len())
	require.NoError(t, lr.Flush(mgl32.Ident4()))
	assert.Len(t, dev.draws, 1)
}

func TestFlushResetsOnDeviceError(t *testing.T) {
	lr, dev := newTestRenderer(t, 64)
	lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, red)

	dev.subDataErr = errors.New("device lost")
	err := lr.Flush(mgl32.Ident4())
	assert.ErrorContains(t, err, "device lost")
	assert.Equal(t, []string{"subdata"}, dev.calls, "no draw after a failed upload")
	assert.Equal(t, 0, lr.Len())
	assert.Equal(t, 0, lr.FloatsPushed())
	assert.Equal(t, 12, lr.LastFloatsPushed())

	dev.subDataErr = nil
	dev.drawErr = renderer.ErrNoFrame
	lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, red)
	err = lr.Flush(mgl32.Ident4())
	assert.ErrorIs(t, err, renderer.ErrNoFrame)
	assert.Equal(t, 0, lr.Len())
}

func TestDestroyIsIdempotent(t *testing.T) {
	lr, dev := newTestRenderer(t, 64)
	program := dev.program

	lr.Destroy()
	lr.Destroy()

	assert.Equal(t, 1, program.released)
	assert.Equal(t, 1, dev.deletedBuffers)
	assert.Equal(t, 1, dev.deletedVAOs)
	assert.Empty(t, dev.buffers)
	assert.Empty(t, dev.vaos)
}

func TestAlphaEnablesBlending(t *testing.T) {
	tests := []struct {
		name      string
		opts      []LineRendererBuilderOption
		wantAlpha float32
		wantBlend bool
	}{
		{"opaque by default", nil, 1, false},
		{"translucent", []LineRendererBuilderOption{WithAlpha(0.4)}, 0.4, true},
		{"clamped above one", []LineRendererBuilderOption{WithAlpha(3)}, 1, false},
		{"clamped below zero", []LineRendererBuilderOption{WithAlpha(-1)}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr, dev := newTestRenderer(t, 64, tt.opts...)
			assert.Equal(t, tt.wantBlend, dev.desc.Blend)

			lr.PushLine(mgl32.Vec3{}, red, mgl32.Vec3{1, 0, 0}, green)
			require.NoError(t, lr.Flush(mgl32.Ident4()))
			assert.InDelta(t, tt.wantAlpha, dev.program.floats[AlphaUniform], 1e-6)
		})
	}
}
