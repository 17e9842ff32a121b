package line_renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Floats is the number of float32 values per vertex: position xyz followed by color rgb.
	Floats = 6
	// SegmentFloats is the number of float32 values one PushLine appends.
	SegmentFloats = 2 * Floats
	// Stride is the byte size of one interleaved vertex.
	Stride = Floats * 4

	// TransformUniform is the combined projection-view-model matrix uniform.
	TransformUniform = "u_pvm"
	// AlphaUniform is the opacity every segment is drawn with.
	AlphaUniform = "u_alpha"
	// PositionAttribute and ColorAttribute are the vertex inputs the shaders must declare.
	PositionAttribute = "i_position"
	ColorAttribute    = "i_color"
)

// ErrNegativeCapacity is returned by NewLineRenderer for a capacity below zero.
var ErrNegativeCapacity = errors.New("line renderer capacity must not be negative")

// attributes is the vertex layout shared by both backends.
var attributes = []renderer.VertexAttribute{
	{Name: PositionAttribute, Components: 3, Offset: 0},
	{Name: ColorAttribute, Components: 3, Offset: 12},
}

// lineRenderer batches colored line segments on the host and draws them in a single call per flush.
type lineRenderer struct {
	device renderer.Device

	label   string
	sources renderer.ProgramDescriptor
	enabled bool
	alpha   float32

	program shader.Program
	buffer  renderer.BufferHandle
	vao     renderer.VertexArrayHandle

	// host holds interleaved vertices; it grows without bound between flushes.
	host     []float32
	capacity int

	floatsPushed     int
	lastFloatsPushed int

	destroyed bool
}

// LineRenderer accumulates line segments during a frame and uploads and draws them in one Flush.
//
// Usage pattern:
//  1. PushLine any number of segments
//  2. Flush once with the frame's transform
//  3. Destroy when the device is about to go away
type LineRenderer interface {
	// PushLine appends one segment from posA to posB with per-end colors.
	// Does nothing while the renderer is disabled.
	//
	// Parameters:
	//   - posA, colorA: the first end point and its color
	//   - posB, colorB: the second end point and its color
	PushLine(posA, colorA, posB, colorB mgl32.Vec3)

	// Flush uploads the pushed vertices and draws them as a line list with the given transform,
	// then clears the batch. Fewer than one full segment on the host is a no-op.
	// The batch is cleared even when the device reports an error.
	//
	// Parameters:
	//   - transform: the projection * view * model matrix
	//
	// Returns:
	//   - error: the device failure, if any
	Flush(transform mgl32.Mat4) error

	// Destroy releases the program, buffer and vertex array. Later calls do nothing.
	Destroy()

	// SetEnabled turns segment collection on or off.
	SetEnabled(enabled bool)

	// Enabled reports whether PushLine collects segments.
	Enabled() bool

	// Toggle flips the enabled flag and returns the new value.
	Toggle() bool

	// Len returns the number of floats currently on the host.
	Len() int

	// FloatsPushed returns the number of floats pushed since the last flush.
	FloatsPushed() int

	// LastFloatsPushed returns the number of floats the device buffer was last sized or filled for.
	LastFloatsPushed() int

	// Capacity returns the initial capacity in floats.
	Capacity() int
}

var _ LineRenderer = &lineRenderer{}

// NewLineRenderer compiles the line program and allocates a device buffer of capacity floats.
// Resources created before a failure are released before the error is returned.
//
// Parameters:
//   - device: the graphics context that owns every resource
//   - capacity: initial size of the host and device buffers, in floats
//   - options: functional options for sources, label and initial state
//
// Returns:
//   - LineRenderer: the ready renderer
//   - error: ErrNegativeCapacity or the device failure
func NewLineRenderer(device renderer.Device, capacity int, options ...LineRendererBuilderOption) (LineRenderer, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeCapacity, capacity)
	}

	lr := &lineRenderer{
		device:  device,
		label:   "lines",
		enabled: true,
		alpha:   1,
		sources: renderer.ProgramDescriptor{
			WGSLPath:     DefaultWGSLPath,
			VertexPath:   DefaultVertexPath,
			FragmentPath: DefaultFragmentPath,
		},
		capacity: capacity,
	}
	for _, opt := range options {
		opt(lr)
	}
	lr.sources.Key = lr.label
	lr.sources.Blend = lr.alpha < 1
	lr.host = make([]float32, 0, capacity)
	lr.lastFloatsPushed = capacity

	if err := lr.init(); err != nil {
		lr.Destroy()
		return nil, fmt.Errorf("line renderer %s: %w", lr.label, err)
	}

	common.Logger().Debug("line renderer created", "label", lr.label, "capacity", capacity, "bytes", capacity*4)
	return lr, nil
}

func (lr *lineRenderer) init() error {
	program, err := lr.device.CompileProgram(lr.sources)
	if err != nil {
		return err
	}
	lr.program = program

	lr.buffer, err = lr.device.CreateBuffer(lr.label+" vertices", lr.capacity*4)
	if err != nil {
		return err
	}

	lr.vao, err = lr.device.CreateVertexArray(lr.program, lr.buffer, Stride, attributes)
	return err
}

func (lr *lineRenderer) PushLine(posA, colorA, posB, colorB mgl32.Vec3) {
	if !lr.enabled {
		return
	}
	lr.host = append(lr.host,
		posA[0], posA[1], posA[2], colorA[0], colorA[1], colorA[2],
		posB[0], posB[1], posB[2], colorB[0], colorB[1], colorB[2],
	)
	lr.floatsPushed += SegmentFloats
}

func (lr *lineRenderer) Flush(transform mgl32.Mat4) error {
	if len(lr.host) < SegmentFloats || lr.floatsPushed < SegmentFloats {
		return nil
	}
	defer lr.reset()

	lr.program.Bind()
	lr.program.SetUniformMat4(TransformUniform, transform)
	lr.program.SetUniformFloat(AlphaUniform, lr.alpha)

	data := common.SliceToBytes(lr.host)
	if lr.floatsPushed > lr.lastFloatsPushed {
		if err := lr.device.BufferData(lr.buffer, data); err != nil {
			return fmt.Errorf("line renderer %s: respecify %d bytes: %w", lr.label, len(data), err)
		}
	} else {
		if err := lr.device.BufferSubData(lr.buffer, 0, data); err != nil {
			return fmt.Errorf("line renderer %s: update %d bytes: %w", lr.label, len(data), err)
		}
	}

	if err := lr.device.DrawLines(lr.vao, 0, len(lr.host)/Floats); err != nil {
		return fmt.Errorf("line renderer %s: draw: %w", lr.label, err)
	}
	return nil
}

// reset clears the batch for the next frame and records how many floats the device buffer now holds.
func (lr *lineRenderer) reset() {
	lr.host = lr.host[:0]
	lr.lastFloatsPushed = lr.floatsPushed
	lr.floatsPushed = 0
}

func (lr *lineRenderer) Destroy() {
	if lr.destroyed {
		return
	}
	lr.destroyed = true

	if lr.vao != 0 {
		lr.device.DeleteVertexArray(lr.vao)
		lr.vao = 0
	}
	if lr.buffer != 0 {
		lr.device.DeleteBuffer(lr.buffer)
		lr.buffer = 0
	}
	if lr.program != nil {
		lr.program.Release()
		lr.program = nil
	}
	lr.host = nil
}

func (lr *lineRenderer) SetEnabled(enabled bool) {
	lr.enabled = enabled
}

func (lr *lineRenderer) Enabled() bool {
	return lr.enabled
}

func (lr *lineRenderer) Toggle() bool {
	lr.enabled = !lr.enabled
	return lr.enabled
}

func (lr *lineRenderer) Len() int {
	return len(lr.host)
}

func (lr *lineRenderer) FloatsPushed() int {
	return lr.floatsPushed
}

func (lr *lineRenderer) LastFloatsPushed() int {
	return lr.lastFloatsPushed
}

func (lr *lineRenderer) Capacity() int {
	return lr.capacity
}
