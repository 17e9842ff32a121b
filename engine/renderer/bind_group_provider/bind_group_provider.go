package bind_group_provider

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// group is the bind group index this provider is bound at.
	group int

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized with the Renderer.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is borrowed from the pipeline that declared the group and is never released here.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer

	// staging holds a host copy of each buffer binding. Uniform setters write here and the
	// renderer uploads dirty bindings before drawing.
	staging map[int][]byte
	dirty   map[int]bool
}

// BindGroupProvider owns the GPU resources behind one bind group of a program: the bind group,
// its buffers and a host-side staging copy of each buffer.
//
// Usage pattern:
//  1. The backend creates a provider per bind group index declared by a program
//  2. The backend calls InitBindGroup which creates buffers and the bind group
//  3. Uniform setters Stage bytes into the provider
//  4. Before a draw, the backend uploads PendingWrites and sets BindGroup on the pass
type BindGroupProvider interface {
	// Release releases the buffers and bind group held by this provider.
	// The borrowed bind group layout is left alone.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the bind group index this provider is bound at.
	//
	// Returns:
	//   - int: the group index
	Group() int

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the bind group layout used to create the bind group.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the GPU buffer for a binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBindGroup sets the bind group after GPU initialization.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout sets the layout the bind group is created against.
	//
	// Parameters:
	//   - bgl: the bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores the GPU buffer for a binding and allocates a zeroed staging copy of the given size.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	//   - size: the buffer size in bytes
	SetBuffer(binding int, buf *wgpu.Buffer, size uint64)

	// Stage copies data into the staging copy of a binding at a byte offset and marks it dirty.
	//
	// Parameters:
	//   - binding: the binding index
	//   - offset: byte offset into the binding
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: an error if the binding has no staging copy or the write does not fit
	Stage(binding int, offset uint64, data []byte) error

	// PendingWrites returns one BufferWrite per dirty binding, ordered by binding, and clears
	// the dirty flags.
	//
	// Returns:
	//   - []BufferWrite: the writes to upload, nil if nothing changed
	PendingWrites() []BufferWrite
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: a debug label used for GPU object labels
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
		staging: make(map[int][]byte),
		dirty:   make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() int {
	return p.group
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer, size uint64) {
	p.buffers[binding] = buf
	p.staging[binding] = make([]byte, size)
}

func (p *bindGroupProvider) Stage(binding int, offset uint64, data []byte) error {
	dst, ok := p.staging[binding]
	if !ok {
		return fmt.Errorf("%s: binding %d has no buffer", p.label, binding)
	}
	if offset+uint64(len(data)) > uint64(len(dst)) {
		return fmt.Errorf("%s: write of %d bytes at offset %d exceeds binding %d size %d", p.label, len(data), offset, binding, len(dst))
	}
	copy(dst[offset:], data)
	p.dirty[binding] = true
	return nil
}

func (p *bindGroupProvider) PendingWrites() []BufferWrite {
	if len(p.dirty) == 0 {
		return nil
	}
	bindings := make([]int, 0, len(p.dirty))
	for b := range p.dirty {
		bindings = append(bindings, b)
	}
	sort.Ints(bindings)

	writes := make([]BufferWrite, 0, len(bindings))
	for _, b := range bindings {
		writes = append(writes, BufferWrite{
			Provider: p,
			Binding:  b,
			Offset:   0,
			Data:     p.staging[b],
		})
		delete(p.dirty, b)
	}
	return writes
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.bindGroupLayout = nil
}
