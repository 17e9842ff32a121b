package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-sandbox/common"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-sandbox/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// wgpuBuffer is a vertex buffer tracked by handle so BufferData can swap the GPU object underneath.
type wgpuBuffer struct {
	label  string
	buffer *wgpu.Buffer
	size   int
}

// wgpuVertexArray pairs a program with the vertex buffer it reads.
type wgpuVertexArray struct {
	program *wgpuProgram
	buffer  BufferHandle
	stride  int
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass
	clearColor  wgpu.Color

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	nextHandle   uint32
	buffers      map[BufferHandle]*wgpuBuffer
	vertexArrays map[VertexArrayHandle]*wgpuVertexArray
	programs     map[*wgpuProgram]struct{}
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend acquires an instance, surface, adapter and device for the given window surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - forceFallbackAdapter: request the software adapter
//   - sampleCount: the MSAA sample count for the main pass
//
// Returns:
//   - *wgpuRendererBackendImpl: the backend
//   - error: an error if any of the GPU objects could not be acquired
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) (*wgpuRendererBackendImpl, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("window has no WebGPU surface")
	}
	runtime.LockOSThread()

	w := &wgpuRendererBackendImpl{
		mu:           &sync.Mutex{},
		instance:     wgpu.CreateInstance(nil),
		presentMode:  wgpu.PresentModeImmediate,
		sampleCount:  sampleCount,
		clearColor:   wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		buffers:      make(map[BufferHandle]*wgpuBuffer),
		vertexArrays: make(map[VertexArrayHandle]*wgpuVertexArray),
		programs:     make(map[*wgpuProgram]struct{}),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to acquire GPU adapter: %w", err)
	}
	w.adapter = a
	common.Logger().Info("gpu adapter acquired", "fallback", forceFallbackAdapter, "msaa", uint32(sampleCount))

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("failed to acquire GPU device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// minimized windows report a zero framebuffer
	if width <= 0 || height <= 0 {
		return nil
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("surface reports no supported formats")
	}
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseAttachments()

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the swapchain view is the resolve target.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("failed to create MSAA texture: %w", err)
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			return fmt.Errorf("failed to create MSAA view: %w", err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("failed to create depth texture: %w", err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create depth view: %w", err)
	}

	// View is the MSAA texture when enabled (ResolveTarget set per frame),
	// otherwise the swapchain view set per frame.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaTextureView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

// releaseAttachments frees the MSAA and depth targets from a previous configuration.
func (b *wgpuRendererBackendImpl) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(r, g, bl, a float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
	if b.renderPassDescriptor != nil {
		b.renderPassDescriptor.ColorAttachments[0].ClearValue = b.clearColor
	}
}

// Projection maps depth into WebGPU's [0, 1] clip range.
func (b *wgpuRendererBackendImpl) Projection(fovYDeg, aspect, near, far float32) mgl32.Mat4 {
	return common.PerspectiveZO(mgl32.DegToRad(fovYDeg), aspect, near, far)
}

func (b *wgpuRendererBackendImpl) CompileProgram(desc ProgramDescriptor) (shader.Program, error) {
	if desc.WGSLPath == "" {
		err := fmt.Errorf("program %s: no WGSL source configured", desc.Key)
		common.Logger().Error("program compile failed", "program", desc.Key, "error", err)
		return nil, err
	}

	vs, vsErr := shader.NewShader(desc.Key+" vertex", shader.ShaderTypeVertex, desc.WGSLPath)
	fs, fsErr := shader.NewShader(desc.Key+" fragment", shader.ShaderTypeFragment, desc.WGSLPath)
	if err := errors.Join(vsErr, fsErr); err != nil {
		common.Logger().Error("program compile failed", "program", desc.Key, "error", err)
		return nil, fmt.Errorf("program %s: %w", desc.Key, err)
	}

	p := pipeline.NewPipeline(desc.Key,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
		pipeline.WithDepthTestEnabled(!desc.Overlay),
		pipeline.WithDepthWriteEnabled(!desc.Overlay),
		pipeline.WithBlendEnabled(desc.Blend),
	)
	if err := b.RegisterRenderPipeline(p); err != nil {
		common.Logger().Error("program compile failed", "program", desc.Key, "error", err)
		return nil, fmt.Errorf("program %s: %w", desc.Key, err)
	}

	prog := newWGPUProgram(desc.Key, p)
	for _, g := range prog.groups {
		provider := prog.providers[g]
		provider.SetBindGroupLayout(p.BindGroupLayout(g))
		if err := b.InitBindGroup(provider, mergedDescriptor(vs, fs, g)); err != nil {
			prog.Release()
			common.Logger().Error("program compile failed", "program", desc.Key, "error", err)
			return nil, fmt.Errorf("program %s: %w", desc.Key, err)
		}
	}

	b.mu.Lock()
	b.programs[prog] = struct{}{}
	b.mu.Unlock()

	common.Logger().Debug("program compiled", "program", desc.Key, "source", desc.WGSLPath, "groups", len(prog.groups))
	return prog, nil
}

// mergedDescriptor returns the combined layout of one bind group across both stages.
func mergedDescriptor(vs, fs shader.Shader, group int) wgpu.BindGroupLayoutDescriptor {
	return mergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())[group]
}

// RegisterRenderPipeline creates the shader modules, bind group layouts, pipeline layout and render
// pipeline for p and stores them on it.
//
// Parameters:
//   - p: the pipeline description with both shaders set
//
// Returns:
//   - error: an error if any GPU object could not be created
func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	if p.Shader(shader.ShaderTypeVertex) == nil || p.Shader(shader.ShaderTypeFragment) == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}
	if b.surfaceFormat == nil {
		return errors.New("surface must be configured before creating a render pipeline")
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return err
	}
	defer fs.Release()

	merged := mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	maxGroup := -1
	for g := range merged {
		if g > maxGroup {
			maxGroup = g
		}
	}
	layouts := make(map[int]*wgpu.BindGroupLayout, len(merged))
	releaseLayouts := func() {
		for _, l := range layouts {
			l.Release()
		}
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		desc := merged[g] // gaps get an empty layout
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			releaseLayouts()
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		layouts[g] = layout
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		releaseLayouts()
		return err
	}
	defer pipelineLayout.Release()

	vertexLayouts := make([]wgpu.VertexBufferLayout, 0, len(vertexShader.VertexLayouts()))
	for i := range len(vertexShader.VertexLayouts()) {
		vertexLayouts = append(vertexLayouts, vertexShader.VertexLayout(i)...)
	}

	colorTarget := wgpu.ColorTargetState{
		Format:    *b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		blend := pipeline.AlphaBlend
		colorTarget.Blend = &blend
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		releaseLayouts()
		return err
	}

	p.SetRenderPipeline(created, layouts)
	return nil
}

// InitBindGroup creates a uniform or storage buffer per layout entry and a bind group over them,
// storing both on the provider. The provider's layout is used when set.
//
// Parameters:
//   - provider: the BindGroupProvider to fill
//   - descriptor: the layout of the group
//
// Returns:
//   - error: an error if a buffer or the bind group could not be created
func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		return fmt.Errorf("%s: no bind group layout", provider.Label())
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		var usage wgpu.BufferUsage
		switch entry.Buffer.Type {
		case wgpu.BufferBindingTypeUniform:
			usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
		case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
			usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
		default:
			return fmt.Errorf("%s: binding %d is not a buffer binding", provider.Label(), binding)
		}

		buf := provider.Buffer(binding)
		if buf == nil {
			size := uint64(common.AlignUp(int(entry.Buffer.MinBindingSize), 16))
			var bufErr error
			buf, bufErr = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  size,
				Usage: usage,
			})
			if bufErr != nil {
				return bufErr
			}
			provider.SetBuffer(binding, buf, entry.Buffer.MinBindingSize)
		}
		bindGroupEntries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

// WriteBuffers writes staged buffer writes to the GPU queue. Writes whose provider has no
// buffer for the binding are skipped.
//
// Parameters:
//   - writes: the writes to apply
//
// Returns:
//   - error: the first queue write failure
func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) error {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		if err := b.queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			return fmt.Errorf("%s binding %d: %w", w.Provider.Label(), w.Binding, err)
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) allocHandle() uint32 {
	b.nextHandle++
	return b.nextHandle
}

func (b *wgpuRendererBackendImpl) createVertexBuffer(label string, size int) (*wgpu.Buffer, error) {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(common.AlignUp(max(size, 4), 4)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, size int) (BufferHandle, error) {
	if size < 0 {
		return 0, fmt.Errorf("buffer %s: negative size %d", label, size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.createVertexBuffer(label, size)
	if err != nil {
		return 0, fmt.Errorf("buffer %s: %w", label, err)
	}
	h := BufferHandle(b.allocHandle())
	b.buffers[h] = &wgpuBuffer{label: label, buffer: buf, size: size}
	return h, nil
}

// BufferData swaps in a new GPU buffer sized to data and uploads it. Vertex arrays keep working
// because they resolve the buffer through its handle at draw time.
func (b *wgpuRendererBackendImpl) BufferData(h BufferHandle, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.buffers[h]
	if !ok {
		return ErrUnknownBuffer
	}
	buf, err := b.createVertexBuffer(entry.label, len(data))
	if err != nil {
		return fmt.Errorf("buffer %s: %w", entry.label, err)
	}
	entry.buffer.Release()
	entry.buffer = buf
	entry.size = len(data)
	common.Logger().Debug("vertex buffer respecified", "buffer", entry.label, "bytes", len(data))

	if len(data) == 0 {
		return nil
	}
	return b.queue.WriteBuffer(buf, 0, padTo4(data))
}

func (b *wgpuRendererBackendImpl) BufferSubData(h BufferHandle, offset int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.buffers[h]
	if !ok {
		return ErrUnknownBuffer
	}
	if offset < 0 || offset+len(data) > entry.size {
		return fmt.Errorf("buffer %s: %d bytes at %d in %d: %w", entry.label, len(data), offset, entry.size, ErrOutOfBounds)
	}
	if len(data) == 0 {
		return nil
	}
	if offset%4 != 0 {
		return fmt.Errorf("buffer %s: offset %d is not 4-byte aligned", entry.label, offset)
	}
	return b.queue.WriteBuffer(entry.buffer, uint64(offset), padTo4(data))
}

// padTo4 extends data with zeros to a multiple of 4 bytes, as queue writes require.
func padTo4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	padded := make([]byte, common.AlignUp(len(data), 4))
	copy(padded, data)
	return padded
}

func (b *wgpuRendererBackendImpl) CreateVertexArray(program shader.Program, buf BufferHandle, stride int, attrs []VertexAttribute) (VertexArrayHandle, error) {
	prog, ok := program.(*wgpuProgram)
	if !ok {
		return 0, fmt.Errorf("program %s was not compiled by the WebGPU device", program.Key())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.buffers[buf]; !ok {
		return 0, ErrUnknownBuffer
	}
	layouts := prog.vertex.VertexLayout(0)
	if len(layouts) == 0 {
		return 0, fmt.Errorf("program %s declares no vertex input", prog.key)
	}
	if err := validateVertexLayout(layouts[0], prog.AttributeLocation, stride, attrs); err != nil {
		return 0, fmt.Errorf("program %s: %w", prog.key, err)
	}

	h := VertexArrayHandle(b.allocHandle())
	b.vertexArrays[h] = &wgpuVertexArray{program: prog, buffer: buf, stride: stride}
	return h, nil
}

func (b *wgpuRendererBackendImpl) DrawLines(vao VertexArrayHandle, first, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	va, ok := b.vertexArrays[vao]
	if !ok {
		return ErrUnknownVertexArray
	}
	if b.framePass == nil {
		return ErrNoFrame
	}
	entry, ok := b.buffers[va.buffer]
	if !ok {
		return ErrUnknownBuffer
	}
	if count <= 0 {
		return nil
	}

	if err := b.WriteBuffers(va.program.pendingWrites()); err != nil {
		return err
	}

	b.framePass.SetPipeline(va.program.pipeline.RenderPipeline())
	for _, g := range va.program.groups {
		if bg := va.program.providers[g].BindGroup(); bg != nil {
			b.framePass.SetBindGroup(uint32(g), bg, nil)
		}
	}
	b.framePass.SetVertexBuffer(0, entry.buffer, 0, wgpu.WholeSize)
	b.framePass.Draw(uint32(count), 1, uint32(first), 0)
	return nil
}

func (b *wgpuRendererBackendImpl) DeleteBuffer(h BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.buffers[h]; ok {
		entry.buffer.Release()
		delete(b.buffers, h)
	}
}

func (b *wgpuRendererBackendImpl) DeleteVertexArray(h VertexArrayHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.vertexArrays, h)
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.renderPassDescriptor == nil {
		return errors.New("surface is not configured")
	}
	// A held surface texture means the previous frame was never presented.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameTarget()
		return fmt.Errorf("failed to finish frame: %w", err)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrameTarget()
}

func (b *wgpuRendererBackendImpl) releaseFrameTarget() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

// Release frees every live program, buffer and attachment, then the device and instance.
func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	programs := b.programs
	b.programs = make(map[*wgpuProgram]struct{})
	b.mu.Unlock()
	for prog := range programs {
		prog.Release()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for h, entry := range b.buffers {
		entry.buffer.Release()
		delete(b.buffers, h)
	}
	clear(b.vertexArrays)
	b.releaseFrameTarget()
	b.releaseAttachments()

	b.queue = nil
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// mergeBindGroupLayouts merges bind group layout descriptors from vertex and fragment shaders.
// When both stages declare the same group, entries are merged by binding number and
// visibility flags are OR'd together so the pipeline layout covers both stages.
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(
	vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor,
) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groupIndices := make(map[int]bool)
	for g := range vertexLayouts {
		groupIndices[g] = true
	}
	for g := range fragmentLayouts {
		groupIndices[g] = true
	}

	for g := range groupIndices {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   vDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}
