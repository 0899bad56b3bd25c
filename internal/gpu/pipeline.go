package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
)

// Embedded WGSL shader sources, compiled via naga at registry construction.

//go:embed shaders/solid.wgsl
var solidShaderSource string

//go:embed shaders/stencil.wgsl
var stencilShaderSource string

//go:embed shaders/texture.wgsl
var textureShaderSource string

//go:embed shaders/pattern.wgsl
var patternShaderSource string

//go:embed shaders/blur.wgsl
var blurShaderSource string

//go:embed shaders/shadow.wgsl
var shadowShaderSource string

// Render target formats. Offscreen targets are BGRA so read-back matches
// the swapchain convention; stencil clipping and MSAA share one combined
// depth-stencil format.
const (
	colorFormat        = gputypes.TextureFormatBGRA8Unorm
	depthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// solidVertexStride is the byte stride of fill/stroke/gradient vertices:
// float32x2 position + float32x4 color.
const solidVertexStride = 24

// texVertexStride is the byte stride of textured-quad vertices:
// float32x2 position + float32x2 uv.
const texVertexStride = 16

// paramsUniformSize is the byte size of every special-pipeline uniform
// block (one vec4, or smaller fields padded to 16).
const paramsUniformSize = 16

// SpecialPipeline names the fixed-purpose pipelines outside the blend
// table.
type SpecialPipeline int

const (
	// PipelineStencilWrite increments the stencil buffer under clip-path
	// coverage; color writes are masked off.
	PipelineStencilWrite SpecialPipeline = iota
	// PipelineImage samples a texture across a quad.
	PipelineImage
	// PipelinePattern tiles a cell texture across a quad.
	PipelinePattern
	// PipelineBlurHorizontal is the first Gaussian blur pass.
	PipelineBlurHorizontal
	// PipelineBlurVertical is the second Gaussian blur pass.
	PipelineBlurVertical
	// PipelineShadowComposite tints a mask texture with the shadow color.
	PipelineShadowComposite
	// PipelineShadowMask renders shape coverage into a color-only
	// offscreen texture ahead of the blur passes.
	PipelineShadowMask

	numSpecialPipelines
)

var specialPipelineNames = [numSpecialPipelines]string{
	PipelineStencilWrite:    "stencil-write",
	PipelineImage:           "image",
	PipelinePattern:         "pattern",
	PipelineBlurHorizontal:  "blur-horizontal",
	PipelineBlurVertical:    "blur-vertical",
	PipelineShadowComposite: "shadow-composite",
	PipelineShadowMask:      "shadow-mask",
}

func (p SpecialPipeline) String() string {
	if p < 0 || p >= numSpecialPipelines {
		return "unknown"
	}
	return specialPipelineNames[p]
}

// pipelineKey identifies one compiled pipeline. At most one pipeline
// exists per key value at any time; pipelines are never evicted.
type pipelineKey struct {
	isSpecial bool
	special   SpecialPipeline
	blend     quartz.BlendMode
	clipped   bool
	samples   uint32
}

// PipelineRegistry compiles and caches render pipelines. WarmUp compiles
// the full set eagerly; the getters compile on demand when warm-up was
// skipped. The registry is owned by a single renderer and is not safe for
// concurrent use.
type PipelineRegistry struct {
	device hal.Device

	solidShader   hal.ShaderModule
	stencilShader hal.ShaderModule
	textureShader hal.ShaderModule
	patternShader hal.ShaderModule
	blurShader    hal.ShaderModule
	shadowShader  hal.ShaderModule

	// textureLayout is shared by every textured pipeline: params uniform
	// at binding 0, texture at 1, sampler at 2.
	textureLayout     hal.BindGroupLayout
	texturePipeLayout hal.PipelineLayout
	plainPipeLayout   hal.PipelineLayout

	sampleCount uint32
	pipelines   map[pipelineKey]hal.RenderPipeline
}

// NewPipelineRegistry compiles the shader modules and shared layouts.
// Pipelines themselves are compiled by WarmUp or lazily on first use.
func NewPipelineRegistry(device hal.Device) (*PipelineRegistry, error) {
	r := &PipelineRegistry{
		device:      device,
		sampleCount: 1,
		pipelines:   make(map[pipelineKey]hal.RenderPipeline),
	}

	shaders := []struct {
		dst    *hal.ShaderModule
		label  string
		source string
	}{
		{&r.solidShader, "quartz_solid_shader", solidShaderSource},
		{&r.stencilShader, "quartz_stencil_shader", stencilShaderSource},
		{&r.textureShader, "quartz_texture_shader", textureShaderSource},
		{&r.patternShader, "quartz_pattern_shader", patternShaderSource},
		{&r.blurShader, "quartz_blur_shader", blurShaderSource},
		{&r.shadowShader, "quartz_shadow_shader", shadowShaderSource},
	}
	for _, s := range shaders {
		module, err := compileShader(device, s.label, s.source)
		if err != nil {
			r.Destroy()
			return nil, err
		}
		*s.dst = module
	}

	textureLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "quartz_texture_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("create texture bind group layout: %w", err)
	}
	r.textureLayout = textureLayout

	texturePipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "quartz_texture_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{textureLayout},
	})
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("create texture pipeline layout: %w", err)
	}
	r.texturePipeLayout = texturePipeLayout

	plainPipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "quartz_plain_pipe_layout",
		BindGroupLayouts: nil,
	})
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("create plain pipeline layout: %w", err)
	}
	r.plainPipeLayout = plainPipeLayout

	return r, nil
}

// TextureBindLayout returns the layout for textured-pipeline bind groups.
func (r *PipelineRegistry) TextureBindLayout() hal.BindGroupLayout {
	return r.textureLayout
}

// SampleCount returns the active multisample count (1 or 4).
func (r *PipelineRegistry) SampleCount() uint32 { return r.sampleCount }

// SetSampleCount switches the sample count used by subsequent pipeline
// lookups. Pipelines for each count stay cached, so toggling MSAA per draw
// call compiles each variant at most once.
func (r *PipelineRegistry) SetSampleCount(n uint32) {
	if n != 1 && n != 4 {
		n = 1
	}
	r.sampleCount = n
}

// PipelineCount returns the number of compiled pipelines.
func (r *PipelineRegistry) PipelineCount() int { return len(r.pipelines) }

// WarmUp eagerly compiles one pipeline per supported blend mode, the same
// set again with stencil clipping enabled, and every special pipeline, all
// at the current sample count.
func (r *PipelineRegistry) WarmUp() error {
	for _, mode := range quartz.SupportedBlendModes() {
		if _, err := r.Pipeline(mode); err != nil {
			return err
		}
		if _, err := r.ClippedPipeline(mode); err != nil {
			return err
		}
	}
	for kind := SpecialPipeline(0); kind < numSpecialPipelines; kind++ {
		if _, err := r.Special(kind); err != nil {
			return err
		}
	}
	slogger().Debug("quartz: pipeline registry warmed up",
		"pipelines", len(r.pipelines), "samples", r.sampleCount)
	return nil
}

// Pipeline returns the blend pipeline for a mode at the current sample
// count, compiling it on first use. Unsupported modes normalize to
// BlendNormal.
func (r *PipelineRegistry) Pipeline(mode quartz.BlendMode) (hal.RenderPipeline, error) {
	if !mode.Supported() {
		mode = quartz.BlendNormal
	}
	return r.lookup(pipelineKey{blend: mode, samples: r.sampleCount})
}

// ClippedPipeline returns the blend pipeline variant whose stencil test
// limits coverage to the clip region.
func (r *PipelineRegistry) ClippedPipeline(mode quartz.BlendMode) (hal.RenderPipeline, error) {
	if !mode.Supported() {
		mode = quartz.BlendNormal
	}
	return r.lookup(pipelineKey{blend: mode, clipped: true, samples: r.sampleCount})
}

// Special returns a fixed-purpose pipeline. Blur and shadow-mask
// pipelines target single-sampled offscreen textures and ignore the
// active sample count.
func (r *PipelineRegistry) Special(kind SpecialPipeline) (hal.RenderPipeline, error) {
	key := pipelineKey{isSpecial: true, special: kind, samples: r.sampleCount}
	switch kind {
	case PipelineBlurHorizontal, PipelineBlurVertical, PipelineShadowMask:
		key.samples = 1
	}
	return r.lookup(key)
}

// ClippedSpecial returns the stencil-tested variant of a content special
// pipeline (image, pattern, shadow-composite). Other kinds have no
// clipped form and fall back to the plain variant.
func (r *PipelineRegistry) ClippedSpecial(kind SpecialPipeline) (hal.RenderPipeline, error) {
	switch kind {
	case PipelineImage, PipelinePattern, PipelineShadowComposite:
		return r.lookup(pipelineKey{isSpecial: true, special: kind, clipped: true, samples: r.sampleCount})
	default:
		return r.Special(kind)
	}
}

func (r *PipelineRegistry) lookup(key pipelineKey) (hal.RenderPipeline, error) {
	if p, ok := r.pipelines[key]; ok {
		return p, nil
	}
	p, err := r.compile(key)
	if err != nil {
		return nil, err
	}
	r.pipelines[key] = p
	return p, nil
}

func (r *PipelineRegistry) compile(key pipelineKey) (hal.RenderPipeline, error) {
	if key.isSpecial {
		return r.compileSpecial(key)
	}
	return r.compileBlend(key)
}

// solidVertexLayout is the vertex layout for fill/stroke/gradient
// geometry.
func solidVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: solidVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

// texVertexLayout is the vertex layout for textured quads.
func texVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: texVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

// contentDepthStencil is the depth-stencil state for pipelines drawing
// into the main target. Unclipped content ignores the stencil buffer;
// clipped content passes only where the stencil value equals the clip
// reference set on the encoder.
func contentDepthStencil(clipped bool) *hal.DepthStencilState {
	compare := gputypes.CompareFunctionAlways
	if clipped {
		compare = gputypes.CompareFunctionEqual
	}
	face := hal.StencilFaceState{
		Compare:     compare,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	return &hal.DepthStencilState{
		Format:            depthStencilFormat,
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      face,
		StencilBack:       face,
		StencilReadMask:   0xFF,
		StencilWriteMask:  0x00,
	}
}

func (r *PipelineRegistry) compileBlend(key pipelineKey) (hal.RenderPipeline, error) {
	blend := BlendStateFor(key.blend)
	label := fmt.Sprintf("quartz_blend_%s_pipeline", key.blend)
	if key.clipped {
		label = fmt.Sprintf("quartz_blend_%s_clipped_pipeline", key.blend)
	}

	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: r.plainPipeLayout,
		Vertex: hal.VertexState{
			Module:     r.solidShader,
			EntryPoint: "vs_main",
			Buffers:    solidVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.solidShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    colorFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: contentDepthStencil(key.clipped),
		Multisample: gputypes.MultisampleState{
			Count: key.samples,
			Mask:  0xFFFFFFFF,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	slogger().Debug("quartz: compiled blend pipeline",
		"mode", key.blend.String(), "clipped", key.clipped, "samples", key.samples)
	return pipeline, nil
}

func (r *PipelineRegistry) compileSpecial(key pipelineKey) (hal.RenderPipeline, error) {
	multisample := gputypes.MultisampleState{Count: key.samples, Mask: 0xFFFFFFFF}
	primitive := gputypes.PrimitiveState{
		Topology: gputypes.PrimitiveTopologyTriangleList,
		CullMode: gputypes.CullModeNone,
	}
	normalBlend := BlendStateFor(quartz.BlendNormal)
	copyBlend := BlendStateFor(quartz.BlendCopy)

	var desc *hal.RenderPipelineDescriptor
	switch key.special {
	case PipelineStencilWrite:
		// Increments (clamped) the stencil buffer under clip coverage.
		writeFace := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationIncrementClamp,
		}
		desc = &hal.RenderPipelineDescriptor{
			Label:  "quartz_stencil_write_pipeline",
			Layout: r.plainPipeLayout,
			Vertex: hal.VertexState{
				Module:     r.stencilShader,
				EntryPoint: "vs_main",
				Buffers:    solidVertexLayout(),
			},
			Fragment: &hal.FragmentState{
				Module:     r.stencilShader,
				EntryPoint: "fs_main",
				Targets: []gputypes.ColorTargetState{
					{Format: colorFormat, WriteMask: gputypes.ColorWriteMaskNone},
				},
			},
			DepthStencil: &hal.DepthStencilState{
				Format:            depthStencilFormat,
				DepthWriteEnabled: false,
				DepthCompare:      gputypes.CompareFunctionAlways,
				StencilFront:      writeFace,
				StencilBack:       writeFace,
				StencilReadMask:   0xFF,
				StencilWriteMask:  0xFF,
			},
			Multisample: multisample,
			Primitive:   primitive,
		}

	case PipelineImage:
		desc = r.texturedDescriptor("quartz_image_pipeline", r.textureShader, "fs_main",
			&normalBlend, contentDepthStencil(key.clipped), multisample)

	case PipelinePattern:
		desc = r.texturedDescriptor("quartz_pattern_pipeline", r.patternShader, "fs_main",
			&normalBlend, contentDepthStencil(key.clipped), multisample)

	case PipelineBlurHorizontal:
		desc = r.texturedDescriptor("quartz_blur_h_pipeline", r.blurShader, "fs_blur_h",
			&copyBlend, nil, multisample)

	case PipelineBlurVertical:
		desc = r.texturedDescriptor("quartz_blur_v_pipeline", r.blurShader, "fs_blur_v",
			&copyBlend, nil, multisample)

	case PipelineShadowComposite:
		desc = r.texturedDescriptor("quartz_shadow_composite_pipeline", r.shadowShader, "fs_main",
			&normalBlend, contentDepthStencil(key.clipped), multisample)

	case PipelineShadowMask:
		// Renders plain geometry into a color-only offscreen mask.
		desc = &hal.RenderPipelineDescriptor{
			Label:  "quartz_shadow_mask_pipeline",
			Layout: r.plainPipeLayout,
			Vertex: hal.VertexState{
				Module:     r.solidShader,
				EntryPoint: "vs_main",
				Buffers:    solidVertexLayout(),
			},
			Fragment: &hal.FragmentState{
				Module:     r.solidShader,
				EntryPoint: "fs_main",
				Targets: []gputypes.ColorTargetState{
					{Format: colorFormat, Blend: &normalBlend, WriteMask: gputypes.ColorWriteMaskAll},
				},
			},
			Multisample: multisample,
			Primitive:   primitive,
		}

	default:
		return nil, fmt.Errorf("unknown special pipeline %d", key.special)
	}

	pipeline, err := r.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", desc.Label, err)
	}
	slogger().Debug("quartz: compiled special pipeline",
		"kind", key.special.String(), "samples", key.samples)
	return pipeline, nil
}

// texturedDescriptor builds the descriptor shared by every textured quad
// pipeline; only the shader, fragment entry point, blending and
// depth-stencil differ.
func (r *PipelineRegistry) texturedDescriptor(label string, module hal.ShaderModule, fragEntry string,
	blend *gputypes.BlendState, depthStencil *hal.DepthStencilState, multisample gputypes.MultisampleState) *hal.RenderPipelineDescriptor {
	return &hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: r.texturePipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    texVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: fragEntry,
			Targets: []gputypes.ColorTargetState{
				{Format: colorFormat, Blend: blend, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		DepthStencil: depthStencil,
		Multisample:  multisample,
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
	}
}

// Destroy releases every compiled pipeline, layout and shader module in
// reverse creation order. Safe on a partially constructed registry.
func (r *PipelineRegistry) Destroy() {
	if r.device == nil {
		return
	}
	for key, p := range r.pipelines {
		r.device.DestroyRenderPipeline(p)
		delete(r.pipelines, key)
	}
	if r.plainPipeLayout != nil {
		r.device.DestroyPipelineLayout(r.plainPipeLayout)
		r.plainPipeLayout = nil
	}
	if r.texturePipeLayout != nil {
		r.device.DestroyPipelineLayout(r.texturePipeLayout)
		r.texturePipeLayout = nil
	}
	if r.textureLayout != nil {
		r.device.DestroyBindGroupLayout(r.textureLayout)
		r.textureLayout = nil
	}
	for _, m := range []*hal.ShaderModule{
		&r.shadowShader, &r.blurShader, &r.patternShader,
		&r.textureShader, &r.stencilShader, &r.solidShader,
	} {
		if *m != nil {
			r.device.DestroyShaderModule(*m)
			*m = nil
		}
	}
}
