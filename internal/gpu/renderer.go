package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
	"github.com/gogpu/quartz/internal/tess"
)

// gpuTimeout bounds every fence wait.
const gpuTimeout = 5 * time.Second

// Config carries renderer construction options. Zero values select the
// package defaults.
type Config struct {
	// Width and Height size the internal offscreen target.
	Width  int
	Height int

	// Pool configures the per-frame vertex buffer ring.
	Pool PoolConfig

	// FramesInFlight is the number of frames the caller may have pending
	// at once. The pool ring must be at least this deep.
	FramesInFlight int

	// GeometryCacheCapacity is the tessellation cache entry limit.
	GeometryCacheCapacity int

	// TextureCapacity and TextureBudget bound the image texture cache.
	TextureCapacity int
	TextureBudget   uint64

	// Tolerance is the curve flattening tolerance in device pixels.
	Tolerance float32

	// WarmUp compiles the full pipeline set at construction instead of
	// on first use.
	WarmUp bool
}

func (c *Config) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.FramesInFlight <= 0 {
		c.FramesInFlight = DefaultFrameCount
	}
	if c.GeometryCacheCapacity <= 0 {
		c.GeometryCacheCapacity = tess.DefaultCacheCapacity
	}
	if c.TextureCapacity <= 0 {
		c.TextureCapacity = DefaultTextureCapacity
	}
	if c.TextureBudget == 0 {
		c.TextureBudget = DefaultTextureBudget
	}
}

// Stats is a point-in-time snapshot of renderer resource usage.
type Stats struct {
	Geometry        tess.CacheStats
	Textures        TextureStats
	Pipelines       int
	DrawCalls       uint64
	FramesSubmitted uint64
}

// Renderer converts tessellated geometry into GPU draw calls. All draw
// methods degrade gracefully: a draw that cannot acquire its GPU
// resources logs a warning and leaves the target untouched rather than
// submitting partial state.
//
// The renderer is stateful and not safe for concurrent use.
type Renderer struct {
	dev    *Device
	device hal.Device
	queue  hal.Queue

	tess      *tess.Tessellator
	geometry  *tess.GeometryCache
	pipelines *PipelineRegistry
	textures  *TextureManager
	pool      *BufferPool

	target   *renderTarget
	external *RenderTarget

	samplerClamp  hal.Sampler
	samplerRepeat hal.Sampler

	fence      hal.Fence
	fenceValue uint64

	frame   *frameState
	scratch []func()

	width      int
	height     int
	vpWidth    int
	vpHeight   int
	clearColor quartz.Color

	placeholder *quartz.Image

	drawCalls       uint64
	framesSubmitted uint64
}

// NewRenderer builds a renderer on an open device. The device stays
// owned by the caller.
func NewRenderer(dev *Device, cfg Config) (*Renderer, error) {
	cfg.applyDefaults()

	pipelines, err := NewPipelineRegistry(dev.Handle())
	if err != nil {
		return nil, fmt.Errorf("pipeline registry: %w", err)
	}
	if cfg.WarmUp {
		if err := pipelines.WarmUp(); err != nil {
			pipelines.Destroy()
			return nil, fmt.Errorf("pipeline warm-up: %w", err)
		}
	}

	pool, err := NewBufferPool(dev.Handle(), dev.Queue(), cfg.Pool, cfg.FramesInFlight)
	if err != nil {
		pipelines.Destroy()
		return nil, err
	}

	r := &Renderer{
		dev:        dev,
		device:     dev.Handle(),
		queue:      dev.Queue(),
		tess:       tess.New(cfg.Width, cfg.Height),
		geometry:   tess.NewGeometryCache(cfg.GeometryCacheCapacity),
		pipelines:  pipelines,
		textures:   NewTextureManager(dev.Handle(), dev.Queue(), cfg.TextureCapacity, cfg.TextureBudget),
		pool:       pool,
		target:     newRenderTarget(dev.Handle()),
		width:      cfg.Width,
		height:     cfg.Height,
		vpWidth:    cfg.Width,
		vpHeight:   cfg.Height,
		clearColor: quartz.RGBA(0, 0, 0, 0),
	}
	if cfg.Tolerance > 0 {
		r.tess.SetTolerance(cfg.Tolerance)
	}

	r.samplerClamp, err = r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "quartz_sampler_clamp",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create clamp sampler: %w", err)
	}
	r.samplerRepeat, err = r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "quartz_sampler_repeat",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeRepeat,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create repeat sampler: %w", err)
	}

	r.fence, err = r.device.CreateFence()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create fence: %w", err)
	}

	slogger().Info("quartz: renderer ready",
		"adapter", dev.AdapterName(),
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"framesInFlight", cfg.FramesInFlight)
	return r, nil
}

// Resize changes the internal offscreen target size. The resize takes
// effect on the next draw; in-flight work is unaffected.
func (r *Renderer) Resize(width, height int) {
	if width < 1 || height < 1 {
		return
	}
	r.width = width
	r.height = height
}

// SetRenderTarget redirects drawing to an external color view, or back
// to the internal offscreen target when t is nil. The renderer keeps
// supplying its own depth-stencil and MSAA attachments.
func (r *Renderer) SetRenderTarget(t *RenderTarget) {
	if t != nil && (t.View == nil || t.Width < 1 || t.Height < 1) {
		slogger().Warn("quartz: ignoring invalid render target")
		return
	}
	r.external = t
	r.target.msaaValid = false
}

// Size returns the active target size in pixels.
func (r *Renderer) Size() (int, int) {
	if r.external != nil {
		return r.external.Width, r.external.Height
	}
	return r.width, r.height
}

// Stats returns a snapshot of cache and submission counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Geometry:        r.geometry.Stats(),
		Textures:        r.textures.Stats(),
		Pipelines:       r.pipelines.PipelineCount(),
		DrawCalls:       r.drawCalls,
		FramesSubmitted: r.framesSubmitted,
	}
}

// GeometryCache exposes the tessellation cache, mainly for eviction
// control and statistics.
func (r *Renderer) GeometryCache() *tess.GeometryCache { return r.geometry }

// TextureManager exposes the image texture cache.
func (r *Renderer) TextureManager() *TextureManager { return r.textures }

// Close flushes pending work and releases every GPU resource the
// renderer owns. The device itself stays open.
func (r *Renderer) Close() {
	if r.device == nil {
		return
	}
	if err := r.EndFrame(); err != nil {
		slogger().Warn("quartz: flush on close failed", "error", err)
	}
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
		r.fence = nil
	}
	if r.samplerRepeat != nil {
		r.device.DestroySampler(r.samplerRepeat)
		r.samplerRepeat = nil
	}
	if r.samplerClamp != nil {
		r.device.DestroySampler(r.samplerClamp)
		r.samplerClamp = nil
	}
	if r.target != nil {
		r.target.destroy()
	}
	if r.pool != nil {
		r.pool.Destroy()
	}
	if r.textures != nil {
		r.textures.Destroy()
	}
	if r.pipelines != nil {
		r.pipelines.Destroy()
	}
	r.device = nil
}

// targetViews is the resolved destination of one draw call.
type targetViews struct {
	color  hal.TextureView
	width  int
	height int
}

// resolveTarget ensures the destination textures exist and the
// tessellator viewport matches them. A viewport change invalidates the
// geometry cache since cached vertices are in clip space.
func (r *Renderer) resolveTarget() (targetViews, error) {
	var tv targetViews
	if r.external != nil {
		if err := r.target.ensureDepthStencil(r.external.Width, r.external.Height); err != nil {
			return tv, err
		}
		tv = targetViews{color: r.external.View, width: r.external.Width, height: r.external.Height}
	} else {
		if err := r.target.ensure(r.width, r.height); err != nil {
			return tv, err
		}
		tv = targetViews{color: r.target.colorView, width: r.target.width, height: r.target.height}
	}
	if tv.width != r.vpWidth || tv.height != r.vpHeight {
		r.tess.SetViewport(tv.width, tv.height)
		r.geometry.Clear()
		r.vpWidth = tv.width
		r.vpHeight = tv.height
	}
	return tv, nil
}

// Clear fills the active target with a single color and resets any
// accumulated antialiased content.
func (r *Renderer) Clear(col quartz.Color) error {
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	cr, cg, cb, ca := col.Resolve()
	err = r.record("quartz_clear", func(enc hal.CommandEncoder) error {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "quartz_clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       tv.color,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: cr, G: cg, B: cb, A: ca},
			}},
		})
		rp.End()
		return nil
	})
	if err != nil {
		return err
	}
	r.clearColor = col
	r.target.colorValid = true
	r.target.msaaValid = false
	return nil
}

// Fill tessellates and draws the interior of a path.
func (r *Renderer) Fill(path *quartz.Path, tm quartz.Matrix, col quartz.Color, state quartz.DrawState) error {
	if path == nil || path.IsEmpty() {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	col = effectiveColor(col, state)
	entry := r.geometry.GetOrTessellate(tess.FillKey(path, tm, col), func() *tess.CacheEntry {
		batch, bounds := r.tess.TessellateFill(path, tm, col)
		return &tess.CacheEntry{Vertices: batch, Bounds: bounds, IsFill: true}
	})
	return r.drawBatch("quartz_fill", tv, entry.Vertices, state)
}

// Stroke tessellates and draws a path outline.
func (r *Renderer) Stroke(path *quartz.Path, tm quartz.Matrix, col quartz.Color, style quartz.StrokeStyle, state quartz.DrawState) error {
	if path == nil || path.IsEmpty() || style.Width <= 0 {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	col = effectiveColor(col, state)
	entry := r.geometry.GetOrTessellate(tess.StrokeKey(path, tm, col, style), func() *tess.CacheEntry {
		batch, bounds := r.tess.TessellateStroke(path, tm, col, style)
		return &tess.CacheEntry{Vertices: batch, Bounds: bounds}
	})
	return r.drawBatch("quartz_stroke", tv, entry.Vertices, state)
}

// drawBatch submits solid-color triangle geometry with the full draw
// state applied: shadow underneath, stencil clipping, blending and MSAA.
func (r *Renderer) drawBatch(label string, tv targetViews, batch tess.VertexBatch, state quartz.DrawState) error {
	if len(batch) == 0 {
		return nil
	}
	r.pipelines.SetSampleCount(sampleCountFor(state))
	defer r.pipelines.SetSampleCount(1)

	clips, drawable, ok := r.clipAllocations(state.ClipPaths)
	if !ok {
		slogger().Warn("quartz: skipping draw, clip geometry unavailable", "label", label)
		return nil
	}
	if !drawable {
		return nil
	}

	alloc, ok := r.pool.AcquireAndWrite(batch.Bytes())
	if !ok {
		slogger().Warn("quartz: skipping draw",
			"label", label, "bytes", batch.ByteSize(), "error", ErrPoolExhausted)
		return nil
	}

	var pipeline hal.RenderPipeline
	var err error
	if len(clips) > 0 {
		pipeline, err = r.pipelines.ClippedPipeline(state.BlendMode)
	} else {
		pipeline, err = r.pipelines.Pipeline(state.BlendMode)
	}
	if err != nil {
		slogger().Warn("quartz: skipping draw, pipeline unavailable",
			"label", label, "error", err)
		return nil
	}

	count := uint32(len(batch))
	return r.record(label, func(enc hal.CommandEncoder) error {
		shadow, err := r.prepareShadow(enc, tv, batch, state)
		if err != nil {
			return err
		}
		return r.contentPass(enc, tv, state, clips, func(rp hal.RenderPassEncoder) error {
			if shadow != nil {
				if err := r.compositeShadow(rp, shadow, len(clips) > 0); err != nil {
					return err
				}
			}
			rp.SetPipeline(pipeline)
			rp.SetVertexBuffer(0, alloc.Buffer, alloc.Offset)
			rp.Draw(count, 1, 0, 0)
			r.drawCalls++
			return nil
		})
	})
}

// clipAlloc is one clip path's stencil-write geometry in the pool.
type clipAlloc struct {
	alloc Allocation
	count uint32
}

// clipAllocations tessellates and uploads the clip stack. drawable is
// false when a clip path covers nothing, which empties the clip
// intersection; ok is false when GPU resources could not be acquired.
func (r *Renderer) clipAllocations(paths []*quartz.Path) (clips []clipAlloc, drawable, ok bool) {
	if len(paths) == 0 {
		return nil, true, true
	}
	black := quartz.RGBA(0, 0, 0, 1)
	for _, p := range paths {
		if p == nil || p.IsEmpty() {
			return nil, false, true
		}
		entry := r.geometry.GetOrTessellate(tess.FillKey(p, quartz.Identity(), black), func() *tess.CacheEntry {
			batch, bounds := r.tess.TessellateFill(p, quartz.Identity(), black)
			return &tess.CacheEntry{Vertices: batch, Bounds: bounds, IsFill: true}
		})
		if len(entry.Vertices) == 0 {
			return nil, false, true
		}
		alloc, allocOK := r.pool.AcquireAndWrite(entry.Vertices.Bytes())
		if !allocOK {
			return nil, false, false
		}
		clips = append(clips, clipAlloc{alloc: alloc, count: uint32(len(entry.Vertices))})
	}
	return clips, true, true
}

// contentPass records one render pass against the active target: clip
// stencil writes first, then the caller's content draws with the stencil
// reference set to the clip depth.
func (r *Renderer) contentPass(enc hal.CommandEncoder, tv targetViews, state quartz.DrawState,
	clips []clipAlloc, record func(rp hal.RenderPassEncoder) error) error {

	colorAttach := hal.RenderPassColorAttachment{
		View:    tv.color,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	dsView := r.target.depthStencilView

	cr, cg, cb, ca := r.clearColor.Resolve()
	clearValue := gputypes.Color{R: cr, G: cg, B: cb, A: ca}

	if state.Antialias {
		if err := r.target.ensureMSAA(tv.width, tv.height); err != nil {
			return err
		}
		colorAttach.View = r.target.msaaColorView
		colorAttach.ResolveTarget = tv.color
		dsView = r.target.msaaDepthStencilView
		if !r.target.msaaValid {
			colorAttach.LoadOp = gputypes.LoadOpClear
			colorAttach.ClearValue = clearValue
		}
	} else if r.external == nil && !r.target.colorValid {
		colorAttach.LoadOp = gputypes.LoadOpClear
		colorAttach.ClearValue = clearValue
	}

	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "quartz_content_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{colorAttach},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              dsView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})

	if len(clips) > 0 {
		stencilWrite, err := r.pipelines.Special(PipelineStencilWrite)
		if err != nil {
			rp.End()
			return err
		}
		rp.SetPipeline(stencilWrite)
		for _, c := range clips {
			rp.SetVertexBuffer(0, c.alloc.Buffer, c.alloc.Offset)
			rp.Draw(c.count, 1, 0, 0)
		}
		rp.SetStencilReference(uint32(len(clips)))
	}

	if err := record(rp); err != nil {
		rp.End()
		return err
	}
	rp.End()

	if state.Antialias {
		r.target.msaaValid = true
	}
	r.target.colorValid = true
	return nil
}

// record wraps one command buffer's encode/submit lifecycle. Transient
// resources registered via deferFrameCleanup during fn are released once
// the GPU is done with them.
func (r *Renderer) record(label string, fn func(enc hal.CommandEncoder) error) error {
	enc, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	if err := fn(enc); err != nil {
		enc.DiscardEncoding()
		r.runScratch()
		return err
	}
	cmd, err := enc.EndEncoding()
	if err != nil {
		r.runScratch()
		return fmt.Errorf("end encoding: %w", err)
	}
	return r.finish(cmd)
}

func sampleCountFor(state quartz.DrawState) uint32 {
	if state.Antialias {
		return msaaSampleCount
	}
	return 1
}

// effectiveColor folds the draw state's global alpha into a paint color.
func effectiveColor(col quartz.Color, state quartz.DrawState) quartz.Color {
	a := state.EffectiveAlpha()
	if a >= 1 {
		return col
	}
	return col.WithAlpha(a)
}
