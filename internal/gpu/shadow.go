package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
	"github.com/gogpu/quartz/internal/tess"
)

// maxBlurRadius caps the Gaussian kernel radius in texels; the in-shader
// loop cost grows linearly with it.
const maxBlurRadius = 100

// shadowResources is the composite-ready output of the shadow passes:
// the blurred mask bound with the shadow color, and the offset quad that
// places it under the content.
type shadowResources struct {
	bindGroup hal.BindGroup
	quadBuf   hal.Buffer
}

// prepareShadow records the shadow mask and blur passes onto the encoder
// ahead of the content pass. The returned resources are drawn at the
// start of the content pass so the shadow sits beneath the shape. All
// intermediate textures and buffers are transient.
func (r *Renderer) prepareShadow(enc hal.CommandEncoder, tv targetViews, batch tess.VertexBatch, state quartz.DrawState) (*shadowResources, error) {
	sh := state.Shadow
	if sh == nil || len(batch) == 0 {
		return nil, nil
	}

	maskTex, maskView, err := r.createMaskTexture("quartz_shadow_mask_a", tv.width, tv.height)
	if err != nil {
		return nil, err
	}
	r.deferFrameCleanup(func() {
		r.device.DestroyTextureView(maskView)
		r.device.DestroyTexture(maskTex)
	})

	shapeBuf, err := r.createUploadBuffer("quartz_shadow_shape", batch.Bytes(), gputypes.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	r.deferFrameCleanup(func() { r.device.DestroyBuffer(shapeBuf) })

	maskPipeline, err := r.pipelines.Special(PipelineShadowMask)
	if err != nil {
		slogger().Warn("quartz: skipping shadow, pipeline unavailable", "error", err)
		return nil, nil
	}

	// Pass 1: shape coverage into the mask.
	rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "quartz_shadow_mask_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       maskView,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{},
		}},
	})
	rp.SetPipeline(maskPipeline)
	rp.SetVertexBuffer(0, shapeBuf, 0)
	rp.Draw(uint32(len(batch)), 1, 0, 0)
	rp.End()

	// Passes 2 and 3: separable Gaussian blur, skipped entirely for hard
	// shadows.
	blurredView := maskView
	radius := float32(sh.Blur)
	if radius > 0 {
		if radius > maxBlurRadius {
			radius = maxBlurRadius
		}
		blurredView, err = r.recordBlur(enc, tv, maskView, radius)
		if err != nil {
			return nil, err
		}
	}

	// Composite quad, shifted by the shadow offset in clip space.
	ox := float32(2 * sh.OffsetX / float64(tv.width))
	oy := float32(2 * sh.OffsetY / float64(tv.height))
	quad := quadVerts(-1+ox, -1+oy, 1+ox, 1+oy, 0, 1, 1, 0)
	quadBuf, err := r.createUploadBuffer("quartz_shadow_quad", texVertexBytes(quad), gputypes.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	r.deferFrameCleanup(func() { r.device.DestroyBuffer(quadBuf) })

	cr, cg, cb, ca := sh.Color.Resolve()
	ca *= state.EffectiveAlpha()
	bg, err := r.texturedBindGroup("quartz_shadow_composite",
		packFloats(float32(cr), float32(cg), float32(cb), float32(ca)),
		blurredView, r.samplerClamp)
	if err != nil {
		return nil, err
	}

	return &shadowResources{bindGroup: bg, quadBuf: quadBuf}, nil
}

// recordBlur runs the horizontal and vertical Gaussian passes, ping-
// ponging between the source mask and a second texture. The blurred
// result lands back in a texture whose view is returned.
func (r *Renderer) recordBlur(enc hal.CommandEncoder, tv targetViews, srcView hal.TextureView, radius float32) (hal.TextureView, error) {
	pingTex, pingView, err := r.createMaskTexture("quartz_shadow_mask_b", tv.width, tv.height)
	if err != nil {
		return nil, err
	}
	r.deferFrameCleanup(func() {
		r.device.DestroyTextureView(pingView)
		r.device.DestroyTexture(pingTex)
	})

	quadBuf, err := r.createUploadBuffer("quartz_blur_quad", texVertexBytes(fullscreenQuad()), gputypes.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	r.deferFrameCleanup(func() { r.device.DestroyBuffer(quadBuf) })

	sigma := radius / 2
	if sigma < 0.5 {
		sigma = 0.5
	}
	params := packFloats(1/float32(tv.width), 1/float32(tv.height), sigma, radius)

	horizontal, err := r.pipelines.Special(PipelineBlurHorizontal)
	if err != nil {
		return nil, err
	}
	vertical, err := r.pipelines.Special(PipelineBlurVertical)
	if err != nil {
		return nil, err
	}

	bgSrc, err := r.texturedBindGroup("quartz_blur_h", params, srcView, r.samplerClamp)
	if err != nil {
		return nil, err
	}
	bgPing, err := r.texturedBindGroup("quartz_blur_v", params, pingView, r.samplerClamp)
	if err != nil {
		return nil, err
	}

	blurPass := func(label string, dst hal.TextureView, pipeline hal.RenderPipeline, bg hal.BindGroup) {
		rp := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: label,
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       dst,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			}},
		})
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, bg, nil)
		rp.SetVertexBuffer(0, quadBuf, 0)
		rp.Draw(6, 1, 0, 0)
		rp.End()
	}

	blurPass("quartz_blur_h_pass", pingView, horizontal, bgSrc)
	blurPass("quartz_blur_v_pass", srcView, vertical, bgPing)
	return srcView, nil
}

// compositeShadow draws the tinted mask quad; recorded at the start of
// the content pass so the shadow renders beneath the shape.
func (r *Renderer) compositeShadow(rp hal.RenderPassEncoder, sr *shadowResources, clipped bool) error {
	var pipeline hal.RenderPipeline
	var err error
	if clipped {
		pipeline, err = r.pipelines.ClippedSpecial(PipelineShadowComposite)
	} else {
		pipeline, err = r.pipelines.Special(PipelineShadowComposite)
	}
	if err != nil {
		return err
	}
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, sr.bindGroup, nil)
	rp.SetVertexBuffer(0, sr.quadBuf, 0)
	rp.Draw(6, 1, 0, 0)
	r.drawCalls++
	return nil
}

// createMaskTexture creates a target-sized single-sample color texture
// that can be both rendered to and sampled.
func (r *Renderer) createMaskTexture(label string, width, height int) (hal.Texture, hal.TextureView, error) {
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: label + "_view"})
	if err != nil {
		r.device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}
