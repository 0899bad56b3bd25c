package gpu

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
	"github.com/gogpu/quartz/internal/tess"
)

// DrawImage draws an image into the rectangle (x, y, w, h) in canvas
// coordinates, transformed by tm. When the image texture cannot be
// created a checkerboard placeholder is drawn instead.
func (r *Renderer) DrawImage(img *quartz.Image, x, y, w, h float64, tm quartz.Matrix, state quartz.DrawState) error {
	if img == nil || w <= 0 || h <= 0 {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	r.pipelines.SetSampleCount(sampleCountFor(state))
	defer r.pipelines.SetSampleCount(1)

	view, ok := r.textures.GetOrCreate(img)
	if !ok {
		placeholder := r.placeholderImage()
		view, ok = r.textures.GetOrCreate(placeholder)
		if !ok {
			slogger().Warn("quartz: skipping image draw, no texture available", "image", img.ID())
			return nil
		}
	}

	// Rect corners through the transform, counter-clockwise from the
	// bottom-left. The image's first pixel row maps to the rect's top
	// edge.
	bl := tm.TransformPoint(quartz.Pt(x, y))
	br := tm.TransformPoint(quartz.Pt(x+w, y))
	tr := tm.TransformPoint(quartz.Pt(x+w, y+h))
	tl := tm.TransformPoint(quartz.Pt(x, y+h))

	corner := func(p quartz.Point, u, v float32) texVertex {
		return texVertex{pos: r.tess.ToNDC(float32(p.X), float32(p.Y)), uv: [2]float32{u, v}}
	}
	vbl := corner(bl, 0, 1)
	vbr := corner(br, 1, 1)
	vtr := corner(tr, 1, 0)
	vtl := corner(tl, 0, 0)
	verts := []texVertex{vbl, vbr, vtr, vbl, vtr, vtl}

	alpha := float32(state.EffectiveAlpha())
	params := packFloats(1, 1, 1, alpha)

	var shadowBatch tess.VertexBatch
	if state.Shadow != nil {
		shadowBatch = quadShadowBatch([4]texVertex{vbl, vbr, vtr, vtl}, alpha)
	}
	return r.drawTextured("quartz_image", tv, verts, PipelineImage, params, view, r.samplerClamp, state, shadowBatch)
}

// FillWithPattern fills a path by tiling a cell image across it. The
// cell anchors at the canvas origin; scaleX and scaleY stretch the tile.
// A missing cell texture degrades to a solid gray fill.
func (r *Renderer) FillWithPattern(path *quartz.Path, tm quartz.Matrix, cell *quartz.Image, scaleX, scaleY float64, state quartz.DrawState) error {
	if path == nil || path.IsEmpty() || cell == nil {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	white := quartz.RGBA(1, 1, 1, 1)
	entry := r.geometry.GetOrTessellate(tess.FillKey(path, tm, white), func() *tess.CacheEntry {
		batch, bounds := r.tess.TessellateFill(path, tm, white)
		return &tess.CacheEntry{Vertices: batch, Bounds: bounds, IsFill: true}
	})
	return r.drawPattern("quartz_pattern_fill", tv, entry.Vertices, cell, scaleX, scaleY, state)
}

// StrokeWithPattern strokes a path outline with a tiled cell image.
func (r *Renderer) StrokeWithPattern(path *quartz.Path, tm quartz.Matrix, cell *quartz.Image, style quartz.StrokeStyle, scaleX, scaleY float64, state quartz.DrawState) error {
	if path == nil || path.IsEmpty() || cell == nil || style.Width <= 0 {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	white := quartz.RGBA(1, 1, 1, 1)
	entry := r.geometry.GetOrTessellate(tess.StrokeKey(path, tm, white, style), func() *tess.CacheEntry {
		batch, bounds := r.tess.TessellateStroke(path, tm, white, style)
		return &tess.CacheEntry{Vertices: batch, Bounds: bounds}
	})
	return r.drawPattern("quartz_pattern_stroke", tv, entry.Vertices, cell, scaleX, scaleY, state)
}

// drawPattern maps tessellated geometry to pattern-space UVs and draws
// it with the tiling pipeline.
func (r *Renderer) drawPattern(label string, tv targetViews, batch tess.VertexBatch, cell *quartz.Image, scaleX, scaleY float64, state quartz.DrawState) error {
	if len(batch) == 0 {
		return nil
	}
	r.pipelines.SetSampleCount(sampleCountFor(state))
	defer r.pipelines.SetSampleCount(1)

	view, ok := r.textures.GetOrCreate(cell)
	if !ok {
		// Solid gray keeps the shape visible when the cell upload fails.
		slogger().Warn("quartz: pattern cell unavailable, filling gray", "image", cell.ID())
		gray := effectiveColor(quartz.Gray(0.5), state)
		fallback := make(tess.VertexBatch, len(batch))
		for i, v := range batch {
			fallback[i] = tess.Vertex{Pos: v.Pos, Color: gray.Vec4()}
		}
		return r.drawBatch(label, tv, fallback, state)
	}

	if scaleX <= 0 {
		scaleX = 1
	}
	if scaleY <= 0 {
		scaleY = 1
	}
	tileW := float64(cell.Width()) * scaleX
	tileH := float64(cell.Height()) * scaleY

	// Cached vertices are in clip space; recover canvas coordinates to
	// anchor the tiling at the canvas origin.
	halfW := float64(tv.width) / 2
	halfH := float64(tv.height) / 2
	verts := make([]texVertex, len(batch))
	for i, v := range batch {
		cx := (float64(v.Pos[0]) + 1) * halfW
		cy := (float64(v.Pos[1]) + 1) * halfH
		verts[i] = texVertex{
			pos: v.Pos,
			uv:  [2]float32{float32(cx / tileW), float32(1 - cy/tileH)},
		}
	}

	alpha := float32(state.EffectiveAlpha())
	params := packFloats(1, 1, alpha, 0)

	var shadowBatch tess.VertexBatch
	if state.Shadow != nil {
		shadowBatch = batch
	}
	return r.drawTextured(label, tv, verts, PipelinePattern, params, view, r.samplerRepeat, state, shadowBatch)
}

// drawTextured is the textured counterpart of drawBatch: it uploads the
// quad or mesh, binds the texture resources and records the content pass
// with clipping, blending and shadow handling applied.
func (r *Renderer) drawTextured(label string, tv targetViews, verts []texVertex, kind SpecialPipeline,
	params []byte, view hal.TextureView, sampler hal.Sampler, state quartz.DrawState, shadowBatch tess.VertexBatch) error {

	clips, drawable, ok := r.clipAllocations(state.ClipPaths)
	if !ok {
		slogger().Warn("quartz: skipping draw, clip geometry unavailable", "label", label)
		return nil
	}
	if !drawable {
		return nil
	}

	alloc, ok := r.pool.AcquireAndWrite(texVertexBytes(verts))
	if !ok {
		slogger().Warn("quartz: skipping draw", "label", label, "error", ErrPoolExhausted)
		return nil
	}

	var pipeline hal.RenderPipeline
	var err error
	if len(clips) > 0 {
		pipeline, err = r.pipelines.ClippedSpecial(kind)
	} else {
		pipeline, err = r.pipelines.Special(kind)
	}
	if err != nil {
		slogger().Warn("quartz: skipping draw, pipeline unavailable",
			"label", label, "error", err)
		return nil
	}

	count := uint32(len(verts))
	return r.record(label, func(enc hal.CommandEncoder) error {
		bg, err := r.texturedBindGroup(label, params, view, sampler)
		if err != nil {
			return err
		}
		shadow, err := r.prepareShadow(enc, tv, shadowBatch, state)
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
			rp.SetBindGroup(0, bg, nil)
			rp.SetVertexBuffer(0, alloc.Buffer, alloc.Offset)
			rp.Draw(count, 1, 0, 0)
			r.drawCalls++
			return nil
		})
	})
}

// quadShadowBatch converts a textured quad into solid geometry for the
// shadow mask pass.
func quadShadowBatch(corners [4]texVertex, alpha float32) tess.VertexBatch {
	col := [4]float32{0, 0, 0, alpha}
	v := func(c texVertex) tess.Vertex { return tess.Vertex{Pos: c.pos, Color: col} }
	bl, br, tr, tl := corners[0], corners[1], corners[2], corners[3]
	return tess.VertexBatch{v(bl), v(br), v(tr), v(bl), v(tr), v(tl)}
}
