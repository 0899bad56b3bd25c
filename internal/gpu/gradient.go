package gpu

import (
	"math"

	"github.com/gogpu/quartz"
	"github.com/gogpu/quartz/internal/tess"
)

// radialSegments is the ring subdivision of radial gradient bands.
const radialSegments = 64

// DrawLinearGradient draws a gradient along the axis from start to end,
// extended perpendicular far enough to cover the whole target. Callers
// bound it with a clip path. Gradients with fewer than two stops draw
// nothing.
func (r *Renderer) DrawLinearGradient(g *quartz.Gradient, start, end quartz.Point, state quartz.DrawState) error {
	if g == nil || len(g.Stops()) < 2 {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	axis := end.Sub(start)
	if axis.Length() == 0 {
		return nil
	}
	// Perpendicular half-extent: the target diagonal reaches every corner
	// from any axis position.
	extent := math.Hypot(float64(tv.width), float64(tv.height))
	perp := quartz.Pt(-axis.Y, axis.X).Normalize().Mul(extent)

	stops := g.Stops()
	alpha := state.EffectiveAlpha()
	batch := make(tess.VertexBatch, 0, (len(stops)-1)*6)
	vertexAt := func(t float64, side float64, col quartz.Color) tess.Vertex {
		p := start.Add(axis.Mul(t)).Add(perp.Mul(side))
		return tess.Vertex{
			Pos:   r.tess.ToNDC(float32(p.X), float32(p.Y)),
			Color: col.WithAlpha(alpha).Vec4(),
		}
	}
	for i := 0; i < len(stops)-1; i++ {
		a, b := stops[i], stops[i+1]
		if b.Location <= a.Location {
			continue
		}
		a0 := vertexAt(a.Location, -1, a.Color)
		a1 := vertexAt(a.Location, 1, a.Color)
		b0 := vertexAt(b.Location, -1, b.Color)
		b1 := vertexAt(b.Location, 1, b.Color)
		batch = append(batch, a0, b0, b1, a0, b1, a1)
	}
	return r.drawBatch("quartz_linear_gradient", tv, batch, state)
}

// DrawRadialGradient draws concentric gradient bands from the circle of
// startRadius to the circle of endRadius around center.
func (r *Renderer) DrawRadialGradient(g *quartz.Gradient, center quartz.Point, startRadius, endRadius float64, state quartz.DrawState) error {
	if g == nil || len(g.Stops()) < 2 || endRadius <= startRadius {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	stops := g.Stops()
	alpha := state.EffectiveAlpha()
	radiusAt := func(t float64) float64 {
		return startRadius + (endRadius-startRadius)*t
	}
	ringVertex := func(radius float64, seg int, col quartz.Color) tess.Vertex {
		angle := 2 * math.Pi * float64(seg) / radialSegments
		p := quartz.Pt(center.X+radius*math.Cos(angle), center.Y+radius*math.Sin(angle))
		return tess.Vertex{
			Pos:   r.tess.ToNDC(float32(p.X), float32(p.Y)),
			Color: col.WithAlpha(alpha).Vec4(),
		}
	}

	batch := make(tess.VertexBatch, 0, (len(stops)-1)*radialSegments*6)
	for i := 0; i < len(stops)-1; i++ {
		a, b := stops[i], stops[i+1]
		if b.Location <= a.Location {
			continue
		}
		inner := radiusAt(a.Location)
		outer := radiusAt(b.Location)
		for seg := 0; seg < radialSegments; seg++ {
			i0 := ringVertex(inner, seg, a.Color)
			i1 := ringVertex(inner, seg+1, a.Color)
			o0 := ringVertex(outer, seg, b.Color)
			o1 := ringVertex(outer, seg+1, b.Color)
			batch = append(batch, i0, o0, o1, i0, o1, i1)
		}
	}
	return r.drawBatch("quartz_radial_gradient", tv, batch, state)
}

// DrawShading draws a banded linear ramp: the gradient sampled at steps
// points, each band a flat color. It mirrors DrawLinearGradient's
// geometry with discrete instead of interpolated colors.
func (r *Renderer) DrawShading(g *quartz.Gradient, start, end quartz.Point, steps int, state quartz.DrawState) error {
	if g == nil || steps < 2 {
		return nil
	}
	colors := g.Evaluate(steps)
	if colors == nil {
		return nil
	}
	tv, err := r.resolveTarget()
	if err != nil {
		return err
	}
	axis := end.Sub(start)
	if axis.Length() == 0 {
		return nil
	}
	extent := math.Hypot(float64(tv.width), float64(tv.height))
	perp := quartz.Pt(-axis.Y, axis.X).Normalize().Mul(extent)

	alpha := state.EffectiveAlpha()
	batch := make(tess.VertexBatch, 0, steps*6)
	vertexAt := func(t float64, side float64, col quartz.Color) tess.Vertex {
		p := start.Add(axis.Mul(t)).Add(perp.Mul(side))
		return tess.Vertex{
			Pos:   r.tess.ToNDC(float32(p.X), float32(p.Y)),
			Color: col.WithAlpha(alpha).Vec4(),
		}
	}
	for i := 0; i < steps; i++ {
		t0 := float64(i) / float64(steps)
		t1 := float64(i+1) / float64(steps)
		col := colors[i]
		a0 := vertexAt(t0, -1, col)
		a1 := vertexAt(t0, 1, col)
		b0 := vertexAt(t1, -1, col)
		b1 := vertexAt(t1, 1, col)
		batch = append(batch, a0, b0, b1, a0, b1, a1)
	}
	return r.drawBatch("quartz_shading", tv, batch, state)
}
