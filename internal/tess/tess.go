// Package tess turns paths into GPU-ready vertex batches: it flattens
// curves, triangulates fills by ear clipping, expands strokes, and converts
// every emitted position into normalized device coordinates. It also hosts
// the geometry cache that memoizes tessellation output across frames.
package tess

import (
	"math"

	"github.com/gogpu/quartz"
	"github.com/gogpu/quartz/internal/earclip"
	"github.com/gogpu/quartz/internal/flatten"
	"github.com/gogpu/quartz/internal/stroke"
)

// Tessellator converts fill and stroke requests into vertex batches. The
// drawing space has its origin at the bottom-left with Y up and spans the
// viewport; output positions are normalized device coordinates in [-1, 1]
// on both axes, Y up. All NDC conversion is centralized here.
type Tessellator struct {
	width     float32
	height    float32
	tolerance float32
}

// New creates a tessellator for a viewport of the given pixel size.
func New(width, height int) *Tessellator {
	t := &Tessellator{tolerance: flatten.DefaultTolerance}
	t.SetViewport(width, height)
	return t
}

// SetViewport updates the viewport size used for NDC conversion.
func (t *Tessellator) SetViewport(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	t.width = float32(width)
	t.height = float32(height)
}

// SetTolerance sets the curve flatness tolerance in device units.
// Values <= 0 restore the default.
func (t *Tessellator) SetTolerance(tol float32) {
	if tol <= 0 {
		tol = flatten.DefaultTolerance
	}
	t.tolerance = tol
}

// ToNDC converts a device-space position to normalized device coordinates.
func (t *Tessellator) ToNDC(x, y float32) [2]float32 {
	return [2]float32{
		x*2/t.width - 1,
		y*2/t.height - 1,
	}
}

// TessellateFill triangulates the path interior. Each subpath is
// triangulated independently and the results concatenated. Degenerate
// input (empty path, subpaths with fewer than three distinct points)
// yields an empty batch, not an error.
func (t *Tessellator) TessellateFill(path *quartz.Path, tm quartz.Matrix, col quartz.Color) (VertexBatch, Bounds) {
	if path == nil || path.IsEmpty() {
		return nil, Bounds{}
	}
	if !tm.IsIdentity() {
		path = path.Transform(tm)
	}

	rgba := col.Vec4()
	var batch VertexBatch
	var bounds Bounds

	for _, sp := range flatten.Flatten(path.Elements(), t.tolerance) {
		pts := sp.Points
		// Closed subpaths re-append their first point for stroking; the
		// duplicate would only produce a zero-area triangle here.
		if sp.Closed && len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
			pts = pts[:len(pts)-1]
		}
		if len(pts) < 3 {
			continue
		}
		poly := make([]earclip.Point, len(pts))
		for i, p := range pts {
			poly[i] = earclip.Point(p)
		}
		for _, tri := range earclip.Triangulate(poly) {
			if triangleArea(tri[0], tri[1], tri[2]) < 1e-9 {
				continue
			}
			for _, p := range tri {
				bounds.add(p.X, p.Y)
				batch = append(batch, Vertex{Pos: t.ToNDC(p.X, p.Y), Color: rgba})
			}
		}
	}
	return batch, bounds
}

// TessellateStroke expands the path outline into stroke geometry. Every
// vertex carries the same solid color; there is no gradient along the
// stroke.
func (t *Tessellator) TessellateStroke(path *quartz.Path, tm quartz.Matrix, col quartz.Color, style quartz.StrokeStyle) (VertexBatch, Bounds) {
	if path == nil || path.IsEmpty() || style.Width <= 0 {
		return nil, Bounds{}
	}
	if !tm.IsIdentity() {
		path = path.Transform(tm)
	}

	opts := stroke.Options{
		HalfWidth:  float32(style.Width / 2),
		Cap:        strokeCap(style.Cap),
		Join:       strokeJoin(style.Join),
		MiterLimit: float32(style.MiterLimit),
	}
	if opts.MiterLimit <= 0 {
		opts.MiterLimit = 10
	}

	rgba := col.Vec4()
	var batch VertexBatch
	var bounds Bounds

	for _, sp := range flatten.Flatten(path.Elements(), t.tolerance) {
		pts := make([]stroke.Point, len(sp.Points))
		for i, p := range sp.Points {
			pts[i] = stroke.Point(p)
		}
		for _, tri := range stroke.Generate(pts, sp.Closed, opts) {
			for _, p := range tri {
				bounds.add(p.X, p.Y)
				batch = append(batch, Vertex{Pos: t.ToNDC(p.X, p.Y), Color: rgba})
			}
		}
	}
	return batch, bounds
}

func strokeCap(c quartz.LineCap) stroke.Cap {
	switch c {
	case quartz.LineCapRound:
		return stroke.CapRound
	case quartz.LineCapSquare:
		return stroke.CapSquare
	default:
		return stroke.CapButt
	}
}

func strokeJoin(j quartz.LineJoin) stroke.Join {
	switch j {
	case quartz.LineJoinRound:
		return stroke.JoinRound
	case quartz.LineJoinBevel:
		return stroke.JoinBevel
	default:
		return stroke.JoinMiter
	}
}

// Bounds is an axis-aligned bounding box in device coordinates.
type Bounds struct {
	MinX, MinY float32
	MaxX, MaxY float32
	set        bool
}

func (b *Bounds) add(x, y float32) {
	if !b.set {
		b.MinX, b.MaxX = x, x
		b.MinY, b.MaxY = y, y
		b.set = true
		return
	}
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Empty reports whether the bounds contain no points.
func (b Bounds) Empty() bool { return !b.set }

// Width returns the bounds width, 0 when empty.
func (b Bounds) Width() float32 {
	if !b.set {
		return 0
	}
	return b.MaxX - b.MinX
}

// Height returns the bounds height, 0 when empty.
func (b Bounds) Height() float32 {
	if !b.set {
		return 0
	}
	return b.MaxY - b.MinY
}

func triangleArea(a, b, c earclip.Point) float64 {
	cross := float64(b.X-a.X)*float64(c.Y-a.Y) - float64(b.Y-a.Y)*float64(c.X-a.X)
	return math.Abs(cross) / 2
}
