// Package flatten reduces vector paths to polylines within a flatness
// tolerance. Curves are subdivided recursively: each step halves the
// parameter range and recurses only into halves that still deviate from
// their chord, so flat curves cost O(1) segments and tight curves cost
// segments proportional to curvature.
package flatten

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/quartz"
)

// DefaultTolerance is the default maximum distance, in device units,
// between a curve and its polyline approximation.
const DefaultTolerance = 0.5

// maxDepth bounds curve subdivision so numerically degenerate control
// points cannot recurse unboundedly. 2^16 segments per curve is far beyond
// any tolerance a caller would ask for.
const maxDepth = 16

// Point is a 2D point in device coordinates.
type Point struct {
	X, Y float32
}

// Subpath is one flattened run of a path: an ordered point list and
// whether the run was explicitly closed. For closed subpaths the first
// point is re-appended at the end so stroke generation sees the closing
// edge; fill triangulation drops the duplicate before triangulating.
type Subpath struct {
	Points []Point
	Closed bool
}

// Flatten converts path elements to polylines. Tolerance values <= 0 fall
// back to DefaultTolerance. Subpaths with fewer than two points are
// dropped; a zero-length path yields no subpaths.
func Flatten(elems []quartz.PathElement, tol float32) []Subpath {
	if tol <= 0 {
		tol = DefaultTolerance
	}

	var out []Subpath
	var cur []Point

	flush := func(closed bool) {
		if len(cur) >= 2 {
			out = append(out, Subpath{Points: cur, Closed: closed})
		}
		cur = nil
	}

	for _, elem := range elems {
		switch e := elem.(type) {
		case quartz.MoveTo:
			flush(false)
			cur = append(cur, pt(e.Point))

		case quartz.LineTo:
			if len(cur) == 0 {
				cur = append(cur, pt(e.Point))
				break
			}
			cur = appendPoint(cur, pt(e.Point))

		case quartz.QuadTo:
			if len(cur) == 0 {
				cur = append(cur, pt(e.Point))
				break
			}
			p0 := cur[len(cur)-1]
			cur = flattenQuad(cur, p0, pt(e.Control), pt(e.Point), tol, 0)

		case quartz.CubicTo:
			if len(cur) == 0 {
				cur = append(cur, pt(e.Point))
				break
			}
			p0 := cur[len(cur)-1]
			cur = flattenCubic(cur, p0, pt(e.Control1), pt(e.Control2), pt(e.Point), tol, 0)

		case quartz.Close:
			if len(cur) >= 2 {
				first := cur[0]
				cur = appendPoint(cur, first)
				flush(true)
				// Drawing may continue from the subpath start.
				cur = append(cur, first)
			}
		}
	}
	flush(false)
	return out
}

func pt(p quartz.Point) Point {
	return Point{X: float32(p.X), Y: float32(p.Y)}
}

// appendPoint appends p, skipping exact duplicates of the current point.
func appendPoint(dst []Point, p Point) []Point {
	if n := len(dst); n > 0 && dst[n-1] == p {
		return dst
	}
	return append(dst, p)
}

// flattenQuad appends the polyline for the quadratic curve (p0, c, p1),
// excluding p0 which is already in dst.
func flattenQuad(dst []Point, p0, c, p1 Point, tol float32, depth int) []Point {
	if depth >= maxDepth || chordDistance(p0, p1, c) <= tol {
		return appendPoint(dst, p1)
	}
	// de Casteljau split at t=0.5.
	c0 := midpoint(p0, c)
	c1 := midpoint(c, p1)
	m := midpoint(c0, c1)
	dst = flattenQuad(dst, p0, c0, m, tol, depth+1)
	return flattenQuad(dst, m, c1, p1, tol, depth+1)
}

// flattenCubic appends the polyline for the cubic curve (p0, c1, c2, p1),
// excluding p0 which is already in dst.
func flattenCubic(dst []Point, p0, c1, c2, p1 Point, tol float32, depth int) []Point {
	if depth >= maxDepth ||
		(chordDistance(p0, p1, c1) <= tol && chordDistance(p0, p1, c2) <= tol) {
		return appendPoint(dst, p1)
	}
	// de Casteljau split at t=0.5.
	ab := midpoint(p0, c1)
	bc := midpoint(c1, c2)
	cd := midpoint(c2, p1)
	abc := midpoint(ab, bc)
	bcd := midpoint(bc, cd)
	m := midpoint(abc, bcd)
	dst = flattenCubic(dst, p0, ab, abc, m, tol, depth+1)
	return flattenCubic(dst, m, bcd, cd, p1, tol, depth+1)
}

func midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) * 0.5, Y: (a.Y + b.Y) * 0.5}
}

// chordDistance returns the distance from point q to the chord (a, b).
// When the chord is degenerate it falls back to the distance to a.
func chordDistance(a, b, q Point) float32 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		qx := q.X - a.X
		qy := q.Y - a.Y
		return math32.Sqrt(qx*qx + qy*qy)
	}
	cross := (q.X-a.X)*dy - (q.Y-a.Y)*dx
	return math32.Abs(cross) / math32.Sqrt(lenSq)
}
