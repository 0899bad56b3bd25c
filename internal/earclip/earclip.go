// Package earclip triangulates simple polygons by ear clipping: repeatedly
// remove a convex vertex whose ear triangle contains no other polygon
// vertex, until only one triangle remains.
package earclip

// Point is a 2D point in device coordinates.
type Point struct {
	X, Y float32
}

// Triangle is a single output triangle.
type Triangle [3]Point

// Triangulate converts a simple polygon (possibly concave, winding order
// unknown) into a triangle list. A duplicated closing point (first ==
// last) is dropped before triangulating. A simple N-gon yields exactly N-2
// triangles.
//
// Self-intersecting or numerically degenerate polygons cannot hang the
// scan: the ear search is capped at N^2 attempts and returns the triangles
// found so far.
func Triangulate(polygon []Point) []Triangle {
	pts := make([]Point, 0, len(polygon))
	pts = append(pts, polygon...)
	if n := len(pts); n >= 2 && pts[0] == pts[n-1] {
		pts = pts[:n-1]
	}
	if len(pts) < 3 {
		return nil
	}

	ccw := signedArea(pts) > 0
	tris := make([]Triangle, 0, len(pts)-2)

	// Each clipped ear removes one vertex; N^2 failed candidates means the
	// remaining polygon has no ear we can find and we stop early.
	attempts := 0
	maxAttempts := len(pts) * len(pts)

	i := 0
	for len(pts) > 3 && attempts < maxAttempts {
		n := len(pts)
		prev := pts[(i+n-1)%n]
		cur := pts[i%n]
		next := pts[(i+1)%n]

		if isEar(pts, (i+n-1)%n, i%n, (i+1)%n, ccw) {
			tris = append(tris, Triangle{prev, cur, next})
			pts = append(pts[:i%n], pts[i%n+1:]...)
			i = 0
			continue
		}
		i = (i + 1) % n
		attempts++
	}

	if len(pts) == 3 {
		tris = append(tris, Triangle{pts[0], pts[1], pts[2]})
	}
	return tris
}

// signedArea returns the polygon's signed area via the shoelace formula;
// positive for counter-clockwise winding.
func signedArea(pts []Point) float32 {
	var sum float32
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// isEar reports whether the vertex at index b forms an ear: the corner is
// convex with respect to the polygon winding and no other polygon vertex
// lies strictly inside the candidate triangle.
func isEar(pts []Point, a, b, c int, ccw bool) bool {
	pa, pb, pc := pts[a], pts[b], pts[c]

	cross := (pb.X-pa.X)*(pc.Y-pa.Y) - (pb.Y-pa.Y)*(pc.X-pa.X)
	if ccw {
		if cross <= 0 {
			return false
		}
	} else if cross >= 0 {
		return false
	}

	for i, p := range pts {
		if i == a || i == b || i == c {
			continue
		}
		if containsStrict(pa, pb, pc, p) {
			return false
		}
	}
	return true
}

// containsStrict reports whether p lies strictly inside triangle (a, b, c),
// using the barycentric sign test. Points on an edge are not inside.
func containsStrict(a, b, c, p Point) bool {
	d1 := edgeSign(p, a, b)
	d2 := edgeSign(p, b, c)
	d3 := edgeSign(p, c, a)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	if hasNeg && hasPos {
		return false
	}
	// All signs agree; exclude boundary points.
	return d1 != 0 && d2 != 0 && d3 != 0
}

func edgeSign(p, a, b Point) float32 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}
