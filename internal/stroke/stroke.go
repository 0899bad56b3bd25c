// Package stroke expands flattened polylines into stroke outline triangles:
// one quad per segment, plus miter/round/bevel joins at interior vertices
// and butt/round/square caps at the endpoints of open paths.
package stroke

import "github.com/chewxy/math32"

// Cap determines endpoint geometry for open paths.
type Cap int

const (
	CapButt Cap = iota
	CapRound
	CapSquare
)

// Join determines the geometry where two segments meet.
type Join int

const (
	JoinMiter Join = iota
	JoinRound
	JoinBevel
)

// RoundSteps is the number of angular subdivisions for round joins and
// caps.
const RoundSteps = 8

// Point is a 2D point in device coordinates.
type Point struct {
	X, Y float32
}

// Triangle is a single output triangle.
type Triangle [3]Point

// Options bundles the stroke parameters.
type Options struct {
	HalfWidth  float32
	Cap        Cap
	Join       Join
	MiterLimit float32
}

// DefaultOptions returns a hairline-ish miter stroke: half-width 0.5,
// butt caps, miter limit 10.
func DefaultOptions() Options {
	return Options{HalfWidth: 0.5, Cap: CapButt, Join: JoinMiter, MiterLimit: 10}
}

// Generate expands a polyline into stroke triangles. Closed polylines get
// a join at every vertex including the wrap-around seam and no caps; open
// polylines get joins at interior vertices and caps at both ends. Inputs
// with fewer than two distinct points produce no geometry.
func Generate(pts []Point, closed bool, o Options) []Triangle {
	pts = dedupe(pts)
	if closed && len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 2 || o.HalfWidth <= 0 {
		return nil
	}
	if closed && len(pts) < 3 {
		closed = false
	}

	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}

	var tris []Triangle

	// Segment quads.
	for i := 0; i < segs; i++ {
		p0 := pts[i]
		p1 := pts[(i+1)%n]
		d := direction(p0, p1)
		nx, ny := -d.Y*o.HalfWidth, d.X*o.HalfWidth

		a0 := Point{p0.X + nx, p0.Y + ny}
		b0 := Point{p0.X - nx, p0.Y - ny}
		a1 := Point{p1.X + nx, p1.Y + ny}
		b1 := Point{p1.X - nx, p1.Y - ny}
		tris = append(tris,
			Triangle{a0, b0, a1},
			Triangle{b0, b1, a1},
		)
	}

	// Joins. Open paths join interior vertices only; closed paths also
	// join the seam at vertex 0.
	start := 1
	if closed {
		start = 0
	}
	for i := start; i < n; i++ {
		if !closed && i == n-1 {
			break
		}
		prev := pts[(i+n-1)%n]
		v := pts[i]
		next := pts[(i+1)%n]
		tris = appendJoin(tris, prev, v, next, o)
	}

	// Caps, open paths only.
	if !closed {
		d0 := direction(pts[0], pts[1])
		dn := direction(pts[n-2], pts[n-1])
		tris = appendCap(tris, pts[0], Point{-d0.X, -d0.Y}, o)
		tris = appendCap(tris, pts[n-1], dn, o)
	}

	return tris
}

func dedupe(pts []Point) []Point {
	out := pts[:0:0]
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

func direction(a, b Point) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math32.Sqrt(dx*dx + dy*dy)
	if l == 0 {
		return Point{1, 0}
	}
	return Point{dx / l, dy / l}
}

// appendJoin fills the wedge on the outer side of the corner at v.
func appendJoin(tris []Triangle, prev, v, next Point, o Options) []Triangle {
	d0 := direction(prev, v)
	d1 := direction(v, next)

	turn := d0.X*d1.Y - d0.Y*d1.X
	if math32.Abs(turn) < 1e-6 {
		// Collinear: segment quads already cover the corner.
		return tris
	}

	// Left normals; the outer side of a left turn is the right side.
	sign := float32(1)
	if turn > 0 {
		sign = -1
	}
	n0 := Point{-d0.Y * o.HalfWidth * sign, d0.X * o.HalfWidth * sign}
	n1 := Point{-d1.Y * o.HalfWidth * sign, d1.X * o.HalfWidth * sign}

	o0 := Point{v.X + n0.X, v.Y + n0.Y}
	o1 := Point{v.X + n1.X, v.Y + n1.Y}

	switch o.Join {
	case JoinRound:
		return appendFan(tris, v, n0, n1, RoundSteps)

	case JoinMiter:
		mx, my := n0.X+n1.X, n0.Y+n1.Y
		ml := math32.Sqrt(mx*mx + my*my)
		if ml < 1e-6 {
			break // 180-degree turn, no finite miter
		}
		mx, my = mx/ml, my/ml
		cosHalf := (mx*n0.X + my*n0.Y) / o.HalfWidth
		if cosHalf < 1e-6 {
			break
		}
		miterLen := o.HalfWidth / cosHalf
		if miterLen > o.HalfWidth*o.MiterLimit {
			break // over the limit, bevel this joint only
		}
		m := Point{v.X + mx*miterLen, v.Y + my*miterLen}
		return append(tris,
			Triangle{v, o0, m},
			Triangle{v, m, o1},
		)
	}

	// Bevel: direct chord between the two offset points.
	return append(tris, Triangle{v, o0, o1})
}

// appendCap emits the cap at endpoint p facing outward direction d.
func appendCap(tris []Triangle, p, d Point, o Options) []Triangle {
	switch o.Cap {
	case CapButt:
		return tris

	case CapSquare:
		nx, ny := -d.Y*o.HalfWidth, d.X*o.HalfWidth
		ex, ey := d.X*o.HalfWidth, d.Y*o.HalfWidth
		a := Point{p.X + nx, p.Y + ny}
		b := Point{p.X - nx, p.Y - ny}
		ae := Point{a.X + ex, a.Y + ey}
		be := Point{b.X + ex, b.Y + ey}
		return append(tris,
			Triangle{a, b, ae},
			Triangle{b, be, ae},
		)

	case CapRound:
		n := Point{-d.Y * o.HalfWidth, d.X * o.HalfWidth}
		e := Point{d.X * o.HalfWidth, d.Y * o.HalfWidth}
		// Semicircle from +n through d to -n.
		prev := Point{p.X + n.X, p.Y + n.Y}
		for i := 1; i <= RoundSteps; i++ {
			t := math32.Pi * float32(i) / RoundSteps
			cos, sin := math32.Cos(t), math32.Sin(t)
			q := Point{p.X + n.X*cos + e.X*sin, p.Y + n.Y*cos + e.Y*sin}
			tris = append(tris, Triangle{p, prev, q})
			prev = q
		}
		return tris
	}
	return tris
}

// appendFan sweeps a triangle fan from offset n0 to offset n1 around
// center v, covering the turn angle in steps subdivisions.
func appendFan(tris []Triangle, v, n0, n1 Point, steps int) []Triangle {
	a0 := math32.Atan2(n0.Y, n0.X)
	a1 := math32.Atan2(n1.Y, n1.X)
	// Sweep the short way around.
	delta := a1 - a0
	for delta > math32.Pi {
		delta -= 2 * math32.Pi
	}
	for delta < -math32.Pi {
		delta += 2 * math32.Pi
	}

	r := math32.Sqrt(n0.X*n0.X + n0.Y*n0.Y)
	prev := Point{v.X + n0.X, v.Y + n0.Y}
	for i := 1; i <= steps; i++ {
		t := a0 + delta*float32(i)/float32(steps)
		q := Point{v.X + r*math32.Cos(t), v.Y + r*math32.Sin(t)}
		tris = append(tris, Triangle{v, prev, q})
		prev = q
	}
	return tris
}
