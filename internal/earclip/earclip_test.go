package earclip

import (
	"math"
	"testing"
)

func TestTriangulateDegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		poly []Point
	}{
		{"nil", nil},
		{"single point", []Point{{0, 0}}},
		{"two points", []Point{{0, 0}, {1, 0}}},
		{"two points closed", []Point{{0, 0}, {0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tris := Triangulate(tt.poly); tris != nil {
				t.Errorf("expected nil, got %d triangles", len(tris))
			}
		})
	}
}

// TestTriangulateCounts verifies a simple N-gon always yields N-2
// triangles, for both windings and with a duplicated closing point.
func TestTriangulateCounts(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	squareCW := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	lShape := []Point{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}}
	closedSquare := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}

	tests := []struct {
		name string
		poly []Point
		want int
	}{
		{"triangle", []Point{{0, 0}, {10, 0}, {5, 10}}, 1},
		{"square ccw", square, 2},
		{"square cw", squareCW, 2},
		{"square with closing point", closedSquare, 2},
		{"concave L", lShape, 4},
		{"pentagon", regularPolygon(5, 10), 3},
		{"hexagon", regularPolygon(6, 10), 4},
		{"20-gon", regularPolygon(20, 10), 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := Triangulate(tt.poly)
			if len(tris) != tt.want {
				t.Errorf("got %d triangles, want %d", len(tris), tt.want)
			}
		})
	}
}

// TestTriangulateAreaPreserved verifies the triangle areas sum to the
// polygon area.
func TestTriangulateAreaPreserved(t *testing.T) {
	tests := []struct {
		name string
		poly []Point
	}{
		{"square", []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}},
		{"concave L", []Point{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}}},
		{"pentagon", regularPolygon(5, 7)},
		{"12-gon", regularPolygon(12, 3)},
		{"cw square", []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := math.Abs(polygonArea(tt.poly))
			var got float64
			for _, tri := range Triangulate(tt.poly) {
				got += triArea(tri)
			}
			if math.Abs(got-want) > want*1e-4 {
				t.Errorf("triangulated area %v, polygon area %v", got, want)
			}
		})
	}
}

// TestTriangulateConcaveDoesNotSpill checks that no output triangle
// centroid lies outside the concave polygon.
func TestTriangulateConcaveDoesNotSpill(t *testing.T) {
	lShape := []Point{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}}
	for i, tri := range Triangulate(lShape) {
		cx := (tri[0].X + tri[1].X + tri[2].X) / 3
		cy := (tri[0].Y + tri[1].Y + tri[2].Y) / 3
		// The notch is the quadrant x > 5, y > 5.
		if cx > 5 && cy > 5 {
			t.Errorf("triangle %d centroid (%v, %v) lies in the notch", i, cx, cy)
		}
	}
}

func TestTriangulateCollinearPolygonTerminates(t *testing.T) {
	// All points on one line: no valid ear exists, the scan must stop
	// without hanging and without inventing area.
	line := []Point{{0, 0}, {5, 0}, {10, 0}, {15, 0}}
	tris := Triangulate(line)
	var area float64
	for _, tri := range tris {
		area += triArea(tri)
	}
	if area > 1e-6 {
		t.Errorf("collinear polygon produced area %v", area)
	}
}

func regularPolygon(n int, r float64) []Point {
	pts := make([]Point, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = Point{X: float32(r * math.Cos(a)), Y: float32(r * math.Sin(a))}
	}
	return pts
}

func polygonArea(pts []Point) float64 {
	var sum float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}
	return sum / 2
}

func triArea(tri Triangle) float64 {
	a, b, c := tri[0], tri[1], tri[2]
	cross := float64(b.X-a.X)*float64(c.Y-a.Y) - float64(b.Y-a.Y)*float64(c.X-a.X)
	return math.Abs(cross) / 2
}
