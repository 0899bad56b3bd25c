package quartz

import (
	"math"
	"testing"
)

func TestPathBuilder(t *testing.T) {
	p := NewPath()
	if !p.IsEmpty() {
		t.Error("new path should be empty")
	}

	p.MoveTo(10, 20)
	p.LineTo(30, 40)
	p.QuadraticTo(50, 60, 70, 80)
	p.CubicTo(1, 2, 3, 4, 5, 6)

	elems := p.Elements()
	if len(elems) != 4 {
		t.Fatalf("expected 4 elements, got %d", len(elems))
	}
	if mv, ok := elems[0].(MoveTo); !ok || mv.Point != Pt(10, 20) {
		t.Errorf("element 0 = %#v, want MoveTo(10, 20)", elems[0])
	}
	if ln, ok := elems[1].(LineTo); !ok || ln.Point != Pt(30, 40) {
		t.Errorf("element 1 = %#v, want LineTo(30, 40)", elems[1])
	}
	if q, ok := elems[2].(QuadTo); !ok || q.Control != Pt(50, 60) || q.Point != Pt(70, 80) {
		t.Errorf("element 2 = %#v, want QuadTo", elems[2])
	}
	if c, ok := elems[3].(CubicTo); !ok || c.Control1 != Pt(1, 2) || c.Control2 != Pt(3, 4) || c.Point != Pt(5, 6) {
		t.Errorf("element 3 = %#v, want CubicTo", elems[3])
	}
	if p.CurrentPoint() != Pt(5, 6) {
		t.Errorf("CurrentPoint = %v, want (5, 6)", p.CurrentPoint())
	}
}

func TestPathCloseReturnsToStart(t *testing.T) {
	p := NewPath()
	p.MoveTo(10, 10)
	p.LineTo(20, 10)
	p.LineTo(20, 20)
	p.Close()

	if p.CurrentPoint() != Pt(10, 10) {
		t.Errorf("CurrentPoint after Close = %v, want the subpath start", p.CurrentPoint())
	}
	if _, ok := p.Elements()[len(p.Elements())-1].(Close); !ok {
		t.Error("last element should be Close")
	}
}

func TestPathClear(t *testing.T) {
	p := NewPath()
	p.MoveTo(1, 1)
	p.LineTo(2, 2)
	p.Clear()

	if !p.IsEmpty() {
		t.Error("path should be empty after Clear")
	}
	if p.CurrentPoint() != (Point{}) {
		t.Errorf("CurrentPoint after Clear = %v, want origin", p.CurrentPoint())
	}
}

func TestPathIDUnique(t *testing.T) {
	a := NewPath()
	b := NewPath()
	if a.ID() == b.ID() {
		t.Error("distinct paths share an identifier")
	}
	if a.Clone().ID() == a.ID() {
		t.Error("a clone must get its own identifier")
	}
}

func TestPathCloneIndependent(t *testing.T) {
	a := NewPath()
	a.MoveTo(0, 0)
	a.LineTo(10, 0)

	b := a.Clone()
	b.LineTo(10, 10)

	if len(a.Elements()) != 2 {
		t.Errorf("mutating the clone changed the original: %d elements", len(a.Elements()))
	}
	if len(b.Elements()) != 3 {
		t.Errorf("clone has %d elements, want 3", len(b.Elements()))
	}
	if b.CurrentPoint() != Pt(10, 10) {
		t.Errorf("clone CurrentPoint = %v", b.CurrentPoint())
	}
}

func TestPathTransform(t *testing.T) {
	p := NewPath()
	p.MoveTo(1, 2)
	p.QuadraticTo(3, 4, 5, 6)
	p.Close()

	q := p.Transform(Translate(10, 20))
	if q.ID() == p.ID() {
		t.Error("transform must produce a path with a new identifier")
	}

	elems := q.Elements()
	if mv := elems[0].(MoveTo); mv.Point != Pt(11, 22) {
		t.Errorf("transformed MoveTo = %v, want (11, 22)", mv.Point)
	}
	qt := elems[1].(QuadTo)
	if qt.Control != Pt(13, 24) || qt.Point != Pt(15, 26) {
		t.Errorf("transformed QuadTo = %+v", qt)
	}
	if _, ok := elems[2].(Close); !ok {
		t.Error("Close element lost in transform")
	}

	// The original is untouched.
	if p.Elements()[0].(MoveTo).Point != Pt(1, 2) {
		t.Error("transform mutated the original path")
	}
}

func TestPathRectangle(t *testing.T) {
	p := NewPath()
	p.Rectangle(1, 2, 10, 20)

	elems := p.Elements()
	if len(elems) != 5 {
		t.Fatalf("rectangle should emit 5 elements, got %d", len(elems))
	}
	if mv := elems[0].(MoveTo); mv.Point != Pt(1, 2) {
		t.Errorf("rectangle origin = %v", mv.Point)
	}
	if ln := elems[2].(LineTo); ln.Point != Pt(11, 22) {
		t.Errorf("rectangle far corner = %v", ln.Point)
	}
	if _, ok := elems[4].(Close); !ok {
		t.Error("rectangle should close")
	}
}

// TestPathCirclePointsOnRadius samples each cubic segment endpoint and
// verifies it lies on the circle.
func TestPathCirclePointsOnRadius(t *testing.T) {
	p := NewPath()
	p.Circle(10, 20, 5)

	for _, elem := range p.Elements() {
		var pt Point
		switch e := elem.(type) {
		case MoveTo:
			pt = e.Point
		case CubicTo:
			pt = e.Point
		default:
			continue
		}
		d := pt.Distance(Pt(10, 20))
		if math.Abs(d-5) > 1e-9 {
			t.Errorf("point %v at distance %v from center, want 5", pt, d)
		}
	}
}

func TestPathArcSpansAngles(t *testing.T) {
	p := NewPath()
	p.Arc(0, 0, 10, 0, math.Pi) // half circle

	elems := p.Elements()
	if len(elems) < 3 {
		t.Fatalf("half-circle arc should need at least 2 segments, got %d elements", len(elems))
	}
	if mv, ok := elems[0].(MoveTo); !ok || mv.Point.Distance(Pt(10, 0)) > 1e-9 {
		t.Errorf("arc start = %#v, want MoveTo(10, 0)", elems[0])
	}
	if p.CurrentPoint().Distance(Pt(-10, 0)) > 1e-9 {
		t.Errorf("arc end = %v, want (-10, 0)", p.CurrentPoint())
	}
}

func TestPathArcWrapsReversedAngles(t *testing.T) {
	p := NewPath()
	// angle2 < angle1 wraps forward by a full turn.
	p.Arc(0, 0, 10, math.Pi/2, 0)
	if p.CurrentPoint().Distance(Pt(10, 0)) > 1e-6 {
		t.Errorf("wrapped arc should end at (10, 0), got %v", p.CurrentPoint())
	}
}
