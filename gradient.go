package quartz

import "sort"

// Stop is a single gradient color stop at a location in [0, 1].
type Stop struct {
	Location float64
	Color    Color
}

// Gradient holds an ordered list of color stops.
type Gradient struct {
	stops []Stop
}

// NewGradient creates a gradient from the given stops. Stops are sorted by
// location; order among equal locations is preserved.
func NewGradient(stops ...Stop) *Gradient {
	g := &Gradient{stops: make([]Stop, len(stops))}
	copy(g.stops, stops)
	sort.SliceStable(g.stops, func(i, j int) bool {
		return g.stops[i].Location < g.stops[j].Location
	})
	return g
}

// Stops returns the ordered color stops.
func (g *Gradient) Stops() []Stop {
	return g.stops
}

// ColorAt evaluates the gradient at position t in [0, 1], interpolating
// linearly between the surrounding stops. Positions outside the stop range
// clamp to the first or last stop.
func (g *Gradient) ColorAt(t float64) Color {
	if len(g.stops) == 0 {
		return RGBA(0, 0, 0, 1)
	}
	if t <= g.stops[0].Location {
		return g.stops[0].Color
	}
	last := g.stops[len(g.stops)-1]
	if t >= last.Location {
		return last.Color
	}
	for i := 1; i < len(g.stops); i++ {
		s0, s1 := g.stops[i-1], g.stops[i]
		if t > s1.Location {
			continue
		}
		span := s1.Location - s0.Location
		if span <= 0 {
			return s1.Color
		}
		f := (t - s0.Location) / span
		r0, gr0, b0, a0 := s0.Color.Resolve()
		r1, gr1, b1, a1 := s1.Color.Resolve()
		return RGBA(
			r0+(r1-r0)*f,
			gr0+(gr1-gr0)*f,
			b0+(b1-b0)*f,
			a0+(a1-a0)*f,
		)
	}
	return last.Color
}

// Evaluate samples the gradient into n discrete colors at evenly spaced
// positions from 0 to 1 inclusive. Used for shading functions that are
// rendered as banded ramps. Returns nil if n < 2.
func (g *Gradient) Evaluate(n int) []Color {
	if n < 2 {
		return nil
	}
	out := make([]Color, n)
	for i := range out {
		out[i] = g.ColorAt(float64(i) / float64(n-1))
	}
	return out
}
