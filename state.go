package quartz

// FillRule selects how path interiors are determined.
//
// The GPU tessellator triangulates simple polygons by ear clipping and does
// not evaluate winding numbers, so FillRuleEvenOdd on self-intersecting
// paths is a known gap: such paths render with the same coverage as
// FillRuleNonZero. Simple (non-self-intersecting) paths fill identically
// under both rules.
type FillRule int

const (
	FillRuleNonZero FillRule = iota
	FillRuleEvenOdd
)

// Shadow describes a drop shadow: a blurred, tinted, offset copy of the
// drawn shape composited beneath it. A Blur of 0 composites a hard-edged
// mask with no blur passes.
type Shadow struct {
	Color   Color
	OffsetX float64
	OffsetY float64
	Blur    float64
}

// DrawState carries the per-draw parameters the renderer consumes:
// compositing mode, global alpha, active clip paths, optional shadow,
// antialiasing, and fill rule.
type DrawState struct {
	BlendMode BlendMode
	Alpha     float64
	ClipPaths []*Path
	Shadow    *Shadow
	Antialias bool
	FillRule  FillRule
}

// DefaultDrawState returns the state drawing begins with: normal blending,
// full opacity, no clipping, no shadow, antialiasing on.
func DefaultDrawState() DrawState {
	return DrawState{
		BlendMode: BlendNormal,
		Alpha:     1,
		Antialias: true,
		FillRule:  FillRuleNonZero,
	}
}

// EffectiveAlpha returns the state's alpha clamped to [0, 1].
func (s DrawState) EffectiveAlpha() float64 {
	switch {
	case s.Alpha < 0:
		return 0
	case s.Alpha > 1:
		return 1
	default:
		return s.Alpha
	}
}

// Clipped reports whether any clip path is active.
func (s DrawState) Clipped() bool {
	return len(s.ClipPaths) > 0
}
