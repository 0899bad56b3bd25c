package quartz

// LineCap determines the shape drawn at the endpoints of an open stroked
// path.
type LineCap int

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

// LineJoin determines the shape drawn where two stroked segments meet.
type LineJoin int

const (
	LineJoinMiter LineJoin = iota
	LineJoinRound
	LineJoinBevel
)

// StrokeStyle bundles stroke parameters.
type StrokeStyle struct {
	Width      float64
	Cap        LineCap
	Join       LineJoin
	MiterLimit float64
}

// DefaultStrokeStyle returns a 1-unit miter-joined butt-capped stroke with
// the conventional miter limit of 10.
func DefaultStrokeStyle() StrokeStyle {
	return StrokeStyle{Width: 1, Cap: LineCapButt, Join: LineJoinMiter, MiterLimit: 10}
}
