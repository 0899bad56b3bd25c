package quartz

// Color is a device-independent color expressed as 1 to 4 components:
//
//	1 component:  gray
//	2 components: gray, alpha
//	3 components: red, green, blue
//	4 components: red, green, blue, alpha
//
// Each component is in the range [0, 1]. The zero value is opaque black.
type Color struct {
	comps [4]float64
	n     int
}

// Gray creates an opaque grayscale color.
func Gray(g float64) Color {
	return Color{comps: [4]float64{g}, n: 1}
}

// GrayAlpha creates a grayscale color with alpha.
func GrayAlpha(g, a float64) Color {
	return Color{comps: [4]float64{g, a}, n: 2}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) Color {
	return Color{comps: [4]float64{r, g, b}, n: 3}
}

// RGBA creates a color from RGBA components.
func RGBA(r, g, b, a float64) Color {
	return Color{comps: [4]float64{r, g, b, a}, n: 4}
}

// NumComponents returns the component count (1-4). The zero Color reports 0.
func (c Color) NumComponents() int {
	return c.n
}

// Components returns the raw component values.
func (c Color) Components() []float64 {
	return c.comps[:c.n]
}

// Resolve expands the color to full red, green, blue, alpha components.
// Grayscale colors replicate the gray value across r, g and b; missing
// alpha resolves to 1. The zero Color resolves to opaque black.
func (c Color) Resolve() (r, g, b, a float64) {
	switch c.n {
	case 1:
		return c.comps[0], c.comps[0], c.comps[0], 1
	case 2:
		return c.comps[0], c.comps[0], c.comps[0], c.comps[1]
	case 3:
		return c.comps[0], c.comps[1], c.comps[2], 1
	case 4:
		return c.comps[0], c.comps[1], c.comps[2], c.comps[3]
	default:
		return 0, 0, 0, 1
	}
}

// WithAlpha returns the color with its alpha scaled by a.
func (c Color) WithAlpha(a float64) Color {
	r, g, b, ca := c.Resolve()
	return RGBA(r, g, b, ca*a)
}

// Vec4 resolves the color into a float32 vector, the form consumed by
// vertex data and shader uniforms.
func (c Color) Vec4() [4]float32 {
	r, g, b, a := c.Resolve()
	return [4]float32{float32(r), float32(g), float32(b), float32(a)}
}
