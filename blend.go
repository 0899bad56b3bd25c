package quartz

// BlendMode names a compositing rule applied when drawing over existing
// content. Thirteen modes have a direct GPU blend-equation equivalent;
// the remaining separable and non-separable modes are approximated with
// normal (source-over) blending by the renderer. See BlendMode.Supported.
type BlendMode int

const (
	// Modes with a direct GPU blend equation.
	BlendNormal BlendMode = iota
	BlendCopy
	BlendSourceIn
	BlendSourceOut
	BlendSourceAtop
	BlendDestinationOver
	BlendDestinationIn
	BlendDestinationOut
	BlendDestinationAtop
	BlendXOR
	BlendPlusLighter
	BlendDarken
	BlendLighten

	// Modes approximated with normal blending.
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendColorDodge
	BlendColorBurn
	BlendSoftLight
	BlendHardLight
	BlendDifference
	BlendExclusion
	BlendHue
	BlendSaturation
	BlendColor
	BlendLuminosity

	numBlendModes
)

var blendModeNames = [numBlendModes]string{
	BlendNormal:          "normal",
	BlendCopy:            "copy",
	BlendSourceIn:        "sourceIn",
	BlendSourceOut:       "sourceOut",
	BlendSourceAtop:      "sourceAtop",
	BlendDestinationOver: "destinationOver",
	BlendDestinationIn:   "destinationIn",
	BlendDestinationOut:  "destinationOut",
	BlendDestinationAtop: "destinationAtop",
	BlendXOR:             "xor",
	BlendPlusLighter:     "plusLighter",
	BlendDarken:          "darken",
	BlendLighten:         "lighten",
	BlendMultiply:        "multiply",
	BlendScreen:          "screen",
	BlendOverlay:         "overlay",
	BlendColorDodge:      "colorDodge",
	BlendColorBurn:       "colorBurn",
	BlendSoftLight:       "softLight",
	BlendHardLight:       "hardLight",
	BlendDifference:      "difference",
	BlendExclusion:       "exclusion",
	BlendHue:             "hue",
	BlendSaturation:      "saturation",
	BlendColor:           "color",
	BlendLuminosity:      "luminosity",
}

// String returns the mode's canonical name.
func (m BlendMode) String() string {
	if m < 0 || m >= numBlendModes {
		return "unknown"
	}
	return blendModeNames[m]
}

// Supported reports whether the mode maps to a dedicated GPU blend
// equation. Unsupported modes render with normal blending instead; the
// fidelity loss is deliberate (two-operand fixed-function blending cannot
// express them).
func (m BlendMode) Supported() bool {
	return m >= BlendNormal && m <= BlendLighten
}

// AllBlendModes returns every named blend mode, in declaration order.
func AllBlendModes() []BlendMode {
	modes := make([]BlendMode, numBlendModes)
	for i := range modes {
		modes[i] = BlendMode(i)
	}
	return modes
}

// SupportedBlendModes returns the modes with a direct GPU blend equation.
func SupportedBlendModes() []BlendMode {
	var modes []BlendMode
	for i := BlendMode(0); i < numBlendModes; i++ {
		if i.Supported() {
			modes = append(modes, i)
		}
	}
	return modes
}
