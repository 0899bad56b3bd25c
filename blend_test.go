package quartz

import "testing"

func TestBlendModeString(t *testing.T) {
	tests := []struct {
		mode BlendMode
		want string
	}{
		{BlendNormal, "normal"},
		{BlendCopy, "copy"},
		{BlendXOR, "xor"},
		{BlendPlusLighter, "plusLighter"},
		{BlendLighten, "lighten"},
		{BlendMultiply, "multiply"},
		{BlendLuminosity, "luminosity"},
		{BlendMode(-1), "unknown"},
		{BlendMode(1000), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("BlendMode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestBlendModeSupported(t *testing.T) {
	supported := []BlendMode{
		BlendNormal, BlendCopy, BlendSourceIn, BlendSourceOut, BlendSourceAtop,
		BlendDestinationOver, BlendDestinationIn, BlendDestinationOut,
		BlendDestinationAtop, BlendXOR, BlendPlusLighter, BlendDarken, BlendLighten,
	}
	for _, m := range supported {
		if !m.Supported() {
			t.Errorf("%v should be supported", m)
		}
	}

	unsupported := []BlendMode{
		BlendMultiply, BlendScreen, BlendOverlay, BlendColorDodge, BlendColorBurn,
		BlendSoftLight, BlendHardLight, BlendDifference, BlendExclusion,
		BlendHue, BlendSaturation, BlendColor, BlendLuminosity, BlendMode(-1),
	}
	for _, m := range unsupported {
		if m.Supported() {
			t.Errorf("%v should not be supported", m)
		}
	}
}

func TestBlendModeEnumerations(t *testing.T) {
	all := AllBlendModes()
	if len(all) != 26 {
		t.Errorf("AllBlendModes returned %d modes, want 26", len(all))
	}
	for i, m := range all {
		if int(m) != i {
			t.Fatalf("AllBlendModes out of declaration order at %d: %v", i, m)
		}
	}

	supported := SupportedBlendModes()
	if len(supported) != 13 {
		t.Errorf("SupportedBlendModes returned %d modes, want 13", len(supported))
	}
	for _, m := range supported {
		if !m.Supported() {
			t.Errorf("SupportedBlendModes contains unsupported %v", m)
		}
	}
}
