package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/quartz"
)

// TestBlendStateTable pins the exact factor/operation triple of every
// directly supported blend mode.
func TestBlendStateTable(t *testing.T) {
	type comp struct {
		src gputypes.BlendFactor
		dst gputypes.BlendFactor
		op  gputypes.BlendOperation
	}
	tests := []struct {
		mode         quartz.BlendMode
		color, alpha comp
	}{
		{
			quartz.BlendNormal,
			comp{gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendCopy,
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorZero, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorZero, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendSourceIn,
			comp{gputypes.BlendFactorDstAlpha, gputypes.BlendFactorZero, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorDstAlpha, gputypes.BlendFactorZero, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendSourceOut,
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorZero, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorZero, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendSourceAtop,
			comp{gputypes.BlendFactorDstAlpha, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorDstAlpha, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendDestinationOver,
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorOne, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorOne, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendDestinationIn,
			comp{gputypes.BlendFactorZero, gputypes.BlendFactorSrcAlpha, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorZero, gputypes.BlendFactorSrcAlpha, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendDestinationOut,
			comp{gputypes.BlendFactorZero, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorZero, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendDestinationAtop,
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorSrcAlpha, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorSrcAlpha, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendXOR,
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorOneMinusDstAlpha, gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendPlusLighter,
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorOne, gputypes.BlendOperationAdd},
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorOne, gputypes.BlendOperationAdd},
		},
		{
			quartz.BlendDarken,
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorOne, gputypes.BlendOperationMin},
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorOne, gputypes.BlendOperationMin},
		},
		{
			quartz.BlendLighten,
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorOne, gputypes.BlendOperationMax},
			comp{gputypes.BlendFactorOne, gputypes.BlendFactorOne, gputypes.BlendOperationMax},
		},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			bs := BlendStateFor(tt.mode)
			got := comp{bs.Color.SrcFactor, bs.Color.DstFactor, bs.Color.Operation}
			if got != tt.color {
				t.Errorf("color component = %+v, want %+v", got, tt.color)
			}
			got = comp{bs.Alpha.SrcFactor, bs.Alpha.DstFactor, bs.Alpha.Operation}
			if got != tt.alpha {
				t.Errorf("alpha component = %+v, want %+v", got, tt.alpha)
			}
		})
	}
}

// TestBlendStateFallback verifies every mode without a GPU equation
// normalizes to the normal equation.
func TestBlendStateFallback(t *testing.T) {
	normal := BlendStateFor(quartz.BlendNormal)
	for _, mode := range quartz.AllBlendModes() {
		if mode.Supported() {
			continue
		}
		if got := BlendStateFor(mode); got != normal {
			t.Errorf("%v should fall back to the normal equation, got %+v", mode, got)
		}
	}
}

func TestBlendStateTableCoversSupportedModes(t *testing.T) {
	for _, mode := range quartz.SupportedBlendModes() {
		if _, ok := blendStates[mode]; !ok {
			t.Errorf("supported mode %v missing from the blend table", mode)
		}
	}
	if len(blendStates) != len(quartz.SupportedBlendModes()) {
		t.Errorf("blend table has %d entries, want %d", len(blendStates), len(quartz.SupportedBlendModes()))
	}
}
