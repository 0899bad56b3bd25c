package gpu

import (
	"testing"

	"github.com/gogpu/quartz"
)

func newTestRegistry(t *testing.T) (*PipelineRegistry, func()) {
	t.Helper()
	device, _, cleanupDev := createNoopDevice(t)
	r, err := NewPipelineRegistry(device)
	if err != nil {
		cleanupDev()
		t.Fatalf("NewPipelineRegistry failed: %v", err)
	}
	return r, func() {
		r.Destroy()
		cleanupDev()
	}
}

func TestPipelineRegistryLazyCompile(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	if r.PipelineCount() != 0 {
		t.Fatalf("fresh registry holds %d pipelines", r.PipelineCount())
	}

	p1, err := r.Pipeline(quartz.BlendNormal)
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	if r.PipelineCount() != 1 {
		t.Errorf("PipelineCount = %d after one compile", r.PipelineCount())
	}

	p2, err := r.Pipeline(quartz.BlendNormal)
	if err != nil {
		t.Fatalf("second Pipeline failed: %v", err)
	}
	if p1 != p2 {
		t.Error("repeat lookup must reuse the compiled pipeline")
	}
	if r.PipelineCount() != 1 {
		t.Errorf("repeat lookup recompiled: count = %d", r.PipelineCount())
	}
}

func TestPipelineRegistryUnsupportedModeNormalizes(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	normal, err := r.Pipeline(quartz.BlendNormal)
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	multiply, err := r.Pipeline(quartz.BlendMultiply)
	if err != nil {
		t.Fatalf("Pipeline(multiply) failed: %v", err)
	}
	if multiply != normal {
		t.Error("unsupported mode should share the normal pipeline")
	}
}

func TestPipelineRegistryClippedIsDistinct(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	plain, err := r.Pipeline(quartz.BlendNormal)
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	clipped, err := r.ClippedPipeline(quartz.BlendNormal)
	if err != nil {
		t.Fatalf("ClippedPipeline failed: %v", err)
	}
	if plain == clipped {
		t.Error("clipped variant should be a separate pipeline")
	}
	if r.PipelineCount() != 2 {
		t.Errorf("PipelineCount = %d, want 2", r.PipelineCount())
	}
}

func TestPipelineRegistrySpecialKinds(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	for kind := SpecialPipeline(0); kind < numSpecialPipelines; kind++ {
		p, err := r.Special(kind)
		if err != nil {
			t.Fatalf("Special(%v) failed: %v", kind, err)
		}
		if p == nil {
			t.Fatalf("Special(%v) returned nil", kind)
		}
	}
	if r.PipelineCount() != int(numSpecialPipelines) {
		t.Errorf("PipelineCount = %d, want %d", r.PipelineCount(), numSpecialPipelines)
	}
}

func TestPipelineRegistryClippedSpecial(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	// Content pipelines have a stencil-tested variant.
	for _, kind := range []SpecialPipeline{PipelineImage, PipelinePattern, PipelineShadowComposite} {
		plain, err := r.Special(kind)
		if err != nil {
			t.Fatalf("Special(%v) failed: %v", kind, err)
		}
		clipped, err := r.ClippedSpecial(kind)
		if err != nil {
			t.Fatalf("ClippedSpecial(%v) failed: %v", kind, err)
		}
		if plain == clipped {
			t.Errorf("ClippedSpecial(%v) should differ from the plain variant", kind)
		}
	}

	// Offscreen pipelines have no clipped form.
	plain, _ := r.Special(PipelineBlurHorizontal)
	fallback, err := r.ClippedSpecial(PipelineBlurHorizontal)
	if err != nil {
		t.Fatalf("ClippedSpecial(blur) failed: %v", err)
	}
	if plain != fallback {
		t.Error("blur has no clipped variant and should fall back")
	}
}

// TestPipelineRegistrySampleCountVariants verifies MSAA toggling caches a
// variant per sample count instead of recompiling.
func TestPipelineRegistrySampleCountVariants(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	if r.SampleCount() != 1 {
		t.Fatalf("default sample count %d", r.SampleCount())
	}

	single, _ := r.Pipeline(quartz.BlendNormal)
	r.SetSampleCount(4)
	msaa, err := r.Pipeline(quartz.BlendNormal)
	if err != nil {
		t.Fatalf("Pipeline at 4 samples failed: %v", err)
	}
	if single == msaa {
		t.Error("sample counts should compile separate pipelines")
	}

	r.SetSampleCount(1)
	again, _ := r.Pipeline(quartz.BlendNormal)
	if again != single {
		t.Error("switching back should reuse the single-sample pipeline")
	}
	if r.PipelineCount() != 2 {
		t.Errorf("PipelineCount = %d, want 2", r.PipelineCount())
	}

	// Invalid counts normalize to 1.
	r.SetSampleCount(7)
	if r.SampleCount() != 1 {
		t.Errorf("SetSampleCount(7) left %d", r.SampleCount())
	}
}

// TestPipelineRegistrySampleCountSharedByOffscreen verifies blur and
// shadow-mask pipelines ignore the active sample count.
func TestPipelineRegistrySampleCountSharedByOffscreen(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	blur1, _ := r.Special(PipelineBlurVertical)
	r.SetSampleCount(4)
	blur4, err := r.Special(PipelineBlurVertical)
	if err != nil {
		t.Fatalf("Special(blur) at 4 samples failed: %v", err)
	}
	if blur1 != blur4 {
		t.Error("blur pipelines always render single-sampled and should be shared")
	}
}

func TestPipelineRegistryWarmUp(t *testing.T) {
	r, cleanup := newTestRegistry(t)
	defer cleanup()

	if err := r.WarmUp(); err != nil {
		t.Fatalf("WarmUp failed: %v", err)
	}
	// 13 blend modes, plain and clipped, plus the special set.
	want := 2*len(quartz.SupportedBlendModes()) + int(numSpecialPipelines)
	if r.PipelineCount() != want {
		t.Errorf("PipelineCount = %d after WarmUp, want %d", r.PipelineCount(), want)
	}

	// A second warm-up compiles nothing new.
	if err := r.WarmUp(); err != nil {
		t.Fatalf("second WarmUp failed: %v", err)
	}
	if r.PipelineCount() != want {
		t.Errorf("PipelineCount = %d after repeat WarmUp, want %d", r.PipelineCount(), want)
	}
}

func TestSpecialPipelineString(t *testing.T) {
	tests := []struct {
		kind SpecialPipeline
		want string
	}{
		{PipelineStencilWrite, "stencil-write"},
		{PipelineShadowMask, "shadow-mask"},
		{SpecialPipeline(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
