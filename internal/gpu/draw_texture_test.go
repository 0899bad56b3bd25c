package gpu

import (
	"testing"

	"github.com/gogpu/quartz"
)

func solidImage(w, h int) *quartz.Image {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = 0xFF, 0x80, 0x00, 0xFF
	}
	return quartz.NewImage(w, h, pix)
}

func TestDrawImage(t *testing.T) {
	r, cleanup := newTestRenderer(t, Config{Width: 100, Height: 100})
	defer cleanup()

	state := quartz.DefaultDrawState()
	img := solidImage(8, 8)
	if err := r.DrawImage(img, 10, 10, 40, 40, quartz.Identity(), state); err != nil {
		t.Fatalf("DrawImage failed: %v", err)
	}
	stats := r.Stats()
	if stats.DrawCalls != 1 {
		t.Errorf("DrawCalls = %d, want 1", stats.DrawCalls)
	}
	if stats.Textures.Count != 1 {
		t.Errorf("texture count = %d, want 1", stats.Textures.Count)
	}

	// Repeat draws reuse the cached texture.
	if err := r.DrawImage(img, 50, 50, 20, 20, quartz.Identity(), state); err != nil {
		t.Fatalf("second DrawImage failed: %v", err)
	}
	if got := r.Stats().Textures.Count; got != 1 {
		t.Errorf("texture count after reuse = %d, want 1", got)
	}
}

func TestDrawImageDegenerate(t *testing.T) {
	r, cleanup := newTestRenderer(t, Config{Width: 100, Height: 100})
	defer cleanup()

	state := quartz.DefaultDrawState()
	if err := r.DrawImage(nil, 0, 0, 10, 10, quartz.Identity(), state); err != nil {
		t.Errorf("DrawImage(nil) = %v, want nil", err)
	}
	if err := r.DrawImage(solidImage(4, 4), 0, 0, 0, 10, quartz.Identity(), state); err != nil {
		t.Errorf("zero-width DrawImage = %v, want nil", err)
	}
	if got := r.Stats().DrawCalls; got != 0 {
		t.Errorf("degenerate image draws issued %d draw calls", got)
	}
}

func TestDrawImageWithShadow(t *testing.T) {
	r, cleanup := newTestRenderer(t, Config{Width: 100, Height: 100})
	defer cleanup()

	state := quartz.DefaultDrawState()
	state.Shadow = &quartz.Shadow{Color: quartz.RGBA(0, 0, 0, 0.5), OffsetX: 2, OffsetY: 2, Blur: 3}
	if err := r.DrawImage(solidImage(8, 8), 10, 10, 40, 40, quartz.Identity(), state); err != nil {
		t.Fatalf("DrawImage with shadow failed: %v", err)
	}
	if got := r.Stats().DrawCalls; got != 2 {
		t.Errorf("DrawCalls = %d, want 2", got)
	}
}

func TestFillWithPattern(t *testing.T) {
	r, cleanup := newTestRenderer(t, Config{Width: 100, Height: 100})
	defer cleanup()

	state := quartz.DefaultDrawState()
	err := r.FillWithPattern(rectPath(0, 0, 80, 80), quartz.Identity(), solidImage(8, 8), 1, 1, state)
	if err != nil {
		t.Fatalf("FillWithPattern failed: %v", err)
	}
	stats := r.Stats()
	if stats.DrawCalls != 1 {
		t.Errorf("DrawCalls = %d, want 1", stats.DrawCalls)
	}
	if stats.Textures.Count != 1 {
		t.Errorf("texture count = %d, want 1", stats.Textures.Count)
	}
}

func TestFillWithPatternDegenerate(t *testing.T) {
	r, cleanup := newTestRenderer(t, Config{Width: 100, Height: 100})
	defer cleanup()

	state := quartz.DefaultDrawState()
	if err := r.FillWithPattern(nil, quartz.Identity(), solidImage(4, 4), 1, 1, state); err != nil {
		t.Errorf("nil path: got %v, want nil", err)
	}
	if err := r.FillWithPattern(rectPath(0, 0, 10, 10), quartz.Identity(), nil, 1, 1, state); err != nil {
		t.Errorf("nil cell: got %v, want nil", err)
	}
	if got := r.Stats().DrawCalls; got != 0 {
		t.Errorf("degenerate pattern fills issued %d draw calls", got)
	}
}

func TestStrokeWithPattern(t *testing.T) {
	r, cleanup := newTestRenderer(t, Config{Width: 100, Height: 100})
	defer cleanup()

	path := quartz.NewPath()
	path.MoveTo(10, 50)
	path.LineTo(90, 50)

	state := quartz.DefaultDrawState()
	style := quartz.DefaultStrokeStyle()
	style.Width = 6

	if err := r.StrokeWithPattern(path, quartz.Identity(), solidImage(8, 8), style, 1, 1, state); err != nil {
		t.Fatalf("StrokeWithPattern failed: %v", err)
	}
	if got := r.Stats().DrawCalls; got != 1 {
		t.Errorf("DrawCalls = %d, want 1", got)
	}

	style.Width = 0
	if err := r.StrokeWithPattern(path, quartz.Identity(), solidImage(8, 8), style, 1, 1, state); err != nil {
		t.Errorf("zero-width pattern stroke: got %v, want nil", err)
	}
	if got := r.Stats().DrawCalls; got != 1 {
		t.Errorf("zero-width pattern stroke issued a draw call: %d", got)
	}
}
