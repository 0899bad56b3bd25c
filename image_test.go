package quartz

import (
	"image"
	"image/color"
	"testing"
)

func TestNewImageValidation(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		pixLen int
		wantOK bool
	}{
		{"valid", 2, 3, 24, true},
		{"zero width", 0, 3, 0, false},
		{"negative height", 2, -1, 8, false},
		{"short pixel data", 2, 3, 23, false},
		{"long pixel data", 2, 3, 25, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := NewImage(tt.w, tt.h, make([]byte, tt.pixLen))
			if (img != nil) != tt.wantOK {
				t.Errorf("NewImage(%d, %d, [%d]byte) = %v, want ok=%v",
					tt.w, tt.h, tt.pixLen, img, tt.wantOK)
			}
		})
	}
}

func TestImageIDsUnique(t *testing.T) {
	a := NewImage(1, 1, make([]byte, 4))
	b := NewImage(1, 1, make([]byte, 4))
	if a.ID() == b.ID() {
		t.Error("distinct images share an identifier")
	}
	if a.ID() == 0 || b.ID() == 0 {
		t.Error("identifiers should be non-zero")
	}
}

func TestImageFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 7, 8)) // non-zero origin
	src.SetNRGBA(5, 5, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(6, 7, color.NRGBA{B: 255, A: 255})

	img := ImageFromImage(src)
	if img == nil {
		t.Fatal("conversion returned nil")
	}
	if img.Width() != 2 || img.Height() != 3 {
		t.Fatalf("size = %dx%d, want 2x3", img.Width(), img.Height())
	}
	pix := img.Pix()
	if len(pix) != 2*3*4 {
		t.Fatalf("pixel data length %d", len(pix))
	}
	// Top-left pixel red, bottom-right blue; origin offset normalized away.
	if pix[0] != 255 || pix[3] != 255 {
		t.Errorf("top-left pixel = %v, want opaque red", pix[0:4])
	}
	last := pix[len(pix)-4:]
	if last[2] != 255 || last[3] != 255 {
		t.Errorf("bottom-right pixel = %v, want opaque blue", last)
	}
}

func TestImageFromImageEmptyBounds(t *testing.T) {
	if img := ImageFromImage(image.NewRGBA(image.Rect(0, 0, 0, 5))); img != nil {
		t.Error("empty bounds should convert to nil")
	}
}

func TestImageToImageRoundTrip(t *testing.T) {
	pix := []byte{
		255, 0, 0, 255 /**/, 0, 255, 0, 255,
		0, 0, 255, 255 /**/, 255, 255, 255, 128,
	}
	img := NewImage(2, 2, pix)
	out := img.ToImage()
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 2 {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	for i := range pix {
		if out.Pix[i] != pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, out.Pix[i], pix[i])
		}
	}

	// ToImage copies; mutating the copy must not touch the source.
	out.Pix[0] = 7
	if img.Pix()[0] != 255 {
		t.Error("ToImage should copy pixel data")
	}
}
