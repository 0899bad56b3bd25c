package gpu

import (
	"encoding/binary"
	"math"
	"testing"
)

func floatAt(buf []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
}

func TestPackFloats(t *testing.T) {
	buf := packFloats(1, 0.5, -2, 0)
	if len(buf) != 16 {
		t.Fatalf("len = %d, want 16", len(buf))
	}
	want := []float32{1, 0.5, -2, 0}
	for i, w := range want {
		if got := floatAt(buf, i); got != w {
			t.Errorf("float %d = %v, want %v", i, got, w)
		}
	}
}

func TestQuadVerts(t *testing.T) {
	verts := quadVerts(-1, -1, 1, 1, 0, 0, 1, 1)
	if len(verts) != 6 {
		t.Fatalf("len = %d, want 6", len(verts))
	}
	// Two triangles sharing the bottom-left and top-right corners.
	if verts[0] != verts[3] {
		t.Errorf("triangles do not share the first corner: %+v vs %+v", verts[0], verts[3])
	}
	if verts[2] != verts[4] {
		t.Errorf("triangles do not share the opposite corner: %+v vs %+v", verts[2], verts[4])
	}
	// Corner positions carry the requested UVs.
	if verts[0].pos != [2]float32{-1, -1} || verts[0].uv != [2]float32{0, 0} {
		t.Errorf("bottom-left = %+v", verts[0])
	}
	if verts[2].pos != [2]float32{1, 1} || verts[2].uv != [2]float32{1, 1} {
		t.Errorf("top-right = %+v", verts[2])
	}
}

func TestFullscreenQuadFlipsV(t *testing.T) {
	for _, v := range fullscreenQuad() {
		// Offscreen masks store their first row at v=0, so the quad's top
		// edge (clip-space y=1) samples v=0.
		if v.pos[1] == 1 && v.uv[1] != 0 {
			t.Errorf("top edge vertex %+v should sample v=0", v)
		}
		if v.pos[1] == -1 && v.uv[1] != 1 {
			t.Errorf("bottom edge vertex %+v should sample v=1", v)
		}
	}
}

func TestTexVertexBytes(t *testing.T) {
	verts := []texVertex{
		{pos: [2]float32{-1, 1}, uv: [2]float32{0, 0.5}},
		{pos: [2]float32{0.25, -0.75}, uv: [2]float32{1, 0}},
	}
	buf := texVertexBytes(verts)
	if len(buf) != 2*texVertexStride {
		t.Fatalf("len = %d, want %d", len(buf), 2*texVertexStride)
	}
	want := []float32{-1, 1, 0, 0.5, 0.25, -0.75, 1, 0}
	for i, w := range want {
		if got := floatAt(buf, i); got != w {
			t.Errorf("float %d = %v, want %v", i, got, w)
		}
	}
}

func TestPlaceholderImage(t *testing.T) {
	r, cleanup := newTestRenderer(t, Config{Width: 64, Height: 64})
	defer cleanup()

	img := r.placeholderImage()
	if img == nil {
		t.Fatal("placeholderImage returned nil")
	}
	if img != r.placeholderImage() {
		t.Error("placeholder not cached between calls")
	}
	if img.Width() != 64 || img.Height() != 64 {
		t.Errorf("placeholder size = %dx%d, want 64x64", img.Width(), img.Height())
	}

	// Opaque checkerboard: the first cell is light, the next cell along x
	// is dark.
	pix := img.Pix()
	if pix[0] != 204 || pix[3] != 0xFF {
		t.Errorf("first cell pixel = (%d, alpha %d), want (204, 255)", pix[0], pix[3])
	}
	darkCell := placeholderCellSize * 4
	if pix[darkCell] != 128 || pix[darkCell+3] != 0xFF {
		t.Errorf("second cell pixel = (%d, alpha %d), want (128, 255)", pix[darkCell], pix[darkCell+3])
	}
}
