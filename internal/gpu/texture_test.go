package gpu

import (
	"testing"

	"github.com/gogpu/quartz"
)

func newTestTextures(t *testing.T, capacity int, budget uint64) (*TextureManager, func()) {
	t.Helper()
	device, queue, cleanupDev := createNoopDevice(t)
	m := NewTextureManager(device, queue, capacity, budget)
	return m, func() {
		m.Destroy()
		cleanupDev()
	}
}

func testImage(t *testing.T, w, h int) *quartz.Image {
	t.Helper()
	img := quartz.NewImage(w, h, make([]byte, w*h*4))
	if img == nil {
		t.Fatalf("invalid test image %dx%d", w, h)
	}
	return img
}

func TestTextureManagerGetMiss(t *testing.T) {
	m, cleanup := newTestTextures(t, 4, 0)
	defer cleanup()

	if _, ok := m.Get(testImage(t, 2, 2)); ok {
		t.Error("expected a miss on an empty cache")
	}
	if _, ok := m.Get(nil); ok {
		t.Error("nil image should miss")
	}
}

func TestTextureManagerGetOrCreate(t *testing.T) {
	m, cleanup := newTestTextures(t, 4, 0)
	defer cleanup()

	img := testImage(t, 4, 2)
	view, ok := m.GetOrCreate(img)
	if !ok || view == nil {
		t.Fatal("upload failed")
	}

	again, ok := m.GetOrCreate(img)
	if !ok {
		t.Fatal("cached lookup failed")
	}
	if again != view {
		t.Error("second lookup should return the cached view")
	}

	stats := m.Stats()
	if stats.Count != 1 {
		t.Errorf("Count = %d, want 1", stats.Count)
	}
	if stats.UsedBytes != 4*2*4 {
		t.Errorf("UsedBytes = %d, want 32", stats.UsedBytes)
	}
}

func TestTextureManagerRejectsNil(t *testing.T) {
	m, cleanup := newTestTextures(t, 4, 0)
	defer cleanup()

	if _, ok := m.GetOrCreate(nil); ok {
		t.Error("nil image should not upload")
	}
}

// TestTextureManagerLRUEvictionOrder fills the cache past its entry cap
// and verifies the least recently used entry goes first.
func TestTextureManagerLRUEvictionOrder(t *testing.T) {
	m, cleanup := newTestTextures(t, 2, 0)
	defer cleanup()

	a := testImage(t, 1, 1)
	b := testImage(t, 1, 1)
	c := testImage(t, 1, 1)

	m.GetOrCreate(a)
	m.GetOrCreate(b)
	m.Get(a) // b becomes least recently used

	m.GetOrCreate(c)

	if _, ok := m.Get(b); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok := m.Get(a); !ok {
		t.Error("a should survive, it was touched last")
	}
	if _, ok := m.Get(c); !ok {
		t.Error("c was just inserted and should be cached")
	}
	if got := m.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

// TestTextureManagerBudgetEviction bounds the cache by bytes rather than
// entries.
func TestTextureManagerBudgetEviction(t *testing.T) {
	// Budget of two 4x4 textures (64 bytes each).
	m, cleanup := newTestTextures(t, 100, 128)
	defer cleanup()

	a := testImage(t, 4, 4)
	b := testImage(t, 4, 4)
	c := testImage(t, 4, 4)

	m.GetOrCreate(a)
	m.GetOrCreate(b)
	if m.Stats().UsedBytes != 128 {
		t.Fatalf("UsedBytes = %d, want 128", m.Stats().UsedBytes)
	}

	m.GetOrCreate(c)
	stats := m.Stats()
	if stats.UsedBytes > 128 {
		t.Errorf("UsedBytes = %d exceeds budget", stats.UsedBytes)
	}
	if _, ok := m.Get(a); ok {
		t.Error("oldest texture should have been evicted to fit the budget")
	}
}

func TestTextureManagerOversizedSingleEntryKept(t *testing.T) {
	// One texture over budget: it must still be usable; the newest entry
	// is never evicted.
	m, cleanup := newTestTextures(t, 100, 16)
	defer cleanup()

	big := testImage(t, 8, 8) // 256 bytes
	if _, ok := m.GetOrCreate(big); !ok {
		t.Fatal("oversized upload failed")
	}
	if m.Stats().Count != 1 {
		t.Errorf("Count = %d, want the oversized entry kept", m.Stats().Count)
	}
}

func TestTextureManagerRemove(t *testing.T) {
	m, cleanup := newTestTextures(t, 4, 0)
	defer cleanup()

	img := testImage(t, 2, 2)
	m.GetOrCreate(img)
	m.Remove(img)

	if _, ok := m.Get(img); ok {
		t.Error("entry should be gone after Remove")
	}
	if m.Stats().UsedBytes != 0 {
		t.Errorf("UsedBytes = %d after Remove, want 0", m.Stats().UsedBytes)
	}

	// Removing an uncached image is a no-op.
	m.Remove(testImage(t, 2, 2))
	m.Remove(nil)
}

func TestTextureManagerClear(t *testing.T) {
	m, cleanup := newTestTextures(t, 8, 0)
	defer cleanup()

	for i := 0; i < 3; i++ {
		m.GetOrCreate(testImage(t, 2, 2))
	}
	m.Clear()

	stats := m.Stats()
	if stats.Count != 0 || stats.UsedBytes != 0 {
		t.Errorf("stats after Clear = %+v", stats)
	}
}

func TestTextureManagerDefaults(t *testing.T) {
	m, cleanup := newTestTextures(t, 0, 0)
	defer cleanup()

	stats := m.Stats()
	if stats.BudgetBytes != DefaultTextureBudget {
		t.Errorf("BudgetBytes = %d, want default", stats.BudgetBytes)
	}
}
