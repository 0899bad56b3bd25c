package gpu

import (
	"container/list"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
)

// Texture cache limits.
const (
	// DefaultTextureCapacity is the default entry-count cap.
	DefaultTextureCapacity = 64

	// DefaultTextureBudget is the default GPU memory budget in bytes
	// (256 MiB). Each entry costs width*height*4 bytes (RGBA8).
	DefaultTextureBudget = 256 << 20
)

// TextureStats contains texture cache usage statistics.
type TextureStats struct {
	Count       int
	UsedBytes   uint64
	BudgetBytes uint64
	Evictions   uint64
}

// String returns a human-readable summary of the stats.
func (s TextureStats) String() string {
	return fmt.Sprintf("Textures[%d entries, %d/%d MB, %d evictions]",
		s.Count,
		s.UsedBytes/(1024*1024),
		s.BudgetBytes/(1024*1024),
		s.Evictions)
}

// textureEntry tracks one uploaded texture with its LRU position.
type textureEntry struct {
	key       uint64
	texture   hal.Texture
	view      hal.TextureView
	width     int
	height    int
	sizeBytes uint64
}

// TextureManager caches uploaded GPU textures keyed by image identifier.
// Eviction is strictly least-recently-used against both an entry-count cap
// and a byte budget, and is checked only after an insertion, never
// proactively.
//
// The manager is owned by a single renderer and is not safe for
// concurrent use.
type TextureManager struct {
	device hal.Device
	queue  hal.Queue

	capacity    int
	budgetBytes uint64
	usedBytes   uint64

	entries map[uint64]*list.Element
	order   *list.List // front = most recently used

	evictions uint64
}

// NewTextureManager creates a manager with the given caps; non-positive
// values fall back to the defaults.
func NewTextureManager(device hal.Device, queue hal.Queue, capacity int, budgetBytes uint64) *TextureManager {
	if capacity <= 0 {
		capacity = DefaultTextureCapacity
	}
	if budgetBytes == 0 {
		budgetBytes = DefaultTextureBudget
	}
	return &TextureManager{
		device:      device,
		queue:       queue,
		capacity:    capacity,
		budgetBytes: budgetBytes,
		entries:     make(map[uint64]*list.Element, capacity),
		order:       list.New(),
	}
}

// Get returns the cached view for an image, or false on a miss. A hit
// marks the entry most-recently-used.
func (m *TextureManager) Get(img *quartz.Image) (hal.TextureView, bool) {
	if img == nil {
		return nil, false
	}
	el, ok := m.entries[img.ID()]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*textureEntry).view, true
}

// GetOrCreate returns the cached view for an image, uploading it on a
// miss. Returns false when the pixel data cannot be validated as RGBA8 of
// the expected length or the GPU rejects the texture; callers fall back to
// a placeholder rather than uploading garbage.
func (m *TextureManager) GetOrCreate(img *quartz.Image) (hal.TextureView, bool) {
	if view, ok := m.Get(img); ok {
		return view, true
	}
	if img == nil {
		return nil, false
	}

	w, h := img.Width(), img.Height()
	pix := img.Pix()
	if w <= 0 || h <= 0 || len(pix) != w*h*4 {
		slogger().Warn("quartz: rejecting image with invalid pixel data",
			"width", w, "height", h, "bytes", len(pix))
		return nil, false
	}

	texture, err := m.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("quartz_image_%d", img.ID()),
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		slogger().Warn("quartz: texture creation failed", "error", err)
		return nil, false
	}

	view, err := m.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label: fmt.Sprintf("quartz_image_%d_view", img.ID()),
	})
	if err != nil {
		m.device.DestroyTexture(texture)
		slogger().Warn("quartz: texture view creation failed", "error", err)
		return nil, false
	}

	m.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: texture, MipLevel: 0},
		pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(w * 4), RowsPerImage: uint32(h)},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	)

	entry := &textureEntry{
		key:       img.ID(),
		texture:   texture,
		view:      view,
		width:     w,
		height:    h,
		sizeBytes: uint64(w) * uint64(h) * 4,
	}
	m.entries[entry.key] = m.order.PushFront(entry)
	m.usedBytes += entry.sizeBytes

	m.evictOverflow()
	return view, true
}

// evictOverflow drops least-recently-used entries until both the count cap
// and the byte budget are satisfied. The most recent entry is never
// evicted even when it alone exceeds the budget.
func (m *TextureManager) evictOverflow() {
	for len(m.entries) > 1 &&
		(len(m.entries) > m.capacity || m.usedBytes > m.budgetBytes) {
		oldest := m.order.Back()
		if oldest == nil {
			return
		}
		m.destroyEntry(oldest)
		m.evictions++
	}
	if m.usedBytes > m.budgetBytes {
		slogger().Warn("quartz: texture budget exceeded by a single texture",
			"usedBytes", m.usedBytes, "budgetBytes", m.budgetBytes)
	}
}

// Remove drops and destroys the entry for an image, if cached.
func (m *TextureManager) Remove(img *quartz.Image) {
	if img == nil {
		return
	}
	if el, ok := m.entries[img.ID()]; ok {
		m.destroyEntry(el)
	}
}

// Clear destroys every cached texture.
func (m *TextureManager) Clear() {
	for m.order.Len() > 0 {
		m.destroyEntry(m.order.Back())
	}
}

// Stats returns a snapshot of cache usage.
func (m *TextureManager) Stats() TextureStats {
	return TextureStats{
		Count:       len(m.entries),
		UsedBytes:   m.usedBytes,
		BudgetBytes: m.budgetBytes,
		Evictions:   m.evictions,
	}
}

// Destroy releases all GPU resources held by the manager.
func (m *TextureManager) Destroy() {
	m.Clear()
}

func (m *TextureManager) destroyEntry(el *list.Element) {
	entry := el.Value.(*textureEntry)
	m.order.Remove(el)
	delete(m.entries, entry.key)
	m.usedBytes -= entry.sizeBytes
	if entry.view != nil {
		m.device.DestroyTextureView(entry.view)
	}
	if entry.texture != nil {
		m.device.DestroyTexture(entry.texture)
	}
}
