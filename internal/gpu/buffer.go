package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer pool policy defaults.
const (
	// DefaultFrameCount is the ring depth: one buffer set per frame in
	// flight.
	DefaultFrameCount = 3

	// DefaultInitialBufferSize is the starting size of each slot buffer
	// (1 MiB).
	DefaultInitialBufferSize = 1 << 20

	// DefaultMaxBufferSize caps slot buffer growth (64 MiB).
	DefaultMaxBufferSize = 64 << 20

	// DefaultGrowthFactor is the geometric growth multiplier.
	DefaultGrowthFactor = 2.0
)

// PoolConfig carries the buffer pool policy. All values are policy, not
// protocol; zero fields fall back to the defaults.
type PoolConfig struct {
	FrameCount   int
	InitialSize  uint64
	MaxSize      uint64
	GrowthFactor float64
}

// DefaultPoolConfig returns the default policy: 3 ring slots of 1 MiB
// growing by 2x up to 64 MiB.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		FrameCount:   DefaultFrameCount,
		InitialSize:  DefaultInitialBufferSize,
		MaxSize:      DefaultMaxBufferSize,
		GrowthFactor: DefaultGrowthFactor,
	}
}

func (c *PoolConfig) applyDefaults() {
	if c.FrameCount <= 0 {
		c.FrameCount = DefaultFrameCount
	}
	if c.InitialSize == 0 {
		c.InitialSize = DefaultInitialBufferSize
	}
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxBufferSize
	}
	if c.MaxSize < c.InitialSize {
		c.MaxSize = c.InitialSize
	}
	if c.GrowthFactor <= 1 {
		c.GrowthFactor = DefaultGrowthFactor
	}
}

// Allocation is a view into a pool-owned buffer. It stays valid only until
// the owning ring slot is reset by its next AdvanceFrame rotation; callers
// never free it independently.
type Allocation struct {
	Buffer hal.Buffer
	Offset uint64
	Size   uint64
}

// frameSlot is one ring slot: a vertex buffer and its bump offset.
type frameSlot struct {
	buffer hal.Buffer
	size   uint64
	offset uint64
}

// BufferPool is a ring-buffered bump allocator for per-frame vertex data.
// Each frame in flight owns one slot; rotating the ring each frame keeps
// CPU writes off buffers the GPU may still be reading. Allocations are
// 4-byte aligned; a slot grows geometrically in place when full and is
// never shrunk.
//
// The pool is owned by a single renderer and is not safe for concurrent
// use.
type BufferPool struct {
	device hal.Device
	queue  hal.Queue
	cfg    PoolConfig
	slots  []frameSlot
	frame  int
}

// NewBufferPool creates the ring with cfg.FrameCount slots of
// cfg.InitialSize bytes each. The ring depth must be at least
// framesInFlight, the maximum number of frames the GPU backend may have in
// flight simultaneously; this is the invariant that keeps slot reuse safe,
// so it is checked here rather than assumed.
func NewBufferPool(device hal.Device, queue hal.Queue, cfg PoolConfig, framesInFlight int) (*BufferPool, error) {
	cfg.applyDefaults()
	if framesInFlight < 1 {
		framesInFlight = 1
	}
	if cfg.FrameCount < framesInFlight {
		return nil, fmt.Errorf("%w: ring depth %d < frames in flight %d",
			ErrInvalidPoolConfig, cfg.FrameCount, framesInFlight)
	}

	p := &BufferPool{
		device: device,
		queue:  queue,
		cfg:    cfg,
		slots:  make([]frameSlot, cfg.FrameCount),
	}
	for i := range p.slots {
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("quartz_vertex_pool_%d", i),
			Size:  cfg.InitialSize,
			Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("create pool buffer %d: %w", i, err)
		}
		p.slots[i] = frameSlot{buffer: buf, size: cfg.InitialSize}
	}
	return p, nil
}

// Config returns the pool's effective configuration.
func (p *BufferPool) Config() PoolConfig { return p.cfg }

// FrameIndex returns the current ring slot index.
func (p *BufferPool) FrameIndex() int { return p.frame }

// FrameOffset returns the current slot's bump offset.
func (p *BufferPool) FrameOffset() uint64 { return p.slots[p.frame].offset }

// AdvanceFrame rotates to the next ring slot and resets its write offset.
// Must be called exactly once per frame, before any allocation for that
// frame; prior slots keep their data until their own next rotation.
func (p *BufferPool) AdvanceFrame() {
	p.frame = (p.frame + 1) % len(p.slots)
	p.slots[p.frame].offset = 0
}

// Acquire bump-allocates align4(size) bytes from the current slot. When
// the slot is full it grows geometrically up to the configured maximum,
// replacing the old buffer and restarting the offset at zero, then retries
// once. Returns false when even a maximally grown buffer cannot hold the
// request. Growth invalidates the slot's earlier allocations, which is
// safe only because it happens before any draw of the new frame has read
// the buffer.
func (p *BufferPool) Acquire(size uint64) (Allocation, bool) {
	if size == 0 {
		return Allocation{}, false
	}
	aligned := align4(size)
	slot := &p.slots[p.frame]

	if slot.offset+aligned > slot.size {
		if !p.growSlot(slot, aligned) {
			return Allocation{}, false
		}
	}
	if slot.offset+aligned > slot.size {
		slogger().Warn("quartz: vertex allocation exceeds grown buffer",
			"request", aligned, "bufferSize", slot.size)
		return Allocation{}, false
	}

	alloc := Allocation{Buffer: slot.buffer, Offset: slot.offset, Size: aligned}
	slot.offset += aligned
	return alloc, true
}

// AcquireAndWrite composes Acquire with an immediate queue write of data.
func (p *BufferPool) AcquireAndWrite(data []byte) (Allocation, bool) {
	alloc, ok := p.Acquire(uint64(len(data)))
	if !ok {
		return Allocation{}, false
	}
	p.queue.WriteBuffer(alloc.Buffer, alloc.Offset, data)
	return alloc, true
}

// growSlot replaces the slot's buffer with a geometrically larger one that
// can hold at least need bytes, releasing the old buffer. The fresh buffer
// starts with offset zero. Fails when need exceeds the configured maximum.
func (p *BufferPool) growSlot(slot *frameSlot, need uint64) bool {
	newSize := slot.size
	for newSize < p.cfg.MaxSize && (newSize < need || newSize == slot.size) {
		newSize = uint64(float64(newSize) * p.cfg.GrowthFactor)
	}
	if newSize > p.cfg.MaxSize {
		newSize = p.cfg.MaxSize
	}
	if newSize < need || newSize == slot.size {
		slogger().Warn("quartz: buffer pool cannot grow to satisfy request",
			"request", need, "maxSize", p.cfg.MaxSize)
		return false
	}

	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quartz_vertex_pool_grown",
		Size:  newSize,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		slogger().Warn("quartz: buffer pool growth failed", "size", newSize, "error", err)
		return false
	}

	slogger().Debug("quartz: buffer pool slot grown",
		"from", slot.size, "to", newSize)
	p.device.DestroyBuffer(slot.buffer)
	slot.buffer = buf
	slot.size = newSize
	slot.offset = 0
	return true
}

// Destroy releases every slot buffer. Safe on a partially constructed
// pool.
func (p *BufferPool) Destroy() {
	for i := range p.slots {
		if p.slots[i].buffer != nil {
			p.device.DestroyBuffer(p.slots[i].buffer)
			p.slots[i].buffer = nil
		}
	}
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}
