package render

import (
	"context"
	"errors"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
	"github.com/gogpu/quartz/internal/gpu"
)

// ErrEngineClosed is returned by operations on a closed engine.
var ErrEngineClosed = errors.New("render: engine is closed")

// Options configures engine construction. The zero value opens the
// default GPU device with an 800x600 offscreen target.
type Options struct {
	// Width and Height size the offscreen target in pixels.
	Width  int
	Height int

	// Device and Queue inject an already-open GPU device, following the
	// pattern where the host application owns the device. When nil, the
	// engine opens (and later closes) its own.
	Device hal.Device
	Queue  hal.Queue

	// FramesInFlight bounds how many batched frames may be pending.
	FramesInFlight int

	// FlattenTolerance is the curve flattening tolerance in device
	// pixels; zero selects the default.
	FlattenTolerance float32

	// PrecompilePipelines compiles the full pipeline set up front
	// instead of on first use.
	PrecompilePipelines bool

	// GeometryCacheSize overrides the tessellation cache entry limit.
	GeometryCacheSize int

	// TextureCacheSize and TextureBudget bound the image texture cache.
	TextureCacheSize int
	TextureBudget    uint64
}

// Stats reports engine resource usage.
type Stats struct {
	// GeometryHits and GeometryMisses count tessellation cache lookups.
	GeometryHits   uint64
	GeometryMisses uint64
	// GeometryEntries is the current tessellation cache population.
	GeometryEntries int

	// TextureCount and TextureBytes describe the resident image
	// textures; TextureEvictions counts LRU evictions so far.
	TextureCount     int
	TextureBytes     uint64
	TextureEvictions uint64

	// Pipelines is the number of compiled render pipelines.
	Pipelines int

	// DrawCalls and FramesSubmitted count work issued to the GPU.
	DrawCalls       uint64
	FramesSubmitted uint64
}

// Engine converts quartz drawing operations into GPU draw calls.
type Engine struct {
	dev      *gpu.Device
	renderer *gpu.Renderer
	ownsDev  bool
}

// New builds an engine. With an injected device the caller keeps device
// ownership; otherwise the engine opens the default adapter.
func New(opts Options) (*Engine, error) {
	var dev *gpu.Device
	ownsDev := false
	if opts.Device != nil && opts.Queue != nil {
		dev = gpu.NewDevice(opts.Device, opts.Queue)
	} else {
		opened, err := gpu.Open()
		if err != nil {
			return nil, err
		}
		dev = opened
		ownsDev = true
	}

	renderer, err := gpu.NewRenderer(dev, gpu.Config{
		Width:                 opts.Width,
		Height:                opts.Height,
		FramesInFlight:        opts.FramesInFlight,
		Tolerance:             opts.FlattenTolerance,
		WarmUp:                opts.PrecompilePipelines,
		GeometryCacheCapacity: opts.GeometryCacheSize,
		TextureCapacity:       opts.TextureCacheSize,
		TextureBudget:         opts.TextureBudget,
	})
	if err != nil {
		if ownsDev {
			dev.Close()
		}
		return nil, err
	}
	return &Engine{dev: dev, renderer: renderer, ownsDev: ownsDev}, nil
}

// Close releases the engine's GPU resources, and the device itself when
// the engine opened it.
func (e *Engine) Close() {
	if e.renderer == nil {
		return
	}
	e.renderer.Close()
	e.renderer = nil
	if e.ownsDev {
		e.dev.Close()
	}
	e.dev = nil
}

func (e *Engine) closed() bool { return e.renderer == nil }

// Resize changes the offscreen target size, effective on the next draw.
func (e *Engine) Resize(width, height int) {
	if e.closed() {
		return
	}
	e.renderer.Resize(width, height)
}

// Size returns the active target size in pixels.
func (e *Engine) Size() (int, int) {
	if e.closed() {
		return 0, 0
	}
	return e.renderer.Size()
}

// SetRenderTarget redirects drawing to an external texture view, such as
// a swapchain image. Width and height are the view's pixel size.
func (e *Engine) SetRenderTarget(view hal.TextureView, width, height int) {
	if e.closed() {
		return
	}
	e.renderer.SetRenderTarget(&gpu.RenderTarget{View: view, Width: width, Height: height})
}

// ResetRenderTarget restores drawing to the internal offscreen target.
func (e *Engine) ResetRenderTarget() {
	if e.closed() {
		return
	}
	e.renderer.SetRenderTarget(nil)
}

// BeginFrame opens a frame bracket: draws until EndFrame submit as one
// batch. It also rotates the per-frame vertex buffers.
func (e *Engine) BeginFrame() error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.BeginFrame()
}

// EndFrame submits the batched frame and waits for the GPU.
func (e *Engine) EndFrame() error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.EndFrame()
}

// Clear fills the target with a single color.
func (e *Engine) Clear(col quartz.Color) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.Clear(col)
}

// FillPath fills the interior of a path.
func (e *Engine) FillPath(path *quartz.Path, tm quartz.Matrix, col quartz.Color, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.Fill(path, tm, col, state)
}

// StrokePath strokes a path outline.
func (e *Engine) StrokePath(path *quartz.Path, tm quartz.Matrix, col quartz.Color, style quartz.StrokeStyle, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.Stroke(path, tm, col, style, state)
}

// DrawImage draws an image into the rectangle (x, y, w, h), transformed
// by tm.
func (e *Engine) DrawImage(img *quartz.Image, x, y, w, h float64, tm quartz.Matrix, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.DrawImage(img, x, y, w, h, tm, state)
}

// DrawLinearGradient draws a gradient along the start-to-end axis,
// covering the target perpendicular to it; bound it with a clip path.
func (e *Engine) DrawLinearGradient(g *quartz.Gradient, start, end quartz.Point, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.DrawLinearGradient(g, start, end, state)
}

// DrawRadialGradient draws concentric gradient bands between the two
// radii around center.
func (e *Engine) DrawRadialGradient(g *quartz.Gradient, center quartz.Point, startRadius, endRadius float64, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.DrawRadialGradient(g, center, startRadius, endRadius, state)
}

// DrawShading draws a stepped gradient ramp of discrete color bands.
func (e *Engine) DrawShading(g *quartz.Gradient, start, end quartz.Point, steps int, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.DrawShading(g, start, end, steps, state)
}

// FillPathWithPattern fills a path by tiling a cell image across it.
func (e *Engine) FillPathWithPattern(path *quartz.Path, tm quartz.Matrix, cell *quartz.Image, scaleX, scaleY float64, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.FillWithPattern(path, tm, cell, scaleX, scaleY, state)
}

// StrokePathWithPattern strokes a path outline with a tiled cell image.
func (e *Engine) StrokePathWithPattern(path *quartz.Path, tm quartz.Matrix, cell *quartz.Image, style quartz.StrokeStyle, scaleX, scaleY float64, state quartz.DrawState) error {
	if e.closed() {
		return ErrEngineClosed
	}
	return e.renderer.StrokeWithPattern(path, tm, cell, style, scaleX, scaleY, state)
}

// MakeImage reads the offscreen target back into an image of the given
// size, flushing any open frame first.
func (e *Engine) MakeImage(ctx context.Context, width, height int) (*quartz.Image, error) {
	if e.closed() {
		return nil, ErrEngineClosed
	}
	return e.renderer.MakeImage(ctx, width, height)
}

// EvictImage drops an image's cached GPU texture, for callers that
// mutate pixel data and re-draw.
func (e *Engine) EvictImage(img *quartz.Image) {
	if e.closed() {
		return
	}
	e.renderer.TextureManager().Remove(img)
}

// Stats returns a snapshot of cache and submission counters.
func (e *Engine) Stats() Stats {
	if e.closed() {
		return Stats{}
	}
	s := e.renderer.Stats()
	return Stats{
		GeometryHits:     s.Geometry.Hits,
		GeometryMisses:   s.Geometry.Misses,
		GeometryEntries:  s.Geometry.Entries,
		TextureCount:     s.Textures.Count,
		TextureBytes:     s.Textures.UsedBytes,
		TextureEvictions: s.Textures.Evictions,
		Pipelines:        s.Pipelines,
		DrawCalls:        s.DrawCalls,
		FramesSubmitted:  s.FramesSubmitted,
	}
}
