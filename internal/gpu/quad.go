package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
)

// texVertex is one textured vertex: clip-space position plus UV.
type texVertex struct {
	pos [2]float32
	uv  [2]float32
}

// texVertexBytes serializes textured vertices little-endian, matching
// texVertexLayout.
func texVertexBytes(verts []texVertex) []byte {
	buf := make([]byte, len(verts)*texVertexStride)
	off := 0
	for _, v := range verts {
		for _, f := range [4]float32{v.pos[0], v.pos[1], v.uv[0], v.uv[1]} {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf
}

// quadVerts builds the two triangles of an axis-aligned clip-space quad.
// v0 is the UV at the quad's bottom edge (clip-space y0) and v1 at the
// top edge, so callers control texture orientation.
func quadVerts(x0, y0, x1, y1, u0, v0, u1, v1 float32) []texVertex {
	bl := texVertex{pos: [2]float32{x0, y0}, uv: [2]float32{u0, v0}}
	br := texVertex{pos: [2]float32{x1, y0}, uv: [2]float32{u1, v0}}
	tr := texVertex{pos: [2]float32{x1, y1}, uv: [2]float32{u1, v1}}
	tl := texVertex{pos: [2]float32{x0, y1}, uv: [2]float32{u0, v1}}
	return []texVertex{bl, br, tr, bl, tr, tl}
}

// fullscreenQuad covers the whole target with v=0 along the top edge,
// the texture row order produced by rendering into an offscreen mask.
func fullscreenQuad() []texVertex {
	return quadVerts(-1, -1, 1, 1, 0, 1, 1, 0)
}

// packFloats serializes float32 values little-endian, for uniform blocks.
func packFloats(fs ...float32) []byte {
	buf := make([]byte, len(fs)*4)
	for i, f := range fs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// createUploadBuffer creates a standalone buffer and writes data into it.
// Used for transient per-draw resources that outlive the pool's frame
// discipline; the caller owns destruction.
func (r *Renderer) createUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := r.queue.WriteBuffer(buf, 0, data); err != nil {
		r.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}

// texturedBindGroup builds the transient uniform buffer and bind group
// shared by every textured pipeline (params at 0, texture at 1, sampler
// at 2). Both are released after the recording's fence wait.
func (r *Renderer) texturedBindGroup(label string, params []byte, view hal.TextureView, sampler hal.Sampler) (hal.BindGroup, error) {
	if len(params) != paramsUniformSize {
		return nil, fmt.Errorf("%s: params must be %d bytes, got %d", label, paramsUniformSize, len(params))
	}
	ub, err := r.createUploadBuffer(label+"_params", params, gputypes.BufferUsageUniform)
	if err != nil {
		return nil, err
	}
	r.deferFrameCleanup(func() { r.device.DestroyBuffer(ub) })

	bg, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label + "_bind",
		Layout: r.pipelines.TextureBindLayout(),
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: ub.NativeHandle(), Offset: 0, Size: paramsUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	r.deferFrameCleanup(func() { r.device.DestroyBindGroup(bg) })
	return bg, nil
}

// placeholderCellSize is the checkerboard cell edge in pixels.
const placeholderCellSize = 8

// placeholderImage is the gray checkerboard drawn when an image texture
// cannot be created, making the failure visible instead of silent.
func (r *Renderer) placeholderImage() *quartz.Image {
	if r.placeholder != nil {
		return r.placeholder
	}
	const size = 64
	const light, dark = byte(204), byte(128)
	pix := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := light
			if (x/placeholderCellSize+y/placeholderCellSize)%2 == 1 {
				v = dark
			}
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 0xFF
		}
	}
	r.placeholder = quartz.NewImage(size, size, pix)
	return r.placeholder
}
