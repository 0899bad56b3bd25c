package gpu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/quartz"
)

// copyPitchAlignment is the BytesPerRow alignment texture-to-buffer
// copies require.
const copyPitchAlignment = 256

// ErrExternalReadback is returned by MakeImage while an external render
// target is active; the renderer only holds a view of it, not the
// texture, so it cannot source a copy.
var ErrExternalReadback = errors.New("gpu: cannot read back an external render target")

// MakeImage reads the offscreen target back into an image of the given
// size. Content outside the target is transparent; a smaller request
// crops from the top-left. Any open frame is flushed first so the image
// reflects every draw issued so far.
func (r *Renderer) MakeImage(ctx context.Context, width, height int) (*quartz.Image, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if r.external != nil {
		return nil, ErrExternalReadback
	}
	if err := r.EndFrame(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := r.resolveTarget(); err != nil {
		return nil, err
	}

	w := uint32(r.target.width)
	h := uint32(r.target.height)
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quartz_readback_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(staging)

	enc, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "quartz_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("quartz_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The color texture sits in attachment layout after rendering; the
	// copy needs transfer-source. Transition both ways so later passes
	// see the layout they expect.
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.target.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	enc.CopyTextureToBuffer(r.target.color, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.target.color, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.target.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmd, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmd)

	r.fenceValue++
	if err := r.queue.Submit([]hal.CommandBuffer{cmd}, r.fence, r.fenceValue); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	ok, err := r.device.Wait(r.fence, r.fenceValue, waitBudget(ctx))
	if err != nil || !ok {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}

	readback := make([]byte, stagingSize)
	if err := r.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	// Strip row padding, convert BGRA to RGBA, and place into the
	// requested extent.
	pix := make([]byte, width*height*4)
	copyW := width
	if int(w) < copyW {
		copyW = int(w)
	}
	copyH := height
	if int(h) < copyH {
		copyH = int(h)
	}
	for row := 0; row < copyH; row++ {
		src := readback[row*int(alignedBytesPerRow):]
		dst := pix[row*width*4:]
		for x := 0; x < copyW; x++ {
			b, g, rr, a := src[x*4], src[x*4+1], src[x*4+2], src[x*4+3]
			dst[x*4], dst[x*4+1], dst[x*4+2], dst[x*4+3] = rr, g, b, a
		}
	}
	return quartz.NewImage(width, height, pix), nil
}

// waitBudget bounds a fence wait by the context deadline, capped at the
// package-wide GPU timeout.
func waitBudget(ctx context.Context) time.Duration {
	timeout := gpuTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remain := time.Until(deadline); remain < timeout {
			timeout = remain
		}
	}
	if timeout < 0 {
		timeout = 0
	}
	return timeout
}
