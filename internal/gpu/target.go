package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// msaaSampleCount is the multisample count used when antialiasing is
// requested.
const msaaSampleCount = 4

// RenderTarget is an externally provided destination: a color view plus
// its pixel size. The renderer supplies its own depth-stencil and MSAA
// attachments sized to match.
type RenderTarget struct {
	View   hal.TextureView
	Width  int
	Height int
}

// renderTarget owns the internal offscreen destination and the auxiliary
// attachments (depth-stencil, multisampled color/depth-stencil) shared by
// internal and external rendering. Textures are (re)created lazily on size
// changes; a resize mid-frame therefore takes effect on next use rather
// than aborting in-flight work.
type renderTarget struct {
	device hal.Device

	width  int
	height int

	color     hal.Texture
	colorView hal.TextureView
	// colorValid records whether the offscreen color texture holds
	// defined content; the first pass after (re)creation clears it.
	colorValid bool

	depthStencil     hal.Texture
	depthStencilView hal.TextureView
	dsWidth          int
	dsHeight         int

	msaaColor     hal.Texture
	msaaColorView hal.TextureView
	msaaWidth     int
	msaaHeight    int

	msaaDepthStencil     hal.Texture
	msaaDepthStencilView hal.TextureView

	// msaaValid records whether the multisampled color buffer holds the
	// current frame content; the first antialiased pass after a resize or
	// clear starts from a cleared buffer.
	msaaValid bool
}

func newRenderTarget(device hal.Device) *renderTarget {
	return &renderTarget{device: device}
}

// ensure (re)creates the offscreen color and depth-stencil textures for
// the given size. Existing textures are kept when the size is unchanged.
func (t *renderTarget) ensure(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid render target size %dx%d", width, height)
	}
	if t.width == width && t.height == height && t.color != nil {
		return nil
	}
	t.destroy()
	t.width = width
	t.height = height

	color, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "quartz_target_color",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("create target color texture: %w", err)
	}
	t.color = color

	colorView, err := t.device.CreateTextureView(color, &hal.TextureViewDescriptor{
		Label: "quartz_target_color_view",
	})
	if err != nil {
		t.destroy()
		return fmt.Errorf("create target color view: %w", err)
	}
	t.colorView = colorView

	if err := t.ensureDepthStencil(width, height); err != nil {
		t.destroy()
		return err
	}
	return nil
}

// ensureDepthStencil sizes the single-sample depth-stencil attachment. It
// is also used standalone when rendering to an external color view.
func (t *renderTarget) ensureDepthStencil(width, height int) error {
	if t.depthStencil != nil && t.dsWidth == width && t.dsHeight == height {
		return nil
	}
	if t.depthStencil != nil {
		t.device.DestroyTextureView(t.depthStencilView)
		t.device.DestroyTexture(t.depthStencil)
		t.depthStencil = nil
		t.depthStencilView = nil
	}
	t.dsWidth = width
	t.dsHeight = height

	ds, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "quartz_target_depth_stencil",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthStencilFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth-stencil texture: %w", err)
	}
	t.depthStencil = ds

	dsView, err := t.device.CreateTextureView(ds, &hal.TextureViewDescriptor{
		Label: "quartz_target_depth_stencil_view",
	})
	if err != nil {
		return fmt.Errorf("create depth-stencil view: %w", err)
	}
	t.depthStencilView = dsView
	return nil
}

// ensureMSAA creates the 4x multisampled color and depth-stencil
// attachments on first antialiased use, recreating them on size changes.
func (t *renderTarget) ensureMSAA(width, height int) error {
	if t.msaaColor != nil && t.msaaWidth == width && t.msaaHeight == height {
		return nil
	}
	t.destroyMSAA()
	t.msaaWidth = width
	t.msaaHeight = height

	msaa, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "quartz_target_msaa_color",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   msaaSampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create MSAA color texture: %w", err)
	}
	t.msaaColor = msaa

	msaaView, err := t.device.CreateTextureView(msaa, &hal.TextureViewDescriptor{
		Label: "quartz_target_msaa_color_view",
	})
	if err != nil {
		return fmt.Errorf("create MSAA color view: %w", err)
	}
	t.msaaColorView = msaaView

	msaaDS, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "quartz_target_msaa_depth_stencil",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   msaaSampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthStencilFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create MSAA depth-stencil texture: %w", err)
	}
	t.msaaDepthStencil = msaaDS

	msaaDSView, err := t.device.CreateTextureView(msaaDS, &hal.TextureViewDescriptor{
		Label: "quartz_target_msaa_depth_stencil_view",
	})
	if err != nil {
		return fmt.Errorf("create MSAA depth-stencil view: %w", err)
	}
	t.msaaDepthStencilView = msaaDSView

	t.msaaValid = false
	return nil
}

// destroyMSAA releases the multisampled attachments.
func (t *renderTarget) destroyMSAA() {
	views := []*hal.TextureView{&t.msaaDepthStencilView, &t.msaaColorView}
	for _, v := range views {
		if *v != nil {
			t.device.DestroyTextureView(*v)
			*v = nil
		}
	}
	textures := []*hal.Texture{&t.msaaDepthStencil, &t.msaaColor}
	for _, tex := range textures {
		if *tex != nil {
			t.device.DestroyTexture(*tex)
			*tex = nil
		}
	}
	t.msaaValid = false
	t.msaaWidth = 0
	t.msaaHeight = 0
}

// destroy releases all target textures.
func (t *renderTarget) destroy() {
	t.destroyMSAA()
	views := []*hal.TextureView{&t.depthStencilView, &t.colorView}
	for _, v := range views {
		if *v != nil {
			t.device.DestroyTextureView(*v)
			*v = nil
		}
	}
	textures := []*hal.Texture{&t.depthStencil, &t.color}
	for _, tex := range textures {
		if *tex != nil {
			t.device.DestroyTexture(*tex)
			*tex = nil
		}
	}
	t.colorValid = false
	t.width = 0
	t.height = 0
	t.dsWidth = 0
	t.dsHeight = 0
}
