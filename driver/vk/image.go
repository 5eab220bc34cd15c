package vk

import (
	vk "github.com/goki/vulkan"

	"github.com/crydafan/MyCamera/driver"
)

// image implements driver.Image. Every image created by this backend
// is a single-layer, single-level 2D storage image: the pipeline has
// no mip chains, no array textures and no multisampling.
type image struct {
	d      *Driver
	m      *memory
	img    vk.Image
	format vk.Format
	layout vk.ImageLayout
	size   driver.Dim3D
}

// view implements driver.ImageView.
type view struct {
	im *image
	iv vk.ImageView
}

// NewImage implements driver.GPU.
func (d *Driver) NewImage(pf driver.PixelFmt, size driver.Dim3D, usg driver.Usage) (driver.Image, error) {
	format := convPixelFmt(pf)

	var usage vk.ImageUsageFlagBits
	if usg&(driver.UShaderRead|driver.UShaderWrite) != 0 {
		usage |= vk.ImageUsageStorageBit
	}
	if usg&driver.UCopySrc != 0 {
		usage |= vk.ImageUsageTransferSrcBit
	}
	if usg&driver.UCopyDst != 0 {
		usage |= vk.ImageUsageTransferDstBit
	}
	if usage == 0 {
		panic("vk: cannot create image without a valid usage")
	}

	info := &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  uint32(size.Width),
			Height: uint32(size.Height),
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var img vk.Image
	if res := vk.CreateImage(d.dev, info, nil, &img); res != vk.Success {
		return nil, checkResult(res)
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.dev, img, &req)
	req.Deref()
	m, err := d.newMemory(req, false)
	if err != nil {
		vk.DestroyImage(d.dev, img, nil)
		return nil, err
	}
	if res := vk.BindImageMemory(d.dev, img, m.mem, 0); res != vk.Success {
		m.free()
		vk.DestroyImage(d.dev, img, nil)
		return nil, checkResult(res)
	}
	m.bound = true

	return &image{
		d:      d,
		m:      m,
		img:    img,
		format: format,
		layout: vk.ImageLayoutUndefined,
		size:   size,
	}, nil
}

// NewView implements driver.Image.
func (im *image) NewView() (driver.ImageView, error) {
	info := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    im.img,
		ViewType: vk.ImageViewType2d,
		Format:   im.format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount:     1,
			LayerCount:     1,
		},
	}
	var iv vk.ImageView
	if res := vk.CreateImageView(im.d.dev, info, nil, &iv); res != vk.Success {
		return nil, checkResult(res)
	}
	return &view{im: im, iv: iv}, nil
}

// Image implements driver.ImageView.
func (v *view) Image() driver.Image { return v.im }

// Destroy implements driver.Destroyer.
func (v *view) Destroy() {
	if v == nil || v.im == nil {
		return
	}
	vk.DestroyImageView(v.im.d.dev, v.iv, nil)
	*v = view{}
}

// Destroy implements driver.Destroyer.
func (im *image) Destroy() {
	if im == nil || im.d == nil {
		return
	}
	vk.DestroyImage(im.d.dev, im.img, nil)
	im.m.free()
	*im = image{}
}

// convPixelFmt converts a driver.PixelFmt to the equivalent VkFormat.
func convPixelFmt(pf driver.PixelFmt) vk.Format {
	switch pf {
	case driver.R16Uint:
		return vk.FormatR16Uint
	case driver.R16Sfloat:
		return vk.FormatR16Sfloat
	case driver.RGBA16Sfloat:
		return vk.FormatR16g16b16a16Sfloat
	case driver.RGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	}
	panic("vk: unknown PixelFmt")
}
