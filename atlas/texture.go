// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package atlas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Texture errors.
var (
	// ErrInvalidSize is returned when creating a texture with bad dimensions.
	ErrInvalidSize = errors.New("atlas: invalid texture size")

	// ErrLevelOutOfRange is returned for a mip level the texture does not have.
	ErrLevelOutOfRange = errors.New("atlas: mip level out of range")

	// ErrRegionOutOfBounds is returned when a region is outside the level.
	ErrRegionOutOfBounds = errors.New("atlas: region is outside texture bounds")

	// ErrPixelCount is returned when the pixel data does not match the region.
	ErrPixelCount = errors.New("atlas: pixel data does not match region size")
)

// bytesPerTexel is the size of one RGBA8 texel.
const bytesPerTexel = 4

// Updater pushes a full level of texel data to a GPU texture.
type Updater interface {
	UpdateData(data []byte) error
}

// gpucontext textures are valid sync targets.
var _ Updater = (gpucontext.TextureUpdater)(nil)

// Descriptor describes the GPU texture a Texture mirrors.
type Descriptor struct {
	Label         string
	Size          gputypes.Extent3D
	MipLevelCount uint32
	SampleCount   uint32
	Dimension     gputypes.TextureDimension
	Format        gputypes.TextureFormat
	Usage         gputypes.TextureUsage
}

// Texture is an RGBA8 texture with a mip chain, held in memory.
//
// Thread safety: Texture is safe for concurrent use. UploadRegion is
// normally called from the engine's owning goroutine while SyncTo runs on
// the render goroutine.
type Texture struct {
	mu      sync.RWMutex
	label   string
	levels  []*image.RGBA
	dirty   []bool
	uploads uint64
}

// New creates a texture of width x height texels with mipLevels levels;
// level i is (width>>i) x (height>>i). All texels start transparent black.
func New(label string, width, height, mipLevels int) (*Texture, error) {
	if width <= 0 || height <= 0 || mipLevels <= 0 {
		return nil, fmt.Errorf("%w: %dx%d with %d levels", ErrInvalidSize, width, height, mipLevels)
	}
	if width>>(mipLevels-1) == 0 || height>>(mipLevels-1) == 0 {
		return nil, fmt.Errorf("%w: %d levels do not fit %dx%d", ErrInvalidSize, mipLevels, width, height)
	}

	t := &Texture{
		label:  label,
		levels: make([]*image.RGBA, mipLevels),
		dirty:  make([]bool, mipLevels),
	}
	for i := range t.levels {
		t.levels[i] = image.NewRGBA(image.Rect(0, 0, width>>i, height>>i))
	}
	return t, nil
}

// Width returns the width of level 0.
func (t *Texture) Width() int { return t.levels[0].Rect.Dx() }

// Height returns the height of level 0.
func (t *Texture) Height() int { return t.levels[0].Rect.Dy() }

// MipLevels returns the number of levels.
func (t *Texture) MipLevels() int { return len(t.levels) }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Descriptor returns the GPU texture description of t.
func (t *Texture) Descriptor() Descriptor {
	return Descriptor{
		Label: t.label,
		Size: gputypes.Extent3D{
			Width:              uint32(t.Width()),
			Height:             uint32(t.Height()),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: uint32(len(t.levels)),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
}

// Fill sets every texel of level to c.
func (t *Texture) Fill(level int, c color.RGBA) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	img, err := t.level(level)
	if err != nil {
		return err
	}
	px := []byte{c.R, c.G, c.B, c.A}
	for i := 0; i < len(img.Pix); i += bytesPerTexel {
		copy(img.Pix[i:i+bytesPerTexel], px)
	}
	t.dirty[level] = true
	return nil
}

// UploadRegion copies width x height tightly packed texels into level
// mipLevel at (x, y). The region must lie inside the level.
func (t *Texture) UploadRegion(pixels []byte, x, y, width, height, mipLevel int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	img, err := t.level(mipLevel)
	if err != nil {
		return err
	}
	b := img.Rect
	if x < 0 || y < 0 || width < 0 || height < 0 || x+width > b.Dx() || y+height > b.Dy() {
		return fmt.Errorf("%w: (%d,%d %dx%d) in level %d of %dx%d",
			ErrRegionOutOfBounds, x, y, width, height, mipLevel, b.Dx(), b.Dy())
	}
	rowBytes := width * bytesPerTexel
	if len(pixels) != rowBytes*height {
		return fmt.Errorf("%w: got %d bytes for %dx%d", ErrPixelCount, len(pixels), width, height)
	}

	for row := 0; row < height; row++ {
		dst := img.Pix[img.PixOffset(x, y+row):]
		copy(dst[:rowBytes], pixels[row*rowBytes:(row+1)*rowBytes])
	}
	t.dirty[mipLevel] = true
	t.uploads++
	return nil
}

// At returns the texel at (x, y) of level.
func (t *Texture) At(level, x, y int) color.RGBA {
	t.mu.RLock()
	defer t.mu.RUnlock()

	img, err := t.level(level)
	if err != nil {
		return color.RGBA{}
	}
	return img.RGBAAt(x, y)
}

// Snapshot returns a copy of level.
func (t *Texture) Snapshot(level int) (*image.RGBA, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	img, err := t.level(level)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out, nil
}

// Dirty reports whether level changed since it was last synced.
func (t *Texture) Dirty(level int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return level >= 0 && level < len(t.dirty) && t.dirty[level]
}

// Uploads returns the number of successful UploadRegion calls.
func (t *Texture) Uploads() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.uploads
}

// SyncTo pushes level to dst if it changed since the last sync. It returns
// true if data was sent.
func (t *Texture) SyncTo(level int, dst Updater) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	img, err := t.level(level)
	if err != nil {
		return false, err
	}
	if !t.dirty[level] {
		return false, nil
	}
	if err := dst.UpdateData(img.Pix); err != nil {
		return false, fmt.Errorf("atlas: sync %s level %d: %w", t.label, level, err)
	}
	t.dirty[level] = false
	return true, nil
}

// SavePNG writes level to a PNG file.
func (t *Texture) SavePNG(level int, path string) error {
	img, err := t.Snapshot(level)
	if err != nil {
		return err
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("atlas: create file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("atlas: encode PNG: %w", err)
	}
	return f.Close()
}

// level returns level i. Caller must hold t.mu.
func (t *Texture) level(i int) (*image.RGBA, error) {
	if i < 0 || i >= len(t.levels) {
		return nil, fmt.Errorf("%w: %d of %d", ErrLevelOutOfRange, i, len(t.levels))
	}
	return t.levels[i], nil
}
