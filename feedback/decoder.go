// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package feedback turns the feedback render target of a virtual texture
// into the per-page request counts consumed by vtex.VirtualTexture.Update.
//
// Each feedback texel names the page a screen pixel wants to sample:
// R = page x, G = page y, B = mip level, A = 255. Texels with any other
// alpha are background and ignored. A request for a page is also a request
// for every coarser page covering it, so the decoder votes for the whole
// ancestor chain up to the root.
package feedback

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/vtex"
)

// ErrBufferSize is returned when the pixel buffer does not match the
// declared dimensions.
var ErrBufferSize = errors.New("feedback: pixel buffer size mismatch")

// requestAlpha marks a feedback texel that carries a page request.
const requestAlpha = 255

// Decoder accumulates page request counts from feedback images.
//
// Decoder is not safe for concurrent use.
type Decoder struct {
	indexer *vtex.PageIndexer
	maxMip  int
	counts  []int
	invalid int

	// Ancestor indices of the last decoded texel. Feedback images are
	// mostly runs of identical texels.
	last      [3]uint8
	lastValid bool
	chain     []int
}

// NewDecoder creates a decoder for the page pyramid of indexer.
func NewDecoder(indexer *vtex.PageIndexer) *Decoder {
	return &Decoder{
		indexer: indexer,
		maxMip:  indexer.MipCount() - 1,
		counts:  make([]int, indexer.PageCount()),
		chain:   make([]int, 0, indexer.MipCount()),
	}
}

// Decode adds the requests of a width x height RGBA8 feedback image to the
// counts. Texels addressing pages outside the pyramid are counted as
// invalid and skipped.
func (d *Decoder) Decode(pixels []byte, width, height int) error {
	if width < 0 || height < 0 || len(pixels) != width*height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrBufferSize, len(pixels), width, height)
	}

	d.lastValid = false
	for i := 0; i+4 <= len(pixels); i += 4 {
		px := pixels[i : i+4 : i+4]
		if px[3] != requestAlpha {
			continue
		}

		key := [3]uint8{px[0], px[1], px[2]}
		if !d.lastValid || key != d.last {
			if !d.resolve(int(px[0]), int(px[1]), int(px[2])) {
				d.invalid++
				d.lastValid = false
				continue
			}
			d.last = key
			d.lastValid = true
		}
		for _, idx := range d.chain {
			d.counts[idx]++
		}
	}
	return nil
}

// DecodeImage decodes an RGBA image. Only img.Bounds() is read.
func (d *Decoder) DecodeImage(img *image.RGBA) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	if img.Stride == w*4 {
		off := img.PixOffset(b.Min.X, b.Min.Y)
		return d.Decode(img.Pix[off:off+w*h*4], w, h)
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		if err := d.Decode(img.Pix[off:off+w*4], w, 1); err != nil {
			return err
		}
	}
	return nil
}

// resolve fills d.chain with the indices of page (x, y, mip) and its
// ancestors. It returns false if the page is outside the pyramid.
func (d *Decoder) resolve(x, y, mip int) bool {
	d.chain = d.chain[:0]
	if mip > d.maxMip {
		return false
	}
	for j := 0; j <= d.maxMip-mip; j++ {
		idx, err := d.indexer.CalcIndex(vtex.Page{X: x >> j, Y: y >> j, Mip: mip + j})
		if err != nil {
			d.chain = d.chain[:0]
			return false
		}
		d.chain = append(d.chain, idx)
	}
	return true
}

// Counts returns the accumulated counts indexed by page index. The slice
// is owned by the decoder and changes with the next Decode or Clear.
func (d *Decoder) Counts() []int { return d.counts }

// Invalid returns the number of request texels that named no page.
func (d *Decoder) Invalid() int { return d.invalid }

// Clear resets all counts to zero.
func (d *Decoder) Clear() {
	clear(d.counts)
	d.invalid = 0
	d.lastValid = false
}
