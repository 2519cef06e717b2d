// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package bake builds tile files from source images.
//
// Bake scales the source to the virtual texture size, builds a box-filtered
// mip chain and cuts every level into bordered tiles. Border texels come
// from the neighbouring tiles and are clamped at the texture edge, so
// bilinear sampling inside the atlas never bleeds across pages. Tiles are
// stored in the on-disk orientation read by vtex.PageLoader: each level
// bottom-up, rows bottom-up.
package bake

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"

	"github.com/gogpu/vtex"
	"github.com/gogpu/vtex/internal/parallel"
	"github.com/gogpu/vtex/tilefile"
)

// ErrEmptySource is returned when baking an image with no pixels.
var ErrEmptySource = errors.New("bake: source image is empty")

// TileWriter is the write side of a tile store. *tilefile.File implements
// it. WriteTile must be safe for concurrent use.
type TileWriter interface {
	Header() tilefile.Header
	WriteTile(index int, src []byte) error
}

// Option configures Bake.
type Option func(*options)

type options struct {
	scaler   draw.Scaler
	workers  int
	progress func(done, total int)
}

// WithScaler sets the filter used to scale the source to mip 0. The default
// is draw.CatmullRom. Sources already at the virtual texture size are
// copied.
func WithScaler(s draw.Scaler) Option {
	return func(o *options) { o.scaler = s }
}

// WithWorkers sets the number of goroutines cutting tiles. The default is
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithProgress registers fn to be called after every finished mip level
// with the number of tiles written so far.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.progress = fn }
}

// Bake writes every tile of src into store. Non-square sources are
// stretched. Cancelling ctx stops Bake between tiles.
func Bake(ctx context.Context, src image.Image, store TileWriter, opts ...Option) error {
	o := options{scaler: draw.CatmullRom}
	for _, opt := range opts {
		opt(&o)
	}

	hdr := store.Header()
	indexer, err := vtex.NewPageIndexer(hdr)
	if err != nil {
		return err
	}
	if src.Bounds().Empty() {
		return ErrEmptySource
	}

	pool := parallel.NewWorkerPool(o.workers)
	defer pool.Close()

	level := scaleToSize(src, hdr.VirtualTextureSize, o.scaler)
	done, total := 0, indexer.PageCount()
	for mip := range indexer.MipCount() {
		if mip > 0 {
			level = downsample(level)
		}
		if err := bakeLevel(ctx, pool, level, mip, indexer, hdr, store); err != nil {
			return err
		}

		n := indexer.Size(mip)
		done += n * n
		if o.progress != nil {
			o.progress(done, total)
		}
		vtex.Logger().Debug("bake: level written", "mip", mip, "pages", n*n, "size", level.Rect.Dx())
	}
	return nil
}

// bakeLevel cuts one mip level, one task per row of pages.
func bakeLevel(ctx context.Context, pool *parallel.WorkerPool, level *image.RGBA, mip int,
	indexer *vtex.PageIndexer, hdr tilefile.Header, store TileWriter) error {
	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	n := indexer.Size(mip)
	for y := range n {
		pool.Submit(func() {
			tile := make([]byte, hdr.TileBytes())
			for x := range n {
				if failed() {
					return
				}
				if err := ctx.Err(); err != nil {
					fail(err)
					return
				}

				cutTile(tile, level, x, y, hdr)
				// Level rows are stored bottom-up.
				idx, err := indexer.CalcIndex(indexer.Mirror(vtex.Page{X: x, Y: y, Mip: mip}))
				if err != nil {
					fail(err)
					return
				}
				if err := store.WriteTile(idx, tile); err != nil {
					fail(fmt.Errorf("bake: page (%d,%d) mip %d: %w", x, y, mip, err))
					return
				}
			}
		})
	}
	pool.Wait()
	return firstErr
}

// cutTile copies page (x, y) of level with its border into dst, rows
// bottom-up.
func cutTile(dst []byte, level *image.RGBA, x, y int, hdr tilefile.Header) {
	pageSize := hdr.PageSize()
	last := level.Rect.Dx() - 1
	ox := x*hdr.TileSize - hdr.BorderSize
	oy := y*hdr.TileSize - hdr.BorderSize

	for ty := range pageSize {
		sy := clamp(oy+ty, 0, last)
		row := dst[(pageSize-1-ty)*pageSize*4:]
		for tx := range pageSize {
			sx := clamp(ox+tx, 0, last)
			off := level.PixOffset(sx, sy)
			copy(row[tx*4:tx*4+4], level.Pix[off:off+4])
		}
	}
}

// scaleToSize returns src as a size x size RGBA image.
func scaleToSize(src image.Image, size int, scaler draw.Scaler) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	b := src.Bounds()
	if b.Dx() == size && b.Dy() == size {
		draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
		return dst
	}
	scaler.Scale(dst, dst.Rect, src, b, draw.Src, nil)
	return dst
}

// downsample halves src with a 2x2 box filter.
func downsample(src *image.RGBA) *image.RGBA {
	size := max(1, src.Rect.Dx()/2)
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			o0 := src.PixOffset(2*x, 2*y)
			o1 := src.PixOffset(2*x, 2*y+1)
			d := dst.PixOffset(x, y)
			for c := range 4 {
				sum := uint16(src.Pix[o0+c]) + uint16(src.Pix[o0+4+c]) +
					uint16(src.Pix[o1+c]) + uint16(src.Pix[o1+4+c])
				dst.Pix[d+c] = uint8(sum / 4)
			}
		}
	}
	return dst
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
