// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"github.com/gogpu/vtex/tilefile"
)

// PageIndexer maps page addresses to dense indices over the whole mip
// pyramid and back.
//
// Indices are assigned mip by mip starting at mip 0, row-major inside a
// level. A PageIndexer is immutable after construction and safe for
// concurrent use; every other component shares one instance.
type PageIndexer struct {
	mipCount  int
	pageCount int
	offsets   []int
	sizes     []int
	pages     []Page
}

// NewPageIndexer builds the indexer for the pyramid described by hdr.
func NewPageIndexer(hdr tilefile.Header) (*PageIndexer, error) {
	if err := hdr.Validate(); err != nil {
		return nil, err
	}

	ix := &PageIndexer{mipCount: hdr.MipCount()}
	ix.sizes = make([]int, ix.mipCount)
	ix.offsets = make([]int, ix.mipCount)
	for m := range ix.mipCount {
		ix.sizes[m] = hdr.PageTableSize() >> m
		ix.offsets[m] = ix.pageCount
		ix.pageCount += ix.sizes[m] * ix.sizes[m]
	}

	ix.pages = make([]Page, ix.pageCount)
	for m := range ix.mipCount {
		size := ix.sizes[m]
		for y := range size {
			for x := range size {
				ix.pages[ix.offsets[m]+y*size+x] = Page{X: x, Y: y, Mip: m}
			}
		}
	}
	return ix, nil
}

// MipCount returns the number of mip levels.
func (ix *PageIndexer) MipCount() int { return ix.mipCount }

// PageCount returns the number of pages over all levels.
func (ix *PageIndexer) PageCount() int { return ix.pageCount }

// PageTableSize returns the number of pages along one edge at mip 0.
func (ix *PageIndexer) PageTableSize() int { return ix.sizes[0] }

// Size returns the number of pages along one edge at mip, or 0 when mip is
// outside the pyramid.
func (ix *PageIndexer) Size(mip int) int {
	if mip < 0 || mip >= ix.mipCount {
		return 0
	}
	return ix.sizes[mip]
}

// Contains reports whether p lies inside the pyramid.
func (ix *PageIndexer) Contains(p Page) bool {
	if p.Mip < 0 || p.Mip >= ix.mipCount {
		return false
	}
	s := ix.sizes[p.Mip]
	return p.X >= 0 && p.X < s && p.Y >= 0 && p.Y < s
}

// CalcIndex returns the dense index of p.
func (ix *PageIndexer) CalcIndex(p Page) (int, error) {
	if !ix.Contains(p) {
		return 0, &AddressError{Page: p, Index: -1, MipCount: ix.mipCount, PageCount: ix.pageCount}
	}
	return ix.offsets[p.Mip] + p.Y*ix.sizes[p.Mip] + p.X, nil
}

// QueryByIndex returns the page with dense index idx.
func (ix *PageIndexer) QueryByIndex(idx int) (Page, error) {
	if idx < 0 || idx >= ix.pageCount {
		return Page{}, &AddressError{Index: idx, MipCount: ix.mipCount, PageCount: ix.pageCount}
	}
	return ix.pages[idx], nil
}

// Mirror returns p with its y coordinate flipped inside its level. Tile
// files store levels bottom-up, so the record of p lives at Mirror(p).
func (ix *PageIndexer) Mirror(p Page) Page {
	return Page{X: p.X, Y: ix.Size(p.Mip) - 1 - p.Y, Mip: p.Mip}
}
