// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"fmt"
	"image"
	"math/bits"
)

// Indirection texel layout: R = atlas cell x, G = atlas cell y, B = mip level
// of the page that provides the texel, A = 255 when a mapping exists.
const mappedAlpha = 255

// rect is an axis-aligned region in mip-0 page units.
type rect struct {
	x, y, w, h int
}

// contains returns true if the point (px, py) is inside the rect.
func (r rect) contains(px, py int) bool {
	return px >= r.x && px < r.x+r.w && py >= r.y && py < r.y+r.h
}

// quadrant returns the i-th quarter of r: 0 top-left, 1 top-right,
// 2 bottom-right, 3 bottom-left.
func (r rect) quadrant(i int) rect {
	w, h := r.w/2, r.h/2
	switch i {
	case 0:
		return rect{r.x, r.y, w, h}
	case 1:
		return rect{r.x + w, r.y, w, h}
	case 2:
		return rect{r.x + w, r.y + h, w, h}
	default:
		return rect{r.x, r.y + h, w, h}
	}
}

// quadNode covers a 2^level x 2^level block of mip-0 pages. Children are
// owned exclusively by their parent.
type quadNode struct {
	level    int
	rect     rect
	mapped   bool
	mappingX int
	mappingY int
	children [4]*quadNode
}

// childFor returns the index of the quadrant containing (px, py).
func (n *quadNode) childFor(px, py int) int {
	for i := range n.children {
		if n.rect.quadrant(i).contains(px, py) {
			return i
		}
	}
	return -1
}

// write rasterizes n and its subtree into the indirection image of mip.
// Children are written after their parent so finer pages overwrite the
// fallback mapping of coarser ones.
func (n *quadNode) write(img *image.RGBA, mip int) {
	if n.level < mip {
		return
	}

	if n.mapped {
		rx, ry := n.rect.x>>mip, n.rect.y>>mip
		rw, rh := n.rect.w>>mip, n.rect.h>>mip
		for y := ry; y < ry+rh; y++ {
			row := img.Pix[y*img.Stride:]
			for x := rx; x < rx+rw; x++ {
				px := row[x*4 : x*4+4 : x*4+4]
				px[0] = uint8(n.mappingX)
				px[1] = uint8(n.mappingY)
				px[2] = uint8(n.level)
				px[3] = mappedAlpha
			}
		}
	}

	for _, c := range n.children {
		if c != nil {
			c.write(img, mip)
		}
	}
}

// PageTable is a sparse quadtree recording where each resident page lives in
// the atlas, rasterized into one indirection image per mip level.
//
// The root covers the whole page table at the coarsest level; leaves are mip
// 0 pages. Intermediate nodes are created lazily on the way to a page and
// carry no mapping of their own.
//
// PageTable is not safe for concurrent use.
type PageTable struct {
	size     int
	maxLevel int
	root     *quadNode
	levels   []*image.RGBA
	sink     TextureSink
}

// NewPageTable creates a table for a square page table of size pages per
// edge. size must be a power of two. sink receives every level on Update and
// may be nil.
func NewPageTable(size int, sink TextureSink) (*PageTable, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: page table size %d is not a power of two", ErrInvalidInfo, size)
	}

	t := &PageTable{
		size:     size,
		maxLevel: bits.Len(uint(size)) - 1,
		sink:     sink,
	}
	t.root = t.newRoot()

	t.levels = make([]*image.RGBA, t.maxLevel+1)
	for i := range t.levels {
		s := size >> i
		t.levels[i] = image.NewRGBA(image.Rect(0, 0, s, s))
	}
	return t, nil
}

func (t *PageTable) newRoot() *quadNode {
	return &quadNode{level: t.maxLevel, rect: rect{0, 0, t.size, t.size}}
}

// Levels returns the number of indirection images.
func (t *PageTable) Levels() int { return len(t.levels) }

// Level returns the indirection image of mip level i as of the last Update.
// The image is owned by the table and rewritten by each Update.
func (t *PageTable) Level(i int) *image.RGBA { return t.levels[i] }

// AddPage records that page lives at atlas cell (mappingX, mappingY).
// Pages outside the table are ignored.
func (t *PageTable) AddPage(page Page, mappingX, mappingY int) {
	if page.Mip < 0 || page.Mip > t.maxLevel {
		return
	}
	px, py := page.X<<page.Mip, page.Y<<page.Mip

	node := t.root
	for page.Mip < node.level {
		i := node.childFor(px, py)
		if i < 0 {
			return
		}
		if node.children[i] == nil {
			node.children[i] = &quadNode{level: node.level - 1, rect: node.rect.quadrant(i)}
		}
		node = node.children[i]
	}

	node.mapped = true
	node.mappingX = mappingX
	node.mappingY = mappingY
}

// RemovePage detaches the node of page together with its subtree. Removing
// a page that is not in the table is a no-op. The root page only loses its
// mapping; its children stay.
func (t *PageTable) RemovePage(page Page) {
	if page.Mip == t.root.level {
		t.root.mapped = false
		return
	}

	parent, i := t.find(page)
	if parent != nil {
		parent.children[i] = nil
	}
}

// find returns the parent of page's node and the child slot holding it.
func (t *PageTable) find(page Page) (*quadNode, int) {
	if page.Mip < 0 || page.Mip >= t.root.level {
		return nil, -1
	}
	px, py := page.X<<page.Mip, page.Y<<page.Mip

	node := t.root
	for node != nil {
		i := node.childFor(px, py)
		if i < 0 || node.children[i] == nil {
			return nil, -1
		}
		if node.level-1 == page.Mip {
			return node, i
		}
		node = node.children[i]
	}
	return nil, -1
}

// Mapping returns the atlas cell recorded for page.
func (t *PageTable) Mapping(page Page) (x, y int, ok bool) {
	var n *quadNode
	if page.Mip == t.root.level {
		n = t.root
	} else if parent, i := t.find(page); parent != nil {
		n = parent.children[i]
	}
	if n == nil || !n.mapped {
		return 0, 0, false
	}
	return n.mappingX, n.mappingY, true
}

// Clear drops every mapping.
func (t *PageTable) Clear() {
	t.root = t.newRoot()
}

// Update rasterizes every level from finest to coarsest and hands each one
// to the sink. Texels no resident page covers are left zero.
func (t *PageTable) Update() error {
	for i, img := range t.levels {
		clear(img.Pix)
		t.root.write(img, i)

		if t.sink == nil {
			continue
		}
		s := img.Rect.Dx()
		if err := t.sink.UploadRegion(img.Pix, 0, 0, s, s, i); err != nil {
			return fmt.Errorf("vtex: upload indirection level %d: %w", i, err)
		}
	}
	return nil
}

// Texel returns the indirection entry at (x, y) of level mip.
func (t *PageTable) Texel(mip, x, y int) (atlasX, atlasY, level int, ok bool) {
	img := t.levels[mip]
	off := img.PixOffset(x, y)
	px := img.Pix[off : off+4]
	return int(px[0]), int(px[1]), int(px[2]), px[3] == mappedAlpha
}
