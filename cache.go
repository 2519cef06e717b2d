// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"fmt"

	"github.com/gogpu/vtex/internal/lru"
)

// LoadSubmitter starts the asynchronous load of a page. Submit returns false
// when the page is already being loaded. PageLoader implements it.
type LoadSubmitter interface {
	Submit(page Page) bool
}

// residentPage is the value held by one atlas cell.
type residentPage struct {
	page  Page
	index int
}

// CacheStats contains residency cache statistics.
type CacheStats struct {
	// Resident is the number of pages currently in the atlas.
	Resident int
	// Capacity is the number of atlas cells.
	Capacity int
	// Hits counts successful Touch calls.
	Hits uint64
	// Misses counts Touch calls for absent pages.
	Misses uint64
	// Requests counts Request calls that started a load.
	Requests uint64
	// Loads counts pages inserted by LoadComplete.
	Loads uint64
	// Evictions counts pages dropped to make room.
	Evictions uint64
}

// PageCache is the bounded LRU set of pages resident in the atlas.
//
// The atlas is a grid of cells x cells slots. Slot id i of the recency arena
// is atlas cell (i % cells, i / cells), so slots are handed out in row-major
// order while the atlas fills up and an evicted page's cell is the one the
// next page reuses.
//
// PageCache is not safe for concurrent use; it belongs to the owning
// goroutine.
type PageCache struct {
	indexer  *PageIndexer
	loader   LoadSubmitter
	table    *PageTable
	atlas    TextureSink
	cells    int
	pageSize int

	lru   *lru.Arena[residentPage]
	slots map[int]int // page index -> slot id

	stats CacheStats
}

// NewPageCache creates a cache for an atlas of cells x cells pages of
// pageSize texels. atlas may be nil, in which case pixels are discarded.
func NewPageCache(indexer *PageIndexer, loader LoadSubmitter, table *PageTable,
	atlas TextureSink, cells, pageSize int) *PageCache {
	capacity := cells * cells
	return &PageCache{
		indexer:  indexer,
		loader:   loader,
		table:    table,
		atlas:    atlas,
		cells:    cells,
		pageSize: pageSize,
		lru:      lru.New[residentPage](capacity),
		slots:    make(map[int]int, capacity),
		stats:    CacheStats{Capacity: capacity},
	}
}

// Capacity returns the fixed number of atlas cells.
func (c *PageCache) Capacity() int { return c.lru.Cap() }

// Len returns the number of resident pages.
func (c *PageCache) Len() int { return c.lru.Len() }

// Resident reports whether page is in the atlas without changing its
// recency.
func (c *PageCache) Resident(page Page) bool {
	idx, err := c.indexer.CalcIndex(page)
	if err != nil {
		return false
	}
	_, ok := c.slots[idx]
	return ok
}

// Touch promotes page to most recently used and returns true if it is
// resident. Absent pages are left alone.
func (c *PageCache) Touch(page Page) bool {
	idx, err := c.indexer.CalcIndex(page)
	if err != nil {
		c.stats.Misses++
		return false
	}
	id, ok := c.slots[idx]
	if !ok {
		c.stats.Misses++
		return false
	}
	c.lru.MoveToFront(id)
	c.stats.Hits++
	return true
}

// Request starts loading page unless it is resident or already loading.
// It returns true if a load was started. The page is inserted only when the
// load completes.
func (c *PageCache) Request(page Page) bool {
	if c.Resident(page) {
		return false
	}
	if !c.loader.Submit(page) {
		return false
	}
	c.stats.Requests++
	return true
}

// LoadComplete inserts a loaded page at the front of the recency order,
// evicting the least recently used page when the atlas is full, uploads
// pixels to the page's cell and records the mapping in the page table.
//
// A page that is already resident is re-uploaded into its own cell. If the
// upload fails the page is not inserted and the error is returned.
func (c *PageCache) LoadComplete(page Page, pixels []byte) error {
	idx, err := c.indexer.CalcIndex(page)
	if err != nil {
		return err
	}

	if id, ok := c.slots[idx]; ok {
		c.lru.MoveToFront(id)
		cx, cy := c.cell(id)
		if err := c.upload(pixels, cx, cy); err != nil {
			return err
		}
		c.table.AddPage(page, cx, cy)
		return nil
	}

	if c.lru.Full() {
		c.evictOldest()
	}

	id, ok := c.lru.PushFront(residentPage{page: page, index: idx})
	if !ok {
		panic(fmt.Errorf("%w: no free slot after eviction (len %d, cap %d)",
			ErrCapacityExceeded, c.lru.Len(), c.lru.Cap()))
	}
	c.slots[idx] = id

	cx, cy := c.cell(id)
	if err := c.upload(pixels, cx, cy); err != nil {
		c.lru.Remove(id)
		delete(c.slots, idx)
		return err
	}
	c.table.AddPage(page, cx, cy)
	c.stats.Loads++

	c.checkSize()
	return nil
}

// evictOldest drops the tail page and its page table mapping. Its slot
// returns to the free chain and is the next one PushFront hands out.
func (c *PageCache) evictOldest() {
	id, ok := c.lru.Oldest()
	if !ok {
		return
	}
	old, _ := c.lru.Remove(id)
	delete(c.slots, old.index)
	c.table.RemovePage(old.page)
	c.stats.Evictions++

	Logger().Debug("vtex: evict page", "page", old.page, "slot", id)
}

// cell returns the atlas cell of slot id.
func (c *PageCache) cell(id int) (x, y int) {
	return id % c.cells, id / c.cells
}

// upload copies pixels into atlas cell (cx, cy).
func (c *PageCache) upload(pixels []byte, cx, cy int) error {
	if c.atlas == nil {
		return nil
	}
	err := c.atlas.UploadRegion(pixels, cx*c.pageSize, cy*c.pageSize, c.pageSize, c.pageSize, 0)
	if err != nil {
		return fmt.Errorf("vtex: upload page to cell (%d,%d): %w", cx, cy, err)
	}
	return nil
}

// checkSize panics if the hash index and the recency chain disagree or the
// cache outgrew the atlas.
func (c *PageCache) checkSize() {
	if len(c.slots) != c.lru.Len() || c.lru.Len() > c.lru.Cap() {
		panic(fmt.Errorf("%w: index %d, recency %d, capacity %d",
			ErrCapacityExceeded, len(c.slots), c.lru.Len(), c.lru.Cap()))
	}
}

// Check verifies every cache invariant and returns the first violation.
// It walks the whole cache and is meant for tests and debugging.
func (c *PageCache) Check() error {
	if err := c.lru.Check(); err != nil {
		return err
	}
	if len(c.slots) != c.lru.Len() {
		return fmt.Errorf("%w: index has %d pages, recency chain %d",
			ErrCapacityExceeded, len(c.slots), c.lru.Len())
	}
	var err error
	c.lru.Each(func(id int, v *residentPage) bool {
		if got, ok := c.slots[v.index]; !ok || got != id {
			err = fmt.Errorf("vtex: page %v in slot %d is indexed at slot %d", v.page, id, got)
			return false
		}
		return true
	})
	return err
}

// Pages returns the resident pages from most to least recently used.
func (c *PageCache) Pages() []Page {
	out := make([]Page, 0, c.lru.Len())
	c.lru.Each(func(_ int, v *residentPage) bool {
		out = append(out, v.page)
		return true
	})
	return out
}

// Cell returns the atlas cell holding page.
func (c *PageCache) Cell(page Page) (x, y int, ok bool) {
	idx, err := c.indexer.CalcIndex(page)
	if err != nil {
		return 0, 0, false
	}
	id, ok := c.slots[idx]
	if !ok {
		return 0, 0, false
	}
	x, y = c.cell(id)
	return x, y, true
}

// Clear drops every resident page, frees all slots and clears the page
// table.
func (c *PageCache) Clear() {
	c.lru.Clear()
	clear(c.slots)
	c.table.Clear()
	Logger().Info("vtex: cache cleared")
}

// Stats returns cache statistics.
func (c *PageCache) Stats() CacheStats {
	s := c.stats
	s.Resident = c.lru.Len()
	return s
}
