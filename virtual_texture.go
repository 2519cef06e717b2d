// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"fmt"
	"image/color"
	"io"

	"github.com/gogpu/vtex/atlas"
	"github.com/gogpu/vtex/internal/parallel"
	"github.com/gogpu/vtex/tilefile"
)

// Stats is a snapshot of engine statistics.
type Stats struct {
	Cache   CacheStats
	Loader  LoaderStats
	MipBias int
	Frames  uint64
}

// VirtualTexture wires a tile store to the residency cache, the load
// pipeline, the page table and the scheduler.
//
// The host renders a feedback pass, turns it into per-page counts (package
// feedback does this) and calls Update once per frame. Uploads reach the
// atlas and indirection sinks from inside Update.
//
// VirtualTexture belongs to the goroutine that calls Update; only the tile
// reads run elsewhere.
type VirtualTexture struct {
	hdr      tilefile.Header
	store    TileReader
	ownStore io.Closer
	pool     *parallel.WorkerPool

	indexer *PageIndexer
	table   *PageTable
	cache   *PageCache
	loader  *PageLoader
	sched   *Scheduler

	atlas       *atlas.Texture
	indirection *atlas.Texture
	cells       int

	frames uint64
	closed bool
}

// Open opens the tile file at path and creates a VirtualTexture over it.
// Close closes the file.
func Open(path string, opts ...Option) (*VirtualTexture, error) {
	f, err := tilefile.Open(path)
	if err != nil {
		return nil, err
	}
	vt, err := New(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	vt.ownStore = f
	Logger().Info("vtex: opened", "path", path, "header", f.Header())
	return vt, nil
}

// New creates a VirtualTexture reading tiles from store. The caller keeps
// ownership of store.
func New(store TileReader, opts ...Option) (*VirtualTexture, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	hdr := store.Header()
	indexer, err := NewPageIndexer(hdr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInfo, err)
	}
	if pts := indexer.PageTableSize(); pts > maxPageTableSize {
		return nil, fmt.Errorf("%w: page table of %d pages per edge, want at most %d",
			ErrInvalidInfo, pts, maxPageTableSize)
	}

	pageSize := hdr.PageSize()
	cells := o.atlasSize / pageSize
	if cells < 1 || cells > maxAtlasCells {
		return nil, fmt.Errorf("%w: atlas of %d texels holds %d pages of %d per edge, want 1..%d",
			ErrInvalidInfo, o.atlasSize, cells, pageSize, maxAtlasCells)
	}

	vt := &VirtualTexture{
		hdr:     hdr,
		store:   store,
		indexer: indexer,
		cells:   cells,
	}

	atlasSink := o.atlasSink
	if atlasSink == nil {
		tex, err := atlas.New("vtex-atlas", o.atlasSize, o.atlasSize, 1)
		if err != nil {
			return nil, err
		}
		if err := tex.Fill(0, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}); err != nil {
			return nil, err
		}
		vt.atlas = tex
		atlasSink = tex
	}

	indirectionSink := o.indirectionSink
	if indirectionSink == nil {
		pts := indexer.PageTableSize()
		tex, err := atlas.New("vtex-indirection", pts, pts, indexer.MipCount())
		if err != nil {
			return nil, err
		}
		vt.indirection = tex
		indirectionSink = tex
	}

	exec := o.executor
	if exec == nil {
		vt.pool = parallel.NewWorkerPool(o.workers)
		exec = vt.pool
	}

	vt.table, err = NewPageTable(indexer.PageTableSize(), indirectionSink)
	if err != nil {
		vt.closePool()
		return nil, err
	}
	vt.loader = NewPageLoader(store, indexer, exec)
	vt.loader.SetShowBorders(o.showBorders)
	vt.loader.SetShowMip(o.showMip)
	vt.cache = NewPageCache(indexer, vt.loader, vt.table, atlasSink, cells, pageSize)
	vt.sched = NewScheduler(indexer, vt.cache, vt.loader, vt.table, o.uploadsPerFrame, o.mipBias)

	Logger().Info("vtex: created",
		"pages", indexer.PageCount(), "mips", indexer.MipCount(),
		"atlas_cells", cells*cells, "uploads_per_frame", vt.sched.Budget())
	return vt, nil
}

// Header returns the tile file header the texture was built from.
func (vt *VirtualTexture) Header() tilefile.Header { return vt.hdr }

// Indexer returns the page indexer.
func (vt *VirtualTexture) Indexer() *PageIndexer { return vt.indexer }

// Table returns the page table.
func (vt *VirtualTexture) Table() *PageTable { return vt.table }

// Cache returns the residency cache.
func (vt *VirtualTexture) Cache() *PageCache { return vt.cache }

// Loader returns the load pipeline.
func (vt *VirtualTexture) Loader() *PageLoader { return vt.loader }

// AtlasCells returns the number of pages per atlas edge.
func (vt *VirtualTexture) AtlasCells() int { return vt.cells }

// Atlas returns the in-memory atlas texture, or nil when WithAtlasSink
// replaced it.
func (vt *VirtualTexture) Atlas() *atlas.Texture { return vt.atlas }

// Indirection returns the in-memory indirection texture, or nil when
// WithIndirectionSink replaced it.
func (vt *VirtualTexture) Indirection() *atlas.Texture { return vt.indirection }

// Update runs one frame with counts[i] votes for the page of index i.
func (vt *VirtualTexture) Update(counts []int) (FrameStats, error) {
	if vt.closed {
		return FrameStats{}, ErrClosed
	}
	vt.frames++
	return vt.sched.Update(counts)
}

// ClearCache evicts every page. Loads still in flight are applied by a
// later Update.
func (vt *VirtualTexture) ClearCache() {
	vt.cache.Clear()
}

// MipBias returns the current mip sampling bias.
func (vt *VirtualTexture) MipBias() int { return vt.sched.MipBias() }

// DecreaseMipBias lowers the mip bias by one, never below zero.
func (vt *VirtualTexture) DecreaseMipBias() { vt.sched.DecreaseMipBias() }

// ToggleShowBorders flips the border debug view and returns the new state.
// Pages already resident keep their texels until reloaded.
func (vt *VirtualTexture) ToggleShowBorders() bool { return vt.loader.ToggleShowBorders() }

// ToggleShowMip flips the mip colour debug view and returns the new state.
func (vt *VirtualTexture) ToggleShowMip() bool { return vt.loader.ToggleShowMip() }

// WaitIdle blocks until the internal worker pool has finished every read
// submitted so far. With WithExecutor it returns immediately.
func (vt *VirtualTexture) WaitIdle() {
	if vt.pool != nil {
		vt.pool.Wait()
	}
}

// Stats returns engine statistics.
func (vt *VirtualTexture) Stats() Stats {
	return Stats{
		Cache:   vt.cache.Stats(),
		Loader:  vt.loader.Stats(),
		MipBias: vt.sched.MipBias(),
		Frames:  vt.frames,
	}
}

// Close stops the internal worker pool and closes the tile file opened by
// Open. Close is safe to call multiple times.
func (vt *VirtualTexture) Close() error {
	if vt.closed {
		return nil
	}
	vt.closed = true
	vt.closePool()

	Logger().Info("vtex: closed", "frames", vt.frames)
	if vt.ownStore != nil {
		return vt.ownStore.Close()
	}
	return nil
}

func (vt *VirtualTexture) closePool() {
	if vt.pool != nil {
		vt.pool.Close()
	}
}
