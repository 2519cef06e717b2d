// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/vtex/tilefile"
)

// TileReader is the read side of a tile store. *tilefile.File implements it.
// ReadTile must be safe for concurrent use.
type TileReader interface {
	Header() tilefile.Header
	ReadTile(index int, dst []byte) error
}

// LoadCompleter receives finished loads. PageCache implements it.
type LoadCompleter interface {
	LoadComplete(page Page, pixels []byte) error
}

// taskState tracks a load task through its life.
type taskState uint8

const (
	taskIdle taskState = iota
	taskInitialized
	taskRunning
	taskCompleted
)

// loadTask is one pooled tile read. Between Submit and Flush it is owned by
// the executor goroutine running it; the completion queue hands it back.
type loadTask struct {
	page   Page
	index  int
	pixels []byte
	err    error
	state  taskState
}

// completionQueue collects finished tasks from any goroutine.
type completionQueue struct {
	mu    sync.Mutex
	tasks []*loadTask
}

func (q *completionQueue) push(t *loadTask) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

// swap returns every queued task and leaves buf, emptied, as the new queue.
func (q *completionQueue) swap(buf []*loadTask) []*loadTask {
	q.mu.Lock()
	out := q.tasks
	q.tasks = buf[:0]
	q.mu.Unlock()
	return out
}

// LoaderStats contains load pipeline statistics.
type LoaderStats struct {
	// InFlight is the number of pages submitted but not yet flushed.
	InFlight int
	// Submitted counts tasks handed to the executor.
	Submitted uint64
	// Deduplicated counts Submit calls for pages already in flight.
	Deduplicated uint64
	// Completed counts loads applied to the cache.
	Completed uint64
	// Failed counts loads dropped because the read or the apply failed.
	Failed uint64
	// Allocated is the number of task objects created so far.
	Allocated int
}

// PageLoader is the asynchronous tile loading pipeline.
//
// Submit hands at most one task per page to the executor. The task reads the
// page's tile on a worker goroutine and queues itself; Flush, called on the
// owning goroutine, applies finished tasks to a LoadCompleter and recycles
// them. A page stays in flight from Submit until the Flush that sees its
// task, whether the load succeeded or not.
type PageLoader struct {
	store     TileReader
	indexer   *PageIndexer
	exec      Executor
	pageSize  int
	border    int
	tileBytes int

	// Owning goroutine only.
	inFlight map[int]struct{}
	free     []*loadTask
	spare    []*loadTask
	stats    LoaderStats

	done completionQueue

	showBorders atomic.Bool
	showMip     atomic.Bool
}

// NewPageLoader creates a loader reading tiles from store on exec.
func NewPageLoader(store TileReader, indexer *PageIndexer, exec Executor) *PageLoader {
	hdr := store.Header()
	return &PageLoader{
		store:     store,
		indexer:   indexer,
		exec:      exec,
		pageSize:  hdr.PageSize(),
		border:    hdr.BorderSize,
		tileBytes: hdr.TileBytes(),
		inFlight:  make(map[int]struct{}),
	}
}

// Submit starts loading page. It returns false without doing anything if the
// page is already in flight or outside the pyramid.
func (l *PageLoader) Submit(page Page) bool {
	idx, err := l.indexer.CalcIndex(page)
	if err != nil {
		Logger().Warn("vtex: submit rejected", "page", page, "err", err)
		return false
	}
	if _, ok := l.inFlight[idx]; ok {
		l.stats.Deduplicated++
		return false
	}
	l.inFlight[idx] = struct{}{}

	t := l.acquire()
	t.page = page
	t.index = idx
	t.err = nil
	t.state = taskInitialized

	t.state = taskRunning
	l.stats.Submitted++
	l.exec.Submit(func() { l.run(t) })
	return true
}

// IsInFlight reports whether page has been submitted and not yet flushed.
func (l *PageLoader) IsInFlight(page Page) bool {
	idx, err := l.indexer.CalcIndex(page)
	if err != nil {
		return false
	}
	_, ok := l.inFlight[idx]
	return ok
}

// InFlight returns the number of pages submitted and not yet flushed.
func (l *PageLoader) InFlight() int { return len(l.inFlight) }

// acquire pops a task from the pool or allocates one.
func (l *PageLoader) acquire() *loadTask {
	if n := len(l.free); n > 0 {
		t := l.free[n-1]
		l.free = l.free[:n-1]
		return t
	}
	l.stats.Allocated++
	return &loadTask{pixels: make([]byte, l.tileBytes)}
}

// run is the task body. It executes on an executor goroutine and touches
// only the task, the indexer and the store.
func (l *PageLoader) run(t *loadTask) {
	if l.showMip.Load() {
		fillMipColor(t.pixels, t.page.Mip)
	} else {
		t.err = l.readPage(t.page, t.pixels)
	}
	if t.err == nil && l.showBorders.Load() {
		stampBorder(t.pixels, l.pageSize, l.border)
	}
	t.state = taskCompleted
	l.done.push(t)
}

// readPage reads the stored tile of page and flips it to top-down rows.
// Stored levels are bottom-up, so the record is the one of the mirrored page.
func (l *PageLoader) readPage(page Page, pixels []byte) error {
	idx, err := l.indexer.CalcIndex(l.indexer.Mirror(page))
	if err != nil {
		return err
	}
	if err := l.store.ReadTile(idx, pixels); err != nil {
		return err
	}
	flipRows(pixels, l.pageSize*tilefile.ChannelCount)
	return nil
}

// Flush applies every finished load to dst and returns the number applied.
// Failed loads are logged and dropped; their pages leave the in-flight set
// and may be requested again.
func (l *PageLoader) Flush(dst LoadCompleter) int {
	tasks := l.done.swap(l.spare)

	applied := 0
	for _, t := range tasks {
		if t.err != nil {
			l.stats.Failed++
			Logger().Warn("vtex: tile load failed", "page", t.page, "err", t.err)
		} else if err := dst.LoadComplete(t.page, t.pixels); err != nil {
			l.stats.Failed++
			Logger().Warn("vtex: apply loaded page", "page", t.page, "err", err)
		} else {
			l.stats.Completed++
			applied++
		}
		l.release(t)
	}

	clear(tasks)
	l.spare = tasks[:0]
	return applied
}

// release ends the life of a flushed task and returns it to the pool.
func (l *PageLoader) release(t *loadTask) {
	delete(l.inFlight, t.index)
	clear(t.pixels)
	t.err = nil
	t.state = taskIdle
	l.free = append(l.free, t)
}

// Stats returns load pipeline statistics.
func (l *PageLoader) Stats() LoaderStats {
	s := l.stats
	s.InFlight = len(l.inFlight)
	return s
}

// SetShowBorders enables stamping a one-texel border line on loaded pages.
func (l *PageLoader) SetShowBorders(on bool) { l.showBorders.Store(on) }

// SetShowMip replaces loaded pages with a flat per-mip colour.
func (l *PageLoader) SetShowMip(on bool) { l.showMip.Store(on) }

// ToggleShowBorders flips the border debug view and returns the new state.
func (l *PageLoader) ToggleShowBorders() bool {
	for {
		old := l.showBorders.Load()
		if l.showBorders.CompareAndSwap(old, !old) {
			Logger().Debug("vtex: show borders", "on", !old)
			return !old
		}
	}
}

// ToggleShowMip flips the mip colour debug view and returns the new state.
func (l *PageLoader) ToggleShowMip() bool {
	for {
		old := l.showMip.Load()
		if l.showMip.CompareAndSwap(old, !old) {
			Logger().Debug("vtex: show mip", "on", !old)
			return !old
		}
	}
}
