// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"fmt"
	"slices"
)

// DefaultUploadsPerFrame is the default per-frame load budget.
const DefaultUploadsPerFrame = 5

// pageRequest is a missing page and the number of feedback votes it got.
type pageRequest struct {
	page  Page
	count int
}

// FrameStats describes one scheduler frame.
type FrameStats struct {
	// Requested is the number of pages with a non-zero count.
	Requested int
	// Touched is the number of requested pages that were resident.
	Touched int
	// Missing is the number of requested pages that were not resident.
	Missing int
	// Submitted is the number of loads started this frame.
	Submitted int
	// Applied is the number of finished loads inserted into the cache.
	Applied int
	// Degraded is true when the mip bias was lowered instead of loading.
	Degraded bool
	// MipBias is the bias after the frame.
	MipBias int
}

// Scheduler turns per-page request counts into a budget-capped load plan.
//
// Finer mips are loaded first because their absence costs the most detail;
// among pages of one mip the more requested ones win. When every atlas cell
// already holds a page that was requested this frame, nothing is loaded and
// the mip bias is lowered instead.
//
// Scheduler belongs to the owning goroutine.
type Scheduler struct {
	indexer *PageIndexer
	cache   *PageCache
	loader  *PageLoader
	table   *PageTable
	budget  int
	mipBias int

	toLoad []pageRequest
}

// NewScheduler creates a scheduler loading at most budget pages per frame.
// A budget <= 0 selects DefaultUploadsPerFrame.
func NewScheduler(indexer *PageIndexer, cache *PageCache, loader *PageLoader,
	table *PageTable, budget, mipBias int) *Scheduler {
	if budget <= 0 {
		budget = DefaultUploadsPerFrame
	}
	return &Scheduler{
		indexer: indexer,
		cache:   cache,
		loader:  loader,
		table:   table,
		budget:  budget,
		mipBias: max(mipBias, 0),
	}
}

// Budget returns the per-frame load budget.
func (s *Scheduler) Budget() int { return s.budget }

// MipBias returns the current mip sampling bias.
func (s *Scheduler) MipBias() int { return s.mipBias }

// DecreaseMipBias lowers the mip bias by one, never below zero.
func (s *Scheduler) DecreaseMipBias() {
	if s.mipBias > 0 {
		s.mipBias--
	}
}

// Update runs one frame. counts[i] is the number of feedback votes for the
// page with index i; it may be shorter than the page count but not longer.
// The frame always ends by flushing finished loads and updating the page
// table, even when no page was requested.
func (s *Scheduler) Update(counts []int) (FrameStats, error) {
	var st FrameStats
	if len(counts) > s.indexer.PageCount() {
		return st, &AddressError{
			Index:     len(counts) - 1,
			MipCount:  s.indexer.MipCount(),
			PageCount: s.indexer.PageCount(),
		}
	}

	s.toLoad = s.toLoad[:0]
	for i, n := range counts {
		if n <= 0 {
			continue
		}
		st.Requested++

		page, err := s.indexer.QueryByIndex(i)
		if err != nil {
			return st, err
		}
		if s.cache.Touch(page) {
			st.Touched++
		} else {
			s.toLoad = append(s.toLoad, pageRequest{page: page, count: n})
		}
	}
	st.Missing = len(s.toLoad)

	if st.Touched < s.cache.Capacity() {
		slices.SortStableFunc(s.toLoad, func(a, b pageRequest) int {
			if a.page.Mip != b.page.Mip {
				return a.page.Mip - b.page.Mip
			}
			return b.count - a.count
		})

		for _, r := range s.toLoad[:min(len(s.toLoad), s.budget)] {
			if s.cache.Request(r.page) {
				st.Submitted++
			}
		}
	} else {
		s.DecreaseMipBias()
		st.Degraded = true
		Logger().Warn("vtex: atlas saturated, lowering mip bias",
			"touched", st.Touched, "missing", st.Missing, "mip_bias", s.mipBias)
	}

	st.Applied = s.loader.Flush(s.cache)
	if err := s.table.Update(); err != nil {
		return st, fmt.Errorf("vtex: page table update: %w", err)
	}

	st.MipBias = s.mipBias
	Logger().Debug("vtex: frame",
		"requested", st.Requested, "touched", st.Touched, "missing", st.Missing,
		"submitted", st.Submitted, "applied", st.Applied)
	return st, nil
}
