// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package vtex streams a virtual texture that is too large for GPU memory.
//
// # Overview
//
// The texture is cut into fixed-size pages addressed by (x, y, mip). Only the
// pages that rendering actually sampled are kept in a bounded atlas; the rest
// are read on demand from a packed tile file (package tilefile).
//
// Every frame the engine takes a per-page request-count array produced by a
// feedback pass (package feedback), touches the pages that are already
// resident, plans a small number of loads for the missing ones and applies
// the loads that finished since the previous frame:
//
//	feedback counts -> Scheduler -> PageCache.Touch/Request -> PageLoader
//	    -> worker goroutines read tiles -> PageLoader.Flush
//	    -> PageCache.LoadComplete -> PageTable -> indirection upload
//
// # Quick Start
//
//	vt, err := vtex.Open("world.vt", vtex.WithAtlasSize(4096))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vt.Close()
//
//	fb := feedback.NewDecoder(vt.Indexer())
//	for frame := range frames {
//	    fb.Decode(frame.FeedbackPixels, frame.W, frame.H)
//	    if _, err := vt.Update(fb.Counts()); err != nil {
//	        log.Print(err)
//	    }
//	    fb.Clear()
//	}
//
// # Threading
//
// One goroutine owns the engine: Update, PageCache, PageTable and the
// PageLoader's Submit and Flush must all be called from it. Tile reads run on
// the goroutines of the injected Executor and only ever touch the read-only
// PageIndexer, a private pixel buffer and the tile file. Finished reads are
// handed back through a queue that Flush drains.
package vtex
