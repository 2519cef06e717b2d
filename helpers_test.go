// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"errors"
	"sync"

	"github.com/gogpu/vtex/tilefile"
)

// upload is one recorded UploadRegion call.
type upload struct {
	pixels              []byte
	x, y, width, height int
	mip                 int
}

// recordingSink keeps a copy of every upload.
type recordingSink struct {
	mu      sync.Mutex
	uploads []upload
	fail    error
}

func (s *recordingSink) UploadRegion(pixels []byte, x, y, width, height, mip int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.uploads = append(s.uploads, upload{
		pixels: append([]byte(nil), pixels...),
		x:      x, y: y, width: width, height: height, mip: mip,
	})
	return nil
}

func (s *recordingSink) last() upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads[len(s.uploads)-1]
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// inlineExecutor runs every task immediately on the calling goroutine.
type inlineExecutor struct{ submitted int }

func (e *inlineExecutor) Submit(task func()) {
	e.submitted++
	task()
}

// heldExecutor keeps tasks until the test releases them, in any order.
type heldExecutor struct {
	tasks []func()
}

func (e *heldExecutor) Submit(task func()) { e.tasks = append(e.tasks, task) }

// run executes the held task i.
func (e *heldExecutor) run(i int) { e.tasks[i]() }

// memStore is an in-memory tile store. Tile i is filled with byte(i+1).
type memStore struct {
	hdr   tilefile.Header
	reads []int
	fail  map[int]error
	mu    sync.Mutex
}

func newMemStore(hdr tilefile.Header) *memStore {
	return &memStore{hdr: hdr, fail: map[int]error{}}
}

func (s *memStore) Header() tilefile.Header { return s.hdr }

func (s *memStore) ReadTile(index int, dst []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, index)
	if err, ok := s.fail[index]; ok {
		return err
	}
	if index < 0 || index >= s.hdr.PageCount() {
		return tilefile.ErrShortRead
	}
	for i := range dst {
		dst[i] = byte(index + 1)
	}
	return nil
}

var errUpload = errors.New("upload failed")
