// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// File is an open tile file.
//
// The header is read once when the file is opened and cached. ReadTile and
// WriteTile are mutually exclusive; File is safe for concurrent use.
type File struct {
	mu       sync.Mutex
	f        *os.File
	path     string
	hdr      Header
	tileSize int
	writable bool
	closed   bool
}

// Open opens an existing tile file for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("tilefile: open: %w", err)
	}

	tf, err := newFile(f, path, false)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	adviseRandom(f)
	return tf, nil
}

// OpenWritable opens an existing tile file for reading and writing.
// The process holds an exclusive lock on the file until Close.
func OpenWritable(path string) (*File, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("tilefile: open: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	tf, err := newFile(f, path, true)
	if err != nil {
		_ = unlockFile(f)
		_ = f.Close()
		return nil, err
	}
	return tf, nil
}

// Create creates or truncates a tile file, writes hdr and sizes the file to
// hold every page of the pyramid. Unwritten records read back as zeros.
func Create(path string, hdr Header) (*File, error) {
	if err := hdr.Validate(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tilefile: create: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	fail := func(err error) (*File, error) {
		_ = unlockFile(f)
		_ = f.Close()
		return nil, err
	}

	size := int64(HeaderSize) + int64(hdr.PageCount())*int64(hdr.TileBytes())
	if err := f.Truncate(0); err != nil {
		return fail(fmt.Errorf("tilefile: truncate: %w", err))
	}
	if err := f.Truncate(size); err != nil {
		return fail(fmt.Errorf("tilefile: resize to %d bytes: %w", size, err))
	}

	buf, _ := hdr.MarshalBinary()
	if _, err := f.WriteAt(buf, 0); err != nil {
		return fail(fmt.Errorf("tilefile: write header: %w", err))
	}

	return &File{
		f:        f,
		path:     path,
		hdr:      hdr,
		tileSize: hdr.TileBytes(),
		writable: true,
	}, nil
}

// newFile reads and validates the header of f.
func newFile(f *os.File, path string, writable bool) (*File, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("tilefile: read header: %w", ErrShortRead)
		}
		return nil, fmt.Errorf("tilefile: read header: %w", err)
	}

	var hdr Header
	if err := hdr.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}

	return &File{
		f:        f,
		path:     path,
		hdr:      hdr,
		tileSize: hdr.TileBytes(),
		writable: writable,
	}, nil
}

// Header returns the cached file header.
func (t *File) Header() Header { return t.hdr }

// TileBytes returns the byte length of one tile record.
func (t *File) TileBytes() int { return t.tileSize }

// Path returns the path the file was opened with.
func (t *File) Path() string { return t.path }

// offset returns the byte offset of record index.
func (t *File) offset(index int) int64 {
	return int64(HeaderSize) + int64(index)*int64(t.tileSize)
}

// ReadTile reads record index into dst, which must be exactly TileBytes long.
// A truncated record is reported as ErrShortRead; dst is never zero-filled.
func (t *File) ReadTile(index int, dst []byte) error {
	if len(dst) != t.tileSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(dst), t.tileSize)
	}
	if index < 0 {
		return fmt.Errorf("tilefile: read tile %d: negative index", index)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}

	n, err := t.f.ReadAt(dst, t.offset(index))
	if n == len(dst) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("tilefile: read tile %d: %w (%d of %d bytes)", index, ErrShortRead, n, len(dst))
	}
	return fmt.Errorf("tilefile: read tile %d: %w", index, err)
}

// WriteTile writes src as record index. src must be exactly TileBytes long.
func (t *File) WriteTile(index int, src []byte) error {
	if len(src) != t.tileSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(src), t.tileSize)
	}
	if index < 0 {
		return fmt.Errorf("tilefile: write tile %d: negative index", index)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if !t.writable {
		return ErrReadOnly
	}

	n, err := t.f.WriteAt(src, t.offset(index))
	if err != nil {
		return fmt.Errorf("tilefile: write tile %d: %w", index, err)
	}
	if n != len(src) {
		return fmt.Errorf("tilefile: write tile %d: %w", index, ErrShortWrite)
	}
	return nil
}

// Sync commits written records to stable storage.
func (t *File) Sync() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	return t.f.Sync()
}

// Close releases the file and its lock.
// Close is idempotent - multiple calls are safe.
func (t *File) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.writable {
		_ = unlockFile(t.f)
	}
	return t.f.Close()
}
