// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilefile

import "errors"

// Sentinel errors for tilefile package.
var (
	// ErrClosed is returned when operating on a closed file.
	ErrClosed = errors.New("tilefile: file is closed")

	// ErrShortRead is returned when a record or header is truncated.
	ErrShortRead = errors.New("tilefile: short read")

	// ErrShortWrite is returned when a record could not be written in full.
	ErrShortWrite = errors.New("tilefile: short write")

	// ErrBadHeader is returned when the header describes an unusable texture.
	ErrBadHeader = errors.New("tilefile: invalid header")

	// ErrBufferSize is returned when a tile buffer does not match the record size.
	ErrBufferSize = errors.New("tilefile: tile buffer size mismatch")

	// ErrLocked is returned when another process holds the write lock.
	ErrLocked = errors.New("tilefile: file is locked by another process")

	// ErrReadOnly is returned when writing to a file opened with Open.
	ErrReadOnly = errors.New("tilefile: file is read-only")
)
