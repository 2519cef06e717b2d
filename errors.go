// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"errors"
	"fmt"
)

// Sentinel errors for vtex package.
var (
	// ErrAddress is matched by every AddressError.
	ErrAddress = errors.New("vtex: page address out of range")

	// ErrCapacityExceeded signals that the residency cache holds more pages
	// than the atlas has cells. It is raised as a panic: it can only be
	// caused by a bug in eviction or insertion.
	ErrCapacityExceeded = errors.New("vtex: residency cache exceeds capacity")

	// ErrInvalidInfo is returned when the atlas cannot be laid out for the
	// texture's page size.
	ErrInvalidInfo = errors.New("vtex: invalid virtual texture parameters")

	// ErrClosed is returned when using a closed VirtualTexture.
	ErrClosed = errors.New("vtex: virtual texture is closed")
)

// AddressError reports a page or page index outside the pyramid.
type AddressError struct {
	// Page is the offending address when the error came from an address.
	Page Page
	// Index is the offending index, or -1 when the error came from an address.
	Index int
	// MipCount and PageCount describe the pyramid the lookup ran against.
	MipCount  int
	PageCount int
}

func (e *AddressError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("vtex: page index %d outside [0, %d)", e.Index, e.PageCount)
	}
	return fmt.Sprintf("vtex: page %v outside pyramid of %d mips", e.Page, e.MipCount)
}

// Is makes errors.Is(err, ErrAddress) match.
func (e *AddressError) Is(target error) bool { return target == ErrAddress }
