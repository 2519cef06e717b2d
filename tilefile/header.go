// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tilefile

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	// HeaderSize is the number of bytes reserved for the header.
	HeaderSize = 16

	// ChannelCount is the number of bytes per texel (RGBA8).
	ChannelCount = 4
)

// Header field offsets.
const (
	offsetVirtualSize = 0
	offsetTileSize    = 4
	offsetBorderSize  = 8
)

// Header describes the sizing of a virtual texture.
type Header struct {
	// VirtualTextureSize is the edge length of the full texture in texels.
	VirtualTextureSize int
	// TileSize is the edge length of a tile without its border.
	TileSize int
	// BorderSize is the number of border texels on each side of a tile.
	BorderSize int
}

// PageSize returns the edge length of a stored tile including borders.
func (h Header) PageSize() int { return h.TileSize + 2*h.BorderSize }

// PageTableSize returns the number of tiles along one edge at mip 0.
func (h Header) PageTableSize() int {
	if h.TileSize <= 0 {
		return 0
	}
	return h.VirtualTextureSize / h.TileSize
}

// MipCount returns the number of mip levels of the page pyramid.
func (h Header) MipCount() int {
	n := h.PageTableSize()
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n))
}

// PageCount returns the total number of pages over all mip levels.
func (h Header) PageCount() int {
	n := h.PageTableSize()
	count := 0
	for m := 0; m < h.MipCount(); m++ {
		s := n >> m
		count += s * s
	}
	return count
}

// TileBytes returns the byte length of one tile record.
func (h Header) TileBytes() int {
	p := h.PageSize()
	return p * p * ChannelCount
}

// Validate reports whether the header describes a usable texture: positive
// sizes, a texture size divisible by the tile size and a power-of-two page
// table.
func (h Header) Validate() error {
	switch {
	case h.VirtualTextureSize <= 0 || h.TileSize <= 0:
		return fmt.Errorf("%w: sizes must be positive (texture %d, tile %d)",
			ErrBadHeader, h.VirtualTextureSize, h.TileSize)
	case h.BorderSize < 0:
		return fmt.Errorf("%w: negative border %d", ErrBadHeader, h.BorderSize)
	case h.VirtualTextureSize%h.TileSize != 0:
		return fmt.Errorf("%w: texture size %d is not a multiple of tile size %d",
			ErrBadHeader, h.VirtualTextureSize, h.TileSize)
	}
	n := h.PageTableSize()
	if n&(n-1) != 0 {
		return fmt.Errorf("%w: page table size %d is not a power of two", ErrBadHeader, n)
	}
	return nil
}

// MarshalBinary encodes the header into its 16-byte on-disk form.
func (h Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[offsetVirtualSize:], uint32(h.VirtualTextureSize))
	binary.LittleEndian.PutUint32(buf[offsetTileSize:], uint32(h.TileSize))
	binary.LittleEndian.PutUint32(buf[offsetBorderSize:], uint32(h.BorderSize))
	return buf, nil
}

// UnmarshalBinary decodes a header. The reserved bytes are ignored.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header is %d bytes, want %d", ErrShortRead, len(data), HeaderSize)
	}
	h.VirtualTextureSize = int(int32(binary.LittleEndian.Uint32(data[offsetVirtualSize:])))
	h.TileSize = int(int32(binary.LittleEndian.Uint32(data[offsetTileSize:])))
	h.BorderSize = int(int32(binary.LittleEndian.Uint32(data[offsetBorderSize:])))
	return nil
}

// String returns a short description of the header.
func (h Header) String() string {
	return fmt.Sprintf("Header(texture=%d tile=%d border=%d)", h.VirtualTextureSize, h.TileSize, h.BorderSize)
}
