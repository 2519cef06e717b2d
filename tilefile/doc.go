// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tilefile implements the packed tile storage format of a virtual
// texture.
//
// A tile file is a 16-byte header followed by one fixed-size record per page
// of the mip pyramid, in page-index order:
//
//	offset 0   int32 virtual texture size (little endian)
//	offset 4   int32 tile size
//	offset 8   int32 border size
//	offset 12  4 reserved bytes
//	offset 16  record 0, record 1, ...
//
// Each record holds (tile+2*border)^2 RGBA8 texels. Records are stored
// bottom-up: both the tile rows and the tile y coordinate are mirrored
// relative to the top-down layout used at runtime.
//
// Reads and writes on a [File] are serialized by a single mutex, so one File
// may be shared by any number of loader goroutines.
package tilefile
