// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

// TextureSink receives texel uploads for the atlas and indirection textures.
//
// pixels holds width*height tightly packed RGBA8 texels, top row first. The
// slice is only valid for the duration of the call: the engine reuses it, so
// implementations must copy what they keep. Later uploads to the same region
// replace earlier ones. Package atlas provides a CPU-mirrored implementation.
type TextureSink interface {
	UploadRegion(pixels []byte, x, y, width, height, mipLevel int) error
}

// Executor runs tasks off the owning goroutine.
//
// Submit must eventually run task exactly once, on any goroutine. The
// engine never waits for a task; results come back through PageLoader.Flush.
type Executor interface {
	Submit(task func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func())

// Submit calls f(task).
func (f ExecutorFunc) Submit(task func()) { f(task) }
