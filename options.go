// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

// DefaultAtlasSize is the default edge length of the atlas texture in texels.
const DefaultAtlasSize = 4096

// maxAtlasCells is the largest atlas edge in pages. Indirection texels store
// the cell coordinates in 8 bits.
const maxAtlasCells = 256

// maxPageTableSize is the largest mip 0 page grid. Feedback texels store the
// page coordinates in 8 bits.
const maxPageTableSize = 256

// Option configures a VirtualTexture during creation.
//
// Example:
//
//	// Defaults: 4096^2 atlas, 5 uploads per frame, GOMAXPROCS loaders
//	vt, err := vtex.Open("world.vt")
//
//	// Smaller atlas, loads on the caller's own executor
//	vt, err := vtex.Open("world.vt",
//	    vtex.WithAtlasSize(2048),
//	    vtex.WithExecutor(myPool))
type Option func(*options)

// options holds optional configuration for VirtualTexture creation.
type options struct {
	atlasSize       int
	uploadsPerFrame int
	mipBias         int
	workers         int
	executor        Executor
	atlasSink       TextureSink
	indirectionSink TextureSink
	showBorders     bool
	showMip         bool
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		atlasSize:       DefaultAtlasSize,
		uploadsPerFrame: DefaultUploadsPerFrame,
	}
}

// WithAtlasSize sets the edge length of the atlas texture in texels. It
// must hold at least one page and at most 256 pages per edge.
func WithAtlasSize(texels int) Option {
	return func(o *options) {
		o.atlasSize = texels
	}
}

// WithUploadsPerFrame sets how many pages a frame may start loading.
// Values <= 0 select DefaultUploadsPerFrame.
func WithUploadsPerFrame(n int) Option {
	return func(o *options) {
		o.uploadsPerFrame = n
	}
}

// WithMipBias sets the initial mip sampling bias. Negative values are
// treated as zero.
func WithMipBias(bias int) Option {
	return func(o *options) {
		o.mipBias = bias
	}
}

// WithWorkers sets the size of the internal loader pool. It has no effect
// together with WithExecutor.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithExecutor runs tile reads on e instead of an internal worker pool.
// The VirtualTexture does not close e.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		o.executor = e
	}
}

// WithAtlasSink sends atlas page uploads to s instead of an in-memory
// atlas.Texture.
func WithAtlasSink(s TextureSink) Option {
	return func(o *options) {
		o.atlasSink = s
	}
}

// WithIndirectionSink sends the per-mip indirection images to s instead of
// an in-memory atlas.Texture.
func WithIndirectionSink(s TextureSink) Option {
	return func(o *options) {
		o.indirectionSink = s
	}
}

// WithShowBorders starts with the border debug view enabled.
func WithShowBorders(on bool) Option {
	return func(o *options) {
		o.showBorders = on
	}
}

// WithShowMip starts with the mip colour debug view enabled.
func WithShowMip(on bool) Option {
	return func(o *options) {
		o.showMip = on
	}
}
