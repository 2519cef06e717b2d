// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package atlas provides CPU-mirrored RGBA8 textures that receive the page
// atlas and indirection uploads of a virtual texture.
//
// A [Texture] keeps every mip level in memory, tracks which levels changed
// since they were last pushed to the GPU, and pushes them through any
// gpucontext.TextureUpdater:
//
//	tex, _ := atlas.New("vtex-atlas", 4096, 4096, 1)
//	tex.Fill(0, color.RGBA{255, 255, 255, 255})
//	vt, _ := vtex.Open("world.vt", vtex.WithAtlasSink(tex))
//	...
//	if _, err := tex.SyncTo(0, gpuTexture); err != nil {
//	    return err
//	}
package atlas
