// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import (
	"errors"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/gogpu/vtex/tilefile"
)

func newTestTexture(t *testing.T, opts ...Option) *VirtualTexture {
	t.Helper()
	opts = append([]Option{WithAtlasSize(20), WithExecutor(&inlineExecutor{})}, opts...)
	vt, err := New(newMemStore(testHeader), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = vt.Close() })
	return vt
}

func TestNewRejectsBadAtlas(t *testing.T) {
	tests := []struct {
		name  string
		atlas int
	}{
		{"smaller than a page", 9},
		{"more than 256 cells", 10 * 257},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newMemStore(testHeader), WithAtlasSize(tt.atlas), WithExecutor(&inlineExecutor{}))
			if !errors.Is(err, ErrInvalidInfo) {
				t.Errorf("New() error = %v, want ErrInvalidInfo", err)
			}
		})
	}
}

func TestNewRejectsBadHeader(t *testing.T) {
	tests := []struct {
		name string
		hdr  tilefile.Header
	}{
		{"not a multiple of the tile", tilefile.Header{VirtualTextureSize: 30, TileSize: 8, BorderSize: 1}},
		{"page grid wider than 256", tilefile.Header{VirtualTextureSize: 1024, TileSize: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newMemStore(tt.hdr), WithExecutor(&inlineExecutor{}))
			if !errors.Is(err, ErrInvalidInfo) {
				t.Errorf("New() error = %v, want ErrInvalidInfo", err)
			}
		})
	}
}

func TestVirtualTextureDefaults(t *testing.T) {
	vt := newTestTexture(t)

	if vt.AtlasCells() != 2 || vt.Cache().Capacity() != 4 {
		t.Errorf("cells = %d, capacity = %d; want 2, 4", vt.AtlasCells(), vt.Cache().Capacity())
	}
	if vt.MipBias() != 0 {
		t.Errorf("MipBias() = %d, want 0", vt.MipBias())
	}
	tex := vt.Atlas()
	if tex == nil || vt.Indirection() == nil {
		t.Fatal("default sinks not created")
	}
	if got := tex.At(0, 19, 19); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("fresh atlas texel = %v, want white", got)
	}
	if vt.Indirection().MipLevels() != vt.Indexer().MipCount() {
		t.Errorf("indirection has %d levels, want %d", vt.Indirection().MipLevels(), vt.Indexer().MipCount())
	}
}

func TestVirtualTextureUpdate(t *testing.T) {
	vt := newTestTexture(t)
	p := Page{X: 2, Y: 1, Mip: 0}

	counts := make([]int, vt.Indexer().PageCount())
	idx, _ := vt.Indexer().CalcIndex(p)
	counts[idx] = 3
	root, _ := vt.Indexer().CalcIndex(Page{Mip: 2})
	counts[root] = 1

	st, err := vt.Update(counts)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if st.Applied != 2 {
		t.Fatalf("Applied = %d, want 2", st.Applied)
	}

	// The finer page was loaded first and sits in cell (0,0).
	stored, _ := vt.Indexer().CalcIndex(vt.Indexer().Mirror(p))
	if got := vt.Atlas().At(0, 5, 5); got.R != byte(stored+1) {
		t.Errorf("atlas texel = %v, want tile %d", got, stored)
	}

	ind := vt.Indirection()
	if got := ind.At(0, p.X, p.Y); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("indirection(%v) = %v, want cell (0,0) level 0", p, got)
	}
	if got := ind.At(0, 0, 0); got != (color.RGBA{1, 0, 2, 255}) {
		t.Errorf("indirection fallback = %v, want cell (1,0) level 2", got)
	}
	if got := ind.At(2, 0, 0); got != (color.RGBA{1, 0, 2, 255}) {
		t.Errorf("coarsest indirection = %v, want cell (1,0) level 2", got)
	}

	if s := vt.Stats(); s.Frames != 1 || s.Cache.Resident != 2 || s.Loader.Completed != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestVirtualTextureClearCache(t *testing.T) {
	vt := newTestTexture(t)
	counts := make([]int, vt.Indexer().PageCount())
	counts[0] = 1
	if _, err := vt.Update(counts); err != nil {
		t.Fatal(err)
	}

	vt.ClearCache()
	if vt.Cache().Len() != 0 {
		t.Errorf("Len() after ClearCache = %d", vt.Cache().Len())
	}
	if _, err := vt.Update(nil); err != nil {
		t.Fatal(err)
	}
	if got := vt.Indirection().At(0, 0, 0); got.A != 0 {
		t.Errorf("indirection still mapped after ClearCache: %v", got)
	}
}

func TestVirtualTextureDebugOptions(t *testing.T) {
	vt := newTestTexture(t, WithShowMip(true), WithMipBias(3), WithUploadsPerFrame(1))
	if vt.MipBias() != 3 {
		t.Errorf("MipBias() = %d, want 3", vt.MipBias())
	}
	vt.DecreaseMipBias()
	if vt.MipBias() != 2 {
		t.Errorf("MipBias() after decrease = %d, want 2", vt.MipBias())
	}

	counts := make([]int, vt.Indexer().PageCount())
	counts[0] = 1
	counts[1] = 1
	st, _ := vt.Update(counts)
	if st.Submitted != 1 {
		t.Errorf("Submitted = %d, want budget of 1", st.Submitted)
	}
	if got := vt.Atlas().At(0, 0, 0); [4]uint8{got.R, got.G, got.B, got.A} != mipColors[0] {
		t.Errorf("mip view texel = %v, want %v", got, mipColors[0])
	}
	if vt.ToggleShowMip() {
		t.Error("ToggleShowMip() = true, want mip view turned off")
	}
}

func TestVirtualTextureClose(t *testing.T) {
	vt, err := New(newMemStore(testHeader), WithAtlasSize(20), WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	if err := vt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := vt.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := vt.Update(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Update() after Close error = %v, want ErrClosed", err)
	}
}

func TestOpenTileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.vt")
	f, err := tilefile.Create(path, testHeader)
	if err != nil {
		t.Fatal(err)
	}
	tile := make([]byte, testHeader.TileBytes())
	for i := 0; i < testHeader.PageCount(); i++ {
		for j := range tile {
			tile[j] = byte(i)
		}
		if err := f.WriteTile(i, tile); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	vt, err := Open(path, WithAtlasSize(40), WithWorkers(2))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = vt.Close() }()

	counts := make([]int, vt.Indexer().PageCount())
	for i := range counts {
		counts[i] = 1
	}
	st, err := vt.Update(counts)
	if err != nil {
		t.Fatal(err)
	}
	if st.Submitted != DefaultUploadsPerFrame {
		t.Errorf("Submitted = %d, want %d", st.Submitted, DefaultUploadsPerFrame)
	}

	applied := st.Applied

	vt.WaitIdle()
	st, err = vt.Update(nil)
	if err != nil {
		t.Fatal(err)
	}
	applied += st.Applied
	if applied != DefaultUploadsPerFrame || vt.Cache().Len() != DefaultUploadsPerFrame {
		t.Errorf("applied %d, resident %d; want %d", applied, vt.Cache().Len(), DefaultUploadsPerFrame)
	}
	for _, p := range vt.Cache().Pages() {
		cx, cy, _ := vt.Cache().Cell(p)
		stored, _ := vt.Indexer().CalcIndex(vt.Indexer().Mirror(p))
		if got := vt.Atlas().At(0, cx*10+4, cy*10+4); got.R != byte(stored) {
			t.Errorf("page %v shows tile %d, want %d", p, got.R, stored)
		}
	}
}
