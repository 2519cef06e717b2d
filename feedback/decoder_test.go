// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package feedback

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/vtex"
	"github.com/gogpu/vtex/tilefile"
)

func newIndexer(t *testing.T) *vtex.PageIndexer {
	t.Helper()
	ix, err := vtex.NewPageIndexer(tilefile.Header{VirtualTextureSize: 64, TileSize: 8, BorderSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func index(t *testing.T, ix *vtex.PageIndexer, x, y, mip int) int {
	t.Helper()
	i, err := ix.CalcIndex(vtex.Page{X: x, Y: y, Mip: mip})
	if err != nil {
		t.Fatal(err)
	}
	return i
}

func TestDecodePropagatesToAncestors(t *testing.T) {
	ix := newIndexer(t)
	d := NewDecoder(ix)

	// 8x8 page table: 4 mips; (5, 6) at mip 0 votes for 4 pages.
	if err := d.Decode([]byte{5, 6, 0, 255}, 1, 1); err != nil {
		t.Fatal(err)
	}

	want := map[int]int{
		index(t, ix, 5, 6, 0): 1,
		index(t, ix, 2, 3, 1): 1,
		index(t, ix, 1, 1, 2): 1,
		index(t, ix, 0, 0, 3): 1,
	}
	for i, n := range d.Counts() {
		if n != want[i] {
			t.Errorf("counts[%d] = %d, want %d", i, n, want[i])
		}
	}
}

func TestDecodeCoarseRequest(t *testing.T) {
	ix := newIndexer(t)
	d := NewDecoder(ix)

	// Root requests vote once, mip 2 requests twice.
	pix := []byte{
		0, 0, 3, 255,
		1, 0, 2, 255,
		1, 0, 2, 255,
	}
	if err := d.Decode(pix, 3, 1); err != nil {
		t.Fatal(err)
	}
	if got := d.Counts()[index(t, ix, 0, 0, 3)]; got != 3 {
		t.Errorf("root count = %d, want 3", got)
	}
	if got := d.Counts()[index(t, ix, 1, 0, 2)]; got != 2 {
		t.Errorf("mip 2 count = %d, want 2", got)
	}
}

func TestDecodeSkipsBackgroundAndInvalid(t *testing.T) {
	ix := newIndexer(t)
	d := NewDecoder(ix)

	pix := []byte{
		5, 6, 0, 0, // background
		5, 6, 0, 128, // partial alpha
		8, 0, 0, 255, // x out of range
		0, 0, 4, 255, // mip out of range
		0, 0, 9, 255, // mip out of range
	}
	if err := d.Decode(pix, 5, 1); err != nil {
		t.Fatal(err)
	}
	for i, n := range d.Counts() {
		if n != 0 {
			t.Errorf("counts[%d] = %d, want 0", i, n)
		}
	}
	if d.Invalid() != 3 {
		t.Errorf("Invalid() = %d, want 3", d.Invalid())
	}
}

func TestDecodeAccumulatesUntilClear(t *testing.T) {
	ix := newIndexer(t)
	d := NewDecoder(ix)
	px := []byte{1, 1, 1, 255}

	for range 3 {
		if err := d.Decode(px, 1, 1); err != nil {
			t.Fatal(err)
		}
	}
	i := index(t, ix, 1, 1, 1)
	if d.Counts()[i] != 3 {
		t.Errorf("count after 3 decodes = %d, want 3", d.Counts()[i])
	}

	d.Clear()
	if d.Counts()[i] != 0 || d.Invalid() != 0 {
		t.Error("Clear() left counts behind")
	}
}

func TestDecodeBufferSize(t *testing.T) {
	d := NewDecoder(newIndexer(t))
	if err := d.Decode(make([]byte, 15), 2, 2); !errors.Is(err, ErrBufferSize) {
		t.Errorf("Decode() error = %v, want ErrBufferSize", err)
	}
}

func TestDecodeImage(t *testing.T) {
	ix := newIndexer(t)
	d := NewDecoder(ix)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(1, 1, color.RGBA{3, 2, 0, 255})
	img.SetRGBA(2, 3, color.RGBA{3, 2, 0, 255})

	// A sub-image has a stride wider than its bounds.
	sub := img.SubImage(image.Rect(1, 1, 3, 4)).(*image.RGBA)
	if err := d.DecodeImage(sub); err != nil {
		t.Fatal(err)
	}
	if got := d.Counts()[index(t, ix, 3, 2, 0)]; got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
	if got := d.Counts()[index(t, ix, 0, 0, 3)]; got != 2 {
		t.Errorf("root count = %d, want 2", got)
	}
}

func TestDecodeDrivesScheduler(t *testing.T) {
	ix := newIndexer(t)
	d := NewDecoder(ix)
	if err := d.Decode([]byte{7, 7, 0, 255}, 1, 1); err != nil {
		t.Fatal(err)
	}

	var requested int
	for _, n := range d.Counts() {
		if n > 0 {
			requested++
		}
	}
	if requested != ix.MipCount() {
		t.Errorf("requested pages = %d, want one per mip (%d)", requested, ix.MipCount())
	}
}

func BenchmarkDecode(b *testing.B) {
	ix, _ := vtex.NewPageIndexer(tilefile.Header{VirtualTextureSize: 1024, TileSize: 8})
	d := NewDecoder(ix)
	const size = 256
	pix := make([]byte, size*size*4)
	for i := 0; i < size*size; i++ {
		pix[i*4] = byte((i % size) / 4)
		pix[i*4+1] = byte((i / size) / 4)
		pix[i*4+3] = 255
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Clear()
		_ = d.Decode(pix, size, size)
	}
}
