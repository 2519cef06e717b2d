// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

// mipColors tints pages by mip level in the mip debug view.
var mipColors = [...][4]uint8{
	{0, 0, 255, 255},
	{0, 255, 255, 255},
	{255, 0, 0, 255},
	{255, 0, 255, 255},
	{255, 255, 0, 255},
	{64, 64, 192, 255},
	{64, 192, 64, 255},
	{64, 192, 192, 255},
	{192, 64, 64, 255},
	{192, 64, 192, 255},
	{192, 192, 64, 255},
	{0, 255, 0, 255},
}

// borderColor marks the inner edge of a page in the border debug view.
var borderColor = [4]uint8{0, 255, 0, 255}

// fillMipColor overwrites every texel with the colour of mip.
func fillMipColor(pixels []byte, mip int) {
	c := mipColors[mip%len(mipColors)]
	for i := 0; i+4 <= len(pixels); i += 4 {
		copy(pixels[i:i+4], c[:])
	}
}

// stampBorder draws one row and one column at offset border, marking where
// the tile content starts inside its border.
func stampBorder(pixels []byte, pageSize, border int) {
	if border >= pageSize {
		return
	}
	for i := 0; i < pageSize; i++ {
		row := (border*pageSize + i) * 4
		copy(pixels[row:row+4], borderColor[:])

		col := (i*pageSize + border) * 4
		copy(pixels[col:col+4], borderColor[:])
	}
}

// flipRows reverses the order of the rows of length stride in pixels.
func flipRows(pixels []byte, stride int) {
	if stride <= 0 {
		return
	}
	rows := len(pixels) / stride
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pixels[top*stride : (top+1)*stride]
		b := pixels[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
