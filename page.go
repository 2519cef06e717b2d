// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package vtex

import "fmt"

// Page addresses one tile of the virtual texture at a mip level.
// Pages are compared by value.
type Page struct {
	X   int
	Y   int
	Mip int
}

// String returns a string representation of the page.
func (p Page) String() string {
	return fmt.Sprintf("Page(%d,%d mip %d)", p.X, p.Y, p.Mip)
}

// Parent returns the page one mip level coarser that covers p.
func (p Page) Parent() Page {
	return Page{X: p.X >> 1, Y: p.Y >> 1, Mip: p.Mip + 1}
}
