// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package tilefile

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandom tells the kernel that tiles are read in no particular order,
// which disables read-ahead for the file.
func adviseRandom(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
