// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build windows

package tilefile

import "os"

// lockFile is a no-op on Windows; the OS already denies shared writers.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
