// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package tilefile

import "os"

func adviseRandom(*os.File) {}
