// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !windows

package tilefile

import (
	"errors"
	"testing"
)

func TestWriterLockIsExclusive(t *testing.T) {
	f, path := createTestFile(t)

	if _, err := OpenWritable(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("OpenWritable while locked error = %v, want ErrLocked", err)
	}

	// Readers never take the lock.
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open while locked error = %v", err)
	}
	_ = r.Close()

	_ = f.Close()
	w, err := OpenWritable(path)
	if err != nil {
		t.Fatalf("OpenWritable after Close error = %v", err)
	}
	_ = w.Close()
}
