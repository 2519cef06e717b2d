// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

func TestWorkerPool_SubmitRunsEveryTaskOnce(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	const n = 200
	var mu sync.Mutex
	seen := make(map[int]int)
	for i := 0; i < n; i++ {
		idx := i
		pool.Submit(func() {
			mu.Lock()
			seen[idx]++
			mu.Unlock()
		})
	}
	pool.Wait()

	if len(seen) != n {
		t.Fatalf("ran %d distinct tasks, want %d", len(seen), n)
	}
	for idx, c := range seen {
		if c != 1 {
			t.Errorf("task %d ran %d times", idx, c)
		}
	}
	if pool.Executed() != n {
		t.Errorf("Executed() = %d, want %d", pool.Executed(), n)
	}
}

func TestWorkerPool_SlowTaskDoesNotBlockOthers(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	release := make(chan struct{})
	pool.Submit(func() { <-release })

	var fast atomic.Int32
	for i := 0; i < 10; i++ {
		pool.Submit(func() { fast.Add(1) })
	}

	deadline := time.Now().Add(2 * time.Second)
	for fast.Load() < 10 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(release)

	if fast.Load() != 10 {
		t.Errorf("fast tasks finished = %d, want 10 while one task was blocked", fast.Load())
	}
}

func TestWorkerPool_CloseDrainsQueue(t *testing.T) {
	pool := NewWorkerPool(1)

	var counter atomic.Int32
	for i := 0; i < 5; i++ {
		pool.Submit(func() { counter.Add(1) })
	}
	pool.Close()

	if counter.Load() != 5 {
		t.Errorf("counter after Close = %d, want 5", counter.Load())
	}
	if pool.IsRunning() {
		t.Error("IsRunning() = true after Close")
	}

	// Submit after Close is dropped, a second Close is safe.
	pool.Submit(func() { counter.Add(1) })
	pool.Close()
	if counter.Load() != 5 {
		t.Errorf("task submitted after Close ran")
	}
}

func TestWorkerPool_SubmitNil(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	pool.Submit(nil)
	pool.Wait()
	if pool.Executed() != 0 {
		t.Errorf("Executed() = %d after nil submit", pool.Executed())
	}
}
