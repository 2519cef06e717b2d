// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel provides the goroutine pool that runs tile decode tasks
// off the owning goroutine.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool is a fixed set of goroutines executing submitted tasks.
//
// Each worker owns a queue. Submit places a task on the shortest queue and
// idle workers steal from their neighbours, so a slow tile read does not
// hold up the tasks queued behind it.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// pending counts tasks submitted but not yet finished.
	pending sync.WaitGroup

	running  atomic.Bool
	executed atomic.Uint64
}

// NewWorkerPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

// worker is the main loop for each worker goroutine.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case task := <-own:
			p.run(task)
		default:
			if stolen := p.steal(id); stolen != nil {
				p.run(stolen)
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case task := <-own:
				p.run(task)
			}
		}
	}
}

// run executes one task and marks it finished.
func (p *WorkerPool) run(task func()) {
	defer p.pending.Done()
	task()
	p.executed.Add(1)
}

// drain executes everything left in queue.
func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case task := <-queue:
			p.run(task)
		default:
			return
		}
	}
}

// steal takes one task from another worker's queue, or returns nil.
func (p *WorkerPool) steal(self int) func() {
	for i := range p.workers {
		if i == self {
			continue
		}
		select {
		case task := <-p.queues[i]:
			return task
		default:
		}
	}
	return nil
}

// Submit queues fn for execution on some worker. It blocks only while every
// queue is full. Tasks submitted after Close are dropped.
func (p *WorkerPool) Submit(fn func()) {
	if fn == nil || !p.running.Load() {
		return
	}

	target := 0
	shortest := len(p.queues[0])
	for i := 1; i < p.workers; i++ {
		if n := len(p.queues[i]); n < shortest {
			shortest = n
			target = i
		}
	}

	p.pending.Add(1)
	select {
	case p.queues[target] <- fn:
	case <-p.done:
		p.pending.Done()
	}
}

// Wait blocks until every task submitted so far has finished.
func (p *WorkerPool) Wait() {
	p.pending.Wait()
}

// Close stops accepting work, runs what is already queued and stops all
// workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }

// Executed returns the number of tasks that have finished.
func (p *WorkerPool) Executed() uint64 { return p.executed.Load() }

// QueuedWork returns an approximate count of tasks waiting in queues.
func (p *WorkerPool) QueuedWork() int {
	total := 0
	for _, q := range p.queues {
		total += len(q)
	}
	return total
}
