// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package lru provides a fixed-capacity arena of slots threaded on two
// intrusive chains: a doubly-linked recency chain and a free chain.
//
// Slots are addressed by a stable integer id instead of pointers, so a slot
// id handed out by PushFront stays valid until the slot is removed. Every
// slot is on exactly one of the two chains at all times.
//
// The arena is not thread-safe; callers must handle synchronization.
package lru

import "fmt"

// none marks the end of a chain.
const none = -1

// slot is one arena cell.
type slot[T any] struct {
	value  T
	prev   int
	next   int
	active bool // on the recency chain
}

// Arena is a bounded LRU list of values of type T.
//
// The head is the most recently used, tail is least recently used.
type Arena[T any] struct {
	slots []slot[T]
	head  int
	tail  int
	free  int
	len   int
}

// New creates an arena with room for capacity values.
func New[T any](capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	a := &Arena[T]{slots: make([]slot[T], capacity)}
	a.Clear()
	return a
}

// Len returns the number of values on the recency chain.
func (a *Arena[T]) Len() int { return a.len }

// Cap returns the fixed capacity of the arena.
func (a *Arena[T]) Cap() int { return len(a.slots) }

// Full reports whether every slot is in use.
func (a *Arena[T]) Full() bool { return a.len == len(a.slots) }

// PushFront takes a slot from the free chain, stores v in it and links it at
// the front. It returns false if no slot is free.
func (a *Arena[T]) PushFront(v T) (int, bool) {
	if a.free == none {
		return none, false
	}

	id := a.free
	s := &a.slots[id]
	a.free = s.next

	s.value = v
	s.active = true
	a.linkFront(id)
	a.len++
	return id, true
}

// MoveToFront moves an active slot to the front (most recently used).
// Moving the current head is a no-op.
func (a *Arena[T]) MoveToFront(id int) {
	if id == a.head || !a.valid(id) {
		return
	}
	a.unlink(id)
	a.linkFront(id)
}

// Remove unlinks an active slot, returns it to the free chain and returns
// the value it held.
func (a *Arena[T]) Remove(id int) (T, bool) {
	var zero T
	if !a.valid(id) {
		return zero, false
	}

	a.unlink(id)
	s := &a.slots[id]
	v := s.value
	s.value = zero
	s.active = false
	s.prev = none
	s.next = a.free
	a.free = id
	a.len--
	return v, true
}

// Oldest returns the id of the least recently used slot.
func (a *Arena[T]) Oldest() (int, bool) {
	return a.tail, a.tail != none
}

// Front returns the id of the most recently used slot.
func (a *Arena[T]) Front() (int, bool) {
	return a.head, a.head != none
}

// Value returns a pointer to the value held by an active slot, or nil.
func (a *Arena[T]) Value(id int) *T {
	if !a.valid(id) {
		return nil
	}
	return &a.slots[id].value
}

// Each calls fn for every active slot from most to least recently used,
// stopping early if fn returns false.
func (a *Arena[T]) Each(fn func(id int, v *T) bool) {
	for id := a.head; id != none; id = a.slots[id].next {
		if !fn(id, &a.slots[id].value) {
			return
		}
	}
}

// Clear returns every slot to the free chain in id order.
func (a *Arena[T]) Clear() {
	var zero T
	for i := range a.slots {
		a.slots[i] = slot[T]{value: zero, prev: none, next: i + 1}
	}
	a.free = none
	if len(a.slots) > 0 {
		a.slots[len(a.slots)-1].next = none
		a.free = 0
	}
	a.head = none
	a.tail = none
	a.len = 0
}

// Check verifies the chain invariants: the recency chain is consistently
// doubly linked and holds exactly Len active slots, and the free chain holds
// the rest.
func (a *Arena[T]) Check() error {
	seen := make([]bool, len(a.slots))

	n := 0
	prev := none
	for id := a.head; id != none; id = a.slots[id].next {
		if seen[id] {
			return fmt.Errorf("lru: slot %d linked twice on recency chain", id)
		}
		seen[id] = true
		s := a.slots[id]
		if !s.active {
			return fmt.Errorf("lru: inactive slot %d on recency chain", id)
		}
		if s.prev != prev {
			return fmt.Errorf("lru: slot %d prev = %d, want %d", id, s.prev, prev)
		}
		prev = id
		n++
	}
	if prev != a.tail {
		return fmt.Errorf("lru: tail = %d, chain ends at %d", a.tail, prev)
	}
	if n != a.len {
		return fmt.Errorf("lru: recency chain has %d slots, len = %d", n, a.len)
	}

	f := 0
	for id := a.free; id != none; id = a.slots[id].next {
		if seen[id] {
			return fmt.Errorf("lru: slot %d on both chains", id)
		}
		seen[id] = true
		if a.slots[id].active {
			return fmt.Errorf("lru: active slot %d on free chain", id)
		}
		f++
	}
	if n+f != len(a.slots) {
		return fmt.Errorf("lru: %d active + %d free != capacity %d", n, f, len(a.slots))
	}
	return nil
}

// valid reports whether id addresses an active slot.
func (a *Arena[T]) valid(id int) bool {
	return id >= 0 && id < len(a.slots) && a.slots[id].active
}

// linkFront inserts an unlinked slot at the head.
func (a *Arena[T]) linkFront(id int) {
	s := &a.slots[id]
	s.prev = none
	s.next = a.head
	if a.head != none {
		a.slots[a.head].prev = id
	}
	a.head = id
	if a.tail == none {
		a.tail = id
	}
}

// unlink removes an active slot from the recency chain without touching
// the length or the free chain.
func (a *Arena[T]) unlink(id int) {
	s := &a.slots[id]
	if s.prev != none {
		a.slots[s.prev].next = s.next
	} else {
		a.head = s.next
	}

	if s.next != none {
		a.slots[s.next].prev = s.prev
	} else {
		a.tail = s.prev
	}

	s.prev = none
	s.next = none
}
