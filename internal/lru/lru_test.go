// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package lru

import "testing"

func order(a *Arena[string]) []string {
	var out []string
	a.Each(func(_ int, v *string) bool {
		out = append(out, *v)
		return true
	})
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustCheck(t *testing.T, a *Arena[string]) {
	t.Helper()
	if err := a.Check(); err != nil {
		t.Fatal(err)
	}
}

func TestPushFrontUntilFull(t *testing.T) {
	a := New[string](3)
	mustCheck(t, a)

	for _, v := range []string{"a", "b", "c"} {
		if _, ok := a.PushFront(v); !ok {
			t.Fatalf("PushFront(%q) failed before capacity", v)
		}
		mustCheck(t, a)
	}
	if !a.Full() {
		t.Error("Full() = false after 3 pushes")
	}
	if _, ok := a.PushFront("d"); ok {
		t.Error("PushFront on full arena succeeded")
	}
	if got := order(a); !equal(got, []string{"c", "b", "a"}) {
		t.Errorf("order = %v, want [c b a]", got)
	}
}

func TestMoveToFront(t *testing.T) {
	a := New[string](4)
	ids := map[string]int{}
	for _, v := range []string{"a", "b", "c", "d"} {
		id, _ := a.PushFront(v)
		ids[v] = id
	}

	a.MoveToFront(ids["a"])
	mustCheck(t, a)
	if got := order(a); !equal(got, []string{"a", "d", "c", "b"}) {
		t.Errorf("after moving tail: %v", got)
	}

	a.MoveToFront(ids["c"])
	mustCheck(t, a)
	if got := order(a); !equal(got, []string{"c", "a", "d", "b"}) {
		t.Errorf("after moving middle: %v", got)
	}

	// Head is a no-op.
	a.MoveToFront(ids["c"])
	mustCheck(t, a)
	if got := order(a); !equal(got, []string{"c", "a", "d", "b"}) {
		t.Errorf("after moving head: %v", got)
	}

	oldest, _ := a.Oldest()
	if *a.Value(oldest) != "b" {
		t.Errorf("Oldest() = %q, want b", *a.Value(oldest))
	}
}

func TestRemoveRecyclesSlot(t *testing.T) {
	a := New[string](2)
	x, _ := a.PushFront("x")
	a.PushFront("y")

	v, ok := a.Remove(x)
	if !ok || v != "x" {
		t.Fatalf("Remove() = %q, %v", v, ok)
	}
	mustCheck(t, a)
	if a.Value(x) != nil {
		t.Error("Value of removed slot is not nil")
	}
	if _, ok := a.Remove(x); ok {
		t.Error("second Remove of same slot succeeded")
	}

	z, ok := a.PushFront("z")
	if !ok {
		t.Fatal("PushFront after Remove failed")
	}
	if z != x {
		t.Errorf("recycled slot id = %d, want %d", z, x)
	}
	mustCheck(t, a)
}

func TestClear(t *testing.T) {
	a := New[string](3)
	a.PushFront("a")
	a.PushFront("b")
	a.Clear()
	mustCheck(t, a)
	if a.Len() != 0 {
		t.Errorf("Len() after Clear = %d", a.Len())
	}
	if _, ok := a.Oldest(); ok {
		t.Error("Oldest() on cleared arena returned ok")
	}
	for i := 0; i < 3; i++ {
		if _, ok := a.PushFront("v"); !ok {
			t.Fatal("cleared arena lost capacity")
		}
	}
}

func TestZeroCapacity(t *testing.T) {
	a := New[string](0)
	mustCheck(t, a)
	if _, ok := a.PushFront("a"); ok {
		t.Error("PushFront on zero-capacity arena succeeded")
	}
}

func TestChurnKeepsInvariants(t *testing.T) {
	a := New[string](8)
	var live []int
	for i := 0; i < 500; i++ {
		switch {
		case i%3 == 0 && len(live) > 0:
			id := live[i%len(live)]
			a.MoveToFront(id)
		case a.Full():
			old, _ := a.Oldest()
			a.Remove(old)
			for j, id := range live {
				if id == old {
					live = append(live[:j], live[j+1:]...)
					break
				}
			}
		default:
			id, _ := a.PushFront("v")
			live = append(live, id)
		}
		if err := a.Check(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if a.Len() != len(live) {
			t.Fatalf("step %d: Len() = %d, tracked %d", i, a.Len(), len(live))
		}
	}
}

func BenchmarkMoveToFront(b *testing.B) {
	a := New[int](1024)
	for i := 0; i < 1024; i++ {
		a.PushFront(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.MoveToFront(i % 1024)
	}
}
