// Copyright (c) 2024 Rishabh Parekh
// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

package consistenthash

import "testing"

func TestOverlayReplacerUnknownBucket(t *testing.T) {
	o := NewMementoOverlay()
	if got := o.Replacer(1); got != -1 {
		t.Errorf("Replacer(1) = %d, want -1", got)
	}
}

func TestOverlayRememberReplacer(t *testing.T) {
	o := NewMementoOverlay()
	o.Remember(1, 2, -1)
	if got := o.Replacer(1); got != 2 {
		t.Errorf("Replacer(1) = %d, want 2", got)
	}
	o.Remember(3, 4, 1)
	if got := o.Replacer(3); got != 4 {
		t.Errorf("Replacer(3) = %d, want 4", got)
	}
}

func TestOverlayRestoreEmpty(t *testing.T) {
	o := NewMementoOverlay()
	if got := o.Restore(0); got != 1 {
		t.Errorf("Restore(0) on empty overlay = %d, want 1", got)
	}
}

// TestOverlayRoundTrip checks the core invariant: Remember(b, r, p)
// followed by Restore(b) returns p, and leaves the overlay as it was before.
func TestOverlayRoundTrip(t *testing.T) {
	o := NewMementoOverlay()
	o.Remember(5, 10, -1)
	sizeBefore := o.Size()

	got := o.Restore(5)
	if got != -1 {
		t.Errorf("Restore(5) = %d, want -1", got)
	}
	if !o.IsEmpty() {
		t.Errorf("overlay not empty after restoring its only record")
	}

	o.Remember(5, 10, -1)
	if o.Size() != sizeBefore {
		t.Errorf("Size() after remember/restore/remember = %d, want %d", o.Size(), sizeBefore)
	}
}

func TestOverlayGrowsAndShrinks(t *testing.T) {
	o := NewMementoOverlay()
	initialHeads := len(o.heads)

	const n = 200
	for i := 0; i < n; i++ {
		o.Remember(i, n-1-i, i-1)
	}
	if len(o.heads) <= initialHeads {
		t.Errorf("overlay did not grow its head table after %d inserts", n)
	}
	for i := 0; i < n; i++ {
		if got := o.Replacer(i); got != n-1-i {
			t.Fatalf("Replacer(%d) = %d, want %d", i, got, n-1-i)
		}
	}

	for i := 0; i < n; i++ {
		o.Restore(i)
	}
	if !o.IsEmpty() {
		t.Errorf("overlay not empty after restoring all %d records", n)
	}
	if len(o.heads) != initialHeads {
		t.Errorf("overlay did not shrink its head table back to %d, got %d", initialHeads, len(o.heads))
	}
}
