// Copyright (c) 2024 Rishabh Parekh
// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

package binomial

import (
	"strconv"
	"testing"

	"mementolb/hashing"
)

func TestHighestOneBit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 4},
		{5, 4},
		{1023, 512},
		{1024, 1024},
	}
	for _, tt := range tests {
		if got := highestOneBit(tt.in); got != tt.want {
			t.Errorf("highestOneBit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNewEngineFilters(t *testing.T) {
	tests := []struct {
		size                        int
		wantEnclosing, wantMinor int
	}{
		{1, 0, 0},
		{2, 1, 0},
		{3, 3, 1},
		{4, 3, 1},
		{5, 7, 3},
		{8, 7, 3},
	}
	hashFn := hashing.NewHashFunction(hashing.DefaultHashAlgorithm)
	for _, tt := range tests {
		e := NewEngine(tt.size, hashFn)
		if e.EnclosingFilter() != tt.wantEnclosing || e.MinorFilter() != tt.wantMinor {
			t.Errorf("NewEngine(%d): filters = (%d, %d), want (%d, %d)",
				tt.size, e.EnclosingFilter(), e.MinorFilter(), tt.wantEnclosing, tt.wantMinor)
		}
	}
}

// TestGetBucketTotality checks the totality property: for every size
// reached by a sequence of AddBucket calls, GetBucket must always return
// an index in [0, size).
func TestGetBucketTotality(t *testing.T) {
	hashFn := hashing.NewHashFunction(hashing.DefaultHashAlgorithm)
	e := NewEngine(1, hashFn)

	for n := 1; n <= 200; n++ {
		for i := 0; i < 500; i++ {
			key := "key-" + strconv.Itoa(i) + "-size-" + strconv.Itoa(n)
			b := e.GetBucket(key)
			if b < 0 || b >= e.Size() {
				t.Fatalf("GetBucket(%q) = %d out of range [0, %d) at size %d", key, b, e.Size(), n)
			}
		}
		e.AddBucket()
	}
}

func TestAddRemoveBucketRoundTrip(t *testing.T) {
	hashFn := hashing.NewHashFunction(hashing.DefaultHashAlgorithm)
	e := NewEngine(1, hashFn)

	for i := 0; i < 50; i++ {
		e.AddBucket()
	}
	if e.Size() != 51 {
		t.Fatalf("Size() = %d, want 51", e.Size())
	}
	for i := 0; i < 50; i++ {
		e.RemoveBucket()
	}
	if e.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", e.Size())
	}
	if e.EnclosingFilter() != 0 || e.MinorFilter() != 0 {
		t.Fatalf("filters after shrink back to 1 = (%d, %d), want (0, 0)",
			e.EnclosingFilter(), e.MinorFilter())
	}
}

func TestAddBucketReturnsSequentialIndices(t *testing.T) {
	hashFn := hashing.NewHashFunction(hashing.DefaultHashAlgorithm)
	e := NewEngine(1, hashFn)

	for want := 1; want < 10; want++ {
		got := e.AddBucket()
		if got != want {
			t.Errorf("AddBucket() = %d, want %d", got, want)
		}
	}
}

func TestGetBucketDistributesAcrossAllBuckets(t *testing.T) {
	hashFn := hashing.NewHashFunction(hashing.DefaultHashAlgorithm)
	e := NewEngine(1, hashFn)
	for i := 0; i < 5; i++ {
		e.AddBucket()
	}

	hit := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		b := e.GetBucket("key-" + strconv.Itoa(i))
		hit[b] = true
	}
	if len(hit) != 6 {
		t.Errorf("expected all 6 buckets to be hit, got %d distinct buckets: %v", len(hit), hit)
	}
}
