// Copyright (c) 2024 Rishabh Parekh
// MIT License

// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

// Implementation of the BinomialHash consistent hashing algorithm.
// https://arxiv.org/abs/2406.19836
package binomial

import (
	"fmt"

	"mementolb/hashing"
)

// Engine computes bucket(key) in [0, size) using two adjacent power-of-two
// levels (the enclosing and minor filters) and a bounded rehash chain.
// Engine only ever grows or shrinks at the tail; non-tail removal is the
// overlay's job, one layer up.
type Engine struct {
	size int

	// enclosingFilter and minorFilter describe the smallest power-of-two
	// envelope around size: enclosingFilter = 2^ceil(log2(size)) - 1,
	// minorFilter = enclosingFilter >> 1.
	enclosingFilter int
	minorFilter     int

	hashFn hashing.HashFunction
}

// rehashConstant is the multiplier of the linear congruential mixer used to
// scatter a bucket/seed pair into a new 64-bit value.
const rehashConstant uint64 = 2862933555777941757

// NewEngine creates a BinomialEngine with the given initial working-set size.
func NewEngine(size int, hashFn hashing.HashFunction) *Engine {
	hob := highestOneBit(size)
	if size > hob {
		hob <<= 1
	}

	enclosingFilter := hob - 1
	return &Engine{
		size:            size,
		enclosingFilter: enclosingFilter,
		minorFilter:     enclosingFilter >> 1,
		hashFn:          hashFn,
	}
}

// highestOneBit returns the largest power of two <= i, or 0 if i <= 0.
func highestOneBit(i int) int {
	if i <= 0 {
		return 0
	}
	hob := 1
	for hob <= i {
		hob <<= 1
	}
	return hob >> 1
}

// rehash is a linear congruential mixer: h' = ((C*v + 1)^2 * seed) >> 32,
// computed over unsigned 64-bit arithmetic with a logical right shift.
func rehash(value, seed int64) int64 {
	h := rehashConstant*uint64(value) + 1
	return int64((h * h * uint64(seed)) >> 32)
}

// relocateWithinLevel maps bucket to a uniformly chosen position within its
// own binary-tree level (the power-of-two span it currently falls in).
func relocateWithinLevel(bucket int, hash int64) int {
	if bucket < 2 {
		return bucket
	}

	levelBase := highestOneBit(bucket)
	levelFilter := levelBase - 1

	levelHash := rehash(hash, int64(levelFilter))
	levelIndex := int(uint64(levelHash) & uint64(levelFilter))

	return levelBase + levelIndex
}

// GetBucket returns the bucket in [0, size) that key maps to. The result is
// total: for any finite hash value there is always a valid bucket, by
// construction of the two-level filter scheme plus the bounded rehash escape.
func (e *Engine) GetBucket(key string) int {
	if e.size < 2 {
		return 0
	}

	hash := e.hashFn.Hash([]byte(key), 0)
	bucket := int(uint64(hash) & uint64(e.enclosingFilter))
	bucket = relocateWithinLevel(bucket, hash)

	if bucket < e.size {
		return bucket
	}

	h := hash
	for i := 0; i < 4; i++ {
		h = rehash(h, int64(e.enclosingFilter))
		bucket = int(uint64(h) & uint64(e.enclosingFilter))

		if bucket <= e.minorFilter {
			break
		}
		if bucket < e.size {
			return bucket
		}
	}

	bucket = int(uint64(hash) & uint64(e.minorFilter))
	return relocateWithinLevel(bucket, hash)
}

// AddBucket grows the working set by one and returns the index of the new
// tail bucket (the prior size).
func (e *Engine) AddBucket() int {
	newBucket := e.size
	e.size++
	if e.size > e.enclosingFilter+1 {
		e.minorFilter = e.enclosingFilter
		e.enclosingFilter = (e.enclosingFilter << 1) | 1
	}
	return newBucket
}

// RemoveBucket shrinks the working set by one (always at the tail) and
// returns the new size.
func (e *Engine) RemoveBucket() int {
	e.size--
	if e.size <= e.minorFilter+1 {
		e.minorFilter >>= 1
		e.enclosingFilter >>= 1
	}
	return e.size
}

// Size returns the current number of working buckets.
func (e *Engine) Size() int {
	return e.size
}

// EnclosingFilter returns the outer power-of-two-minus-one filter.
func (e *Engine) EnclosingFilter() int {
	return e.enclosingFilter
}

// MinorFilter returns the inner power-of-two-minus-one filter.
func (e *Engine) MinorFilter() int {
	return e.minorFilter
}

func (e *Engine) String() string {
	return fmt.Sprintf("BinomialEngine{size: %d, enclosingFilter: %d, minorFilter: %d}",
		e.size, e.enclosingFilter, e.minorFilter)
}
