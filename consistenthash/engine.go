// Copyright (c) 2024 Rishabh Parekh
// MIT License

// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

// MementoEngine composes a BinomialEngine with a MementoOverlay to support
// removing arbitrary, non-tail buckets with minimal key disruption.
package consistenthash

import (
	"fmt"

	"mementolb/binomial"
	"mementolb/hashing"
)

// MementoEngine is a ConsistentHasher built from a BinomialEngine (which only
// ever grows or shrinks at the tail) and a MementoOverlay (which remembers
// non-tail removals and redirects keys that still hash into them).
type MementoEngine struct {
	binomial    *binomial.Engine
	overlay     *MementoOverlay
	lastRemoved int
	hashFn      hashing.HashFunction
}

// NewMementoEngine creates a memento engine with the given initial working
// set size.
func NewMementoEngine(initialSize int, hashFn hashing.HashFunction) *MementoEngine {
	return &MementoEngine{
		binomial:    binomial.NewEngine(initialSize, hashFn),
		overlay:     NewMementoOverlay(),
		lastRemoved: initialSize,
		hashFn:      hashFn,
	}
}

// GetBucket returns the working-set bucket key maps to. If the binomial
// engine's raw result has since been removed, the key is rehashed into the
// working set that existed at the moment of that removal, chasing any
// further removals until a live bucket is reached.
func (m *MementoEngine) GetBucket(key string) int {
	b := m.binomial.GetBucket(key)

	replacer := m.overlay.Replacer(b)
	for replacer >= 0 {
		// b was removed; replacer is also the size of the working set at
		// the moment of removal, so rehash into [0, replacer).
		h := m.hashFn.Hash([]byte(key), uint64(b))
		if h < 0 {
			h = -h
		}
		b = int(uint64(h) % uint64(replacer))

		// Follow the replacement chain if we land on a bucket removed after
		// the one we started from.
		r := m.overlay.Replacer(b)
		for r >= replacer {
			b = r
			r = m.overlay.Replacer(b)
		}
		replacer = r
	}
	return b
}

// AddBucket restores the last removed bucket (or grows the tail, if nothing
// has ever been removed) and returns its index.
func (m *MementoEngine) AddBucket() int {
	bucket := m.lastRemoved
	m.lastRemoved = m.overlay.Restore(bucket)

	if m.binomial.Size() <= bucket {
		m.binomial.AddBucket()
	}
	return bucket
}

// RemoveBucket removes bucket from the working set. A tail removal made while
// the overlay is empty shrinks the underlying binomial engine directly; any
// other removal is recorded in the overlay only.
func (m *MementoEngine) RemoveBucket(bucket int) int {
	if bucket < 0 || bucket >= m.binomial.Size() {
		panic(fmt.Sprintf("consistenthash: RemoveBucket(%d) out of range [0, %d)", bucket, m.binomial.Size()))
	}
	if !m.overlay.IsEmpty() && m.overlay.Replacer(bucket) >= 0 {
		panic(fmt.Sprintf("consistenthash: RemoveBucket(%d) already removed", bucket))
	}

	if m.overlay.IsEmpty() && bucket == m.binomial.Size()-1 {
		m.binomial.RemoveBucket()
		m.lastRemoved = bucket
		return bucket
	}

	m.lastRemoved = m.overlay.Remember(bucket, m.Size()-1, m.lastRemoved)
	return bucket
}

// Size returns the working-set size: binomial.Size() - overlay.Size().
func (m *MementoEngine) Size() int {
	return m.binomial.Size() - m.overlay.Size()
}

func (m *MementoEngine) String() string {
	return fmt.Sprintf("MementoEngine{%s, lastRemoved: %d, removed: %d}",
		m.binomial, m.lastRemoved, m.overlay.Size())
}
