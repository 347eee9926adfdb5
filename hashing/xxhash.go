// Copyright (c) 2024 Rishabh Parekh
// MIT License

// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

// Provides xxHash64 hashing functions. This is the default algorithm: it is
// seed-sensitive by construction and fast enough for the per-attempt rehash
// chase in the memento engine.
package hashing

import (
	"github.com/cespare/xxhash/v2"
)

type xxHash64Hash struct{}

func xxHash64Hasher() Hasher {
	return &xxHash64Hash{}
}

func (x *xxHash64Hash) hash(bytes []byte, seed uint64) uint64 {
	return xxhash.Sum64(appendSeed(bytes, seed))
}
