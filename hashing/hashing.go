// Copyright (c) 2024 Rishabh Parekh
// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

// Hashing functions used for consistent hashing algorithm
package hashing

import (
	"encoding/binary"
)

type HashAlgorithm int

const (
	XXHash64 HashAlgorithm = iota
	CRC32
	MD5
	SHA256
)

var hashAlgorithmNames = map[HashAlgorithm]string{
	XXHash64: "xxhash64",
	CRC32:    "crc32",
	MD5:      "md5",
	SHA256:   "sha256",
}

const (
	// DefaultHashAlgorithm is the default hashing algorithm used by the consistent hash ring.
	// xxHash64 is fast enough for per-key rehashing in the memento chase loop; like the
	// other algorithms here, it takes the seed through appendSeed.
	DefaultHashAlgorithm = XXHash64
)

// HashFunction is the pure keyed hash contract consumed by the binomial
// engine, the memento overlay and the memento engine: hash(key, seed) -> int64.
type HashFunction interface {
	Hash(bytes []byte, seed uint64) int64
}

// Hasher is the low-level, per-algorithm hash primitive. Implementations fold
// seed into the digest input so that different seeds produce independent outputs.
type Hasher interface {
	hash(bytes []byte, seed uint64) uint64
}

// HashFn is the keyed HashFunction contract consumed by the binomial engine,
// the memento overlay and the memento engine: a deterministic, seed-sensitive
// 64-bit hash of (key, seed).
type HashFn struct {
	hashAlgo HashAlgorithm
	Hasher
}

// Hash returns a 64-bit hash of bytes salted with seed, as a signed value
// (the rehash/relocation arithmetic operates on the raw bit pattern).
func (h HashFn) Hash(bytes []byte, seed uint64) int64 {
	return int64(h.hash(bytes, seed))
}

// HashString is a convenience wrapper around Hash for unseeded string keys.
func (h HashFn) HashString(input string) uint64 {
	return h.hash([]byte(input), 0)
}

// HashStringWithSeed is a convenience wrapper around Hash for seeded string keys.
func (h HashFn) HashStringWithSeed(input string, seed int) uint64 {
	return h.hash([]byte(input), uint64(seed))
}

func (h HashFn) String() string {
	return hashAlgorithmNames[h.hashAlgo]
}

// appendSeed folds a seed into key by appending it as 8 big-endian bytes.
// Every Hasher in this package seeds its input this way.
func appendSeed(key []byte, seed uint64) []byte {
	seedBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seedBytes, seed)
	combined := make([]byte, 0, len(key)+len(seedBytes))
	combined = append(combined, key...)
	combined = append(combined, seedBytes...)
	return combined
}

func NewHashFunction(algorithm HashAlgorithm) HashFn {
	var hasher Hasher
	switch algorithm {
	case XXHash64:
		hasher = xxHash64Hasher()
	case CRC32:
		hasher = crc32Hasher()
	case MD5:
		hasher = md5Hasher()
	case SHA256:
		hasher = sha256Hasher()
	default:
		hasher = xxHash64Hasher()
	}
	return HashFn{hashAlgo: algorithm, Hasher: hasher}
}
