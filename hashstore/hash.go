package hashstore

import (
	"github.com/spaolacci/murmur3"
)

// Algorithm selects which MurmurHash3 variant sizes the stored hash field.
// The choice is recorded implicitly by HashSize in the persisted header; no
// explicit algorithm tag is stored.
type Algorithm int

const (
	Murmur3_32 Algorithm = iota
	Murmur3_64
)

// hashSize is the on-disk width, in bytes, of the stored hash for this
// algorithm.
func (a Algorithm) hashSize() uint32 {
	if a == Murmur3_32 {
		return 4
	}
	return 8
}

// hash computes the algorithm's digest for key, seeded with seed, widened
// to a uint64 the way the stored slot hash is: zero-extended for the
// 32-bit variant, the low 64 bits (as produced by the x64-128 algorithm)
// for the 64-bit one.
func (a Algorithm) hash(key []byte, seed uint32) uint64 {
	if a == Murmur3_32 {
		return uint64(murmur3.Sum32WithSeed(key, seed))
	}
	lo, _ := murmur3.Sum128WithSeed(key, seed)
	return lo
}

func algorithmForHashSize(hashSize uint32) Algorithm {
	if hashSize == 4 {
		return Murmur3_32
	}
	return Murmur3_64
}
