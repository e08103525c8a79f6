package core

// Per-subset Bloom filter, rebuilt at startup by rescanning the subset index
// files. Sized for 256-bit digests at a false-positive rate of 0.001, small
// enough that a general log-style filter (e.g. holiman/bloomfilter/v2,
// sized for whole blocks) would be the wrong tool; this is a purpose-built
// filter over a plain bitset with double hashing.

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/spaolacci/murmur3"
)

const (
	bloomBits      = 256
	bloomTargetFPP = 0.001
)

// BloomFilter is a small Bloom filter backed by bits-and-blooms/bitset,
// using the Kirsch-Mitzenmacher double-hashing scheme seeded from the two
// 64-bit halves of one murmur3 128-bit hash, so only one real hash
// computation per insert or lookup is required.
type BloomFilter struct {
	bits *bitset.BitSet
	m    uint
	k    uint
}

// NewBloomFilter returns a filter sized for m bits and the false-positive
// rate fpp, computing the optimal number of hash functions k.
func NewBloomFilter(m uint, fpp float64) *BloomFilter {
	if m == 0 {
		m = bloomBits
	}
	if fpp <= 0 || fpp >= 1 {
		fpp = bloomTargetFPP
	}
	k := uint(math.Ceil(math.Log(2) * float64(m) / optimalItemEstimate(m, fpp)))
	if k < 1 {
		k = 1
	}
	return &BloomFilter{bits: bitset.New(m), m: m, k: k}
}

// optimalItemEstimate derives an implied capacity n from m and fpp using
// the standard Bloom filter sizing formula m = -(n ln p) / (ln 2)^2, solved
// for n. It exists only to pick a sane k; it is not used elsewhere.
func optimalItemEstimate(m uint, fpp float64) float64 {
	n := -float64(m) * math.Pow(math.Log(2), 2) / math.Log(fpp)
	if n < 1 {
		n = 1
	}
	return n
}

func (f *BloomFilter) positions(data []byte) (uint, uint) {
	h1, h2 := murmur3.Sum128WithSeed(data, 0)
	return uint(h1), uint(h2)
}

// Add inserts data's digest into the filter.
func (f *BloomFilter) Add(data []byte) {
	h1, h2 := f.positions(data)
	for i := uint(0); i < f.k; i++ {
		f.bits.Set((h1 + i*h2) % f.m)
	}
}

// Test reports whether data may have been inserted. False positives are
// possible; false negatives are not.
func (f *BloomFilter) Test(data []byte) bool {
	h1, h2 := f.positions(data)
	for i := uint(0); i < f.k; i++ {
		if !f.bits.Test((h1 + i*h2) % f.m) {
			return false
		}
	}
	return true
}

// Reset clears the filter in place, used when a subset's index is rebuilt
// from scratch during startup recovery.
func (f *BloomFilter) Reset() {
	f.bits.ClearAll()
}
