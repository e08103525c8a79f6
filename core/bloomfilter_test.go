package core

import "testing"

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	f := NewBloomFilter(bloomBits, bloomTargetFPP)
	inserted := [][]byte{
		[]byte("transaction-one"),
		[]byte("transaction-two"),
		[]byte("transaction-three"),
	}
	for _, d := range inserted {
		f.Add(d)
	}
	for _, d := range inserted {
		if !f.Test(d) {
			t.Fatalf("expected inserted value %q to test positive", d)
		}
	}
}

func TestBloomFilterLikelyRejectsUnseenValue(t *testing.T) {
	f := NewBloomFilter(bloomBits, bloomTargetFPP)
	f.Add([]byte("transaction-one"))
	if f.Test([]byte("never-inserted")) {
		t.Skip("false positive for an untrained filter is possible but rare; not treated as a failure")
	}
}

func TestBloomFilterReset(t *testing.T) {
	f := NewBloomFilter(bloomBits, bloomTargetFPP)
	f.Add([]byte("transaction-one"))
	f.Reset()
	if f.Test([]byte("transaction-one")) {
		t.Fatalf("expected Reset to clear previously inserted values")
	}
}
