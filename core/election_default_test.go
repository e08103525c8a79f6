package core

import (
	"testing"
	"time"
)

func TestDefaultElectionChainStorageNodesIsDeterministic(t *testing.T) {
	e := NewDefaultElection(NewDefaultCrypto())
	nodes := []NodeID{"node-a", "node-b", "node-c", "node-d"}
	addr := sampleAddress(1)

	first := e.ChainStorageNodesWithType(addr, TxTransfer, nodes)
	second := e.ChainStorageNodesWithType(addr, TxTransfer, nodes)
	if len(first) != len(second) {
		t.Fatalf("expected identical lengths across calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected identical ordering for the same (address, type, nodes) across calls")
		}
	}
}

func TestDefaultElectionOrderingVariesByAddress(t *testing.T) {
	e := NewDefaultElection(NewDefaultCrypto())
	nodes := []NodeID{"node-a", "node-b", "node-c", "node-d", "node-e"}

	orderA := e.ChainStorageNodesWithType(sampleAddress(1), TxTransfer, nodes)
	orderB := e.ChainStorageNodesWithType(sampleAddress(200), TxTransfer, nodes)

	identical := true
	for i := range orderA {
		if orderA[i] != orderB[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Fatalf("expected different transaction addresses to plausibly yield different orderings")
	}
}

func TestDefaultElectionPreservesNodeSet(t *testing.T) {
	e := NewDefaultElection(NewDefaultCrypto())
	nodes := []NodeID{"node-a", "node-b", "node-c"}
	ordered := e.ValidationNodesElectionSeedSorting(&Transaction{Address: sampleAddress(1)}, time.Unix(1700000000, 0), nodes)

	if len(ordered) != len(nodes) {
		t.Fatalf("expected election to preserve the candidate set size")
	}
	seen := make(map[NodeID]bool)
	for _, n := range ordered {
		seen[n] = true
	}
	for _, n := range nodes {
		if !seen[n] {
			t.Fatalf("expected every candidate node to appear in the elected ordering")
		}
	}
}

func TestDefaultElectionBeaconStorageNodesDeterministic(t *testing.T) {
	e := NewDefaultElection(NewDefaultCrypto())
	nodes := []NodeID{"node-a", "node-b", "node-c"}
	slot := time.Unix(1700000000, 0)

	first := e.BeaconStorageNodes(5, slot, nodes)
	second := e.BeaconStorageNodes(5, slot, nodes)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected deterministic beacon storage node ordering")
		}
	}
}
