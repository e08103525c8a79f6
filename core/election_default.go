package core

// DefaultElection is a deterministic stand-in for the committee-selection
// collaborator. Its weighting scheme (stake, geography,
// availability history, …) is explicitly out of scope; what
// matters to the workflow is that the same (seed, candidate set) always
// yields the same ordering, since ValidationContext and ReplicationDriver
// depend on every node re-deriving an identical committee independently.

import (
	"encoding/binary"
	"sort"
	"time"
)

// DefaultElection implements Election using seeded hashing instead of a
// real stake/availability model.
type DefaultElection struct {
	crypto Crypto
}

// NewDefaultElection returns a deterministic Election backed by crypto's
// hash function.
func NewDefaultElection(crypto Crypto) *DefaultElection {
	return &DefaultElection{crypto: crypto}
}

func (e *DefaultElection) score(seed []byte, node NodeID) uint64 {
	digest := e.crypto.Hash(HashSHA256, append(append([]byte{}, seed...), []byte(node)...))
	return binary.BigEndian.Uint64(digest[:8])
}

func sortBySeed(seed []byte, e *DefaultElection, nodes []NodeID) []NodeID {
	out := make([]NodeID, len(nodes))
	copy(out, nodes)
	scores := make(map[NodeID]uint64, len(out))
	for _, n := range out {
		scores[n] = e.score(seed, n)
	}
	sort.Slice(out, func(i, j int) bool { return scores[out[i]] < scores[out[j]] })
	return out
}

// ChainStorageNodesWithType elects the replicas responsible for persisting
// a transaction's chain, seeded by the transaction's address and type so
// that every node re-derives the same elected set.
func (e *DefaultElection) ChainStorageNodesWithType(txAddress Address, t TransactionType, nodes []NodeID) []NodeID {
	seed := append(append([]byte{}, txAddress...), byte(t))
	return sortBySeed(seed, e, nodes)
}

// BeaconStorageNodes elects the replicas responsible for a subset's beacon
// summary at slotTime.
func (e *DefaultElection) BeaconStorageNodes(subset byte, slotTime time.Time, nodes []NodeID) []NodeID {
	seed := []byte{subset}
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(slotTime.Unix()))
	seed = append(seed, tsBuf[:]...)
	return sortBySeed(seed, e, nodes)
}

// ValidationNodesElectionSeedSorting orders the candidate validation nodes
// for tx at now, the ordering the coordinator uses to assign cross
// validator roles.
func (e *DefaultElection) ValidationNodesElectionSeedSorting(tx *Transaction, now time.Time, nodes []NodeID) []NodeID {
	seed := append([]byte{}, tx.Address...)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(now.Unix()))
	seed = append(seed, tsBuf[:]...)
	return sortBySeed(seed, e, nodes)
}
