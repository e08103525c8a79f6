package core

// Expected-capabilities interfaces for this node's collaborators. The
// mining workflow and replication driver depend only on these; concrete
// implementations (crypto_default.go, election_default.go, p2p_libp2p.go)
// are swappable and the production node wires a different one per
// concern whose internals are out of scope for this package.

import (
	"context"
	"time"
)

// Crypto groups the cryptographic primitives the workflow consumes:
// signing, hashing, key derivation, and the per-algorithm size tables.
type Crypto interface {
	Hash(algo HashAlgo, data []byte) []byte
	Sign(priv []byte, curve CurveID, data []byte) ([]byte, error)
	Verify(pub PublicKey, sig, data []byte) bool
	DeriveKeypair(seed []byte, curve CurveID) (priv []byte, pub PublicKey, err error)
	DeriveAddress(pub PublicKey, algo HashAlgo) Address
	HashSize(id HashAlgo) (int, error)
	KeySize(id CurveID) (int, error)
	ValidAddress(a Address) bool
}

// Election resolves the committees responsible for a transaction. Its
// internals (stake weighting, geographic sharding, …) are out of scope per
// out of scope here; only the shape the worker consumes is specified.
type Election interface {
	ChainStorageNodesWithType(txAddress Address, t TransactionType, nodes []NodeID) []NodeID
	BeaconStorageNodes(subset byte, slotTime time.Time, nodes []NodeID) []NodeID
	ValidationNodesElectionSeedSorting(tx *Transaction, now time.Time, nodes []NodeID) []NodeID
}

// PendingTransactionValidation performs the node-local structural/semantic
// checks a pending transaction must pass before mining begins.
type PendingTransactionValidation interface {
	Validate(tx *Transaction) error
}

// MaliciousDetection is notified when atomic commitment fails so it can
// investigate which cross-validator(s) diverged.
type MaliciousDetection interface {
	Notify(ctx *ValidationContext, reason error)
}

// P2P is the transport collaborator: message framing and on-wire codec are
// out of scope; only the send/broadcast/membership shape the
// workflow consumes is specified.
type P2P interface {
	SendMessage(ctx context.Context, node NodeID, msg Message) (Message, error)
	BroadcastMessage(ctx context.Context, nodes []NodeID, msg Message) []BroadcastResult
	AuthorizedNodes() []NodeID
	AvailableNodes() []NodeID
	DistinctNodes(nodes []NodeID) []NodeID
}

// NodeID identifies a peer node. Its concrete form (libp2p peer.ID, public
// key hex, …) is the transport's concern; the workflow treats it opaquely.
type NodeID string

// Message is the logical envelope for one of the eight P2P message kinds
// this node needs. Framing is the transport's concern; this is
// only the logical payload the workflow exchanges.
type Message struct {
	Kind    MessageKind
	From    NodeID
	Payload interface{}
}

// BroadcastResult pairs a destination node with the outcome of sending it
// a broadcast message (used by ReplicationDriver to fan out acks).
type BroadcastResult struct {
	Node  NodeID
	Reply Message
	Err   error
}
