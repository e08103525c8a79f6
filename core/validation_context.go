package core

// ValidationContext is the pure, immutable accumulator a mining worker
// folds incoming messages into as a transaction moves through coordinator
// and cross-validation. Every With* method returns a new value
// rather than mutating in place, so a ValidationContext needs no lock of
// its own: the worker swaps the pointer it holds (under the worker's own
// mutex) on every transition.

import "time"

// ValidationContext accumulates one transaction's progress through mining.
type ValidationContext struct {
	TxAddress Address
	Tx        *Transaction

	CoordinatorPublicKey PublicKey
	ValidationNodes      []NodeID
	ConfirmedValidators  Bitstring

	ChainStorageNodes  []NodeID
	BeaconStorageNodes []NodeID
	IOStorageNodes     []NodeID
	PreviousStorageNodesPublicKeys []PublicKey

	UnspentOutputs      []UnspentOutput
	PreviousTransaction *Transaction

	ValidationStamp       *ValidationStamp
	CrossValidationStamps []CrossValidationStamp
	ReplicationTree       ReplicationTree

	StorageConfirmations []StorageConfirmation
	RequiredStorageQuorum int // 0 means "all elected chain-storage replicas"

	StartedAt time.Time
}

// NewValidationContext seeds the accumulator for a newly admitted
// transaction, before any validator has confirmed participation.
func NewValidationContext(tx *Transaction, coordinator PublicKey, validationNodes []NodeID, startedAt time.Time) *ValidationContext {
	return &ValidationContext{
		TxAddress:            tx.Address,
		Tx:                   tx,
		CoordinatorPublicKey: coordinator,
		ValidationNodes:      validationNodes,
		ConfirmedValidators:  NewBitstring(len(validationNodes)),
		StartedAt:            startedAt,
	}
}

// WithConfirmedValidator returns a copy with the validator at index marked
// as having joined cross validation.
func (c ValidationContext) WithConfirmedValidator(index int) *ValidationContext {
	next := c
	confirmed := c.ConfirmedValidators.Clone()
	confirmed.Set(index)
	next.ConfirmedValidators = confirmed
	return &next
}

// WithStorageNodes returns a copy recording the elected chain/beacon
// storage replicas and the previous storage nodes' public keys gathered
// from cross validators.
func (c ValidationContext) WithStorageNodes(chain, beacon []NodeID, previousKeys []PublicKey) *ValidationContext {
	next := c
	next.ChainStorageNodes = chain
	next.BeaconStorageNodes = beacon
	next.PreviousStorageNodesPublicKeys = previousKeys
	return &next
}

// WithValidationStamp returns a copy carrying the coordinator's computed
// validation stamp, replication tree, and the I/O replication nodes elected
// alongside it.
func (c ValidationContext) WithValidationStamp(stamp ValidationStamp, tree ReplicationTree, ioNodes []NodeID) *ValidationContext {
	next := c
	next.ValidationStamp = &stamp
	next.ReplicationTree = tree
	next.IOStorageNodes = ioNodes
	return &next
}

// WithChainContext returns a copy carrying the unspent outputs and previous
// transaction gathered from this chain's previous storage nodes.
func (c ValidationContext) WithChainContext(unspentOutputs []UnspentOutput, previousTx *Transaction) *ValidationContext {
	next := c
	next.UnspentOutputs = unspentOutputs
	next.PreviousTransaction = previousTx
	return &next
}

// WithCrossValidationStamp returns a copy with stamp appended, received
// from a cross validator.
func (c ValidationContext) WithCrossValidationStamp(stamp CrossValidationStamp) *ValidationContext {
	next := c
	next.CrossValidationStamps = append(append([]CrossValidationStamp{}, c.CrossValidationStamps...), stamp)
	return &next
}

// WithStorageConfirmation returns a copy with a replica's storage
// acknowledgement recorded.
func (c ValidationContext) WithStorageConfirmation(confirmation StorageConfirmation) *ValidationContext {
	next := c
	next.StorageConfirmations = append(append([]StorageConfirmation{}, c.StorageConfirmations...), confirmation)
	return &next
}

// EnoughConfirmations reports whether every elected validation node has
// confirmed participation.
func (c *ValidationContext) EnoughConfirmations() bool {
	return c.ConfirmedValidators.Count() == len(c.ValidationNodes)
}

// EnoughCrossValidationStamps reports whether every confirmed validator
// has returned a cross-validation stamp.
func (c *ValidationContext) EnoughCrossValidationStamps() bool {
	return len(c.CrossValidationStamps) >= c.ConfirmedValidators.Count()
}

// AtomicCommitment reports whether every received cross-validation stamp
// agrees the validation stamp is affirmative: unanimous consensus, the
// condition that must hold before replication begins.
func (c *ValidationContext) AtomicCommitment() bool {
	if len(c.CrossValidationStamps) == 0 {
		return false
	}
	for _, s := range c.CrossValidationStamps {
		if !s.Affirmative() {
			return false
		}
	}
	return true
}

// EnoughStorageConfirmations reports whether enough chain-storage
// replicas have acknowledged persistence to close replication.
func (c *ValidationContext) EnoughStorageConfirmations() bool {
	quorum := c.RequiredStorageQuorum
	if quorum <= 0 {
		quorum = len(c.ChainStorageNodes)
	}
	return len(c.StorageConfirmations) >= quorum
}
