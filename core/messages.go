package core

// The eight logical P2P messages consumed/produced by the MiningWorker and
// ReplicationDriver. Framing is the transport's concern; these are the
// payload shapes exchanged over the P2P interface's Message envelope.

// MessageKind tags a Message's payload type.
type MessageKind byte

const (
	KindAddMiningContext MessageKind = iota
	KindCrossValidate
	KindCrossValidationDone
	KindReplicateTransactionChain
	KindAcknowledgeStorage
	KindError
	KindReplicateTransaction
	KindReplicationAttestation
)

// AddMiningContext serves two purposes with the same shape: a previous
// storage node's reply to TransactionContextFetcher's context query (a
// node's unspent outputs, the last transaction it chained, and its public
// keys), and a cross-validator's report of its own view of storage-node
// availability back to the coordinator.
type AddMiningContext struct {
	TxAddress                      Address
	ValidatorPublicKey             PublicKey
	PreviousStorageNodesPublicKeys []PublicKey
	ChainStorageNodesView          Bitstring
	BeaconStorageNodesView         Bitstring
	UnspentOutputs                 []UnspentOutput
	PreviousTransaction            *Transaction
}

// CrossValidate is broadcast by the coordinator to confirmed
// cross-validators once the validation stamp is ready.
type CrossValidate struct {
	TxAddress                Address
	Transaction              Transaction
	CoordinatorPublicKey     PublicKey
	CoordinatorNodeID        NodeID
	ValidationNodes          []NodeID
	ChainStorageNodes        []NodeID
	BeaconStorageNodes       []NodeID
	IOStorageNodes           []NodeID
	ValidationStamp          ValidationStamp
	ReplicationTree          ReplicationTree
	ConfirmedValidationNodes Bitstring
}

// CrossValidationDone is broadcast by a cross-validator to the coordinator
// and its peers once it has computed its own cross-validation stamp.
type CrossValidationDone struct {
	TxAddress            Address
	CrossValidationStamp CrossValidationStamp
}

// ReplicateTransactionChain is sent to chain-storage replicas, requesting a
// signed storage acknowledgement.
type ReplicateTransactionChain struct {
	Transaction Transaction
	AckStorage  bool
}

// AcknowledgeStorage is a replica's signed confirmation that it persisted
// the validated transaction.
type AcknowledgeStorage struct {
	Signature []byte
}

// ErrorMessage is a replica's rejection of a replication request. It
// is named ErrorMessage, not Error, so it does not implement the error
// interface by accident.
type ErrorMessage struct {
	Reason string
}

// ReplicateTransaction is sent to I/O replication nodes, which store the
// transaction without returning a storage acknowledgement.
type ReplicateTransaction struct {
	Transaction Transaction
}

// ReplicationAttestation is broadcast to the welcome node and beacon
// storage nodes once enough chain-storage replicas have acknowledged
// persistence.
type ReplicationAttestation struct {
	TransactionSummary TransactionSummary
	Confirmations      []StorageConfirmation
}

// StorageConfirmation pairs an elected replica's index with its verified
// storage-acknowledgement signature.
type StorageConfirmation struct {
	NodeIndex int
	Signature []byte
}

// ReplicationTree partitions the replica set into chain/beacon/io shares,
// each a list of bitstring masks (one per validation node) indicating
// which replicas that validator is responsible for forwarding to.
type ReplicationTree struct {
	Chain  []Bitstring
	Beacon []Bitstring
	IO     []Bitstring
}
