package core

import "time"

// TransactionType enumerates the transaction variants this node mines.
type TransactionType byte

const (
	TxTransfer TransactionType = iota
	TxNode
	TxNodeSharedSecrets
	TxBeacon
	TxCodeApproval
	TxToken
	TxContract
	TxOracle
	TxData
)

var txTypeNames = map[TransactionType]string{
	TxTransfer:          "transfer",
	TxNode:              "node",
	TxNodeSharedSecrets: "node_shared_secrets",
	TxBeacon:            "beacon",
	TxCodeApproval:      "code_approval",
	TxToken:             "token",
	TxContract:          "contract",
	TxOracle:            "oracle",
	TxData:              "data",
}

// String renders the type's on-disk/index name, used for the per-type
// index file name.
func (t TransactionType) String() string {
	if n, ok := txTypeNames[t]; ok {
		return n
	}
	return "unknown"
}

// TransferMovement is a single UCO/token transfer within the ledger of a
// transaction's data.
type TransferMovement struct {
	To     Address
	Amount uint64
	TokenID string // empty for the native UCO asset
}

// Ownership grants one or more authorized public keys access to a secret
// stored within a transaction (key renewal, shared secrets, …).
type Ownership struct {
	Secret               []byte
	AuthorizedPublicKeys []PublicKey
}

// TransactionData holds the transaction's content and optional payloads.
type TransactionData struct {
	Content    []byte
	Code       []byte
	Ledger     []TransferMovement
	Ownerships []Ownership
}

// Transaction is the unit mined and persisted by this node.
type Transaction struct {
	Address           Address
	PreviousPublicKey PublicKey
	Type              TransactionType
	Data              TransactionData

	PreviousSignature []byte
	OriginSignature   []byte

	ValidationStamp       *ValidationStamp
	CrossValidationStamps []CrossValidationStamp
}

// NodeMovement records a change to a node's stake/reward balance produced
// while applying a transaction's ledger operations.
type NodeMovement struct {
	To     PublicKey
	Amount uint64
}

// UnspentOutput is one spendable output of a chain, as tracked for the
// previous address fetched by the TransactionContextFetcher.
type UnspentOutput struct {
	From      Address
	Amount    uint64
	TokenID   string
	Timestamp time.Time
}

// LedgerOperations is the effect of a transaction on the ledger, computed
// by the coordinator while building the validation stamp.
type LedgerOperations struct {
	Fee                 uint64
	TransactionMovements []TransferMovement
	UnspentOutputs      []UnspentOutput
	NodeMovements       []NodeMovement
}

// ValidationStamp is the coordinator-signed attestation that a transaction
// passed validation.
type ValidationStamp struct {
	Timestamp        time.Time
	ProofOfWork      PublicKey // the origin key that verified origin_signature
	ProofOfIntegrity []byte    // hash chain of this tx + prior
	ProofOfElection  []byte    // deterministic election seed
	LedgerOperations LedgerOperations
	Signature        []byte // coordinator's signature over the above
}

// CrossValidationStamp is a cross-validator's signed agreement (or
// disagreement) with a ValidationStamp.
type CrossValidationStamp struct {
	SignerPublicKey PublicKey
	Signature       []byte
	Inconsistencies []Inconsistency
}

// Affirmative reports whether this stamp carries no reported
// inconsistencies.
func (s CrossValidationStamp) Affirmative() bool {
	return len(s.Inconsistencies) == 0
}

// Inconsistency names one way a cross-validator's recomputation diverged
// from the coordinator's validation stamp.
type Inconsistency string

const (
	InconsistencySignature       Inconsistency = "signature"
	InconsistencyMovements       Inconsistency = "movements"
	InconsistencyProofOfWork     Inconsistency = "proof_of_work"
	InconsistencyProofOfIntegrity Inconsistency = "proof_of_integrity"
	InconsistencyProofOfElection Inconsistency = "proof_of_election"
	InconsistencyTimestamp       Inconsistency = "timestamp"
)

// TransactionSummary is the bounded-size serialization of a validated
// transaction used for storage-acknowledgement signatures, so a
// replica's signature need not cover the (potentially large) full
// transaction payload.
type TransactionSummary struct {
	Address          Address
	Type             TransactionType
	Timestamp        time.Time
	ProofOfIntegrity []byte
	Fee              uint64
}

// NewTransactionSummary builds the bounded summary of a validated
// transaction, per the `TransactionSummary.from_transaction` collaborator
// it is used for.
func NewTransactionSummary(tx *Transaction) (TransactionSummary, error) {
	if tx.ValidationStamp == nil {
		return TransactionSummary{}, ErrMissingValidationStamp
	}
	return TransactionSummary{
		Address:          tx.Address,
		Type:             tx.Type,
		Timestamp:        tx.ValidationStamp.Timestamp,
		ProofOfIntegrity: tx.ValidationStamp.ProofOfIntegrity,
		Fee:              tx.ValidationStamp.LedgerOperations.Fee,
	}, nil
}
