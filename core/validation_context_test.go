package core

import (
	"testing"
	"time"
)

func sampleValidationContext(validationNodes int) *ValidationContext {
	tx := &Transaction{Address: sampleAddress(1), PreviousPublicKey: samplePublicKey(), Type: TxTransfer}
	nodes := make([]NodeID, validationNodes)
	for i := range nodes {
		nodes[i] = NodeID(string(rune('a' + i)))
	}
	return NewValidationContext(tx, samplePublicKey(), nodes, time.Unix(1700000000, 0))
}

func TestValidationContextEnoughConfirmations(t *testing.T) {
	vctx := sampleValidationContext(3)
	if vctx.EnoughConfirmations() {
		t.Fatalf("expected no confirmations yet")
	}
	vctx = vctx.WithConfirmedValidator(0)
	vctx = vctx.WithConfirmedValidator(1)
	if vctx.EnoughConfirmations() {
		t.Fatalf("expected confirmations still incomplete with 2 of 3")
	}
	vctx = vctx.WithConfirmedValidator(2)
	if !vctx.EnoughConfirmations() {
		t.Fatalf("expected all 3 validators confirmed")
	}
}

func TestValidationContextWithConfirmedValidatorIsImmutable(t *testing.T) {
	original := sampleValidationContext(2)
	updated := original.WithConfirmedValidator(0)
	if original.ConfirmedValidators.Any() {
		t.Fatalf("expected the original context to be unaffected by the copy's mutation")
	}
	if !updated.ConfirmedValidators.Get(0) {
		t.Fatalf("expected the copy to carry the new confirmation")
	}
}

func TestValidationContextEnoughCrossValidationStamps(t *testing.T) {
	vctx := sampleValidationContext(2)
	vctx = vctx.WithConfirmedValidator(0)
	vctx = vctx.WithConfirmedValidator(1)
	if vctx.EnoughCrossValidationStamps() {
		t.Fatalf("expected no stamps yet")
	}
	vctx = vctx.WithCrossValidationStamp(CrossValidationStamp{SignerPublicKey: samplePublicKey()})
	if vctx.EnoughCrossValidationStamps() {
		t.Fatalf("expected still missing one stamp")
	}
	vctx = vctx.WithCrossValidationStamp(CrossValidationStamp{SignerPublicKey: samplePublicKey()})
	if !vctx.EnoughCrossValidationStamps() {
		t.Fatalf("expected enough stamps once every confirmed validator replied")
	}
}

func TestValidationContextAtomicCommitment(t *testing.T) {
	vctx := sampleValidationContext(1)
	if vctx.AtomicCommitment() {
		t.Fatalf("expected no commitment with zero stamps")
	}
	affirmative := vctx.WithCrossValidationStamp(CrossValidationStamp{SignerPublicKey: samplePublicKey()})
	if !affirmative.AtomicCommitment() {
		t.Fatalf("expected commitment with a single affirmative stamp")
	}
	dissenting := vctx.WithCrossValidationStamp(CrossValidationStamp{
		SignerPublicKey: samplePublicKey(),
		Inconsistencies: []Inconsistency{InconsistencyProofOfIntegrity},
	})
	if dissenting.AtomicCommitment() {
		t.Fatalf("expected no commitment once a stamp reports an inconsistency")
	}
}

func TestValidationContextEnoughStorageConfirmationsDefaultsToAllChainNodes(t *testing.T) {
	vctx := sampleValidationContext(1).WithStorageNodes([]NodeID{"a", "b"}, nil, nil)
	if vctx.EnoughStorageConfirmations() {
		t.Fatalf("expected no storage confirmations yet")
	}
	vctx = vctx.WithStorageConfirmation(StorageConfirmation{NodeIndex: 0, Signature: []byte("sig-a")})
	if vctx.EnoughStorageConfirmations() {
		t.Fatalf("expected quorum to still require both elected replicas")
	}
	vctx = vctx.WithStorageConfirmation(StorageConfirmation{NodeIndex: 1, Signature: []byte("sig-b")})
	if !vctx.EnoughStorageConfirmations() {
		t.Fatalf("expected quorum met once every elected chain-storage replica confirmed")
	}
}

func TestValidationContextEnoughStorageConfirmationsExplicitQuorum(t *testing.T) {
	vctx := sampleValidationContext(1).WithStorageNodes([]NodeID{"a", "b", "c"}, nil, nil)
	vctx.RequiredStorageQuorum = 2
	vctx = vctx.WithStorageConfirmation(StorageConfirmation{NodeIndex: 0, Signature: []byte("sig-a")})
	vctx = vctx.WithStorageConfirmation(StorageConfirmation{NodeIndex: 1, Signature: []byte("sig-b")})
	if !vctx.EnoughStorageConfirmations() {
		t.Fatalf("expected explicit quorum of 2 to be satisfied by 2 confirmations")
	}
}
