package core

import (
	"errors"
	"strconv"
)

// Sentinel errors used across ChainIndex/ChainWriter and the mining
// workflow. Per-peer failures never surface as Go errors past the
// MiningWorker boundary; these are the ones that do cross package
// boundaries.
var (
	ErrNotFound               = errors.New("core: not found")
	ErrMissingValidationStamp = errors.New("core: transaction has no validation stamp")
	ErrSummaryExists          = errors.New("core: beacon summary already written")
	ErrInvariantViolation     = errors.New("core: invariant violation")
)

// TransientPeerError wraps a recoverable per-peer failure: timeout, closed
// connection, or other network issue. The offending peer is skipped and the
// workflow proceeds with whatever responses were already gathered.
type TransientPeerError struct {
	Peer string
	Err  error
}

func (e *TransientPeerError) Error() string {
	return "transient peer error (" + e.Peer + "): " + e.Err.Error()
}
func (e *TransientPeerError) Unwrap() error { return e.Err }

// ProtocolViolationError marks a peer response inconsistent with the
// workflow (wrong sender for a cross-validate, bad signature). It is
// logged and ignored, never propagated as a fatal error.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string { return "protocol violation: " + e.Reason }

// ConsensusFailureError marks that collected cross-validation stamps
// disagree; the MaliciousDetection collaborator is notified and the worker
// terminates without replication.
type ConsensusFailureError struct {
	Address Address
}

func (e *ConsensusFailureError) Error() string {
	return "consensus failure for " + e.Address.Hex()
}

// StorageCorruptionError marks that a chain or index file failed to decode
// at a record boundary. The recovery scan stops at that record.
type StorageCorruptionError struct {
	File   string
	Offset int64
	Err    error
}

func (e *StorageCorruptionError) Error() string {
	return "storage corruption in " + e.File + " at offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Err.Error()
}
func (e *StorageCorruptionError) Unwrap() error { return e.Err }

// InvariantViolationError is fatal: the caller is expected to crash on
// startup so an operator can intervene.
type InvariantViolationError struct {
	Detail string
}

func (e *InvariantViolationError) Error() string { return "invariant violation: " + e.Detail }
func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// UserRequestInvalidError marks a malformed request from a caller (bad
// address, disabled endpoint): reported back, no state change.
type UserRequestInvalidError struct {
	Reason string
}

func (e *UserRequestInvalidError) Error() string { return "invalid request: " + e.Reason }
