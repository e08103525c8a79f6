package core

// TransactionContextFetcher gathers, from a quorum of previous storage
// nodes, the unspent outputs and chain state needed to validate a pending
// transaction. It runs a concurrent fan-out with a bounded deadline, so one
// slow or unreachable peer cannot stall mining.

import (
	"context"
	"time"
)

// ChainContext is what the coordinator needs from a previous storage node
// to build a validation stamp: its view of the chain's unspent outputs, the
// last transaction it chained, and its own picture of chain/beacon storage
// availability.
type ChainContext struct {
	Node                           NodeID
	UnspentOutputs                 []UnspentOutput
	PreviousTransaction            *Transaction
	LastChainAddress               Address
	PreviousStorageNodesPublicKeys []PublicKey
	ChainStorageNodesView          Bitstring
	BeaconStorageNodesView         Bitstring
	Err                            error
}

// TransactionContextFetcher collects ChainContext from the previous
// storage nodes of a transaction's chain.
type TransactionContextFetcher struct {
	p2p     P2P
	timeout time.Duration // per-peer RPC timeout
}

// NewTransactionContextFetcher returns a fetcher bounded by timeout per
// peer request.
func NewTransactionContextFetcher(p2p P2P, timeout time.Duration) *TransactionContextFetcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &TransactionContextFetcher{p2p: p2p, timeout: timeout}
}

// Fetch queries every node in previousStorageNodes concurrently for
// txAddress's chain context, returning as soon as all replies or timeouts
// have been collected. A peer that errors or times out contributes a
// ChainContext carrying only its Err, so the coordinator can still proceed
// with whatever quorum of peers responded.
func (f *TransactionContextFetcher) Fetch(ctx context.Context, txAddress Address, previousStorageNodes []NodeID) []ChainContext {
	results := make(chan ChainContext, len(previousStorageNodes))

	for _, node := range previousStorageNodes {
		go func(node NodeID) {
			callCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			reply, err := f.p2p.SendMessage(callCtx, node, Message{
				Kind:    KindAddMiningContext,
				Payload: AddMiningContext{TxAddress: txAddress},
			})
			if err != nil {
				results <- ChainContext{Node: node, Err: &TransientPeerError{Peer: string(node), Err: err}}
				return
			}
			payload, ok := reply.Payload.(AddMiningContext)
			if !ok {
				results <- ChainContext{Node: node, Err: &ProtocolViolationError{Reason: "unexpected mining context reply shape"}}
				return
			}
			results <- ChainContext{
				Node:                           node,
				UnspentOutputs:                 payload.UnspentOutputs,
				PreviousTransaction:            payload.PreviousTransaction,
				LastChainAddress:               txAddress,
				PreviousStorageNodesPublicKeys: payload.PreviousStorageNodesPublicKeys,
				ChainStorageNodesView:          payload.ChainStorageNodesView,
				BeaconStorageNodesView:         payload.BeaconStorageNodesView,
			}
		}(node)
	}

	out := make([]ChainContext, 0, len(previousStorageNodes))
	for range previousStorageNodes {
		out = append(out, <-results)
	}
	return out
}

// Successful filters out peers that errored or timed out.
func Successful(contexts []ChainContext) []ChainContext {
	out := make([]ChainContext, 0, len(contexts))
	for _, c := range contexts {
		if c.Err == nil {
			out = append(out, c)
		}
	}
	return out
}
