package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeP2P struct {
	replies map[NodeID]Message
	errors  map[NodeID]error
	delay   time.Duration
}

func (f *fakeP2P) SendMessage(ctx context.Context, node NodeID, msg Message) (Message, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
	if err, ok := f.errors[node]; ok {
		return Message{}, err
	}
	return f.replies[node], nil
}

func (f *fakeP2P) BroadcastMessage(ctx context.Context, nodes []NodeID, msg Message) []BroadcastResult {
	out := make([]BroadcastResult, len(nodes))
	for i, n := range nodes {
		reply, err := f.SendMessage(ctx, n, msg)
		out[i] = BroadcastResult{Node: n, Reply: reply, Err: err}
	}
	return out
}

func (f *fakeP2P) AuthorizedNodes() []NodeID { return nil }
func (f *fakeP2P) AvailableNodes() []NodeID  { return nil }
func (f *fakeP2P) DistinctNodes(nodes []NodeID) []NodeID { return nodes }

func TestTransactionContextFetcherCollectsAllPeers(t *testing.T) {
	p2p := &fakeP2P{
		replies: map[NodeID]Message{
			"node-a": {Kind: KindAddMiningContext, Payload: AddMiningContext{}},
			"node-b": {Kind: KindAddMiningContext, Payload: AddMiningContext{}},
		},
	}
	fetcher := NewTransactionContextFetcher(p2p, time.Second)
	results := fetcher.Fetch(context.Background(), sampleAddress(1), []NodeID{"node-a", "node-b"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	successful := Successful(results)
	if len(successful) != 2 {
		t.Fatalf("expected both peers to succeed, got %d", len(successful))
	}
}

func TestTransactionContextFetcherSkipsErroringPeer(t *testing.T) {
	p2p := &fakeP2P{
		replies: map[NodeID]Message{
			"node-a": {Kind: KindAddMiningContext, Payload: AddMiningContext{}},
		},
		errors: map[NodeID]error{
			"node-b": errors.New("connection refused"),
		},
	}
	fetcher := NewTransactionContextFetcher(p2p, time.Second)
	results := fetcher.Fetch(context.Background(), sampleAddress(1), []NodeID{"node-a", "node-b"})

	successful := Successful(results)
	if len(successful) != 1 {
		t.Fatalf("expected 1 successful peer, got %d", len(successful))
	}

	var sawPeerError bool
	for _, r := range results {
		if r.Node == "node-b" {
			var peerErr *TransientPeerError
			if !errors.As(r.Err, &peerErr) {
				t.Fatalf("expected node-b's failure to be a TransientPeerError, got %v", r.Err)
			}
			sawPeerError = true
		}
	}
	if !sawPeerError {
		t.Fatalf("expected to observe node-b in the results")
	}
}

func TestTransactionContextFetcherTimesOutSlowPeer(t *testing.T) {
	p2p := &fakeP2P{
		replies: map[NodeID]Message{"node-a": {Kind: KindAddMiningContext, Payload: AddMiningContext{}}},
		delay:   50 * time.Millisecond,
	}
	fetcher := NewTransactionContextFetcher(p2p, 5*time.Millisecond)
	results := fetcher.Fetch(context.Background(), sampleAddress(1), []NodeID{"node-a"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatalf("expected the slow peer to report a timeout error")
	}
}
