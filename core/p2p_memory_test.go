package core

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryP2PSendMessageRoundTrip(t *testing.T) {
	p2p := NewInMemoryP2P([]NodeID{"a"})
	p2p.Register("a", func(ctx context.Context, msg Message) Message {
		return Message{Kind: KindAcknowledgeStorage}
	})

	reply, err := p2p.SendMessage(context.Background(), "a", Message{Kind: KindReplicateTransaction})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Kind != KindAcknowledgeStorage {
		t.Fatalf("expected the registered handler's reply, got %v", reply.Kind)
	}
}

func TestInMemoryP2PSendMessageToOfflineNode(t *testing.T) {
	p2p := NewInMemoryP2P(nil)
	_, err := p2p.SendMessage(context.Background(), "ghost", Message{})
	if err == nil {
		t.Fatalf("expected an error for an unregistered node")
	}
	var peerErr *TransientPeerError
	if !errors.As(err, &peerErr) {
		t.Fatalf("expected a *TransientPeerError, got %T", err)
	}
}

func TestInMemoryP2PUnregisterMakesNodeOffline(t *testing.T) {
	p2p := NewInMemoryP2P(nil)
	p2p.Register("a", func(ctx context.Context, msg Message) Message { return Message{} })
	p2p.Unregister("a")

	if _, err := p2p.SendMessage(context.Background(), "a", Message{}); err == nil {
		t.Fatalf("expected an error after unregistering the node")
	}
}

func TestInMemoryP2PAvailableNodes(t *testing.T) {
	p2p := NewInMemoryP2P(nil)
	p2p.Register("a", func(ctx context.Context, msg Message) Message { return Message{} })
	p2p.Register("b", func(ctx context.Context, msg Message) Message { return Message{} })

	available := p2p.AvailableNodes()
	if len(available) != 2 {
		t.Fatalf("expected 2 available nodes, got %d", len(available))
	}
}

func TestInMemoryP2PDistinctNodesDeduplicates(t *testing.T) {
	p2p := NewInMemoryP2P(nil)
	out := p2p.DistinctNodes([]NodeID{"a", "b", "a", "c", "b"})
	if len(out) != 3 {
		t.Fatalf("expected 3 distinct nodes, got %d: %v", len(out), out)
	}
}

func TestInMemoryP2PAuthorizedNodes(t *testing.T) {
	p2p := NewInMemoryP2P([]NodeID{"a", "b"})
	auth := p2p.AuthorizedNodes()
	if len(auth) != 2 {
		t.Fatalf("expected 2 authorized nodes, got %d", len(auth))
	}
}
