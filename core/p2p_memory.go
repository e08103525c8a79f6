package core

// InMemoryP2P implements P2P by dispatching directly between HandlerFuncs
// registered in the same process, with no network I/O. Integration tests
// and the devnet/testnet commands use it to run a whole mining round
// across several MiningWorker instances without standing up real libp2p
// hosts.

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryP2P is a process-local P2P fabric shared by a set of simulated
// nodes.
type InMemoryP2P struct {
	mu         sync.RWMutex
	handlers   map[NodeID]HandlerFunc
	authorized []NodeID
}

// NewInMemoryP2P returns an empty fabric authorized for the given nodes.
func NewInMemoryP2P(authorized []NodeID) *InMemoryP2P {
	return &InMemoryP2P{
		handlers:   make(map[NodeID]HandlerFunc),
		authorized: authorized,
	}
}

// Register attaches node's handler to the fabric; SendMessage/BroadcastMessage
// addressed to node are dispatched to it directly.
func (m *InMemoryP2P) Register(node NodeID, handler HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[node] = handler
}

// Unregister removes node from the fabric (simulating it going offline).
func (m *InMemoryP2P) Unregister(node NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, node)
}

func (m *InMemoryP2P) SendMessage(ctx context.Context, node NodeID, msg Message) (Message, error) {
	m.mu.RLock()
	handler, ok := m.handlers[node]
	m.mu.RUnlock()
	if !ok {
		return Message{}, &TransientPeerError{Peer: string(node), Err: fmt.Errorf("node offline")}
	}
	return handler(ctx, msg), nil
}

func (m *InMemoryP2P) BroadcastMessage(ctx context.Context, nodes []NodeID, msg Message) []BroadcastResult {
	results := make([]BroadcastResult, len(nodes))
	var wg sync.WaitGroup
	for i, node := range nodes {
		wg.Add(1)
		go func(i int, node NodeID) {
			defer wg.Done()
			reply, err := m.SendMessage(ctx, node, msg)
			results[i] = BroadcastResult{Node: node, Reply: reply, Err: err}
		}(i, node)
	}
	wg.Wait()
	return results
}

func (m *InMemoryP2P) AuthorizedNodes() []NodeID { return m.authorized }

func (m *InMemoryP2P) AvailableNodes() []NodeID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]NodeID, 0, len(m.handlers))
	for n := range m.handlers {
		out = append(out, n)
	}
	return out
}

func (m *InMemoryP2P) DistinctNodes(nodes []NodeID) []NodeID {
	seen := make(map[NodeID]struct{}, len(nodes))
	out := make([]NodeID, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
