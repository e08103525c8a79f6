package core

// LibP2PTransport is the concrete P2P implementation: a libp2p host with
// gossipsub for discovery bookkeeping and mDNS for LAN bootstrap, plus a
// dedicated stream protocol for the request/reply exchanges the mining
// workflow needs (AddMiningContext, CrossValidate, ReplicateTransactionChain,
// …). Wire framing is a length-prefixed JSON envelope.

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/sirupsen/logrus"
)

const (
	miningProtocolID    = "/archethic/mining/1.0.0"
	presenceTopicSuffix = "-presence"
)

// envelope is the wire shape of one Message: Kind tags how Payload should
// be decoded, since Go's interface{} payload has no self-describing type
// on its own.
type envelope struct {
	Kind    MessageKind     `json:"kind"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
}

// HandlerFunc processes an inbound Message and returns the reply to send
// back over the same stream.
type HandlerFunc func(ctx context.Context, msg Message) Message

// LibP2PTransport implements P2P over a libp2p host.
type LibP2PTransport struct {
	host   host.Host
	logger *logrus.Logger

	mu         sync.RWMutex
	peers      map[NodeID]peer.AddrInfo
	authorized map[NodeID]struct{}

	handler HandlerFunc

	presence *pubsub.Topic
}

// LibP2PConfig configures a LibP2PTransport.
type LibP2PConfig struct {
	ListenAddr     string
	BootstrapPeers []string
	DiscoveryTag   string
	AuthorizedNodes []NodeID // permissioned membership list
}

// NewLibP2PTransport brings up a libp2p host, joins mDNS discovery, and
// dials the configured bootstrap peers.
func NewLibP2PTransport(cfg LibP2PConfig, logger *logrus.Logger) (*LibP2PTransport, error) {
	if logger == nil {
		logger = logrus.New()
	}
	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddr))
	if err != nil {
		return nil, fmt.Errorf("p2p: create host: %w", err)
	}

	t := &LibP2PTransport{
		host:       h,
		logger:     logger,
		peers:      make(map[NodeID]peer.AddrInfo),
		authorized: make(map[NodeID]struct{}),
	}
	for _, n := range cfg.AuthorizedNodes {
		t.authorized[n] = struct{}{}
	}

	h.SetStreamHandler(miningProtocolID, t.handleStream)

	if err := t.dialSeeds(cfg.BootstrapPeers); err != nil {
		logger.WithError(err).Warn("p2p: some bootstrap peers unreachable")
	}

	if cfg.DiscoveryTag == "" {
		cfg.DiscoveryTag = "archethic-mining"
	}
	mdns.NewMdnsService(h, cfg.DiscoveryTag, t)

	ps, err := pubsub.NewGossipSub(context.Background(), h)
	if err != nil {
		return nil, fmt.Errorf("p2p: start gossipsub: %w", err)
	}
	topic, err := ps.Join(cfg.DiscoveryTag + presenceTopicSuffix)
	if err != nil {
		return nil, fmt.Errorf("p2p: join presence topic: %w", err)
	}
	t.presence = topic
	sub, err := topic.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("p2p: subscribe presence topic: %w", err)
	}
	go t.watchPresence(sub)
	if err := topic.Publish(context.Background(), []byte(h.ID().String())); err != nil {
		logger.WithError(err).Warn("p2p: announce presence failed")
	}

	return t, nil
}

// watchPresence records the sender of every presence announcement as a
// known peer, piggybacking gossipsub's mesh membership on top of mDNS's
// LAN-only reach so nodes discovered through bootstrap dialing also end
// up in the same peer bookkeeping.
func (t *LibP2PTransport) watchPresence(sub *pubsub.Subscription) {
	for {
		msg, err := sub.Next(context.Background())
		if err != nil {
			return
		}
		from := msg.GetFrom()
		if from == t.host.ID() {
			continue
		}
		addrs := t.host.Peerstore().Addrs(from)
		info := peer.AddrInfo{ID: from, Addrs: addrs}
		t.mu.Lock()
		t.peers[NodeID(from.String())] = info
		t.mu.Unlock()
	}
}

// SetHandler registers the function invoked for every inbound request this
// node receives (the node's own role in the workflow: cross validator,
// chain-storage replica, …).
func (t *LibP2PTransport) SetHandler(h HandlerFunc) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

var _ mdns.Notifee = (*LibP2PTransport)(nil)

// HandlePeerFound implements mdns.Notifee: new peers found on the LAN are
// dialed and recorded.
func (t *LibP2PTransport) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == t.host.ID() {
		return
	}
	t.mu.RLock()
	_, known := t.peers[NodeID(info.ID.String())]
	t.mu.RUnlock()
	if known {
		return
	}
	if err := t.host.Connect(context.Background(), info); err != nil {
		t.logger.WithError(err).WithField("peer", info.ID.String()).Warn("p2p: mDNS connect failed")
		return
	}
	t.mu.Lock()
	t.peers[NodeID(info.ID.String())] = info
	t.mu.Unlock()
}

func (t *LibP2PTransport) dialSeeds(seeds []string) error {
	var failures int
	for _, addr := range seeds {
		pi, err := peer.AddrInfoFromString(addr)
		if err != nil {
			failures++
			continue
		}
		if err := t.host.Connect(context.Background(), *pi); err != nil {
			failures++
			continue
		}
		t.mu.Lock()
		t.peers[NodeID(pi.ID.String())] = *pi
		t.mu.Unlock()
	}
	if failures > 0 {
		return fmt.Errorf("p2p: %d of %d bootstrap peers unreachable", failures, len(seeds))
	}
	return nil
}

func (t *LibP2PTransport) handleStream(s network.Stream) {
	defer s.Close()
	reader := bufio.NewReader(s)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return
	}
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		t.logger.WithError(err).Warn("p2p: malformed inbound envelope")
		return
	}
	msg, err := decodeEnvelope(env)
	if err != nil {
		t.logger.WithError(err).Warn("p2p: undecodable inbound payload")
		return
	}

	t.mu.RLock()
	handler := t.handler
	t.mu.RUnlock()
	if handler == nil {
		return
	}
	reply := handler(context.Background(), msg)
	replyEnv, err := encodeEnvelope(reply, NodeID(t.host.ID().String()))
	if err != nil {
		return
	}
	replyEnv = append(replyEnv, '\n')
	s.Write(replyEnv)
}

// SendMessage opens a stream to node, writes msg, and reads the single
// JSON-encoded reply line.
func (t *LibP2PTransport) SendMessage(ctx context.Context, node NodeID, msg Message) (Message, error) {
	t.mu.RLock()
	info, ok := t.peers[node]
	t.mu.RUnlock()
	if !ok {
		return Message{}, &TransientPeerError{Peer: string(node), Err: fmt.Errorf("unknown peer")}
	}

	s, err := t.host.NewStream(ctx, info.ID, miningProtocolID)
	if err != nil {
		return Message{}, &TransientPeerError{Peer: string(node), Err: err}
	}
	defer s.Close()

	env, err := encodeEnvelope(msg, NodeID(t.host.ID().String()))
	if err != nil {
		return Message{}, &ProtocolViolationError{Reason: err.Error()}
	}
	env = append(env, '\n')
	if _, err := s.Write(env); err != nil {
		return Message{}, &TransientPeerError{Peer: string(node), Err: err}
	}

	reader := bufio.NewReader(s)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return Message{}, &TransientPeerError{Peer: string(node), Err: err}
	}
	var replyEnv envelope
	if err := json.Unmarshal(line, &replyEnv); err != nil {
		return Message{}, &ProtocolViolationError{Reason: "malformed reply envelope"}
	}
	reply, err := decodeEnvelope(replyEnv)
	if err != nil {
		return Message{}, &ProtocolViolationError{Reason: err.Error()}
	}
	return reply, nil
}

// BroadcastMessage fans SendMessage out to every node concurrently,
// collecting every result regardless of individual failures.
func (t *LibP2PTransport) BroadcastMessage(ctx context.Context, nodes []NodeID, msg Message) []BroadcastResult {
	results := make([]BroadcastResult, len(nodes))
	var wg sync.WaitGroup
	for i, node := range nodes {
		wg.Add(1)
		go func(i int, node NodeID) {
			defer wg.Done()
			reply, err := t.SendMessage(ctx, node, msg)
			results[i] = BroadcastResult{Node: node, Reply: reply, Err: err}
		}(i, node)
	}
	wg.Wait()
	return results
}

// AuthorizedNodes returns the permissioned membership list.
func (t *LibP2PTransport) AuthorizedNodes() []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]NodeID, 0, len(t.authorized))
	for n := range t.authorized {
		out = append(out, n)
	}
	return out
}

// AvailableNodes returns authorized nodes this transport currently has a
// known address for (connected or discovered).
func (t *LibP2PTransport) AvailableNodes() []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]NodeID, 0, len(t.peers))
	for n := range t.peers {
		if _, authorized := t.authorized[n]; authorized {
			out = append(out, n)
		}
	}
	return out
}

// DistinctNodes deduplicates nodes, preserving first occurrence order.
func (t *LibP2PTransport) DistinctNodes(nodes []NodeID) []NodeID {
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

// Close tears down the libp2p host.
func (t *LibP2PTransport) Close() error {
	if t.presence != nil {
		_ = t.presence.Close()
	}
	return t.host.Close()
}

func encodeEnvelope(msg Message, from NodeID) ([]byte, error) {
	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: msg.Kind, From: string(from), Payload: payload})
}

func decodeEnvelope(env envelope) (Message, error) {
	payload, err := newPayloadFor(env.Kind)
	if err != nil {
		return Message{}, err
	}
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return Message{}, err
		}
	}
	return Message{Kind: env.Kind, From: NodeID(env.From), Payload: derefPayload(payload)}, nil
}

func newPayloadFor(kind MessageKind) (interface{}, error) {
	switch kind {
	case KindAddMiningContext:
		return &AddMiningContext{}, nil
	case KindCrossValidate:
		return &CrossValidate{}, nil
	case KindCrossValidationDone:
		return &CrossValidationDone{}, nil
	case KindReplicateTransactionChain:
		return &ReplicateTransactionChain{}, nil
	case KindAcknowledgeStorage:
		return &AcknowledgeStorage{}, nil
	case KindError:
		return &ErrorMessage{}, nil
	case KindReplicateTransaction:
		return &ReplicateTransaction{}, nil
	case KindReplicationAttestation:
		return &ReplicationAttestation{}, nil
	default:
		return nil, &ProtocolViolationError{Reason: "unknown message kind on wire"}
	}
}

func derefPayload(p interface{}) interface{} {
	switch v := p.(type) {
	case *AddMiningContext:
		return *v
	case *CrossValidate:
		return *v
	case *CrossValidationDone:
		return *v
	case *ReplicateTransactionChain:
		return *v
	case *AcknowledgeStorage:
		return *v
	case *ErrorMessage:
		return *v
	case *ReplicateTransaction:
		return *v
	case *ReplicationAttestation:
		return *v
	default:
		return p
	}
}
