package core

import (
	"context"
	"sync"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	p2phost "github.com/libp2p/go-libp2p/core/host"
)

// NodeID identifies a peer by its libp2p peer id string.
type NodeID string

// Address is a WoT member's public key, used wherever peer_management.go
// needs a stable peer identity beyond the transient libp2p NodeID — DUBP
// has no separate wallet-address derivation, identities are raw pubkeys.
type Address = PubKey

// Peer is a known remote node.
type Peer struct {
	ID      NodeID
	Addr    string
	Latency time.Duration
}

// Message is one pubsub delivery.
type Message struct {
	From  NodeID
	Topic string
	Data  []byte
}

// NetworkMessage is a replicated payload on a topic, handed to
// HandleNetworkMessage for local bookkeeping/testing.
type NetworkMessage struct {
	Topic   string
	Content []byte
}

// InboundMsg is one delivery on a PeerManager.Subscribe channel.
type InboundMsg struct {
	PeerID  string
	Payload []byte
	Topic   string
	Ts      int64
}

// PeerInfo summarises a known peer for discovery/sampling purposes.
type PeerInfo struct {
	Address Address
	RTT     float64
	Updated int64
}

// PeerManager is the capability surface peer_management.go exposes over a
// Node, used by the WS2P layer to discover, sample and message peers.
type PeerManager interface {
	DiscoverPeers() []PeerInfo
	Connect(addr string) error
	Disconnect(id NodeID) error
	AdvertiseSelf(topic string) error
	Peers() []PeerInfo
	Sample(n int) []string
	SendAsync(peerID, proto string, code byte, payload []byte) error
	Subscribe(proto string) <-chan InboundMsg
	Unsubscribe(proto string)
}

// Config configures a P2P Node, per §6's network section of conf.json.
type Config struct {
	ListenAddr     string   `json:"listen_addr" mapstructure:"listen_addr"`
	BootstrapPeers []string `json:"bootstrap_peers" mapstructure:"bootstrap_peers"`
	DiscoveryTag   string   `json:"discovery_tag" mapstructure:"discovery_tag"`
}

// Node is a libp2p-backed P2P node: gossipsub topics, mDNS discovery, NAT
// traversal and a peer table, grounded on teacher's network.go.
type Node struct {
	host   p2phost.Host
	pubsub *pubsub.PubSub
	nat    *NATManager

	topics map[string]*pubsub.Topic
	subs   map[string]*pubsub.Subscription
	peers  map[NodeID]*Peer

	peerLock  sync.RWMutex
	topicLock sync.Mutex
	subLock   sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
}
