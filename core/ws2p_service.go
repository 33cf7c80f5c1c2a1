package core

// Service multiplexes controllers over a single node and surfaces their
// events (§5: "a network service multiplexes controllers and surfaces
// events"). It owns the bounded head cache shared by every controller and
// keeps the one peer table the WS2P layer reads from.

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// headCache remembers, per issuer pubkey, the most recently accepted head
// so replays and stale heads can be rejected in O(1) (§4.11 head validity).
type headCache struct {
	mu    sync.Mutex
	cache *lru.Cache[PubKey, HeadMsg]
}

func newHeadCache(size int) *headCache {
	c, _ := lru.New[PubKey, HeadMsg](size)
	return &headCache{cache: c}
}

// Accept reports whether m is newer than the cached head for its issuer,
// per §4.11: the stepping counter must be strictly less than the previous
// cached head, or its blockstamp strictly greater.
func (h *headCache) Accept(m HeadMsg) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev, ok := h.cache.Get(m.Issuer)
	if ok {
		if m.Step >= prev.Step && !prev.Blockstamp.Less(m.Blockstamp) {
			return false
		}
	}
	h.cache.Add(m.Issuer, m)
	return true
}

// Service owns every live Controller for one node and the shared head
// cache/peer table they read and write through.
type Service struct {
	node   *Node
	worker *Worker

	selfNodeID uint32
	selfPriv   ed25519.PrivateKey
	selfPub    PubKey
	currencyID uint32

	heads *headCache

	mu          sync.Mutex
	controllers map[string]*Controller

	// Audit, if set, receives one ws2p.disconnect entry per closed
	// connection (denials, peer hangups, shutdown) for tamper-evident
	// post-mortems. Nil-safe: AuditTrail's own methods no-op on a nil receiver.
	Audit *AuditTrail

	pool *ConnPool

	log *logrus.Entry
}

// NewService builds a WS2P service bound to node and worker.
func NewService(node *Node, worker *Worker, selfNodeID uint32, priv ed25519.PrivateKey, pub PubKey, currencyID uint32, headCacheSize int) *Service {
	return &Service{
		node:        node,
		worker:      worker,
		selfNodeID:  selfNodeID,
		selfPriv:    priv,
		selfPub:     pub,
		currencyID:  currencyID,
		heads:       newHeadCache(headCacheSize),
		controllers: make(map[string]*Controller),
		pool:        NewConnPool(NewDialer(10*time.Second, 30*time.Second), 4, 2*time.Minute),
		log:         logrus.WithField("component", "ws2p-service"),
	}
}

// DialWS2P acquires a pooled outbound connection to addr (host:port) and
// hands it to AddConnection, reusing an idle connection when one is already
// open instead of dialing fresh every time (§5 outbound connection setup).
func (s *Service) DialWS2P(ctx context.Context, id, addr string) (*Controller, error) {
	conn, err := s.pool.Acquire(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("ws2p: dial %s: %w", addr, err)
	}
	return s.AddConnection(ctx, id, conn)
}

// wsProtocol is the libp2p protocol ID WS2P frames travel over, distinct
// from the gossipsub topics network.go already uses for replication.
const wsProtocol = "/duniter/ws2p/1.0.0"

// AddConnection wraps an already-established byte stream (a libp2p stream or
// a plain net.Conn from Dialer) in a fresh Controller and runs it on its own
// goroutine, never blocking the service or any other connection.
func (s *Service) AddConnection(ctx context.Context, id string, conn interface {
	Read([]byte) (int, error)
	Write([]byte) (int, error)
	Close() error
}) (*Controller, error) {
	hs, err := NewHandshake(s.selfNodeID, s.selfPriv, s.selfPub, s.currencyID, 10)
	if err != nil {
		return nil, fmt.Errorf("ws2p: service: %w", err)
	}
	c := NewController(id, conn, hs, s.worker, s.heads, s.onDisconnect)

	s.mu.Lock()
	s.controllers[id] = c
	s.mu.Unlock()

	go c.Run(ctx)
	return c, nil
}

func (s *Service) onDisconnect(ev DisconnectedEvent) {
	s.mu.Lock()
	delete(s.controllers, ev.ConnID)
	s.mu.Unlock()
	s.log.Infof("ws2p: connection %s closed: %s", ev.ConnID, ev.Reason)
	s.Audit.Log("ws2p.disconnect", map[string]string{"conn": ev.ConnID, "reason": ev.Reason})
}

// BroadcastHead fans a head out to every established controller as a Heads
// message, matching the gossip semantics of §4.11.
func (s *Service) BroadcastHead(h HeadMsg) {
	payload, err := encodePayload(h)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.controllers {
		if c.hs.State != Established {
			continue
		}
		f := &Frame{Version: 10, CurrencyID: s.currencyID, IssuerNodeID: s.selfNodeID, IssuerPubkey: s.selfPub, Tag: TagHeads, Payload: payload}
		f.Sign(s.selfPriv)
		select {
		case c.outbound <- f:
		default:
			s.log.Warnf("ws2p: outbound queue full for %s, dropping head", c.id)
		}
	}
}

// Connections returns the number of currently tracked controllers,
// established or mid-handshake.
func (s *Service) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}

// Shutdown posts a cooperative shutdown to every controller: each finishes
// its current frame, emits Disconnected, and exits (§5).
func (s *Service) Shutdown() {
	s.mu.Lock()
	cs := make([]*Controller, 0, len(s.controllers))
	for _, c := range s.controllers {
		cs = append(cs, c)
	}
	s.mu.Unlock()
	for _, c := range cs {
		c.finish("service shutdown")
	}
	s.pool.Close()
}
