package core

// Controller is the single-task state machine driving one WS2P connection
// (§4.11/§5): it owns the handshake, the anti-spam throttle and an outbound
// queue, and talks to the blockchain worker through a request/response
// channel rather than touching chain state directly.

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DisconnectedEvent is the single event a controller emits to its service
// on close, per §4.11's cancellation semantics.
type DisconnectedEvent struct {
	ConnID string
	Reason string
}

// pendingRequest tracks one outbound Request awaiting its ReqResponse.
type pendingRequest struct {
	replyCh chan *ReqResponseMsg
	timer   *time.Timer
}

// Controller drives one peer connection end to end.
type Controller struct {
	id     string
	conn   io.ReadWriteCloser
	hs     *Handshake
	spam   *AntiSpam
	worker *Worker

	log *logrus.Entry

	outbound chan *Frame

	pendingMu sync.Mutex
	pending   map[string]*pendingRequest

	headCache *headCache

	onDisconnect func(DisconnectedEvent)

	closeOnce sync.Once
	closed    chan struct{}
}

// NewController wires a fresh connection to worker, using hs as the already
// constructed (but not yet stepped) handshake for this side.
func NewController(id string, conn io.ReadWriteCloser, hs *Handshake, worker *Worker, headCache *headCache, onDisconnect func(DisconnectedEvent)) *Controller {
	return &Controller{
		id:           id,
		conn:         conn,
		hs:           hs,
		spam:         NewAntiSpam(DefaultAntiSpamConfig),
		worker:       worker,
		log:          logrus.WithField("ws2p_conn", id),
		outbound:     make(chan *Frame, 32),
		pending:      make(map[string]*pendingRequest),
		headCache:    headCache,
		onDisconnect: onDisconnect,
		closed:       make(chan struct{}),
	}
}

// Run performs the handshake, then pumps frames until the connection closes
// or ctx is cancelled. It is meant to run on its own goroutine, one per
// connection, never blocking on another controller.
func (c *Controller) Run(ctx context.Context) {
	go c.writeLoop()

	first := c.hs.OutgoingConnect()
	c.outbound <- first

	for c.hs.State != Established && c.hs.State != Denial {
		f, err := ReadFrame(c.conn)
		if err != nil {
			c.finish("read error: " + err.Error())
			return
		}
		resp, err := c.hs.Step(f)
		if err != nil {
			c.log.Warnf("handshake step failed: %v", err)
		}
		if resp != nil {
			c.outbound <- resp
		}
		if c.hs.State == Denial {
			c.finish("denial: " + err.Error())
			return
		}
	}
	c.log.Info("ws2p: handshake established")

	for {
		select {
		case <-ctx.Done():
			c.finish("context cancelled")
			return
		default:
		}
		f, err := ReadFrame(c.conn)
		if err != nil {
			c.finish("read error: " + err.Error())
			return
		}
		if sleep := c.spam.Admit(); sleep > 0 {
			c.log.Warnf("ws2p: spam limit reached, sleeping %s", sleep)
			time.Sleep(sleep)
		}
		c.handleFrame(ctx, f)
	}
}

func (c *Controller) writeLoop() {
	for f := range c.outbound {
		if err := WriteFrame(c.conn, f); err != nil {
			c.log.Warnf("ws2p: write failed: %v", err)
			return
		}
	}
}

func (c *Controller) handleFrame(ctx context.Context, f *Frame) {
	switch f.Tag {
	case TagPeers:
		var m PeersMsg
		if err := decodePayload(f, &m); err != nil {
			c.log.Warnf("ws2p: malformed Peers: %v", err)
			return
		}
		// Peer gossip bookkeeping is handled by the service coordinator,
		// which owns the shared peer table; the controller only forwards.
		if c.worker != nil {
			c.worker.NotifyPeers(m)
		}

	case TagHeads:
		var m HeadMsg
		if err := decodePayload(f, &m); err != nil {
			c.log.Warnf("ws2p: malformed Heads: %v", err)
			return
		}
		if !m.VerifySignature() {
			c.log.Warnf("ws2p: head signature invalid from %s", m.Issuer)
			return
		}
		if c.headCache != nil && !c.headCache.Accept(m) {
			return
		}
		if c.worker != nil {
			c.worker.NotifyHead(m)
		}

	case TagRequest:
		var m RequestMsg
		if err := decodePayload(f, &m); err != nil {
			c.log.Warnf("ws2p: malformed Request: %v", err)
			return
		}
		go c.serveRequest(ctx, f, m)

	case TagReqResponse:
		var m ReqResponseMsg
		if err := decodePayload(f, &m); err != nil {
			c.log.Warnf("ws2p: malformed ReqResponse: %v", err)
			return
		}
		c.deliver(&m)

	case TagDisconnect:
		var m DisconnectMsg
		_ = decodePayload(f, &m)
		c.finish("peer disconnected: " + m.Reason)

	default:
		c.log.Warnf("ws2p: unexpected tag %s after handshake", f.Tag)
	}
}

// serveRequest answers a peer's Request using the worker's query channel and
// replies with a ReqResponse frame bearing the same request ID.
func (c *Controller) serveRequest(ctx context.Context, src *Frame, m RequestMsg) {
	resp := c.worker.Query(ctx, m)
	payload, err := encodePayload(resp)
	if err != nil {
		c.log.Warnf("ws2p: encode response: %v", err)
		return
	}
	out := &Frame{
		Version:      src.Version,
		CurrencyID:   src.CurrencyID,
		IssuerNodeID: c.hs.selfNodeID,
		IssuerPubkey: c.hs.selfPub,
		Tag:          TagReqResponse,
		Payload:      payload,
	}
	out.Sign(c.hs.selfPriv)
	select {
	case c.outbound <- out:
	case <-c.closed:
	}
}

// SendRequest issues an outbound Request and blocks until its ReqResponse
// arrives or timeout elapses, synthesising NoResponse on expiry (§5).
func (c *Controller) SendRequest(kind RequestKind, from, count uint32, stamp Blockstamp, timeout time.Duration) (*ReqResponseMsg, error) {
	id := uuid.NewString()
	req := RequestMsg{ID: id, Kind: kind, From: from, Count: count, Stamp: stamp}
	payload, err := encodePayload(req)
	if err != nil {
		return nil, err
	}
	f := &Frame{Version: 10, CurrencyID: 0, IssuerNodeID: c.hs.selfNodeID, IssuerPubkey: c.hs.selfPub, Tag: TagRequest, Payload: payload}
	f.Sign(c.hs.selfPriv)

	reply := make(chan *ReqResponseMsg, 1)
	pr := &pendingRequest{replyCh: reply, timer: time.AfterFunc(timeout, func() { c.expire(id) })}
	c.pendingMu.Lock()
	c.pending[id] = pr
	c.pendingMu.Unlock()

	select {
	case c.outbound <- f:
	case <-c.closed:
		return nil, ErrReceiverUnreachable
	}

	select {
	case r := <-reply:
		pr.timer.Stop()
		if r == nil {
			return nil, ErrNoResponse
		}
		return r, nil
	case <-c.closed:
		return nil, ErrReceiverUnreachable
	}
}

func (c *Controller) deliver(resp *ReqResponseMsg) {
	c.pendingMu.Lock()
	pr, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.pendingMu.Unlock()
	if ok {
		pr.replyCh <- resp
	}
}

func (c *Controller) expire(id string) {
	c.pendingMu.Lock()
	pr, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
	if ok {
		pr.replyCh <- nil
	}
}

// finish drains the outbound queue, closes the connection and emits a
// single Disconnected event, per §4.11's cancellation semantics.
func (c *Controller) finish(reason string) {
	c.closeOnce.Do(func() {
		close(c.closed)
		close(c.outbound)

		c.pendingMu.Lock()
		for id, pr := range c.pending {
			pr.timer.Stop()
			pr.replyCh <- nil
			delete(c.pending, id)
		}
		c.pendingMu.Unlock()

		_ = c.conn.Close()
		c.log.Infof("ws2p: disconnected: %s", reason)
		if c.onDisconnect != nil {
			c.onDisconnect(DisconnectedEvent{ConnID: c.id, Reason: reason})
		}
	})
}
