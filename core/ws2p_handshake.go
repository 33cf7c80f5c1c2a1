package core

// Per-connection handshake state machine (§4.11): WaitConnect ->
// ConnectMsgReceived -> AckSent -> OkSent -> Established, with any
// malformed message, bad signature or feature mismatch folding to Denial.

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"fmt"
)

// HandshakeState is one side's position in the WS2P handshake.
type HandshakeState uint8

const (
	WaitConnect HandshakeState = iota
	ConnectMsgReceived
	AckSent
	OkSent
	Established
	Denial
)

func (s HandshakeState) String() string {
	switch s {
	case WaitConnect:
		return "WaitConnect"
	case ConnectMsgReceived:
		return "ConnectMsgReceived"
	case AckSent:
		return "AckSent"
	case OkSent:
		return "OkSent"
	case Established:
		return "Established"
	case Denial:
		return "Denial"
	default:
		return "Unknown"
	}
}

// RequiredFeatures is the feature set this node insists its peer declares;
// a Connect missing any of these denies the connection.
var RequiredFeatures = []string{"DUBP_V10"}

// Handshake drives one side of the state machine over a connection's frame
// stream. It owns its own challenge and the peer's once received.
type Handshake struct {
	State HandshakeState

	selfNodeID uint32
	selfPriv   ed25519.PrivateKey
	selfPub    PubKey
	currencyID uint32
	version    uint16

	selfChallenge [32]byte
	peerChallenge [32]byte
	peerNodeID    uint32
	peerPubkey    PubKey

	denialReason string
}

// NewHandshake starts a handshake for one connection side.
func NewHandshake(nodeID uint32, priv ed25519.PrivateKey, pub PubKey, currencyID uint32, version uint16) (*Handshake, error) {
	h := &Handshake{
		State:      WaitConnect,
		selfNodeID: nodeID,
		selfPriv:   priv,
		selfPub:    pub,
		currencyID: currencyID,
		version:    version,
	}
	if _, err := crand.Read(h.selfChallenge[:]); err != nil {
		return nil, fmt.Errorf("ws2p: handshake: challenge: %w", err)
	}
	return h, nil
}

// Deny transitions to Denial with reason, the terminal state for any
// malformed message, bad signature, unexpected type or feature mismatch.
func (h *Handshake) Deny(reason string) *Frame {
	h.State = Denial
	h.denialReason = reason
	payload, _ := encodePayload(DisconnectMsg{Reason: reason})
	f := &Frame{Version: h.version, CurrencyID: h.currencyID, IssuerNodeID: h.selfNodeID, IssuerPubkey: h.selfPub, Tag: TagDisconnect, Payload: payload}
	f.Sign(h.selfPriv)
	return f
}

// OutgoingConnect builds this side's initial Connect frame.
func (h *Handshake) OutgoingConnect() *Frame {
	payload, _ := encodePayload(ConnectMsg{
		Challenge: h.selfChallenge,
		NodeID:    h.selfNodeID,
		Pubkey:    h.selfPub,
		Features:  RequiredFeatures,
	})
	f := &Frame{Version: h.version, CurrencyID: h.currencyID, IssuerNodeID: h.selfNodeID, IssuerPubkey: h.selfPub, Tag: TagConnect, Payload: payload}
	f.Sign(h.selfPriv)
	return f
}

// Step feeds one received frame into the state machine, returning the
// response frame to send (if any) and an error if the frame was rejected. A
// rejected frame moves State to Denial, and the returned frame is then the
// Disconnect to send before closing the socket.
func (h *Handshake) Step(f *Frame) (*Frame, error) {
	if err := f.VerifySignature(); err != nil {
		return h.Deny("bad signature"), err
	}

	switch h.State {
	case WaitConnect:
		if f.Tag != TagConnect {
			return h.Deny("expected Connect"), fmt.Errorf("ws2p: handshake: unexpected tag %s", f.Tag)
		}
		var m ConnectMsg
		if err := decodePayload(f, &m); err != nil {
			return h.Deny("malformed Connect"), err
		}
		if !hasFeatures(m.Features, RequiredFeatures) {
			return h.Deny("feature mismatch"), fmt.Errorf("ws2p: handshake: missing required features")
		}
		h.peerChallenge = m.Challenge
		h.peerNodeID = m.NodeID
		h.peerPubkey = m.Pubkey
		h.State = ConnectMsgReceived

		ack, _ := encodePayload(AckMsg{Challenge: m.Challenge})
		resp := &Frame{Version: h.version, CurrencyID: h.currencyID, IssuerNodeID: h.selfNodeID, IssuerPubkey: h.selfPub, Tag: TagAck, Payload: ack}
		resp.Sign(h.selfPriv)
		h.State = AckSent
		return resp, nil

	case AckSent:
		if f.Tag != TagAck {
			return h.Deny("expected Ack"), fmt.Errorf("ws2p: handshake: unexpected tag %s", f.Tag)
		}
		var m AckMsg
		if err := decodePayload(f, &m); err != nil {
			return h.Deny("malformed Ack"), err
		}
		if m.Challenge != h.selfChallenge {
			return h.Deny("challenge mismatch"), fmt.Errorf("ws2p: handshake: challenge mismatch")
		}
		ok, _ := encodePayload(OkMsg{})
		resp := &Frame{Version: h.version, CurrencyID: h.currencyID, IssuerNodeID: h.selfNodeID, IssuerPubkey: h.selfPub, Tag: TagOk, Payload: ok}
		resp.Sign(h.selfPriv)
		h.State = OkSent
		return resp, nil

	case OkSent, ConnectMsgReceived:
		if f.Tag != TagOk {
			return h.Deny("expected Ok"), fmt.Errorf("ws2p: handshake: unexpected tag %s", f.Tag)
		}
		h.State = Established
		return nil, nil

	default:
		return h.Deny("handshake already finished"), fmt.Errorf("ws2p: handshake: no step in state %s", h.State)
	}
}

func hasFeatures(declared, required []string) bool {
	have := make(map[string]bool, len(declared))
	for _, f := range declared {
		have[f] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}
