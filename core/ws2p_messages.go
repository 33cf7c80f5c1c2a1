package core

// WS2P wire messages (§4.11): a length-prefixed binary frame with a fixed
// metadata header, wrapping a JSON payload keyed by message tag. JSON is
// used for the payload body the way the rest of this package favours plain
// encoding/json over bespoke binary formats (store records excepted), while
// the header stays fixed-width binary so a reader can size the frame before
// touching the payload.

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MessageTag identifies the payload carried by a Frame.
type MessageTag uint8

const (
	TagConnect MessageTag = iota + 1
	TagAck
	TagOk
	TagPeers
	TagHeads
	TagRequest
	TagReqResponse
	TagDisconnect
)

func (t MessageTag) String() string {
	switch t {
	case TagConnect:
		return "Connect"
	case TagAck:
		return "Ack"
	case TagOk:
		return "Ok"
	case TagPeers:
		return "Peers"
	case TagHeads:
		return "Heads"
	case TagRequest:
		return "Request"
	case TagReqResponse:
		return "ReqResponse"
	case TagDisconnect:
		return "Disconnect"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// frameMagic distinguishes a WS2P frame from stray bytes on the stream.
const frameMagic uint32 = 0x57533250 // "WS2P"

// Frame is one on-wire WS2P message: a fixed header plus a JSON payload.
// Header layout (all big-endian): magic(4) version(2) currencyID(4)
// issuerNodeID(4) issuerPubkey(32) tag(1) payloadLen(4) msgHash(32)
// followed by the payload bytes, then a 4-byte signature length and the
// base64 signature.
type Frame struct {
	Version      uint16
	CurrencyID   uint32
	IssuerNodeID uint32
	IssuerPubkey PubKey
	Tag          MessageTag
	Payload      []byte
	Hash         Hash
	Sig          string
}

const frameHeaderLen = 4 + 2 + 4 + 4 + 32 + 1 + 4 + 32

// signedBytes is the portion of the frame covered by Sig: header fields
// (minus the hash itself, which is derived from the payload) plus payload.
func (f *Frame) signedBytes() []byte {
	buf := make([]byte, 0, frameHeaderLen+len(f.Payload))
	var tmp [4]byte
	binary.BigEndian.PutUint16(tmp[:2], f.Version)
	buf = append(buf, tmp[:2]...)
	binary.BigEndian.PutUint32(tmp[:], f.CurrencyID)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint32(tmp[:], f.IssuerNodeID)
	buf = append(buf, tmp[:]...)
	buf = append(buf, f.IssuerPubkey[:]...)
	buf = append(buf, byte(f.Tag))
	buf = append(buf, f.Payload...)
	return buf
}

// Sign computes the payload hash and signs the frame with priv.
func (f *Frame) Sign(priv ed25519.PrivateKey) {
	f.Hash = HashBytes(f.Payload)
	f.Sig = Sign(priv, f.signedBytes())
}

// VerifySignature checks the frame's hash and signature against its
// declared issuer, per §4.11's handshake validity requirement.
func (f *Frame) VerifySignature() error {
	if HashBytes(f.Payload) != f.Hash {
		return fmt.Errorf("ws2p: %w: payload hash mismatch", ErrWrongFormat)
	}
	if !Verify(f.IssuerPubkey, f.signedBytes(), f.Sig) {
		return fmt.Errorf("ws2p: %w", ErrInvalidSignature)
	}
	return nil
}

// WriteFrame serialises and writes f to w.
func WriteFrame(w io.Writer, f *Frame) error {
	var buf bytes.Buffer
	var tmp [4]byte

	binary.BigEndian.PutUint32(tmp[:], frameMagic)
	buf.Write(tmp[:])
	binary.BigEndian.PutUint16(tmp[:2], f.Version)
	buf.Write(tmp[:2])
	binary.BigEndian.PutUint32(tmp[:], f.CurrencyID)
	buf.Write(tmp[:])
	binary.BigEndian.PutUint32(tmp[:], f.IssuerNodeID)
	buf.Write(tmp[:])
	buf.Write(f.IssuerPubkey[:])
	buf.WriteByte(byte(f.Tag))
	binary.BigEndian.PutUint32(tmp[:], uint32(len(f.Payload)))
	buf.Write(tmp[:])
	buf.Write(f.Hash[:])
	buf.Write(f.Payload)

	sigBytes := []byte(f.Sig)
	binary.BigEndian.PutUint32(tmp[:], uint32(len(sigBytes)))
	buf.Write(tmp[:])
	buf.Write(sigBytes)

	_, err := w.Write(buf.Bytes())
	return err
}

// ReadFrame reads and parses one frame from r. Returns ErrWrongFormat on a
// bad magic or an oversize payload or signature; a stream that ends early
// returns the underlying io error.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, 4+frameHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if binary.BigEndian.Uint32(header[0:4]) != frameMagic {
		return nil, fmt.Errorf("ws2p: %w: bad magic", ErrWrongFormat)
	}
	f := &Frame{}
	off := 4
	f.Version = binary.BigEndian.Uint16(header[off : off+2])
	off += 2
	f.CurrencyID = binary.BigEndian.Uint32(header[off : off+4])
	off += 4
	f.IssuerNodeID = binary.BigEndian.Uint32(header[off : off+4])
	off += 4
	copy(f.IssuerPubkey[:], header[off:off+32])
	off += 32
	f.Tag = MessageTag(header[off])
	off++
	payloadLen := binary.BigEndian.Uint32(header[off : off+4])
	off += 4
	copy(f.Hash[:], header[off:off+32])

	if payloadLen > 64<<20 {
		return nil, fmt.Errorf("ws2p: %w: payload too large", ErrWrongFormat)
	}
	f.Payload = make([]byte, payloadLen)
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, err
	}

	var sigLen [4]byte
	if _, err := io.ReadFull(r, sigLen[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(sigLen[:])
	if n > 4096 {
		return nil, fmt.Errorf("ws2p: %w: signature too large", ErrWrongFormat)
	}
	sig := make([]byte, n)
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, err
	}
	f.Sig = string(sig)
	return f, nil
}

//---------------------------------------------------------------------
// Payload bodies, JSON-encoded into Frame.Payload.
//---------------------------------------------------------------------

// ConnectMsg opens a handshake: a fresh challenge plus the sender's
// declared identity and feature set.
type ConnectMsg struct {
	Challenge [32]byte `json:"challenge"`
	NodeID    uint32   `json:"node_id"`
	Pubkey    PubKey   `json:"pubkey"`
	Features  []string `json:"features"`
}

// AckMsg answers a Connect by signing the peer's challenge.
type AckMsg struct {
	Challenge [32]byte `json:"challenge"`
}

// OkMsg confirms handshake completion.
type OkMsg struct{}

// Endpoint is one advertised reachable address, per §6's wire format
// ("API VERSION HOST PORT [PATH]").
type Endpoint struct {
	API      string `json:"api"`
	Version  uint16 `json:"version"`
	Host     string `json:"host"`
	Port     uint16 `json:"port"`
	Path     string `json:"path,omitempty"`
	Features uint32 `json:"features,omitempty"` // Endpoint V2 feature bitmap
}

// String renders the endpoint in its space-separated wire form.
func (e Endpoint) String() string {
	s := fmt.Sprintf("%s %d %s %d", e.API, e.Version, e.Host, e.Port)
	if e.Path != "" {
		s += " " + e.Path
	}
	return s
}

// PeersMsg gossips endpoint cards for known peers.
type PeersMsg struct {
	Peers []PeerCard `json:"peers"`
}

// PeerCard is one entry in a Peers gossip message: an issuer's endpoints.
type PeerCard struct {
	Pubkey    PubKey     `json:"pubkey"`
	Endpoints []Endpoint `json:"endpoints"`
	Sig       string     `json:"sig"`
}

// HeadMsg carries a peer's current blockstamp, signed by its issuer, with a
// monotonic step counter used to reject stale replays (§4.11 head validity).
type HeadMsg struct {
	Blockstamp Blockstamp `json:"blockstamp"`
	Step       uint32     `json:"step"`
	Issuer     PubKey     `json:"issuer"`
	Sig        string     `json:"sig"`
}

// canonicalBytes is what Sig is computed over.
func (h HeadMsg) canonicalBytes() []byte {
	return []byte(fmt.Sprintf("%s:%d:%s", h.Blockstamp.String(), h.Step, h.Issuer.String()))
}

// VerifySignature checks the head's signature against its declared issuer.
func (h HeadMsg) VerifySignature() bool {
	return Verify(h.Issuer, h.canonicalBytes(), h.Sig)
}

// RequestKind enumerates the §4.11 request payload shapes.
type RequestKind string

const (
	ReqGetCurrent      RequestKind = "GetCurrent"
	ReqGetBlocks       RequestKind = "GetBlocks"
	ReqGetChunk        RequestKind = "GetChunk"
	ReqGetWotPool      RequestKind = "GetWotPool"
	ReqGetRequirements RequestKind = "GetRequirements"
)

// RequestMsg is one outbound request, correlated to its response by ID.
type RequestMsg struct {
	ID    string      `json:"id"` // google/uuid string form
	Kind  RequestKind `json:"kind"`
	From  uint32      `json:"from,omitempty"`  // GetBlocks
	Count uint32      `json:"count,omitempty"` // GetBlocks
	Stamp Blockstamp  `json:"stamp,omitempty"` // GetChunk
}

// ReqResponseMsg answers a RequestMsg carrying the same ID.
type ReqResponseMsg struct {
	ID     string          `json:"id"`
	Err    string          `json:"err,omitempty"`
	Blocks []*Block        `json:"blocks,omitempty"`
	Pool   json.RawMessage `json:"pool,omitempty"`
}

// DisconnectMsg is the single terminal event emitted by a closing
// controller, per §4.11's cancellation semantics.
type DisconnectMsg struct {
	Reason string `json:"reason"`
}

// decodePayload is a small helper shared by the handshake and controller to
// unmarshal a frame's JSON payload into dst.
func decodePayload(f *Frame, dst interface{}) error {
	if err := json.Unmarshal(f.Payload, dst); err != nil {
		return fmt.Errorf("ws2p: %w: %v", ErrWrongFormat, err)
	}
	return nil
}

func encodePayload(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
