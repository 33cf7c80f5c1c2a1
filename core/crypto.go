package core

// Signing, hashing and textual codecs shared by every document type.
//
// Keys are Ed25519 only (crypto/ed25519). Public keys and seeds are
// exchanged as base58 text, signatures as base64 text, and hashes as
// upper-case hex, matching the DUBP document grammar.

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

// PubKey is a 32-byte Ed25519 public key.
type PubKey [ed25519.PublicKeySize]byte

// Hash is a SHA-256 digest, displayed as upper-case hex in documents.
type Hash [sha256.Size]byte

var ZeroHash Hash

// String renders a public key in the base58 form used on the wire.
func (p PubKey) String() string {
	return base58.Encode(p[:])
}

// ParsePubKey decodes a base58 public key string.
func ParsePubKey(s string) (PubKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return PubKey{}, errors.New("crypto: invalid base58 pubkey: " + err.Error())
	}
	if len(raw) != ed25519.PublicKeySize {
		return PubKey{}, errors.New("crypto: pubkey must be 32 bytes")
	}
	var pk PubKey
	copy(pk[:], raw)
	return pk, nil
}

// String renders a hash as the upper-case hex form used in document bodies.
func (h Hash) String() string {
	return strings.ToUpper(hex.EncodeToString(h[:]))
}

// IsZero reports whether h is the default, unset hash.
func (h Hash) IsZero() bool { return h == ZeroHash }

// ParseHash decodes a hex hash, accepting either case.
func ParseHash(s string) (Hash, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, errors.New("crypto: invalid hex hash: " + err.Error())
	}
	if len(raw) != sha256.Size {
		return Hash{}, errors.New("crypto: hash must be 32 bytes")
	}
	var h Hash
	copy(h[:], raw)
	return h, nil
}

// HashBytes returns the SHA-256 digest of data.
func HashBytes(data []byte) Hash {
	return sha256.Sum256(data)
}

// HashString is the hex form of HashBytes, as used for block/document hashes.
func HashString(data []byte) string {
	h := HashBytes(data)
	return h.String()
}

// GenerateKeypair produces a fresh Ed25519 keypair.
func GenerateKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}

// Sign signs msg and returns the base64 signature used in document bodies.
func Sign(priv ed25519.PrivateKey, msg []byte) string {
	sig := ed25519.Sign(priv, msg)
	return base64.StdEncoding.EncodeToString(sig)
}

// Verify checks a base64-encoded signature against pub and msg.
func Verify(pub PubKey, msg []byte, sigB64 string) bool {
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}
