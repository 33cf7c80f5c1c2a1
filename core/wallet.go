package core

// HD wallet for DUBP keypairs.
//
//   - Ed25519 key-pairs only, used directly as the DUBP identity pubkey.
//   - Hierarchical Deterministic derivation (SLIP-0010 style, hardened-only).
//   - BIP-39 mnemonic utilities (12-/24-word human recovery phrases).
//
// Unlike account-model chains, DUBP has no separate address derivation: the
// Ed25519 public key itself, base58-encoded, is the identity (§3). wallet.go
// keeps the HD-derivation idiom from the teacher's wallet but returns PubKey
// directly instead of a RIPEMD-160-compressed address.

import (
	"crypto/ed25519"
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	bip39 "github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters for the salt/password key scheme, matching
// Duniter's classic member/network key derivation.
const (
	scryptN = 4096
	scryptR = 16
	scryptP = 1
)

// KeypairFromSaltPassword derives an Ed25519 keypair from a salt/password
// pair, the scheme `keys show`/`keys modify` uses before HD wallets existed:
// scrypt(password, salt) feeds a 32-byte seed straight into Ed25519.
func KeypairFromSaltPassword(salt, password string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	seed, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, ed25519.SeedSize)
	if err != nil {
		return nil, nil, fmt.Errorf("wallet: scrypt: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return priv, priv.Public().(ed25519.PublicKey), nil
}

const (
	hardenedOffset uint32 = 0x80000000
	masterHMACKey         = "ed25519 seed" // SLIP-0010 master-key string
)

var globalLogger = log.New()

// SetWalletLogger overrides the package-wide wallet logger.
func SetWalletLogger(l *log.Logger) { globalLogger = l }

// HDWallet keeps master key material in-memory only. Derivation model:
// SLIP-0010 hardened children only, path m / account' / index'.
type HDWallet struct {
	seed        []byte
	masterKey   []byte
	masterChain []byte
	logger      *log.Logger
}

// Seed returns a copy of the wallet's master seed. Callers should securely
// wipe the returned slice after use.
func (w *HDWallet) Seed() []byte {
	out := make([]byte, len(w.seed))
	copy(out, w.seed)
	return out
}

// NewRandomWallet generates entropyBits (128/256) of RNG entropy and
// returns the wallet plus its recovery mnemonic.
func NewRandomWallet(entropyBits int) (*HDWallet, string, error) {
	if entropyBits != 128 && entropyBits != 256 {
		return nil, "", fmt.Errorf("unsupported entropy size %d", entropyBits)
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, "", fmt.Errorf("entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, "", fmt.Errorf("mnemonic: %w", err)
	}
	seed := bip39.NewSeed(mnemonic, "")
	w, err := NewHDWalletFromSeed(seed, globalLogger)
	if err != nil {
		return nil, "", err
	}
	return w, mnemonic, nil
}

// WalletFromMnemonic imports an existing BIP-39 phrase.
func WalletFromMnemonic(mnemonic, passphrase string) (*HDWallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic checksum")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return NewHDWalletFromSeed(seed, globalLogger)
}

// NewHDWalletFromSeed builds a wallet directly from a BIP-39 seed.
func NewHDWalletFromSeed(seed []byte, lg *log.Logger) (*HDWallet, error) {
	if len(seed) < 16 {
		return nil, errors.New("seed too short")
	}
	I := hmacSHA512([]byte(masterHMACKey), seed)
	w := &HDWallet{
		seed:        seed,
		masterKey:   I[:32],
		masterChain: I[32:],
		logger:      lg,
	}
	lg.Infof("wallet: master key initialised (%d bytes seed)", len(seed))
	return w, nil
}

// derivePrivate returns the key material and new chain code for a hardened
// index. Only hardened derivation is supported for Ed25519.
func derivePrivate(parentKey, parentChain []byte, index uint32) (key, ccode []byte, err error) {
	if index < hardenedOffset {
		return nil, nil, errors.New("non-hardened derivation not supported for ed25519")
	}
	data := make([]byte, 1+32+4)
	copy(data[1:], parentKey)
	binary.BigEndian.PutUint32(data[33:], index)
	I := hmacSHA512(parentChain, data)
	return I[:32], I[32:], nil
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// PrivateKey derives the Ed25519 keypair for path m / account' / index'.
func (w *HDWallet) PrivateKey(account, index uint32) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	account |= hardenedOffset
	index |= hardenedOffset

	k1, c1, err := derivePrivate(w.masterKey, w.masterChain, account)
	if err != nil {
		return nil, nil, err
	}
	k2, _, err := derivePrivate(k1, c1, index)
	if err != nil {
		return nil, nil, err
	}
	priv := ed25519.NewKeyFromSeed(k2)
	pub := priv.Public().(ed25519.PublicKey)
	return priv, pub, nil
}

// NewIdentityKey derives account+index and returns its DUBP identity pubkey.
func (w *HDWallet) NewIdentityKey(account, index uint32) (PubKey, error) {
	_, pub, err := w.PrivateKey(account, index)
	if err != nil {
		return PubKey{}, err
	}
	var pk PubKey
	copy(pk[:], pub)
	return pk, nil
}

// SignWith derives (account, index) and signs msg, returning the base64
// signature expected by Document.Signatures().
func (w *HDWallet) SignWith(account, index uint32, msg []byte) (PubKey, string, error) {
	priv, pub, err := w.PrivateKey(account, index)
	if err != nil {
		return PubKey{}, "", err
	}
	var pk PubKey
	copy(pk[:], pub)
	return pk, Sign(priv, msg), nil
}

// RandomMnemonicEntropy produces cryptographically-secure random entropy of
// the given number of bits.
func RandomMnemonicEntropy(bits int) ([]byte, error) {
	if bits%32 != 0 {
		return nil, errors.New("entropy bits must be multiple of 32")
	}
	b := make([]byte, bits/8)
	if _, err := crand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Wipe zeroes a byte slice in-place (best-effort; GC may still have copies).
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
