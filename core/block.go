package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Block is the V10 DUBP block document, per §3. The signed bytes are the
// canonical text minus the trailing signature line; the hash is SHA-256 of
// the canonical bytes including the nonce (§4.1).
type Block struct {
	Ver            uint16
	Currency       string
	Number         uint32
	Nonce          uint64
	PowMin         uint32
	Issuer         PubKey
	PreviousHash   Hash
	PreviousIssuer PubKey
	Time           int64
	MedianTime     int64
	MembersCount   uint32
	IssuersCount   uint32
	IssuersFrame   int64
	IssuersFrameVar int64
	MonetaryMass   uint64
	UnitBase       uint8
	InnerHash      Hash
	Sig            string

	Identities     []*Identity
	Joiners        []*Membership
	Actives        []*Membership
	Leavers        []*Membership
	Revoked        []*Revocation
	Excluded       []PubKey
	Certifications []*Certification
	Transactions   []*Transaction

	Dividend   *uint64
	Parameters *CurrencyParams // only present on the genesis block
}

// IsGenesis reports whether this is block 0.
func (b *Block) IsGenesis() bool { return b.Number == 0 }

// Blockstamp returns this block's own blockstamp, computed from its hash.
func (b *Block) Blockstamp() Blockstamp {
	return Blockstamp{Number: b.Number, Hash: b.ComputeHash()}
}

// PreviousBlockstamp returns the predecessor's blockstamp, or the null
// blockstamp for the genesis block.
func (b *Block) PreviousBlockstamp() Blockstamp {
	if b.IsGenesis() {
		return NullBlockstamp
	}
	return Blockstamp{Number: b.Number - 1, Hash: b.PreviousHash}
}

// innerText builds the canonical text for the inner hash: every field except
// InnerHash and Sig themselves.
func (b *Block) innerText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Version: %d\n", b.Ver)
	fmt.Fprintf(&sb, "Currency: %s\n", b.Currency)
	fmt.Fprintf(&sb, "Number: %d\n", b.Number)
	fmt.Fprintf(&sb, "PoWMin: %d\n", b.PowMin)
	fmt.Fprintf(&sb, "Issuer: %s\n", b.Issuer)
	if !b.IsGenesis() {
		fmt.Fprintf(&sb, "PreviousHash: %s\n", b.PreviousHash)
		fmt.Fprintf(&sb, "PreviousIssuer: %s\n", b.PreviousIssuer)
	}
	fmt.Fprintf(&sb, "MembersCount: %d\n", b.MembersCount)
	fmt.Fprintf(&sb, "IssuersCount: %d\n", b.IssuersCount)
	fmt.Fprintf(&sb, "IssuersFrame: %d\n", b.IssuersFrame)
	fmt.Fprintf(&sb, "IssuersFrameVar: %d\n", b.IssuersFrameVar)
	fmt.Fprintf(&sb, "Time: %d\n", b.Time)
	fmt.Fprintf(&sb, "MedianTime: %d\n", b.MedianTime)
	fmt.Fprintf(&sb, "UnitBase: %d\n", b.UnitBase)
	fmt.Fprintf(&sb, "MonetaryMass: %d\n", b.MonetaryMass)
	if b.Dividend != nil {
		fmt.Fprintf(&sb, "UniversalDividend: %d\n", *b.Dividend)
	}
	if b.Parameters != nil {
		fmt.Fprintf(&sb, "Parameters: %s\n", b.Parameters.CanonicalLine())
	}
	for _, idty := range b.Identities {
		fmt.Fprintf(&sb, "Identity: %s\n", strings.Join(idty.Signatures(), ""))
		sb.Write(idty.AsSignedBytes())
	}
	for _, m := range b.Joiners {
		fmt.Fprintf(&sb, "Joiner: %s\n", m.UserID)
		sb.Write(m.AsSignedBytes())
	}
	for _, m := range b.Actives {
		fmt.Fprintf(&sb, "Active: %s\n", m.UserID)
		sb.Write(m.AsSignedBytes())
	}
	for _, m := range b.Leavers {
		fmt.Fprintf(&sb, "Leaver: %s\n", m.UserID)
		sb.Write(m.AsSignedBytes())
	}
	for _, r := range b.Revoked {
		fmt.Fprintf(&sb, "Revoked: %s\n", r.Username)
		sb.Write(r.AsSignedBytes())
	}
	for _, ex := range b.Excluded {
		fmt.Fprintf(&sb, "Excluded: %s\n", ex)
	}
	for _, c := range b.Certifications {
		fmt.Fprintf(&sb, "Certification: %s\n", c.Key())
		sb.Write(c.AsSignedBytes())
	}
	for _, tx := range b.Transactions {
		fmt.Fprintf(&sb, "Transaction: %s\n", tx.Hash())
		sb.Write(tx.AsSignedBytes())
	}
	return sb.String()
}

// ComputeInnerHash hashes the field text, excluding the nonce.
func (b *Block) ComputeInnerHash() Hash {
	return HashBytes([]byte(b.innerText()))
}

// AsSignedBytes returns the canonical text minus the trailing signature line:
// the inner text plus the nonce line, what the issuer signs.
func (b *Block) AsSignedBytes() []byte {
	return []byte(b.innerText() + "Nonce: " + strconv.FormatUint(b.Nonce, 10) + "\n")
}

// ComputeHash returns the block hash: SHA-256 of the canonical bytes
// including the nonce (§3/§4.1).
func (b *Block) ComputeHash() Hash {
	return HashBytes(b.AsSignedBytes())
}

func (b *Block) Issuers() []PubKey    { return []PubKey{b.Issuer} }
func (b *Block) Signatures() []string { return []string{b.Sig} }
func (b *Block) Version() uint16      { return b.Ver }

func (b *Block) VerifySignatures() error {
	return verifyParallelSignatures(b.AsSignedBytes(), b.Issuers(), b.Signatures())
}

var _ Document = (*Block)(nil)
