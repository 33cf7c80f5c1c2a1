package core

import "fmt"

// MembershipType is the side of a membership document, per §3.
type MembershipType uint8

const (
	MembershipIn MembershipType = iota
	MembershipOut
)

func (t MembershipType) String() string {
	if t == MembershipOut {
		return "OUT"
	}
	return "IN"
}

// Membership declares a member's intent to join (In) or leave (Out) the WoT
// at a given blockstamp, per §3/§4.1. WrittenOn/ExpiresOn are filled in once
// the document lands in a block (MINDEX), not by the issuer.
type Membership struct {
	Ver       uint16
	Currency  string
	Issuer    PubKey
	Type      MembershipType
	CreatedOn Blockstamp
	UserID    string
	Sig       string

	WrittenOn Blockstamp
	ExpiresOn int64
}

func (m *Membership) AsSignedBytes() []byte {
	return []byte(fmt.Sprintf("Version: %d\nType: Membership\nCurrency: %s\nIssuer: %s\nMembership: %s\nUserID: %s\nCertTS: %s\n",
		m.Ver, m.Currency, m.Issuer, m.Type, m.UserID, m.CreatedOn))
}

func (m *Membership) Issuers() []PubKey      { return []PubKey{m.Issuer} }
func (m *Membership) Signatures() []string   { return []string{m.Sig} }
func (m *Membership) Blockstamp() Blockstamp { return m.CreatedOn }
func (m *Membership) Version() uint16        { return m.Ver }
func (m *Membership) VerifySignatures() error {
	return verifyParallelSignatures(m.AsSignedBytes(), m.Issuers(), m.Signatures())
}

// ValidateLocal checks the membership's own-document rules (§4.4).
func (m *Membership) ValidateLocal() error {
	if m.Ver != 10 {
		return ErrUnsupportedVersion
	}
	if !usernameRe.MatchString(m.UserID) {
		return &InvalidLocalRuleError{Rule: "membership.userid", Detail: m.UserID}
	}
	return m.VerifySignatures()
}

var _ Document = (*Membership)(nil)
