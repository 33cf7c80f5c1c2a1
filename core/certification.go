package core

import "fmt"

// Certification links issuer to receiver in the WoT, per §3/§4.1. ExpiresOn,
// ChainableOn and ReplayableOn are derived from currency parameters once the
// certification is written into CINDEX (§4.2), not carried by the signed
// document itself.
type Certification struct {
	Ver            uint16
	Currency       string
	Issuer         PubKey
	Receiver       PubKey
	IdtyUsername   string
	IdtyCreatedOn  Blockstamp // receiver identity's own blockstamp, what the cert signs over
	CreatedOn      Blockstamp // blockstamp at which the certification itself was issued
	Sig            string

	WrittenOn    Blockstamp
	ExpiresOn    int64
	ChainableOn  int64
	ReplayableOn int64
}

func (c *Certification) AsSignedBytes() []byte {
	return []byte(fmt.Sprintf("Version: %d\nType: Certification\nCurrency: %s\nIssuer: %s\nIdtyIssuer: %s\nIdtyUniqueID: %s\nIdtyTimestamp: %s\nCertTimestamp: %s\n",
		c.Ver, c.Currency, c.Issuer, c.Receiver, c.IdtyUsername, c.IdtyCreatedOn, c.CreatedOn))
}

func (c *Certification) Issuers() []PubKey      { return []PubKey{c.Issuer} }
func (c *Certification) Signatures() []string   { return []string{c.Sig} }
func (c *Certification) Blockstamp() Blockstamp { return c.CreatedOn }
func (c *Certification) Version() uint16        { return c.Ver }
func (c *Certification) VerifySignatures() error {
	return verifyParallelSignatures(c.AsSignedBytes(), c.Issuers(), c.Signatures())
}

// Key identifies the certification's CINDEX entity: (issuer, receiver).
func (c *Certification) Key() string {
	return c.Issuer.String() + ":" + c.Receiver.String()
}

// ValidateLocal checks the certification's own-document rules (§4.4): it
// cannot certify its own issuer, and the self-signature must verify.
func (c *Certification) ValidateLocal() error {
	if c.Ver != 10 {
		return ErrUnsupportedVersion
	}
	if c.Issuer == c.Receiver {
		return &InvalidLocalRuleError{Rule: "certification.self", Detail: c.Issuer.String()}
	}
	return c.VerifySignatures()
}

var _ Document = (*Certification)(nil)
