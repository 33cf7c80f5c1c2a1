package core

import "fmt"

// Revocation is the self-signed document by which a member permanently
// leaves the WoT. Applying it appends an IINDEX Update with member=false and
// kick=true; IINDEX carries no separate revoked flag.
type Revocation struct {
	Ver       uint16
	Currency  string
	Pubkey    PubKey
	Username  string
	CreatedOn Blockstamp // the identity's own creation blockstamp, what this revokes
	Sig       string
}

func (r *Revocation) AsSignedBytes() []byte {
	return []byte(fmt.Sprintf("Version: %d\nType: Revocation\nCurrency: %s\nIssuer: %s\nUniqueID: %s\nIdtyTimestamp: %s\n",
		r.Ver, r.Currency, r.Pubkey, r.Username, r.CreatedOn))
}

func (r *Revocation) Issuers() []PubKey      { return []PubKey{r.Pubkey} }
func (r *Revocation) Signatures() []string   { return []string{r.Sig} }
func (r *Revocation) Blockstamp() Blockstamp { return r.CreatedOn }
func (r *Revocation) Version() uint16        { return r.Ver }
func (r *Revocation) VerifySignatures() error {
	return verifyParallelSignatures(r.AsSignedBytes(), r.Issuers(), r.Signatures())
}

func (r *Revocation) ValidateLocal() error {
	if r.Ver != 10 {
		return ErrUnsupportedVersion
	}
	return r.VerifySignatures()
}

var _ Document = (*Revocation)(nil)
