package core

// MIndexOp is the operation tag carried by a MINDEX line (§4.2).
type MIndexOp uint8

const (
	MIndexCreate MIndexOp = iota
	MIndexUpdate
)

// MIndexLine is one event in a membership's append log (§4.2: key = pubkey;
// fields = created_on, written_on, expires_on, revokes_on, revoked_on,
// leaving, chainable_on). Following the same Option-merge convention as
// IINDEX: every field except the op tag and written_on is merged only when
// present, so a membership renewal need only carry the fields it changes.
type MIndexLine struct {
	Op          MIndexOp
	Pubkey      PubKey
	CreatedOn   *Blockstamp
	WrittenOn   Blockstamp
	ExpiresOn   *int64
	RevokesOn   *int64
	RevokedOn   *int64
	Leaving     *bool
	ChainableOn *int64
}

// MIndexState is the reduced membership state (§4.2).
type MIndexState struct {
	Op          MIndexOp
	Pubkey      PubKey
	CreatedOn   Blockstamp
	WrittenOn   Blockstamp
	ExpiresOn   int64
	RevokesOn   int64
	RevokedOn   int64
	Leaving     bool
	ChainableOn int64
}

func reduceMIndexLine(s MIndexState, l MIndexLine) MIndexState {
	s.Op = l.Op
	s.Pubkey = l.Pubkey
	s.WrittenOn = l.WrittenOn
	if l.CreatedOn != nil {
		s.CreatedOn = *l.CreatedOn
	}
	if l.ExpiresOn != nil {
		s.ExpiresOn = *l.ExpiresOn
	}
	if l.RevokesOn != nil {
		s.RevokesOn = *l.RevokesOn
	}
	if l.RevokedOn != nil {
		s.RevokedOn = *l.RevokedOn
	}
	if l.Leaving != nil {
		s.Leaving = *l.Leaving
	}
	if l.ChainableOn != nil {
		s.ChainableOn = *l.ChainableOn
	}
	return s
}

// MIndex is the membership index keyed by public key (§4.2).
type MIndex struct {
	*Index[PubKey, MIndexLine, MIndexState]
}

func NewMIndex() *MIndex {
	return &MIndex{NewIndex[PubKey, MIndexLine, MIndexState](reduceMIndexLine)}
}

func i64Ptr(v int64) *int64 { return &v }
