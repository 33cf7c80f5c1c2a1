package core

// CIndexOp is the operation tag carried by a CINDEX line (§4.2).
type CIndexOp uint8

const (
	CIndexCreate CIndexOp = iota
	CIndexUpdate
)

// CIndexKey is the CINDEX entity id: (issuer, receiver) (§4.2).
type CIndexKey struct {
	Issuer   PubKey
	Receiver PubKey
}

// CIndexLine is one event in a certification's append log. Grounded on
// original_source's cindex/v11.rs: created_on, written_on, sig, expires_on,
// chainable_on and replayable_on are Option-merged; issuer, receiver,
// expired_on and the op tag are always overwritten by the latest line.
type CIndexLine struct {
	Op           CIndexOp
	Issuer       PubKey
	Receiver     PubKey
	ExpiredOn    int64
	CreatedOn    *Blockstamp
	WrittenOn    *Blockstamp
	Sig          *string
	ExpiresOn    *int64
	ChainableOn  *int64
	ReplayableOn *int64
}

// CIndexState is the reduced certification state (§4.2).
type CIndexState struct {
	Op           CIndexOp
	Issuer       PubKey
	Receiver     PubKey
	ExpiredOn    int64
	CreatedOn    Blockstamp
	WrittenOn    Blockstamp
	Sig          string
	ExpiresOn    int64
	ChainableOn  int64
	ReplayableOn int64
}

func reduceCIndexLine(s CIndexState, l CIndexLine) CIndexState {
	s.Op = l.Op
	s.Issuer = l.Issuer
	s.Receiver = l.Receiver
	s.ExpiredOn = l.ExpiredOn
	if l.CreatedOn != nil {
		s.CreatedOn = *l.CreatedOn
	}
	if l.WrittenOn != nil {
		s.WrittenOn = *l.WrittenOn
	}
	if l.Sig != nil {
		s.Sig = *l.Sig
	}
	if l.ExpiresOn != nil {
		s.ExpiresOn = *l.ExpiresOn
	}
	if l.ChainableOn != nil {
		s.ChainableOn = *l.ChainableOn
	}
	if l.ReplayableOn != nil {
		s.ReplayableOn = *l.ReplayableOn
	}
	return s
}

// CIndex is the certification index keyed by (issuer, receiver) (§4.2).
type CIndex struct {
	*Index[CIndexKey, CIndexLine, CIndexState]
}

func NewCIndex() *CIndex {
	return &CIndex{NewIndex[CIndexKey, CIndexLine, CIndexState](reduceCIndexLine)}
}

// Expired reports whether the certification is no longer active at
// medianTime, per the certification-expiry boundary scenario (§8.6).
func (s CIndexState) Expired(medianTime int64) bool {
	return s.ExpiredOn != 0 || (s.ExpiresOn != 0 && medianTime >= s.ExpiresOn)
}
