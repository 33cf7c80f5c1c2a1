package core

// IIndexOp is the operation tag carried by an IINDEX line (§4.2).
type IIndexOp uint8

const (
	IIndexCreate IIndexOp = iota
	IIndexUpdate
)

// IIndexLine is one event in an identity's append log. Fields use pointers
// where nil means "no change". Grounded on original_source's iindex/v11.rs:
// uid, hash, sig, created_on, member and kick are Option-merged (replaced
// only when Some); written_on and the op tag are always overwritten by the
// latest line, matching MergeIndexLine::merge_index_line exactly.
type IIndexLine struct {
	Op        IIndexOp
	Pubkey    PubKey
	Username  *string
	Hash      *Hash
	Sig       *string
	CreatedOn *Blockstamp
	WrittenOn Blockstamp
	Member    *bool
	Kick      *bool
}

// IIndexState is the reduced identity state (§4.2).
type IIndexState struct {
	Op        IIndexOp
	Pubkey    PubKey
	Username  string
	Hash      Hash
	Sig       string
	CreatedOn Blockstamp
	WrittenOn Blockstamp
	Member    bool
	Kick      bool
}

// WasMember is the computed field !kick && member (§4.2).
func (s IIndexState) WasMember() bool { return !s.Kick && s.Member }

func reduceIIndexLine(s IIndexState, l IIndexLine) IIndexState {
	s.Op = l.Op
	s.Pubkey = l.Pubkey
	s.WrittenOn = l.WrittenOn
	if l.Username != nil {
		s.Username = *l.Username
	}
	if l.Hash != nil {
		s.Hash = *l.Hash
	}
	if l.Sig != nil {
		s.Sig = *l.Sig
	}
	if l.CreatedOn != nil {
		s.CreatedOn = *l.CreatedOn
	}
	if l.Member != nil {
		s.Member = *l.Member
	}
	if l.Kick != nil {
		s.Kick = *l.Kick
	}
	return s
}

// IIndex is the identity index keyed by public key (§4.2).
type IIndex struct {
	*Index[PubKey, IIndexLine, IIndexState]
}

func NewIIndex() *IIndex {
	return &IIndex{NewIndex[PubKey, IIndexLine, IIndexState](reduceIIndexLine)}
}

func boolPtr(b bool) *bool           { return &b }
func strPtr(s string) *string        { return &s }
func stampPtr(b Blockstamp) *Blockstamp { return &b }
func hashPtr(h Hash) *Hash            { return &h }
