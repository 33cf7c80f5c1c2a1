package core

// SIndexOp is the operation tag carried by a SINDEX line (§4.2).
type SIndexOp uint8

const (
	SIndexCreate SIndexOp = iota // source created (new UTXO or UD)
	SIndexUpdate                 // source consumed
)

// SIndexLine is one event in a source's append log. Grounded on
// original_source's sindex/v11.rs: only tx and created_on are Option-merged;
// amount, base, locktime, conditions, written_on, consumed and the op tag
// are always overwritten by the latest line — unlike IINDEX/CINDEX, most
// SINDEX fields are not optional in practice because a source only ever
// receives at most two lines (Create then the consuming Update), and the
// Update line always restates conditions/amount/base/locktime verbatim.
type SIndexLine struct {
	Op         SIndexOp
	Identifier SourceID
	Tx         *Hash
	CreatedOn  *Blockstamp
	WrittenOn  Blockstamp
	Amount     uint64
	Base       uint8
	Locktime   uint64
	Conditions string
	Consumed   bool
}

// SIndexState is the reduced source state (§4.2).
type SIndexState struct {
	Op         SIndexOp
	Identifier SourceID
	Tx         Hash
	CreatedOn  Blockstamp
	WrittenOn  Blockstamp
	Amount     uint64
	Base       uint8
	Locktime   uint64
	Conditions string
	Consumed   bool
}

func reduceSIndexLine(s SIndexState, l SIndexLine) SIndexState {
	s.Op = l.Op
	s.Identifier = l.Identifier
	s.WrittenOn = l.WrittenOn
	s.Amount = l.Amount
	s.Base = l.Base
	s.Locktime = l.Locktime
	s.Conditions = l.Conditions
	s.Consumed = l.Consumed
	if l.Tx != nil {
		s.Tx = *l.Tx
	}
	if l.CreatedOn != nil {
		s.CreatedOn = *l.CreatedOn
	}
	return s
}

// SIndex is the source index keyed by SourceID (§4.2).
type SIndex struct {
	*Index[SourceID, SIndexLine, SIndexState]
}

func NewSIndex() *SIndex {
	return &SIndex{NewIndex[SourceID, SIndexLine, SIndexState](reduceSIndexLine)}
}

// EffectiveValue returns amount * 10^base, the spendable value (§3).
func (s SIndexState) EffectiveValue() uint64 {
	v := s.Amount
	for i := uint8(0); i < s.Base; i++ {
		v *= 10
	}
	return v
}
