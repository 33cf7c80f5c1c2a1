package core

import "testing"

func TestSIndexReduceOverwritesEveryFieldExceptTxAndCreatedOn(t *testing.T) {
	idx := NewSIndex()
	pk, _ := testKeypair(t)
	id := SourceID{Kind: SourceUD, Issuer: pk, UDBlock: 1}
	idx.Append(id, SIndexLine{
		Op: SIndexCreate, Identifier: id,
		CreatedOn: stampPtr(Blockstamp{Number: 1}),
		Amount:    100, Base: 0, Conditions: "SIG(" + pk.String() + ")",
		WrittenOn: Blockstamp{Number: 1},
	})
	idx.Append(id, SIndexLine{
		Op: SIndexUpdate, Identifier: id,
		Amount: 100, Base: 0, Conditions: "SIG(" + pk.String() + ")",
		Consumed:  true,
		WrittenOn: Blockstamp{Number: 2},
	})
	s := idx.State(id)
	if s.CreatedOn.Number != 1 {
		t.Fatalf("CreatedOn should persist from the create line, got %d", s.CreatedOn.Number)
	}
	if !s.Consumed {
		t.Fatalf("Consumed should be true after the consuming update line")
	}
	if s.WrittenOn.Number != 2 {
		t.Fatalf("WrittenOn should always track the latest line")
	}
	if s.Op != SIndexUpdate {
		t.Fatalf("Op should always track the latest line")
	}
}

func TestSIndexEffectiveValue(t *testing.T) {
	s := SIndexState{Amount: 5, Base: 2}
	if got := s.EffectiveValue(); got != 500 {
		t.Fatalf("EffectiveValue() = %d, want 500", got)
	}
	zeroBase := SIndexState{Amount: 42, Base: 0}
	if got := zeroBase.EffectiveValue(); got != 42 {
		t.Fatalf("EffectiveValue() with base 0 = %d, want 42", got)
	}
}

func TestSIndexSourceIDString(t *testing.T) {
	pk, _ := testKeypair(t)
	ud := SourceID{Kind: SourceUD, Issuer: pk, UDBlock: 3}
	if got := ud.String(); got[:2] != "D:" {
		t.Fatalf("UD source string should start with D:, got %q", got)
	}
	utxo := SourceID{Kind: SourceUTXO, TxHash: HashBytes([]byte("x")), Pos: 0}
	if got := utxo.String(); got[:2] != "T:" {
		t.Fatalf("UTXO source string should start with T:, got %q", got)
	}
}
