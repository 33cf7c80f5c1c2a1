package core

import "testing"

func TestMIndexReduceMergesOptionalFields(t *testing.T) {
	idx := NewMIndex()
	pk, _ := testKeypair(t)
	idx.Append(pk, MIndexLine{
		Op: MIndexCreate, Pubkey: pk,
		ExpiresOn: i64Ptr(1000), WrittenOn: Blockstamp{Number: 0},
	})
	idx.Append(pk, MIndexLine{
		Op: MIndexUpdate, Pubkey: pk,
		Leaving:   boolPtr(true),
		WrittenOn: Blockstamp{Number: 3},
	})
	s := idx.State(pk)
	if s.ExpiresOn != 1000 {
		t.Fatalf("ExpiresOn should persist across an update that does not touch it, got %d", s.ExpiresOn)
	}
	if !s.Leaving {
		t.Fatalf("Leaving should be set true by the second line")
	}
	if s.WrittenOn.Number != 3 {
		t.Fatalf("WrittenOn should always track the latest line")
	}
}

func TestMIndexRevocationFields(t *testing.T) {
	idx := NewMIndex()
	pk, _ := testKeypair(t)
	idx.Append(pk, MIndexLine{Op: MIndexCreate, Pubkey: pk, RevokesOn: i64Ptr(500)})
	idx.Append(pk, MIndexLine{Op: MIndexUpdate, Pubkey: pk, RevokedOn: i64Ptr(600)})
	s := idx.State(pk)
	if s.RevokesOn != 500 {
		t.Fatalf("RevokesOn should persist from the first line, got %d", s.RevokesOn)
	}
	if s.RevokedOn != 600 {
		t.Fatalf("RevokedOn should be set by the second line, got %d", s.RevokedOn)
	}
}
