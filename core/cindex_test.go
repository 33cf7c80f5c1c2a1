package core

import "testing"

func TestCIndexReduceMergesOptionalFields(t *testing.T) {
	idx := NewCIndex()
	issuer, _ := testKeypair(t)
	receiver, _ := testKeypair(t)
	key := CIndexKey{Issuer: issuer, Receiver: receiver}
	idx.Append(key, CIndexLine{
		Op: CIndexCreate, Issuer: issuer, Receiver: receiver,
		Sig: strPtr("sig1"), ExpiresOn: i64Ptr(2000),
	})
	idx.Append(key, CIndexLine{
		Op: CIndexUpdate, Issuer: issuer, Receiver: receiver,
		ChainableOn: i64Ptr(10),
	})
	s := idx.State(key)
	if s.Sig != "sig1" {
		t.Fatalf("Sig should persist across an update that does not touch it, got %q", s.Sig)
	}
	if s.ExpiresOn != 2000 {
		t.Fatalf("ExpiresOn should persist, got %d", s.ExpiresOn)
	}
	if s.ChainableOn != 10 {
		t.Fatalf("ChainableOn should be set by the second line, got %d", s.ChainableOn)
	}
}

func TestCIndexExpired(t *testing.T) {
	active := CIndexState{ExpiresOn: 1000}
	if active.Expired(500) {
		t.Fatalf("a certification should not be expired before its expires_on time")
	}
	if !active.Expired(1000) {
		t.Fatalf("a certification should be expired exactly at its expires_on time")
	}
	explicit := CIndexState{ExpiredOn: 42}
	if !explicit.Expired(0) {
		t.Fatalf("a certification with a non-zero expired_on should report Expired regardless of medianTime")
	}
}

func TestCIndexKeyIdentifiesPair(t *testing.T) {
	issuer, _ := testKeypair(t)
	receiver, _ := testKeypair(t)
	idx := NewCIndex()
	k1 := CIndexKey{Issuer: issuer, Receiver: receiver}
	k2 := CIndexKey{Issuer: receiver, Receiver: issuer}
	idx.Append(k1, CIndexLine{Op: CIndexCreate, Issuer: issuer, Receiver: receiver})
	if idx.Has(k2) {
		t.Fatalf("the reverse (receiver,issuer) pair should be a distinct, unrecorded key")
	}
}
