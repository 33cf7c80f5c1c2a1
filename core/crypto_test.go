package core

import "testing"

func TestPubKeyBase58RoundTrip(t *testing.T) {
	pub, _, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	var pk PubKey
	copy(pk[:], pub)

	s := pk.String()
	got, err := ParsePubKey(s)
	if err != nil {
		t.Fatalf("ParsePubKey(%q): %v", s, err)
	}
	if got != pk {
		t.Fatalf("round trip mismatch: got %v, want %v", got, pk)
	}
}

func TestParsePubKeyWrongLength(t *testing.T) {
	if _, err := ParsePubKey("5Q"); err == nil {
		t.Fatal("expected error for too-short pubkey")
	}
}

func TestHashHexRoundTrip(t *testing.T) {
	h := HashBytes([]byte("payload"))
	s := h.String()
	got, err := ParseHash(s)
	if err != nil {
		t.Fatalf("ParseHash(%q): %v", s, err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %v, want %v", got, h)
	}
	if got, want := s, HashString([]byte("payload")); got != want {
		t.Fatalf("HashString = %q, want %q", got, want)
	}
}

func TestHashIsZero(t *testing.T) {
	if !ZeroHash.IsZero() {
		t.Fatal("ZeroHash.IsZero() should be true")
	}
	if HashBytes([]byte("x")).IsZero() {
		t.Fatal("non-zero hash reported as zero")
	}
}

func TestSignVerify(t *testing.T) {
	pub, priv, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	var pk PubKey
	copy(pk[:], pub)

	msg := []byte("verify this")
	sig := Sign(priv, msg)
	if !Verify(pk, msg, sig) {
		t.Fatal("Verify should accept a signature from the matching key")
	}
	if Verify(pk, []byte("tampered"), sig) {
		t.Fatal("Verify should reject a signature over a different message")
	}
	if Verify(pk, msg, "not-base64!!") {
		t.Fatal("Verify should reject malformed base64")
	}
}
