package core

import "testing"

func TestRevocationValidateLocal(t *testing.T) {
	pk, priv := testKeypair(t)
	r := signedRevocation(pk, priv, "alice", NullBlockstamp)
	if err := r.ValidateLocal(); err != nil {
		t.Fatalf("valid revocation should pass ValidateLocal: %v", err)
	}
}

func TestRevocationValidateLocalRejectsUnsupportedVersion(t *testing.T) {
	pk, priv := testKeypair(t)
	r := signedRevocation(pk, priv, "alice", NullBlockstamp)
	r.Ver = 3
	if err := r.ValidateLocal(); err != ErrUnsupportedVersion {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestRevocationValidateLocalRejectsTamperedUsername(t *testing.T) {
	pk, priv := testKeypair(t)
	r := signedRevocation(pk, priv, "alice", NullBlockstamp)
	r.Username = "mallory"
	if err := r.ValidateLocal(); err == nil {
		t.Fatalf("expected signature verification to fail after tampering with username")
	}
}
