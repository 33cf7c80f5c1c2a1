package core

import "testing"

func TestKeypairFromSaltPasswordDeterministic(t *testing.T) {
	priv1, pub1, err := KeypairFromSaltPassword("salt", "password")
	if err != nil {
		t.Fatalf("KeypairFromSaltPassword: %v", err)
	}
	priv2, pub2, err := KeypairFromSaltPassword("salt", "password")
	if err != nil {
		t.Fatalf("KeypairFromSaltPassword: %v", err)
	}
	if string(priv1) != string(priv2) || string(pub1) != string(pub2) {
		t.Fatal("same salt/password should derive the same keypair")
	}

	_, pub3, err := KeypairFromSaltPassword("salt", "different-password")
	if err != nil {
		t.Fatalf("KeypairFromSaltPassword: %v", err)
	}
	if string(pub1) == string(pub3) {
		t.Fatal("different passwords should derive different keys")
	}
}

func TestHDWalletDeriveAndSign(t *testing.T) {
	w, mnemonic, err := NewRandomWallet(128)
	if err != nil {
		t.Fatalf("NewRandomWallet: %v", err)
	}
	if mnemonic == "" {
		t.Fatal("expected a non-empty mnemonic")
	}

	pk, err := w.NewIdentityKey(0, 0)
	if err != nil {
		t.Fatalf("NewIdentityKey: %v", err)
	}

	msg := []byte("hello wot")
	signer, sig, err := w.SignWith(0, 0, msg)
	if err != nil {
		t.Fatalf("SignWith: %v", err)
	}
	if signer != pk {
		t.Fatalf("SignWith pubkey %v does not match NewIdentityKey %v", signer, pk)
	}
	if !Verify(pk, msg, sig) {
		t.Fatal("signature produced by SignWith should verify against the derived pubkey")
	}
}

func TestWalletFromMnemonicRejectsInvalid(t *testing.T) {
	if _, err := WalletFromMnemonic("not a real bip39 mnemonic phrase at all", ""); err == nil {
		t.Fatal("expected error for invalid mnemonic checksum")
	}
}

func TestNewRandomWalletRejectsUnsupportedEntropy(t *testing.T) {
	if _, _, err := NewRandomWallet(100); err == nil {
		t.Fatal("expected error for unsupported entropy size")
	}
}
