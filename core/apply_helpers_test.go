package core

import (
	"crypto/ed25519"
	"testing"
)

// Shared block/document construction helpers for apply_test.go,
// chainstate_test.go and rules_engine_test.go: every test block below uses
// issuers_count=1 and issuers_frame=0 so RuleDifficulty's floor and handicap
// both collapse to zero, letting pow_min stay 0 without mining a real hash.

func testKeypair(t *testing.T) (PubKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	var pk PubKey
	copy(pk[:], pub)
	return pk, priv
}

func signedIdentity(pk PubKey, priv ed25519.PrivateKey, username string) *Identity {
	idty := &Identity{Ver: 10, Currency: "g1-test", Pubkey: pk, Username: username}
	idty.Sig = Sign(priv, idty.AsSignedBytes())
	return idty
}

func signedMembership(pk PubKey, priv ed25519.PrivateKey, typ MembershipType, username string, createdOn Blockstamp) *Membership {
	m := &Membership{Ver: 10, Currency: "g1-test", Issuer: pk, Type: typ, CreatedOn: createdOn, UserID: username}
	m.Sig = Sign(priv, m.AsSignedBytes())
	return m
}

func signedRevocation(pk PubKey, priv ed25519.PrivateKey, username string, createdOn Blockstamp) *Revocation {
	r := &Revocation{Ver: 10, Currency: "g1-test", Pubkey: pk, Username: username, CreatedOn: createdOn}
	r.Sig = Sign(priv, r.AsSignedBytes())
	return r
}

// testGenesisBlock returns a minimal locally- and globally-valid genesis
// block whose sole identity is pk, a member from block 0 onward.
func testGenesisBlock(pk PubKey, priv ed25519.PrivateKey) *Block {
	params := ApplyCurrencyOverrides(DefaultCurrencyParams(), "g1-test")
	b := &Block{
		Ver:          10,
		Currency:     "g1-test",
		Number:       0,
		PowMin:       0,
		Issuer:       pk,
		Time:         1488970800,
		MedianTime:   1488970800,
		MembersCount: 1,
		IssuersCount: 1,
		UnitBase:     0,
		Parameters:   &params,
		Identities:   []*Identity{signedIdentity(pk, priv, "alice")},
	}
	b.Sig = Sign(priv, b.AsSignedBytes())
	return b
}

// testNextBlock returns a block extending prev, signed by pk, with no
// embedded documents; callers append Leavers/Revoked/Excluded/etc.
// themselves before signing is redundantly re-applied by the caller if
// needed (Sig is left set from the zero-content signature here and must be
// re-signed by the caller after mutating the block).
func testNextBlock(prev *Block, pk PubKey, priv ed25519.PrivateKey) *Block {
	b := &Block{
		Ver:            10,
		Currency:       prev.Currency,
		Number:         prev.Number + 1,
		PowMin:         0,
		Issuer:         pk,
		PreviousHash:   prev.ComputeHash(),
		PreviousIssuer: prev.Issuer,
		Time:           prev.Time,
		MedianTime:     prev.MedianTime,
		MembersCount:   prev.MembersCount,
		IssuersCount:   1,
		UnitBase:       prev.UnitBase,
		MonetaryMass:   prev.MonetaryMass,
	}
	b.Sig = Sign(priv, b.AsSignedBytes())
	return b
}

func resign(b *Block, priv ed25519.PrivateKey) {
	b.Sig = Sign(priv, b.AsSignedBytes())
}
