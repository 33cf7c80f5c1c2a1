package core

import "testing"

func TestBlockComputeHashDeterministic(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	if b.ComputeHash() != b.ComputeHash() {
		t.Fatalf("ComputeHash should be deterministic")
	}
}

func TestBlockComputeHashChangesWithNonce(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	h1 := b.ComputeHash()
	b.Nonce = 42
	resign(b, priv)
	if b.ComputeHash() == h1 {
		t.Fatalf("changing the nonce should change the block hash")
	}
}

func TestBlockInnerHashExcludesNonce(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	inner1 := b.ComputeInnerHash()
	b.Nonce = 42
	resign(b, priv)
	if b.ComputeInnerHash() != inner1 {
		t.Fatalf("ComputeInnerHash should be independent of the nonce")
	}
}

func TestBlockIsGenesis(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	if !genesis.IsGenesis() {
		t.Fatalf("block 0 should report IsGenesis true")
	}
	b2 := testNextBlock(genesis, pk, priv)
	if b2.IsGenesis() {
		t.Fatalf("block 1 should report IsGenesis false")
	}
}

func TestBlockBlockstampAndPreviousBlockstamp(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	if genesis.PreviousBlockstamp() != NullBlockstamp {
		t.Fatalf("genesis block should have the null blockstamp as its predecessor")
	}
	b2 := testNextBlock(genesis, pk, priv)
	if b2.PreviousBlockstamp() != genesis.Blockstamp() {
		t.Fatalf("PreviousBlockstamp() should equal the parent's own Blockstamp()")
	}
	if b2.Blockstamp().Number != 1 {
		t.Fatalf("Blockstamp().Number = %d, want 1", b2.Blockstamp().Number)
	}
}

func TestBlockVerifySignatures(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	if err := b.VerifySignatures(); err != nil {
		t.Fatalf("valid block signature should verify: %v", err)
	}
}

func TestBlockVerifySignaturesRejectsTamperedContent(t *testing.T) {
	pk, priv := testKeypair(t)
	b := testGenesisBlock(pk, priv)
	b.MembersCount = 99 // mutate after signing, without resigning
	if err := b.VerifySignatures(); err == nil {
		t.Fatalf("expected signature verification to fail after tampering with block content")
	}
}
