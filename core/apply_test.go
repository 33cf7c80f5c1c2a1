package core

import "testing"

// testChainState returns a ChainState ready to accept a genesis block, with
// Params set directly (bypassing the store-backed checkpoint ReplayChainState
// normally loads) so these tests exercise Apply/Revert in isolation.
func testChainState() *ChainState {
	cs := NewChainState(nil, "g1-test")
	cs.Params = ApplyCurrencyOverrides(DefaultCurrencyParams(), "g1-test")
	cs.Wot = NewWoT(int(cs.Params.SigStock))
	return cs
}

// TestApplyRevertSymmetryLeaver exercises the reviewer-flagged bug: a Leaver
// disabled a WoT node but Revert never re-enabled it.
func TestApplyRevertSymmetryLeaver(t *testing.T) {
	pk, priv := testKeypair(t)
	cs := testChainState()
	rules := DefaultRuleSet()

	genesis := testGenesisBlock(pk, priv)
	if _, err := Apply(cs, rules, genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	id, ok := cs.Wot.Lookup(pk)
	if !ok || !cs.Wot.IsEnabled(id) {
		t.Fatalf("issuer should be an enabled WoT member after genesis")
	}

	b2 := testNextBlock(genesis, pk, priv)
	b2.Leavers = []*Membership{signedMembership(pk, priv, MembershipOut, "alice", genesis.Blockstamp())}
	resign(b2, priv)

	res, err := Apply(cs, rules, b2)
	if err != nil {
		t.Fatalf("apply leaver block: %v", err)
	}
	if cs.Wot.IsEnabled(id) {
		t.Fatalf("leaver should disable the WoT node")
	}
	if cs.IsMember(pk) {
		t.Fatalf("leaver should clear IINDEX membership")
	}

	Revert(cs, res)
	if !cs.Wot.IsEnabled(id) {
		t.Fatalf("revert must re-enable the WoT node disabled by the leaver (wotDisabled)")
	}
	if !cs.IsMember(pk) {
		t.Fatalf("revert must restore IINDEX membership")
	}
	if cs.Current != genesis.Blockstamp() {
		t.Fatalf("revert must restore cs.Current to the pre-apply tip")
	}
}

// TestApplyRevertSymmetryRevoked mirrors the leaver case for a Revoked entry.
func TestApplyRevertSymmetryRevoked(t *testing.T) {
	pk, priv := testKeypair(t)
	cs := testChainState()
	rules := DefaultRuleSet()

	genesis := testGenesisBlock(pk, priv)
	if _, err := Apply(cs, rules, genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	id, _ := cs.Wot.Lookup(pk)

	b2 := testNextBlock(genesis, pk, priv)
	b2.Revoked = []*Revocation{signedRevocation(pk, priv, "alice", genesis.Blockstamp())}
	resign(b2, priv)

	res, err := Apply(cs, rules, b2)
	if err != nil {
		t.Fatalf("apply revocation block: %v", err)
	}
	if cs.Wot.IsEnabled(id) {
		t.Fatalf("revocation should disable the WoT node")
	}

	Revert(cs, res)
	if !cs.Wot.IsEnabled(id) {
		t.Fatalf("revert must re-enable the WoT node disabled by the revocation")
	}
}

// TestApplyRevertSymmetryExcluded mirrors the leaver case for an Excluded
// pubkey (no embedded document, just a bare pubkey list).
func TestApplyRevertSymmetryExcluded(t *testing.T) {
	pk, priv := testKeypair(t)
	cs := testChainState()
	rules := DefaultRuleSet()

	genesis := testGenesisBlock(pk, priv)
	if _, err := Apply(cs, rules, genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	id, _ := cs.Wot.Lookup(pk)

	b2 := testNextBlock(genesis, pk, priv)
	b2.Excluded = []PubKey{pk}
	resign(b2, priv)

	res, err := Apply(cs, rules, b2)
	if err != nil {
		t.Fatalf("apply exclusion block: %v", err)
	}
	if cs.Wot.IsEnabled(id) {
		t.Fatalf("exclusion should disable the WoT node")
	}

	Revert(cs, res)
	if !cs.Wot.IsEnabled(id) {
		t.Fatalf("revert must re-enable the WoT node disabled by the exclusion")
	}
}

// TestApplyRejectsNonChainingBlock checks Apply's explicit chaining guard.
func TestApplyRejectsNonChainingBlock(t *testing.T) {
	pk, priv := testKeypair(t)
	cs := testChainState()
	rules := DefaultRuleSet()

	genesis := testGenesisBlock(pk, priv)
	if _, err := Apply(cs, rules, genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}

	other := testNextBlock(genesis, pk, priv)
	other.PreviousHash = HashBytes([]byte("not the real previous hash"))
	resign(other, priv)

	if _, err := Apply(cs, rules, other); err == nil {
		t.Fatalf("expected an error applying a block that does not chain onto cs.Current")
	}
}

// TestApplyRevertRestoresIssuerWindow confirms Comment 1's fix also restores
// the per-issuer recency window Apply threads through pushIssuerWindow.
func TestApplyRevertRestoresIssuerWindow(t *testing.T) {
	pk, priv := testKeypair(t)
	cs := testChainState()
	rules := DefaultRuleSet()

	genesis := testGenesisBlock(pk, priv)
	if _, err := Apply(cs, rules, genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}
	before := append([]PubKey(nil), cs.IssuerWindow...)

	b2 := testNextBlock(genesis, pk, priv)
	res, err := Apply(cs, rules, b2)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(cs.IssuerWindow) != len(before)+1 {
		t.Fatalf("issuer window should grow by one entry per applied block")
	}

	Revert(cs, res)
	if len(cs.IssuerWindow) != len(before) {
		t.Fatalf("revert must restore the issuer window to its pre-apply length")
	}
}
