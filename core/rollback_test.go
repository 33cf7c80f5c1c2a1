package core

import "testing"

func TestRollbackSwitchesToNewBranch(t *testing.T) {
	pk, priv := testKeypair(t)
	cs := testChainState()
	rules := DefaultRuleSet()

	genesis := testGenesisBlock(pk, priv)
	if _, err := Apply(cs, rules, genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}

	oldBlock := testNextBlock(genesis, pk, priv)
	oldRes, err := Apply(cs, rules, oldBlock)
	if err != nil {
		t.Fatalf("apply old branch block: %v", err)
	}

	newBlock := testNextBlock(genesis, pk, priv)
	newBlock.Nonce = 1 // distinct hash from oldBlock, same parent
	resign(newBlock, priv)

	if err := Rollback(cs, rules, []*ApplyResult{oldRes}, []*Block{newBlock}); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if cs.Current != newBlock.Blockstamp() {
		t.Fatalf("rollback should leave cs.Current at the new branch's tip")
	}
}

func TestRollbackRestoresOldBranchOnFailure(t *testing.T) {
	pk, priv := testKeypair(t)
	cs := testChainState()
	rules := DefaultRuleSet()

	genesis := testGenesisBlock(pk, priv)
	if _, err := Apply(cs, rules, genesis); err != nil {
		t.Fatalf("apply genesis: %v", err)
	}

	oldBlock := testNextBlock(genesis, pk, priv)
	oldRes, err := Apply(cs, rules, oldBlock)
	if err != nil {
		t.Fatalf("apply old branch block: %v", err)
	}
	oldTip := cs.Current

	badBlock := testNextBlock(genesis, pk, priv)
	badBlock.Ver = 9 // fails CheckBlockShape inside Apply
	resign(badBlock, priv)

	err = Rollback(cs, rules, []*ApplyResult{oldRes}, []*Block{badBlock})
	if err == nil {
		t.Fatalf("expected Rollback to fail when the new branch doesn't validate")
	}
	if cs.Current != oldTip {
		t.Fatalf("a failed rollback must restore cs.Current to the original branch's tip, got %s want %s", cs.Current, oldTip)
	}
	if !cs.IsMember(pk) {
		t.Fatalf("a failed rollback must leave the original branch's state intact")
	}
}
