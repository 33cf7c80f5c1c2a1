package core

import "testing"

func TestRuleSetDispatchesHighestApplicableFloor(t *testing.T) {
	var ran string
	rs := NewRuleSet()
	rs.Register("r", 10, func(cs *ChainState, b *Block) error { ran = "v10"; return nil })
	rs.Register("r", 11, func(cs *ChainState, b *Block) error { ran = "v11"; return nil })

	if err := rs.CheckAll(nil, &Block{Ver: 10}); err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if ran != "v10" {
		t.Fatalf("block at version 10 must run the v10 implementation only, ran %q", ran)
	}

	ran = ""
	if err := rs.CheckAll(nil, &Block{Ver: 11}); err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if ran != "v11" {
		t.Fatalf("block at version 11 must run the highest applicable (v11) implementation, ran %q", ran)
	}

	ran = ""
	if err := rs.CheckAll(nil, &Block{Ver: 20}); err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if ran != "v11" {
		t.Fatalf("a block far past every registered floor should still run the highest registered one, ran %q", ran)
	}
}

func TestRuleSetSkipsRuleAboveBlockVersion(t *testing.T) {
	called := false
	rs := NewRuleSet()
	rs.Register("future", 11, func(cs *ChainState, b *Block) error { called = true; return nil })

	if err := rs.CheckAll(nil, &Block{Ver: 10}); err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if called {
		t.Fatalf("a rule whose only floor exceeds the block's version must be skipped, not run")
	}
}

func TestRuleSetDoesNotRunEveryFloorCumulatively(t *testing.T) {
	var calls int
	rs := NewRuleSet()
	rs.Register("r", 10, func(cs *ChainState, b *Block) error { calls++; return nil })
	rs.Register("r", 11, func(cs *ChainState, b *Block) error { calls++; return nil })
	rs.Register("r", 12, func(cs *ChainState, b *Block) error { calls++; return nil })

	if err := rs.CheckAll(nil, &Block{Ver: 12}); err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if calls != 1 {
		t.Fatalf("exactly one floor's implementation should run per rule per block, ran %d", calls)
	}
}

func TestRuleSetFailsFastOnFirstError(t *testing.T) {
	var second bool
	rs := NewRuleSet()
	rs.Register("a", 10, func(cs *ChainState, b *Block) error { return errTestRule })
	rs.Register("b", 10, func(cs *ChainState, b *Block) error { second = true; return nil })

	if err := rs.CheckAll(nil, &Block{Ver: 10}); err == nil {
		t.Fatalf("expected the first rule's error to propagate")
	}
	if second {
		t.Fatalf("CheckAll should stop at the first failing rule")
	}
}

var errTestRule = &InvalidGlobalRuleError{Rule: WrongDifficulty, Detail: "test"}
