package core

import (
	"encoding/json"
	"testing"
)

func persistTestBlock(t *testing.T, store *Store, b *Block) {
	t.Helper()
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal block %d: %v", b.Number, err)
	}
	wtx := store.BeginWrite()
	wtx.Put(StoreMainBlocks, blockNumberKey(b.Number), raw)
	if err := wtx.Commit(); err != nil {
		t.Fatalf("persist block %d: %v", b.Number, err)
	}
}

func TestReplayChainStateRebuildsMembershipFromBlockLog(t *testing.T) {
	store := NewStore()
	NewBlockchainStore(store)
	rules := DefaultRuleSet()

	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	persistTestBlock(t, store, genesis)

	cs, err := ReplayChainState(store, rules, "g1-test")
	if err != nil {
		t.Fatalf("ReplayChainState: %v", err)
	}
	if !cs.IsMember(pk) {
		t.Fatalf("replay should rebuild IINDEX membership from the persisted genesis block")
	}
	if cs.Current != genesis.Blockstamp() {
		t.Fatalf("replay should leave cs.Current at the last persisted block")
	}
}

func TestReplayChainStatePersistsCurrencyParamsAcrossRestarts(t *testing.T) {
	store := NewStore()
	NewBlockchainStore(store)
	rules := DefaultRuleSet()

	cs1, err := ReplayChainState(store, rules, "g1-test")
	if err != nil {
		t.Fatalf("first ReplayChainState: %v", err)
	}
	want := ApplyCurrencyOverrides(DefaultCurrencyParams(), "g1-test")
	if cs1.Params != want {
		t.Fatalf("first replay should initialise params from ApplyCurrencyOverrides:\ngot  %+v\nwant %+v", cs1.Params, want)
	}

	cs2, err := ReplayChainState(store, rules, "g1-test")
	if err != nil {
		t.Fatalf("second ReplayChainState: %v", err)
	}
	if cs2.Params != cs1.Params {
		t.Fatalf("second replay should read back the same params checkpoint, not recompute it:\ngot  %+v\nwant %+v", cs2.Params, cs1.Params)
	}
}

func TestReplayChainStateCapsWotLinksFromSigStock(t *testing.T) {
	store := NewStore()
	NewBlockchainStore(store)
	rules := DefaultRuleSet()

	cs, err := ReplayChainState(store, rules, "g1-test")
	if err != nil {
		t.Fatalf("ReplayChainState: %v", err)
	}
	want := ApplyCurrencyOverrides(DefaultCurrencyParams(), "g1-test")
	pk, _ := testKeypair(t)
	id := cs.Wot.AddMember(pk)
	for i := 0; i < int(want.SigStock); i++ {
		other, _ := testKeypair(t)
		oid := cs.Wot.AddMember(other)
		if !cs.Wot.AddLink(id, oid) {
			t.Fatalf("link %d should still be under sig_stock=%d", i, want.SigStock)
		}
	}
	over, _ := testKeypair(t)
	overID := cs.Wot.AddMember(over)
	if cs.Wot.AddLink(id, overID) {
		t.Fatalf("expected AddLink to refuse a link beyond sig_stock=%d (ReplayChainState must size WoT from params.SigStock)", want.SigStock)
	}
}

func TestReplayChainStateRejectsInvalidPersistedBlock(t *testing.T) {
	store := NewStore()
	NewBlockchainStore(store)
	rules := DefaultRuleSet()

	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	genesis.Ver = 9 // corrupt: CheckBlockShape requires Ver == 10
	persistTestBlock(t, store, genesis)

	if _, err := ReplayChainState(store, rules, "g1-test"); err == nil {
		t.Fatalf("expected replay to fail on a persisted block that no longer passes Apply")
	}
}
