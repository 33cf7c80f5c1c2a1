package core

import "testing"

func TestForkTreeClassifyIsolateAndStackable(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)
	current := genesis.Blockstamp()

	ft := NewForkTree(10)

	orphan := testNextBlock(genesis, pk, priv)
	orphan.Number = 5 // parent hash unrelated to anything recorded
	orphan.PreviousHash = HashBytes([]byte("unknown parent"))
	resign(orphan, priv)
	if got := ft.Classify(current, orphan); got != Isolate {
		t.Fatalf("block with an unknown parent should classify as Isolate, got %v", got)
	}

	// Two blocks at height 1 on genesis: the main tip is whichever ranks
	// higher, so the other one is a same-height competitor that cannot
	// outrank it.
	ft.Insert(genesis)
	tip := testNextBlock(genesis, pk, priv)
	sibling := testNextBlock(genesis, pk, priv)
	sibling.Nonce = 7
	resign(sibling, priv)
	if rankBeats(sibling.Blockstamp(), tip.Blockstamp()) {
		tip, sibling = sibling, tip
	}
	if got := ft.Classify(tip.Blockstamp(), sibling); got != Stackable {
		t.Fatalf("a same-height competing block should classify as Stackable when it doesn't outrank current, got %v", got)
	}
}

func TestForkTreeClassifyTooOld(t *testing.T) {
	ft := NewForkTree(2)
	current := Blockstamp{Number: 10}
	old := &Block{Number: 5, PreviousHash: HashBytes([]byte("whatever"))}
	if got := ft.Classify(current, old); got != TooOld {
		t.Fatalf("a block far behind the fork window should classify as TooOld, got %v", got)
	}
}

func TestForkTreeInsertAndPathToAncestor(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)

	ft := NewForkTree(10)
	b1 := testNextBlock(genesis, pk, priv)
	b2 := testNextBlock(b1, pk, priv)
	ft.Insert(b1)
	ft.Insert(b2)

	path, ok := ft.PathToAncestor(b2.Blockstamp(), genesis.Blockstamp())
	if !ok {
		t.Fatalf("expected a path from b2 back to genesis")
	}
	if len(path) != 2 || path[0].Blockstamp() != b1.Blockstamp() || path[1].Blockstamp() != b2.Blockstamp() {
		t.Fatalf("expected ancestor-first order [b1, b2], got %d blocks", len(path))
	}
}

func TestForkTreeBestTipPrefersHigherNumber(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)

	ft := NewForkTree(10)
	low := testNextBlock(genesis, pk, priv)
	ft.Insert(low)

	high := testNextBlock(low, pk, priv)
	ft.Insert(high)

	best, ok := ft.BestTip()
	if !ok {
		t.Fatalf("expected a best tip")
	}
	if best != high.Blockstamp() {
		t.Fatalf("best tip should be the higher-numbered leaf, got %s want %s", best, high.Blockstamp())
	}
}

func TestForkTreeBestTipBreaksTiesByHash(t *testing.T) {
	pk, priv := testKeypair(t)
	genesis := testGenesisBlock(pk, priv)

	ft := NewForkTree(10)
	siblingA := testNextBlock(genesis, pk, priv)
	siblingA.Nonce = 1
	resign(siblingA, priv)
	siblingB := testNextBlock(genesis, pk, priv)
	siblingB.Nonce = 2
	resign(siblingB, priv)
	ft.Insert(siblingA)
	ft.Insert(siblingB)

	best, ok := ft.BestTip()
	if !ok {
		t.Fatalf("expected a best tip")
	}
	stampA, stampB := siblingA.Blockstamp(), siblingB.Blockstamp()
	want := stampA
	if stampB.Hash.String() > stampA.Hash.String() {
		want = stampB
	}
	if best != want {
		t.Fatalf("best tip among same-height siblings should be the one with the lexicographically greater hash")
	}
}
