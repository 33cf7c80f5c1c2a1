package core

// ForkStatus classifies a candidate block against the fork tree, recovered
// from original_source's check_and_apply_block.rs ForkStatus enum (§9
// SUPPLEMENTED FEATURES — absent from spec.md's distillation).
type ForkStatus uint8

const (
	// Isolate: the block's parent is unknown; held as an orphan (§4.7).
	Isolate ForkStatus = iota
	// Stackable: the block extends a branch already in the fork tree.
	Stackable
	// RollBack: the block extends a branch that outranks the main branch
	// and requires a rollback to adopt.
	RollBack
	// TooOld: the block's number is below the fork window floor and is
	// rejected outright.
	TooOld
)

// forkNode is one block held in the bounded fork tree.
type forkNode struct {
	block    *Block
	stamp    Blockstamp
	previous Blockstamp
}

// ForkTree holds the known blocks within fork_window_size of the current
// head, fork blocks and (when inserted by the Worker) main-branch blocks
// alike, grounded on teacher's ChainForkManager (chain_fork_manager.go)
// generalized from a single-parent map into a full tree with tip ranking
// and garbage collection (§4.7).
type ForkTree struct {
	nodes          map[Blockstamp]*forkNode
	children       map[Blockstamp][]Blockstamp
	forkWindowSize uint32
}

// NewForkTree returns an empty tree bounding forks to windowSize blocks
// behind the current head.
func NewForkTree(windowSize uint32) *ForkTree {
	return &ForkTree{
		nodes:          make(map[Blockstamp]*forkNode),
		children:       make(map[Blockstamp][]Blockstamp),
		forkWindowSize: windowSize,
	}
}

// Classify determines what adding b to the tree would mean, given the
// current main-branch head (§4.7).
func (ft *ForkTree) Classify(current Blockstamp, b *Block) ForkStatus {
	prev := b.PreviousBlockstamp()
	if current.Number > ft.forkWindowSize && b.Number < current.Number-ft.forkWindowSize {
		return TooOld
	}
	if prev != current {
		if _, ok := ft.nodes[prev]; !ok && !prev.IsNull() {
			return Isolate
		}
	}
	branchHead := ft.tipFor(b)
	if rankBeats(branchHead, current) {
		return RollBack
	}
	return Stackable
}

// tipFor returns the deepest blockstamp reachable by following b's lineage
// through the tree (b itself, since it has not been inserted yet, beats any
// recorded descendant only by virtue of being newer — callers insert first
// when they want Tip()/BestFork() to reflect b).
func (ft *ForkTree) tipFor(b *Block) Blockstamp {
	return b.Blockstamp()
}

// rankBeats reports whether a outranks b by (number, hash) descending,
// per §4.7's tip-ranking rule.
func rankBeats(a, b Blockstamp) bool {
	if a.Number != b.Number {
		return a.Number > b.Number
	}
	return a.Hash.String() > b.Hash.String()
}

// Insert records b in the tree under its own blockstamp.
func (ft *ForkTree) Insert(b *Block) {
	stamp := b.Blockstamp()
	prev := b.PreviousBlockstamp()
	ft.nodes[stamp] = &forkNode{block: b, stamp: stamp, previous: prev}
	ft.children[prev] = append(ft.children[prev], stamp)
}

// Has reports whether stamp is already recorded in the tree.
func (ft *ForkTree) Has(stamp Blockstamp) bool {
	_, ok := ft.nodes[stamp]
	return ok
}

// Get returns the block recorded at stamp, if any.
func (ft *ForkTree) Get(stamp Blockstamp) (*Block, bool) {
	n, ok := ft.nodes[stamp]
	if !ok {
		return nil, false
	}
	return n.block, true
}

// BestTip returns the highest-ranked leaf in the tree (no recorded child),
// the candidate branch a rollback would adopt, per §4.7.
func (ft *ForkTree) BestTip() (Blockstamp, bool) {
	var best Blockstamp
	found := false
	for stamp := range ft.nodes {
		if len(ft.children[stamp]) > 0 {
			continue // not a leaf
		}
		if !found || rankBeats(stamp, best) {
			best = stamp
			found = true
		}
	}
	return best, found
}

// PathToAncestor walks backward from tip to (and not including) ancestor,
// returning blocks in forward (ancestor-first) order, for the rollback
// coordinator to replay.
func (ft *ForkTree) PathToAncestor(tip, ancestor Blockstamp) ([]*Block, bool) {
	var reversed []*Block
	cur := tip
	for cur != ancestor {
		n, ok := ft.nodes[cur]
		if !ok {
			return nil, false
		}
		reversed = append(reversed, n.block)
		cur = n.previous
		if cur.IsNull() && ancestor != NullBlockstamp {
			return nil, false
		}
	}
	out := make([]*Block, len(reversed))
	for i, b := range reversed {
		out[len(reversed)-1-i] = b
	}
	return out, true
}

// Prune discards every node strictly below floor, the garbage collection step
// run after each accepted block (§4.7: "below current - fork_window_size").
func (ft *ForkTree) Prune(floor uint32) {
	for stamp, n := range ft.nodes {
		if n.stamp.Number < floor {
			delete(ft.nodes, stamp)
			delete(ft.children, n.previous)
		}
	}
}
