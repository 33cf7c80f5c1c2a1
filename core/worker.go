package core

// Worker is the blockchain worker actor (§5): it owns the canonical chain
// state and writes the persistent store for the running node. Inbound blocks
// and rollbacks are funnelled through its single goroutine over bounded
// channels; WS2P controllers never touch the store directly. The bulk-import
// pipeline (Sync) does not go through the worker: its writer stage opens its
// own write transactions. Grounded on teacher's goroutine-per-loop
// consensus actor and the channel-based subscription model already used by
// Node/PeerManagement.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// blockJob is one inbound block submission, answered on replyCh.
type blockJob struct {
	block  *Block
	from   NodeID
	replyCh chan error
}

// Worker owns ChainState, the rule set and the fork tree, and serialises
// all writes through run's select loop.
type Worker struct {
	cs    *ChainState
	rules *RuleSet
	forks *ForkTree

	blocksCh chan blockJob
	stopCh   chan struct{}
	doneCh   chan struct{}

	// appliedResults holds the ApplyResult for every block on the current
	// main branch still within the fork window, in case a fork switch
	// needs to Revert them (§4.8).
	mu             sync.Mutex
	appliedResults map[Blockstamp]*ApplyResult

	// perSenderLast is allocated but never read or written. FIFO-per-sender
	// ordering comes from SubmitBlock callers queueing one block at a time;
	// out-of-order or duplicate heads from the same sender are dropped by
	// headCache before ever reaching the worker.
	perSenderLast map[NodeID]Blockstamp

	log *logrus.Entry
}

// NewWorker builds a worker bound to an already-initialised chain state.
func NewWorker(cs *ChainState, rules *RuleSet, forkWindowSize uint32) *Worker {
	return &Worker{
		cs:             cs,
		rules:          rules,
		forks:          NewForkTree(forkWindowSize),
		blocksCh:       make(chan blockJob, 64),
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
		appliedResults: make(map[Blockstamp]*ApplyResult),
		perSenderLast:  make(map[NodeID]Blockstamp),
		log:            logrus.WithField("component", "worker"),
	}
}

// Run is the worker's single goroutine; it must be the only writer touching
// cs for the lifetime of the process.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case job := <-w.blocksCh:
			job.replyCh <- w.processBlock(job.block)
		}
	}
}

// Stop requests a cooperative shutdown and waits for the loop to exit.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// SubmitBlock enqueues b for processing and blocks until the worker answers,
// preserving FIFO order per sender per §5 (callers queue one at a time).
func (w *Worker) SubmitBlock(ctx context.Context, b *Block, from NodeID) error {
	reply := make(chan error, 1)
	select {
	case w.blocksCh <- blockJob{block: b, from: from, replyCh: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processBlock classifies b against the current tip and fork tree. A block
// that directly extends the main tip is applied right away; anything else
// is handed to the fork tree's classification (orphan/stack/reject/switch),
// per §4.7.
func (w *Worker) processBlock(b *Block) error {
	stamp := b.Blockstamp()
	if w.forks.Has(stamp) || stamp == w.cs.Current {
		return ErrAlreadyHaveBlock
	}

	if b.PreviousBlockstamp() == w.cs.Current {
		res, err := Apply(w.cs, w.rules, b)
		if err != nil {
			return err
		}
		w.forks.Insert(b)
		w.mu.Lock()
		w.appliedResults[stamp] = res
		w.mu.Unlock()
		w.persistBlock(b)
		w.forks.Prune(blockstampFloor(w.cs.Current, w.forks.forkWindowSize))
		return nil
	}

	switch status := w.forks.Classify(w.cs.Current, b); status {
	case TooOld:
		return ErrBlockOutOfForkWindow
	case Isolate:
		w.forks.Insert(b)
		return ErrOrphanBlock
	case Stackable:
		w.forks.Insert(b)
		return ErrForkBlock
	case RollBack:
		w.forks.Insert(b)
		return w.switchBranch(stamp)
	default:
		return fmt.Errorf("worker: unknown fork status %d", status)
	}
}

// switchBranch resolves a RollBack classification: find the path from the
// fork tree's new best tip back to the current tip's parent, then hand the
// current tip's result and the new branch to Rollback (§4.8/§4.7). Only the
// current tip is unwound: a branch that forks off further back has no path
// to that parent and is reported as an error.
func (w *Worker) switchBranch(newTip Blockstamp) error {
	best, ok := w.forks.BestTip()
	if !ok || best != newTip {
		// Not yet the best-ranked tip; stack and wait for a stronger chain.
		return ErrForkBlock
	}
	curNode, ok := w.forks.nodes[w.cs.Current]
	if !ok {
		return fmt.Errorf("worker: current tip %s is not in the fork tree", w.cs.Current)
	}
	path, ok := w.forks.PathToAncestor(newTip, curNode.previous)
	if !ok {
		return fmt.Errorf("worker: no path from %s to %s", newTip, curNode.previous)
	}

	w.mu.Lock()
	var oldResults []*ApplyResult
	if res, ok := w.appliedResults[w.cs.Current]; ok {
		oldResults = []*ApplyResult{res}
		delete(w.appliedResults, w.cs.Current)
	}
	w.mu.Unlock()

	if err := Rollback(w.cs, w.rules, oldResults, path); err != nil {
		return fmt.Errorf("worker: rollback: %w", err)
	}
	for _, b := range path {
		w.persistBlock(b)
	}
	w.forks.Prune(blockstampFloor(w.cs.Current, w.forks.forkWindowSize))
	return nil
}

func blockstampFloor(cur Blockstamp, window uint32) uint32 {
	if cur.Number < window {
		return 0
	}
	return cur.Number - window
}

func (w *Worker) persistBlock(b *Block) {
	wtx := w.cs.Store.BeginWrite()
	raw, err := json.Marshal(b)
	if err != nil {
		wtx.Abort()
		w.log.Errorf("worker: marshal block %d: %v", b.Number, err)
		return
	}
	wtx.Put(StoreMainBlocks, blockNumberKey(b.Number), raw)
	if err := wtx.Commit(); err != nil {
		w.log.Errorf("worker: persist block %d: %v", b.Number, err)
	}
}

//---------------------------------------------------------------------
// Read-only query surface, served directly against a read transaction
// without going through the worker's write loop (§5: "controllers ...
// limited read-only lookups" may hold their own read transactions).
//---------------------------------------------------------------------

// Query answers one WS2P request (§4.11), dispatched by RequestKind.
func (w *Worker) Query(ctx context.Context, req RequestMsg) *ReqResponseMsg {
	switch req.Kind {
	case ReqGetCurrent:
		return w.queryCurrent(req.ID)
	case ReqGetBlocks:
		return w.queryBlocks(req.ID, req.From, req.Count)
	case ReqGetChunk:
		return w.queryChunk(req.ID, req.Stamp)
	case ReqGetWotPool:
		return w.queryWotPool(req.ID)
	case ReqGetRequirements:
		return w.queryRequirements(req.ID)
	default:
		return &ReqResponseMsg{ID: req.ID, Err: "unknown request kind"}
	}
}

func (w *Worker) queryCurrent(id string) *ReqResponseMsg {
	rtx := w.cs.Store.BeginRead()
	defer rtx.Discard()
	raw, ok := rtx.Get(StoreMainBlocks, blockNumberKey(w.cs.Current.Number))
	if !ok {
		return &ReqResponseMsg{ID: id, Err: "no current block"}
	}
	var b Block
	if err := json.Unmarshal(raw, &b); err != nil {
		return &ReqResponseMsg{ID: id, Err: err.Error()}
	}
	return &ReqResponseMsg{ID: id, Blocks: []*Block{&b}}
}

func (w *Worker) queryBlocks(id string, from, count uint32) *ReqResponseMsg {
	rtx := w.cs.Store.BeginRead()
	defer rtx.Discard()
	out := make([]*Block, 0, count)
	for n := from; n < from+count; n++ {
		raw, ok := rtx.Get(StoreMainBlocks, blockNumberKey(n))
		if !ok {
			break
		}
		var b Block
		if err := json.Unmarshal(raw, &b); err != nil {
			return &ReqResponseMsg{ID: id, Err: err.Error()}
		}
		out = append(out, &b)
	}
	return &ReqResponseMsg{ID: id, Blocks: out}
}

func (w *Worker) queryChunk(id string, stamp Blockstamp) *ReqResponseMsg {
	from := stamp.Number - (stamp.Number % SyncChunkSize)
	return w.queryBlocks(id, from, SyncChunkSize)
}

func (w *Worker) queryWotPool(id string) *ReqResponseMsg {
	members := w.cs.Wot.Sentries(w.cs.Params.XPercent)
	raw, err := json.Marshal(members)
	if err != nil {
		return &ReqResponseMsg{ID: id, Err: err.Error()}
	}
	return &ReqResponseMsg{ID: id, Pool: raw}
}

func (w *Worker) queryRequirements(id string) *ReqResponseMsg {
	raw, err := json.Marshal(w.cs.Params)
	if err != nil {
		return &ReqResponseMsg{ID: id, Err: err.Error()}
	}
	return &ReqResponseMsg{ID: id, Pool: raw}
}

//---------------------------------------------------------------------
// Gossip bookkeeping forwarded from controllers (§4.11 Peers/Heads).
//---------------------------------------------------------------------

// NotifyPeers records a gossiped peer card set. The worker itself has no
// peer table (that belongs to Node/PeerManagement); this hook exists so a
// future discovery strategy can react to fresh endpoints without the
// controller blocking on chain state.
func (w *Worker) NotifyPeers(m PeersMsg) {
	w.log.Debugf("worker: received %d peer cards", len(m.Peers))
}

// NotifyHead logs a sync recommendation when a peer's advertised head is
// ahead of the local tip by more than one block; it sends no request itself.
func (w *Worker) NotifyHead(m HeadMsg) {
	if m.Blockstamp.Number > w.cs.Current.Number+1 {
		w.log.Infof("worker: peer %s is ahead (%s), sync recommended", m.Issuer, m.Blockstamp)
	}
}

// ForkTreeSize reports how many blocks the fork tree currently holds (the
// main-branch blocks the worker inserted included), used by the metrics
// surface's fork-tree gauge.
func (w *Worker) ForkTreeSize() int {
	return len(w.forks.nodes)
}

// AwaitShutdown blocks until ctx is done or the worker stops on its own.
func (w *Worker) AwaitShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-w.doneCh:
	}
}
