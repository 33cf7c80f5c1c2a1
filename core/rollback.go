package core

import (
	"fmt"
	"strings"
)

// rollbackMarkerKey is the key under StoreCurrentMetadata recording an
// in-progress rollback, so a crash mid-rollback is resumable on restart
// (§4.8), grounded on teacher's RecoverLongestFork/RebuildChain pattern
// generalized to a persisted step-wise marker.
const rollbackMarkerKey = "rollback_in_progress"

// RollbackMarker records enough to resume a rollback: the branch being
// abandoned and adopted, and which stage was in flight.
type RollbackMarker struct {
	FromTip Blockstamp
	ToTip   Blockstamp
	Stage   string // "reverting", "applying", "done"
}

// Rollback adopts the branch ending at newTip. oldResults holds the
// ApplyResults for every block on the current branch back to the common
// ancestor, oldest first (exactly what cs has applied); it is unwound
// LIFO. newBranch holds the blocks to replay forward, ancestor first. If
// replay fails partway, the partially-applied new blocks are reverted and
// the old branch is re-applied, restoring cs to its pre-rollback state
// (§4.8's "restore on failure").
func Rollback(cs *ChainState, rules *RuleSet, oldResults []*ApplyResult, newBranch []*Block) error {
	if len(oldResults) == 0 && len(newBranch) == 0 {
		return nil
	}
	oldTip := cs.Current
	var newTip Blockstamp
	if len(newBranch) > 0 {
		newTip = newBranch[len(newBranch)-1].Blockstamp()
	}

	marker := RollbackMarker{FromTip: oldTip, ToTip: newTip, Stage: "reverting"}
	persistRollbackMarker(cs, marker)

	for i := len(oldResults) - 1; i >= 0; i-- {
		Revert(cs, oldResults[i])
	}

	marker.Stage = "applying"
	persistRollbackMarker(cs, marker)

	var applied []*ApplyResult
	for _, b := range newBranch {
		res, err := Apply(cs, rules, b)
		if err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				Revert(cs, applied[i])
			}
			for _, old := range oldResults {
				if _, rerr := Apply(cs, rules, old.Block); rerr != nil {
					clearRollbackMarker(cs)
					return fmt.Errorf("rollback: failed applying %s and could not restore original branch: %w (original error: %v)", b.Blockstamp(), rerr, err)
				}
			}
			clearRollbackMarker(cs)
			return fmt.Errorf("rollback: failed applying %s, restored original branch: %w", b.Blockstamp(), err)
		}
		applied = append(applied, res)
	}

	clearRollbackMarker(cs)
	return nil
}

func persistRollbackMarker(cs *ChainState, m RollbackMarker) {
	if cs.Store == nil {
		return
	}
	wtx := cs.Store.BeginWrite()
	defer wtx.Commit()
	wtx.Put(StoreCurrentMetadata, []byte(rollbackMarkerKey), []byte(fmt.Sprintf("%s|%s|%s", m.FromTip, m.ToTip, m.Stage)))
}

func clearRollbackMarker(cs *ChainState) {
	if cs.Store == nil {
		return
	}
	wtx := cs.Store.BeginWrite()
	defer wtx.Commit()
	wtx.Delete(StoreCurrentMetadata, []byte(rollbackMarkerKey))
}

// PendingRollback reads back an interrupted rollback marker, if any, so
// startup can resume or at least report the inconsistent state.
func PendingRollback(cs *ChainState) (RollbackMarker, bool) {
	if cs.Store == nil {
		return RollbackMarker{}, false
	}
	rtx := cs.Store.BeginRead()
	defer rtx.Discard()
	raw, ok := rtx.Get(StoreCurrentMetadata, []byte(rollbackMarkerKey))
	if !ok {
		return RollbackMarker{}, false
	}
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return RollbackMarker{}, false
	}
	from, err1 := ParseBlockstamp(parts[0])
	to, err2 := ParseBlockstamp(parts[1])
	if err1 != nil || err2 != nil {
		return RollbackMarker{Stage: parts[2]}, true
	}
	return RollbackMarker{FromTip: from, ToTip: to, Stage: parts[2]}, true
}
