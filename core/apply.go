package core

import "fmt"

// ApplyResult is the symmetric mutation batch produced by Apply, everything
// Revert needs to undo a block exactly (§4.6). Grounded on
// original_source/check_and_apply_block.rs's forward/backward index-line
// pairs, generalized here from a plain UTXO-only ledger reduction to also
// cover IINDEX/MINDEX/CINDEX/SINDEX and the WoT graph.
type ApplyResult struct {
	Block *Block

	iindexAppends []PubKey
	mindexAppends []PubKey
	cindexAppends []CIndexKey
	sindexAppends []SourceID

	wotAdded    []PubKey
	wotDisabled []PubKey
	wotLinks    []wotLinkEdge

	prevMonetaryMass   uint64
	prevCurrent        Blockstamp
	prevMedianTime     int64
	prevIssuerWindow   []PubKey
}

type wotLinkEdge struct {
	issuer, receiver WotId
}

// Apply validates b against local and global rules, then mutates cs in
// place and returns the batch needed to reverse it. Apply does not persist
// anything to cs.Store; callers write through the store separately once a
// block is durably accepted (worker.go).
func Apply(cs *ChainState, rules *RuleSet, b *Block) (*ApplyResult, error) {
	if err := CheckLocalRules(b, cs.Params); err != nil {
		return nil, err
	}
	if !b.IsGenesis() {
		if b.PreviousBlockstamp() != cs.Current {
			return nil, fmt.Errorf("apply: block %s does not chain onto current %s", b.PreviousBlockstamp(), cs.Current)
		}
	}
	if err := rules.CheckAll(cs, b); err != nil {
		return nil, err
	}

	res := &ApplyResult{
		Block:            b,
		prevMonetaryMass: cs.MonetaryMass,
		prevCurrent:      cs.Current,
		prevMedianTime:   cs.MedianTime,
		prevIssuerWindow: append([]PubKey(nil), cs.IssuerWindow...),
	}

	applyIdentities(cs, b, res)
	applyMemberships(cs, b, res)
	applyRevocations(cs, b, res)
	applyCertifications(cs, b, res)
	applyTransactions(cs, b, res)
	applyDividend(cs, b, res)

	cs.Current = b.Blockstamp()
	cs.MedianTime = b.MedianTime
	cs.MonetaryMass = b.MonetaryMass
	cs.IssuerWindow = pushIssuerWindow(cs.IssuerWindow, b.Issuer, b.IssuersFrame)

	return res, nil
}

// pushIssuerWindow appends issuer to the window and trims it to frame
// entries from the front, the per-issuer recency window RuleDifficulty's
// handicap term reads (§4.9). A non-positive frame leaves the window
// unbounded, which only happens before any block has reported one.
func pushIssuerWindow(window []PubKey, issuer PubKey, frame int64) []PubKey {
	window = append(window, issuer)
	if frame > 0 && int64(len(window)) > frame {
		window = window[int64(len(window))-frame:]
	}
	return window
}

func applyIdentities(cs *ChainState, b *Block, res *ApplyResult) {
	for _, idty := range b.Identities {
		cs.IIdx.Append(idty.Pubkey, IIndexLine{
			Op:        IIndexCreate,
			Pubkey:    idty.Pubkey,
			Username:  strPtr(idty.Username),
			CreatedOn: stampPtr(idty.CreatedOn),
			WrittenOn: b.Blockstamp(),
			Member:    boolPtr(true),
			Kick:      boolPtr(false),
		})
		res.iindexAppends = append(res.iindexAppends, idty.Pubkey)
		cs.Wot.AddMember(idty.Pubkey)
		res.wotAdded = append(res.wotAdded, idty.Pubkey)
	}
}

func applyMemberships(cs *ChainState, b *Block, res *ApplyResult) {
	for _, m := range b.Joiners {
		cs.MIdx.Append(m.Issuer, MIndexLine{
			Op:        MIndexCreate,
			Pubkey:    m.Issuer,
			CreatedOn: stampPtr(m.CreatedOn),
			WrittenOn: b.Blockstamp(),
			ExpiresOn: i64Ptr(b.MedianTime + cs.Params.MsValidity),
			Leaving:   boolPtr(false),
		})
		res.mindexAppends = append(res.mindexAppends, m.Issuer)
	}
	for _, m := range b.Actives {
		cs.MIdx.Append(m.Issuer, MIndexLine{
			Op:        MIndexUpdate,
			Pubkey:    m.Issuer,
			WrittenOn: b.Blockstamp(),
			ExpiresOn: i64Ptr(b.MedianTime + cs.Params.MsValidity),
			Leaving:   boolPtr(false),
		})
		res.mindexAppends = append(res.mindexAppends, m.Issuer)
	}
	for _, m := range b.Leavers {
		cs.MIdx.Append(m.Issuer, MIndexLine{
			Op:        MIndexUpdate,
			Pubkey:    m.Issuer,
			WrittenOn: b.Blockstamp(),
			Leaving:   boolPtr(true),
		})
		res.mindexAppends = append(res.mindexAppends, m.Issuer)
		cs.IIdx.Append(m.Issuer, IIndexLine{
			Op:        IIndexUpdate,
			Pubkey:    m.Issuer,
			WrittenOn: b.Blockstamp(),
			Member:    boolPtr(false),
		})
		res.iindexAppends = append(res.iindexAppends, m.Issuer)
		cs.Wot.RemoveMember(m.Issuer)
		res.wotDisabled = append(res.wotDisabled, m.Issuer)
	}
}

func applyRevocations(cs *ChainState, b *Block, res *ApplyResult) {
	for _, r := range b.Revoked {
		cs.IIdx.Append(r.Pubkey, IIndexLine{
			Op:        IIndexUpdate,
			Pubkey:    r.Pubkey,
			WrittenOn: b.Blockstamp(),
			Member:    boolPtr(false),
			Kick:      boolPtr(true),
		})
		res.iindexAppends = append(res.iindexAppends, r.Pubkey)
		cs.Wot.RemoveMember(r.Pubkey)
		res.wotDisabled = append(res.wotDisabled, r.Pubkey)
	}
	for _, pk := range b.Excluded {
		cs.IIdx.Append(pk, IIndexLine{
			Op:        IIndexUpdate,
			Pubkey:    pk,
			WrittenOn: b.Blockstamp(),
			Member:    boolPtr(false),
		})
		res.iindexAppends = append(res.iindexAppends, pk)
		cs.Wot.RemoveMember(pk)
		res.wotDisabled = append(res.wotDisabled, pk)
	}
}

func applyCertifications(cs *ChainState, b *Block, res *ApplyResult) {
	for _, c := range b.Certifications {
		key := CIndexKey{Issuer: c.Issuer, Receiver: c.Receiver}
		cs.CIdx.Append(key, CIndexLine{
			Op:           CIndexCreate,
			Issuer:       c.Issuer,
			Receiver:     c.Receiver,
			CreatedOn:    stampPtr(c.CreatedOn),
			WrittenOn:    stampPtr(b.Blockstamp()),
			ExpiresOn:    i64Ptr(b.MedianTime + cs.Params.SigValidity),
			ChainableOn:  i64Ptr(b.MedianTime + cs.Params.SigPeriod),
			ReplayableOn: i64Ptr(b.MedianTime + cs.Params.SigRenewPeriod),
		})
		res.cindexAppends = append(res.cindexAppends, key)

		issuerID, ok1 := cs.Wot.Lookup(c.Issuer)
		receiverID, ok2 := cs.Wot.Lookup(c.Receiver)
		if ok1 && ok2 && cs.Wot.AddLink(issuerID, receiverID) {
			res.wotLinks = append(res.wotLinks, wotLinkEdge{issuerID, receiverID})
		}
	}
}

func applyTransactions(cs *ChainState, b *Block, res *ApplyResult) {
	for _, tx := range b.Transactions {
		for _, in := range tx.Inputs {
			src := cs.SIdx.State(in.Source)
			cs.SIdx.Append(in.Source, SIndexLine{
				Op:        SIndexUpdate,
				Identifier: in.Source,
				WrittenOn:  b.Blockstamp(),
				Amount:     in.Amount,
				Base:       in.Base,
				Locktime:   src.Locktime,
				Conditions: src.Conditions,
				Consumed:   true,
			})
			res.sindexAppends = append(res.sindexAppends, in.Source)
		}
		txHash := tx.Hash()
		for pos, out := range tx.Outputs {
			id := SourceID{Kind: SourceUTXO, TxHash: txHash, Pos: uint32(pos)}
			cs.SIdx.Append(id, SIndexLine{
				Op:         SIndexCreate,
				Identifier: id,
				Tx:         hashPtr(txHash),
				CreatedOn:  stampPtr(b.Blockstamp()),
				WrittenOn:  b.Blockstamp(),
				Amount:     out.Amount,
				Base:       out.Base,
				Conditions: out.Condition,
			})
			res.sindexAppends = append(res.sindexAppends, id)
		}
	}
}

func applyDividend(cs *ChainState, b *Block, res *ApplyResult) {
	if b.Dividend == nil {
		return
	}
	for _, pk := range cs.IIdx.Keys() {
		if !cs.IIdx.State(pk).WasMember() {
			continue
		}
		id := SourceID{Kind: SourceUD, Issuer: pk, UDBlock: b.Number}
		cs.SIdx.Append(id, SIndexLine{
			Op:         SIndexCreate,
			Identifier: id,
			CreatedOn:  stampPtr(b.Blockstamp()),
			WrittenOn:  b.Blockstamp(),
			Amount:     *b.Dividend,
			Base:       b.UnitBase,
			Conditions: fmt.Sprintf("SIG(%s)", pk),
		})
		res.sindexAppends = append(res.sindexAppends, id)
	}
}

// Revert undoes res in place, restoring cs to exactly its pre-Apply state
// (§4.6/§4.8: forward and reverse batches are symmetric).
func Revert(cs *ChainState, res *ApplyResult) {
	for _, pk := range res.sindexAppends {
		cs.SIdx.TruncateLast(pk, 1)
	}
	for _, e := range res.wotLinks {
		cs.Wot.RemoveLink(e.issuer, e.receiver)
	}
	for _, key := range res.cindexAppends {
		cs.CIdx.TruncateLast(key, 1)
	}
	for _, pk := range res.mindexAppends {
		cs.MIdx.TruncateLast(pk, 1)
	}
	for _, pk := range res.iindexAppends {
		cs.IIdx.TruncateLast(pk, 1)
	}
	for _, pk := range res.wotDisabled {
		cs.Wot.AddMember(pk) // re-enables an already-known node, see WoT.AddMember
	}
	for _, pk := range res.wotAdded {
		cs.Wot.RemoveMember(pk)
	}

	cs.Current = res.prevCurrent
	cs.MedianTime = res.prevMedianTime
	cs.MonetaryMass = res.prevMonetaryMass
	cs.IssuerWindow = res.prevIssuerWindow
}
