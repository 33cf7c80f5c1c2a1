package core

import (
	"encoding/json"
	"fmt"
)

// ChainState is the full reduced state a global rule or apply/revert
// operation needs: the four indexes, the WoT graph, the persistent store and
// the currency parameters in force, plus a cursor over the current block.
// Grounded on teacher's consensus actor owning all mutable chain state
// behind one struct (consensus.go), generalized to DUBP's four-index model.
type ChainState struct {
	Store *Store

	IIdx *IIndex
	MIdx *MIndex
	CIdx *CIndex
	SIdx *SIndex
	Wot  *WoT

	CurrencyName string
	Params       CurrencyParams

	Current    Blockstamp // head of the main branch; NullBlockstamp before genesis
	MedianTime int64
	MonetaryMass uint64

	// IssuerWindow holds the issuer pubkey of every block in the current
	// issuers_frame, oldest first, feeding the personal-difficulty handicap
	// (§4.9, RuleDifficulty in rules_global.go). Trimmed to the frame length
	// on every Apply and restored verbatim by Revert.
	IssuerWindow []PubKey
}

// NewChainState builds an empty state ready to accept the genesis block.
func NewChainState(s *Store, currencyName string) *ChainState {
	return &ChainState{
		Store:        s,
		IIdx:         NewIIndex(),
		MIdx:         NewMIndex(),
		CIdx:         NewCIndex(),
		SIdx:         NewSIndex(),
		Wot:          NewWoT(0),
		CurrencyName: currencyName,
		Current:      NullBlockstamp,
	}
}

// ReplayChainState rebuilds a ChainState from store's persisted block log
// instead of trusting separate per-field stores for IINDEX/MINDEX/CINDEX/
// SINDEX/WoT: those are pure reductions of the main block log (§4.2's
// get_state(id) = reduce(get_events(id))), so replaying every persisted
// block through Apply reconstructs them exactly, the same way an in-memory
// Index reduces its own event log. The currency parameters are read from a
// small checkpoint record under StoreCurrentMetadata, written on first run.
func ReplayChainState(store *Store, rules *RuleSet, currencyName string) (*ChainState, error) {
	cs := NewChainState(store, currencyName)

	params, err := loadOrInitCurrencyParams(store, currencyName)
	if err != nil {
		return nil, err
	}
	cs.Params = params
	cs.Wot = NewWoT(int(params.SigStock))

	for n := uint32(0); ; n++ {
		rtx := store.BeginRead()
		raw, ok := rtx.Get(StoreMainBlocks, blockNumberKey(n))
		rtx.Discard()
		if !ok {
			break
		}
		var b Block
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("chainstate: replay block %d: %w", n, err)
		}
		if _, err := Apply(cs, rules, &b); err != nil {
			return nil, fmt.Errorf("chainstate: replay block %d: %w", n, err)
		}
	}
	return cs, nil
}

func loadOrInitCurrencyParams(store *Store, currencyName string) (CurrencyParams, error) {
	rtx := store.BeginRead()
	raw, ok := rtx.Get(StoreCurrentMetadata, []byte(currencyParamsMetadataKey))
	rtx.Discard()
	if ok {
		_, params, err := DecodeCurrencyParams(raw)
		if err != nil {
			return CurrencyParams{}, fmt.Errorf("chainstate: decode currency params: %w", err)
		}
		return params, nil
	}

	params := ApplyCurrencyOverrides(DefaultCurrencyParams(), currencyName)
	raw, err := EncodeCurrencyParams(currencyName, params)
	if err != nil {
		return CurrencyParams{}, fmt.Errorf("chainstate: encode currency params: %w", err)
	}
	wtx := store.BeginWrite()
	wtx.Put(StoreCurrentMetadata, []byte(currencyParamsMetadataKey), raw)
	if err := wtx.Commit(); err != nil {
		return CurrencyParams{}, fmt.Errorf("chainstate: persist currency params: %w", err)
	}
	return params, nil
}

// IsMember reports whether pk currently has active membership (§3: present
// in IINDEX with member=true, kick=false).
func (cs *ChainState) IsMember(pk PubKey) bool {
	return cs.IIdx.Has(pk) && cs.IIdx.State(pk).WasMember()
}

// Identity returns the reduced IINDEX state for pk, if known.
func (cs *ChainState) Identity(pk PubKey) (IIndexState, bool) {
	return cs.IIdx.State(pk), cs.IIdx.Has(pk)
}
