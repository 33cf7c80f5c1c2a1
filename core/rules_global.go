package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Global (state-dependent) block checks, per §4.5. Each function receives
// the state as of just before the block and the candidate block itself.

// RuleIssuerIsMember is BR_G100: the block issuer must be a current member,
// except at genesis where no one is yet a member.
func RuleIssuerIsMember(cs *ChainState, b *Block) error {
	if b.IsGenesis() {
		return nil
	}
	if !cs.IsMember(b.Issuer) {
		return &InvalidGlobalRuleError{Rule: IssuerNotMember, Detail: b.Issuer.String()}
	}
	return nil
}

// RuleNoDuplicateCertification rejects a certification that duplicates one
// already active (not expired) in CINDEX.
func RuleNoDuplicateCertification(cs *ChainState, b *Block) error {
	for _, c := range b.Certifications {
		key := CIndexKey{Issuer: c.Issuer, Receiver: c.Receiver}
		st := cs.CIdx.State(key)
		if cs.CIdx.Has(key) && !st.Expired(cs.MedianTime) {
			return &InvalidGlobalRuleError{Rule: DuplicateCert, Detail: c.Key()}
		}
	}
	return nil
}

// RuleCertificationNotExpired rejects a certification referencing a null
// blockstamp, the only case rejectable without a block-time lookup by
// number; full sig_window enforcement happens once the certification is
// indexed and its ExpiresOn compared against median time (CIndexState.Expired).
func RuleCertificationNotExpired(cs *ChainState, b *Block) error {
	for _, c := range b.Certifications {
		if c.CreatedOn.IsNull() {
			return &InvalidGlobalRuleError{Rule: ExpiredCert, Detail: c.Key()}
		}
	}
	return nil
}

// RuleCertifierIsMember rejects a certification whose issuer is not a
// current member (a non-member cannot vouch for anyone).
func RuleCertifierIsMember(cs *ChainState, b *Block) error {
	for _, c := range b.Certifications {
		if !cs.IsMember(c.Issuer) {
			return &InvalidGlobalRuleError{Rule: IssuerNotMember, Detail: c.Issuer.String()}
		}
	}
	return nil
}

// RuleMembershipIssuerKnown rejects an Active/Leaver membership document
// whose issuer has no prior identity on record.
func RuleMembershipIssuerKnown(cs *ChainState, b *Block) error {
	for _, m := range append(append([]*Membership{}, b.Actives...), b.Leavers...) {
		if !cs.IIdx.Has(m.Issuer) {
			return &InvalidGlobalRuleError{Rule: IssuerNotMember, Detail: m.Issuer.String()}
		}
	}
	return nil
}

// RuleSourcesExist rejects a transaction whose input references an unknown
// or already-consumed source.
func RuleSourcesExist(cs *ChainState, b *Block) error {
	for _, tx := range b.Transactions {
		for _, in := range tx.Inputs {
			if !cs.SIdx.Has(in.Source) {
				return &InvalidGlobalRuleError{Rule: UnknownSource, Detail: in.Source.String()}
			}
			st := cs.SIdx.State(in.Source)
			if st.Consumed {
				return &InvalidGlobalRuleError{Rule: SourceAlreadyConsumed, Detail: in.Source.String()}
			}
			if st.Amount != in.Amount || st.Base != in.Base {
				return &InvalidGlobalRuleError{Rule: AmountMismatch, Detail: in.Source.String()}
			}
		}
	}
	return nil
}

// RuleUnlockConditions checks each input's unlock proof against the source's
// locking condition. This engine recognises the single-signature condition
// form "SIG(<pubkey>)"; richer boolean conditions are left unvalidated here
// and only exercised at the document-signature level.
func RuleUnlockConditions(cs *ChainState, b *Block) error {
	for _, tx := range b.Transactions {
		for i, in := range tx.Inputs {
			st := cs.SIdx.State(in.Source)
			if !strings.HasPrefix(st.Conditions, "SIG(") {
				continue
			}
			want := strings.TrimSuffix(strings.TrimPrefix(st.Conditions, "SIG("), ")")
			if !unlockSatisfies(tx, i, want) {
				return &InvalidGlobalRuleError{Rule: UnlockMismatch, Detail: in.Source.String()}
			}
		}
	}
	return nil
}

func unlockSatisfies(tx *Transaction, inputIndex int, wantPubkey string) bool {
	for _, u := range tx.Unlocks {
		if int(u.InputIndex) != inputIndex {
			continue
		}
		if !strings.HasPrefix(u.Proof, "SIG(") {
			continue
		}
		idxStr := strings.TrimSuffix(strings.TrimPrefix(u.Proof, "SIG("), ")")
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 0 || idx >= len(tx.Iss) {
			continue
		}
		if tx.Iss[idx].String() == wantPubkey {
			return true
		}
	}
	return false
}

// RuleInputOutputBalance rejects a transaction whose total input value does
// not equal its total output value (no implicit fees or inflation, §3).
func RuleInputOutputBalance(cs *ChainState, b *Block) error {
	for _, tx := range b.Transactions {
		var in, out uint64
		for _, i := range tx.Inputs {
			in += effectiveValue(i.Amount, i.Base)
		}
		for _, o := range tx.Outputs {
			out += effectiveValue(o.Amount, o.Base)
		}
		if in != out {
			return &InvalidGlobalRuleError{Rule: AmountMismatch, Detail: tx.Hash().String()}
		}
	}
	return nil
}

func effectiveValue(amount uint64, base uint8) uint64 {
	v := amount
	for i := uint8(0); i < base; i++ {
		v *= 10
	}
	return v
}

// RuleDifficulty rejects a block whose pow_min is below the personal
// difficulty its issuer owes at this height: max(pow_min_floor,
// issuer_handicap + exclusion_factor * pow_min_floor) (§4.9). exclusion_factor
// is left at 0 below; see the DESIGN.md open-question entry for why no
// groundable derivation for it was found in original_source.
func RuleDifficulty(cs *ChainState, b *Block) error {
	if b.IsGenesis() {
		return nil
	}
	floor := networkPowFloor(b.IssuersCount, cs.Params.DtDiffEval)
	nb := countIssuerInWindow(cs.IssuerWindow, b.Issuer)
	handicap := issuerHandicap(nb, b.IssuersFrame, b.IssuersCount)

	// exclusion_factor: unresolved, see DESIGN.md. Left at 0 so the personal
	// floor collapses to handicap alone rather than an invented multiplier.
	const exclusionFactor = 0
	personal := floor
	if h := handicap + exclusionFactor*floor; h > personal {
		personal = h
	}
	if b.PowMin < personal {
		return &InvalidGlobalRuleError{Rule: WrongDifficulty, Detail: fmt.Sprintf("have %d want >= %d", b.PowMin, personal)}
	}
	return nil
}

// networkPowFloor derives pow_min_floor, the network-wide difficulty floor
// every issuer owes regardless of personal handicap: difficulty rises
// logarithmically with the size of the issuing set so average block time
// stays near avg_gen_time. This is only the floor term of RuleDifficulty's
// max(...) expression, not a stand-in for the full personal formula.
func networkPowFloor(issuersCount uint32, dtDiffEval uint32) uint32 {
	if issuersCount <= 1 {
		return 0
	}
	return uint32(math.Log2(float64(issuersCount))) * 4
}

// countIssuerInWindow returns how many of the last issuers_frame blocks
// were signed by issuer, the "nbPersonalBlocksInFrame" term compute_median_
// issuers_frame (original_source/lib/modules-lib/bc-db-reader/src/tools.rs)
// computes per-issuer before taking the frame's median.
func countIssuerInWindow(window []PubKey, issuer PubKey) int {
	n := 0
	for _, pk := range window {
		if pk == issuer {
			n++
		}
	}
	return n
}

// issuerHandicap computes how far above its fair share of the issuers_frame
// an issuer already sits, in powers of the 1.189 difficulty step (§4.9,
// "member's share of the last frame"): 0 while the issuer is at or below its
// share (issuers_frame/issuers_count), rising logarithmically past it.
func issuerHandicap(nbPersonalBlocksInFrame int, issuersFrame int64, issuersCount uint32) uint32 {
	if issuersCount == 0 || issuersFrame <= 0 {
		return 0
	}
	share := float64(issuersFrame) / float64(issuersCount)
	if share <= 0 || float64(nbPersonalBlocksInFrame+1) <= share {
		return 0
	}
	h := math.Log(float64(nbPersonalBlocksInFrame+1)/share) / math.Log(1.189)
	if h < 0 {
		return 0
	}
	return uint32(math.Floor(h))
}

// RuleMonetaryMass rejects a block whose declared monetary_mass does not
// equal the previous mass plus this block's dividend issuance (dividend times
// members_count); transactions never change the mass.
func RuleMonetaryMass(cs *ChainState, b *Block) error {
	expected := cs.MonetaryMass
	if b.Dividend != nil {
		expected += *b.Dividend * uint64(b.MembersCount)
	}
	if b.MonetaryMass != expected {
		return &InvalidGlobalRuleError{Rule: WrongMonetaryMass, Detail: fmt.Sprintf("have %d want %d", b.MonetaryMass, expected)}
	}
	return nil
}

// RuleDividend rejects a block that mints a dividend before its re-evaluation
// period has elapsed, or omits one once due (§3.5, UD growth model).
func RuleDividend(cs *ChainState, b *Block) error {
	if b.IsGenesis() {
		return nil
	}
	// Due in the first block whose median time reaches a UDTime0 + k*Dt
	// boundary that the previous block's median time had not yet reached.
	due := false
	if b.MedianTime >= cs.Params.UDTime0 {
		boundary := b.MedianTime - (b.MedianTime-cs.Params.UDTime0)%cs.Params.Dt
		due = cs.MedianTime < boundary
	}
	if due && b.Dividend == nil {
		return &InvalidGlobalRuleError{Rule: WrongDividend, Detail: "dividend due but absent"}
	}
	if !due && b.Dividend != nil {
		return &InvalidGlobalRuleError{Rule: WrongDividend, Detail: "dividend present but not due"}
	}
	return nil
}
