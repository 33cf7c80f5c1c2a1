package core

// GlobalRuleFn checks one global (state-dependent) rule against a candidate
// block, per §4.5.
type GlobalRuleFn func(cs *ChainState, b *Block) error

// RuleSet dispatches, per named rule, to the single implementation whose
// floor version is the highest one not exceeding the block's own version -
// never to every floor's implementation cumulatively. Grounded on
// original_source's br_g100.rs `Rule::new(RuleNumber, btreemap![version =>
// fn, ...])`: a rule name owns one version-keyed table, and checking it
// picks exactly one entry from that table, not every entry at or below the
// block's version.
type RuleSet struct {
	rules map[string]map[uint16]GlobalRuleFn
	order []string // registration order, for deterministic CheckAll iteration
}

// NewRuleSet returns an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[string]map[uint16]GlobalRuleFn)}
}

// Register adds fn as the implementation of the named rule effective from
// floorVersion onward. Registering the same name again at a different floor
// adds an alternative version for CheckAll to choose between; it does not
// run both versions for the same block.
func (rs *RuleSet) Register(name string, floorVersion uint16, fn GlobalRuleFn) {
	versions, ok := rs.rules[name]
	if !ok {
		versions = make(map[uint16]GlobalRuleFn)
		rs.rules[name] = versions
		rs.order = append(rs.order, name)
	}
	versions[floorVersion] = fn
}

// CheckAll runs, for each registered rule in registration order, the
// implementation with the highest floor version not exceeding b.Ver, failing
// fast on the first error. A rule with no version at or below b.Ver is
// skipped rather than erroring, since that means it was introduced later
// than this block's protocol version.
func (rs *RuleSet) CheckAll(cs *ChainState, b *Block) error {
	for _, name := range rs.order {
		fn, ok := highestApplicable(rs.rules[name], b.Ver)
		if !ok {
			continue
		}
		if err := fn(cs, b); err != nil {
			return err
		}
	}
	return nil
}

func highestApplicable(versions map[uint16]GlobalRuleFn, ver uint16) (GlobalRuleFn, bool) {
	var best uint16
	var fn GlobalRuleFn
	found := false
	for floor, candidate := range versions {
		if floor <= ver && (!found || floor > best) {
			best = floor
			fn = candidate
			found = true
		}
	}
	return fn, found
}

// DefaultRuleSet registers the representative global rules for protocol v10
// (§4.5/§9): BR_G100 issuerIsMember plus certification/membership/source/
// difficulty/monetary-mass/dividend checks.
func DefaultRuleSet() *RuleSet {
	rs := NewRuleSet()
	rs.Register("issuer_is_member", 10, RuleIssuerIsMember)
	rs.Register("no_duplicate_certification", 10, RuleNoDuplicateCertification)
	rs.Register("certification_not_expired", 10, RuleCertificationNotExpired)
	rs.Register("certifier_is_member", 10, RuleCertifierIsMember)
	rs.Register("membership_issuer_known", 10, RuleMembershipIssuerKnown)
	rs.Register("sources_exist", 10, RuleSourcesExist)
	rs.Register("unlock_conditions", 10, RuleUnlockConditions)
	rs.Register("input_output_balance", 10, RuleInputOutputBalance)
	rs.Register("difficulty", 10, RuleDifficulty)
	rs.Register("monetary_mass", 10, RuleMonetaryMass)
	rs.Register("dividend", 10, RuleDividend)
	return rs
}
