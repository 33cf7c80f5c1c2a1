package core

import (
	"fmt"
	"math"
)

// Local block checks (§4.4): rules requiring only the block and the
// currency parameters. These are pure functions and may run in parallel
// across blocks.

// CheckPowPattern validates the proof-of-work pattern (§4.10): given pow_min
// d, the hash-string prefix must have d/16 hex zeros followed by a digit
// no greater than 15-(d mod 16).
func CheckPowPattern(hash Hash, powMin uint32) error {
	hexStr := hash.String()
	zeros := int(powMin / 16)
	remainder := powMin % 16
	for i := 0; i < zeros; i++ {
		if i >= len(hexStr) || hexStr[i] != '0' {
			return &InvalidLocalRuleError{Rule: "block.pow_pattern", Detail: hexStr}
		}
	}
	if zeros >= len(hexStr) {
		return &InvalidLocalRuleError{Rule: "block.pow_pattern", Detail: "hash too short"}
	}
	digit, err := hexDigitValue(hexStr[zeros])
	if err != nil {
		return &InvalidLocalRuleError{Rule: "block.pow_pattern", Detail: err.Error()}
	}
	if digit > 15-int(remainder) {
		return &InvalidLocalRuleError{Rule: "block.pow_pattern", Detail: hexStr}
	}
	return nil
}

func hexDigitValue(c byte) (int, error) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), nil
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, nil
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, nil
	default:
		return 0, fmt.Errorf("not a hex digit: %c", c)
	}
}

// CheckBlockShape validates genesis/non-genesis shape rules (§4.4).
func CheckBlockShape(b *Block, params CurrencyParams) error {
	if b.Ver != 10 {
		return ErrUnsupportedVersion
	}
	if b.Nonce >= math.MaxUint64 {
		return &InvalidLocalRuleError{Rule: "block.nonce", Detail: "overflow"}
	}
	if b.IsGenesis() {
		if !b.PreviousHash.IsZero() {
			return &InvalidLocalRuleError{Rule: "block.genesis.previous_hash", Detail: "must be absent"}
		}
		if b.Parameters == nil {
			return &InvalidLocalRuleError{Rule: "block.genesis.parameters", Detail: "must be present"}
		}
		if b.UnitBase != 0 {
			return &InvalidLocalRuleError{Rule: "block.genesis.unit_base", Detail: "must be zero"}
		}
		if b.Time != b.MedianTime {
			return &InvalidLocalRuleError{Rule: "block.genesis.time", Detail: "must equal median_time"}
		}
		if b.Dividend != nil {
			return &InvalidLocalRuleError{Rule: "block.genesis.dividend", Detail: "must be absent"}
		}
		return nil
	}

	if b.PreviousHash.IsZero() {
		return &InvalidLocalRuleError{Rule: "block.previous_hash", Detail: "must be present"}
	}
	if b.Parameters != nil {
		return &InvalidLocalRuleError{Rule: "block.parameters", Detail: "must be absent except at genesis"}
	}
	maxTime := b.MedianTime + int64(math.Ceil(float64(params.AvgGenTime)*1.189))*int64(params.MedianTimeBlocks)
	if b.Time < b.MedianTime || b.Time > maxTime {
		return &InvalidLocalRuleError{Rule: "block.time", Detail: "out of allowed window"}
	}
	return nil
}

// CheckNoDuplicateEntities rejects a block carrying duplicate identity
// pubkeys, duplicate certification (issuer,receiver) pairs, or a source
// identifier both created and consumed within the same block (§4.4).
func CheckNoDuplicateEntities(b *Block) error {
	seenIdty := make(map[PubKey]bool, len(b.Identities))
	for _, idty := range b.Identities {
		if seenIdty[idty.Pubkey] {
			return &InvalidLocalRuleError{Rule: "block.duplicate_identity", Detail: idty.Pubkey.String()}
		}
		seenIdty[idty.Pubkey] = true
	}

	seenCert := make(map[CIndexKey]bool, len(b.Certifications))
	for _, c := range b.Certifications {
		k := CIndexKey{Issuer: c.Issuer, Receiver: c.Receiver}
		if seenCert[k] {
			return &InvalidLocalRuleError{Rule: "block.duplicate_certification", Detail: c.Key()}
		}
		seenCert[k] = true
	}

	created := make(map[SourceID]bool)
	consumed := make(map[SourceID]bool)
	for _, tx := range b.Transactions {
		for _, in := range tx.Inputs {
			consumed[in.Source] = true
		}
	}
	for txi, tx := range b.Transactions {
		for outIdx := range tx.Outputs {
			id := SourceID{Kind: SourceUTXO, TxHash: tx.Hash(), Pos: uint32(outIdx)}
			if created[id] {
				return &InvalidLocalRuleError{Rule: "block.duplicate_output", Detail: id.String()}
			}
			created[id] = true
			if consumed[id] {
				return &InvalidLocalRuleError{Rule: "block.created_then_consumed", Detail: fmt.Sprintf("tx#%d %s", txi, id)}
			}
		}
	}
	return nil
}

// CheckEmbeddedDocuments runs each embedded document's own local rules.
func CheckEmbeddedDocuments(b *Block) error {
	for _, idty := range b.Identities {
		if err := idty.ValidateLocal(); err != nil {
			return err
		}
	}
	for _, m := range append(append(append([]*Membership{}, b.Joiners...), b.Actives...), b.Leavers...) {
		if err := m.ValidateLocal(); err != nil {
			return err
		}
	}
	for _, r := range b.Revoked {
		if err := r.ValidateLocal(); err != nil {
			return err
		}
	}
	for _, c := range b.Certifications {
		if err := c.ValidateLocal(); err != nil {
			return err
		}
	}
	for _, tx := range b.Transactions {
		if err := tx.ValidateLocal(); err != nil {
			return err
		}
	}
	return nil
}

// CheckLocalRules runs every local (block-only) rule in sequence (§4.4).
func CheckLocalRules(b *Block, params CurrencyParams) error {
	if err := CheckBlockShape(b, params); err != nil {
		return err
	}
	if err := CheckPowPattern(b.ComputeHash(), b.PowMin); err != nil {
		return err
	}
	if err := CheckNoDuplicateEntities(b); err != nil {
		return err
	}
	return CheckEmbeddedDocuments(b)
}
