package core

import (
	"encoding/json"
	"fmt"
)

// SourceKind distinguishes a UTXO source from a Universal Dividend source,
// per §3: "identifier = (tx hash, output index) or (pubkey, UD block number)".
type SourceKind uint8

const (
	SourceUTXO SourceKind = iota
	SourceUD
)

// SourceID is the unique identifier of a spendable source (SINDEX key).
type SourceID struct {
	Kind    SourceKind
	TxHash  Hash   // set when Kind == SourceUTXO
	Pos     uint32 // set when Kind == SourceUTXO
	Issuer  PubKey // set when Kind == SourceUD
	UDBlock uint32 // set when Kind == SourceUD
}

// String renders the SINDEX storage key for this source.
func (s SourceID) String() string {
	if s.Kind == SourceUD {
		return fmt.Sprintf("D:%s:%d", s.Issuer, s.UDBlock)
	}
	return fmt.Sprintf("T:%s:%d", s.TxHash, s.Pos)
}

// TxInput references a source being consumed along with the amount it is
// expected to carry (checked against SINDEX state at apply time).
type TxInput struct {
	Source SourceID
	Amount uint64
	Base   uint8
}

// Unlock supplies the proof discharging one input's locking condition.
// Proof is a small expression language, e.g. "SIG(0)" referencing issuer
// index 0, or "XHX(<hash>)" for a hashlock preimage.
type Unlock struct {
	InputIndex uint32
	Proof      string
}

// TxOutput creates a new source with the given amount and locking condition.
// Condition is a boolean expression over issuer signatures, e.g. "SIG(<pubkey>)"
// or "(SIG(A) && SIG(B))".
type TxOutput struct {
	Amount    uint64
	Base      uint8
	Condition string
}

// Transaction moves value from consumed sources to new outputs, per §3.
type Transaction struct {
	Ver        uint16
	Currency   string
	Blockstmp  Blockstamp // blockstamp referenced for locktime / replay scoping
	Locktime   uint64
	Iss        []PubKey
	Inputs     []TxInput
	Unlocks    []Unlock
	Outputs    []TxOutput
	Sigs       []string
	Comment    string
}

func (t *Transaction) AsSignedBytes() []byte {
	raw, _ := json.Marshal(struct {
		Version   uint16
		Currency  string
		Blockstmp string
		Locktime  uint64
		Issuers   []string
		Inputs    []TxInput
		Unlocks   []Unlock
		Outputs   []TxOutput
		Comment   string
	}{
		Version:   t.Ver,
		Currency:  t.Currency,
		Blockstmp: t.Blockstmp.String(),
		Locktime:  t.Locktime,
		Issuers:   pubKeyStrings(t.Iss),
		Inputs:    t.Inputs,
		Unlocks:   t.Unlocks,
		Outputs:   t.Outputs,
		Comment:   t.Comment,
	})
	return raw
}

func pubKeyStrings(pks []PubKey) []string {
	out := make([]string, len(pks))
	for i, p := range pks {
		out[i] = p.String()
	}
	return out
}

func (t *Transaction) Issuers() []PubKey      { return t.Iss }
func (t *Transaction) Signatures() []string   { return t.Sigs }
func (t *Transaction) Blockstamp() Blockstamp { return t.Blockstmp }
func (t *Transaction) Version() uint16        { return t.Ver }
func (t *Transaction) VerifySignatures() error {
	return verifyParallelSignatures(t.AsSignedBytes(), t.Issuers(), t.Signatures())
}

// Hash uniquely identifies the transaction by the SHA-256 of its signed
// bytes followed by its signatures, per §3 ("uniquely identified by its hash").
func (t *Transaction) Hash() Hash {
	buf := append([]byte{}, t.AsSignedBytes()...)
	for _, s := range t.Sigs {
		buf = append(buf, s...)
	}
	return HashBytes(buf)
}

// ValidateLocal checks the transaction's own-document rules (§4.4): unlocks
// reference existing inputs, and no source is consumed by two inputs of the
// same transaction (the sole source de-duplication a single transaction can
// enforce on itself; cross-transaction consumption checks are global, see
// rules_global.go).
func (t *Transaction) ValidateLocal() error {
	if t.Ver != 10 {
		return ErrUnsupportedVersion
	}
	if len(t.Inputs) == 0 {
		return &InvalidLocalRuleError{Rule: "transaction.inputs", Detail: "empty"}
	}
	if len(t.Outputs) == 0 {
		return &InvalidLocalRuleError{Rule: "transaction.outputs", Detail: "empty"}
	}
	for _, u := range t.Unlocks {
		if int(u.InputIndex) >= len(t.Inputs) {
			return &InvalidLocalRuleError{Rule: "transaction.unlock_index", Detail: fmt.Sprintf("%d", u.InputIndex)}
		}
	}
	seen := make(map[SourceID]bool, len(t.Inputs))
	for _, in := range t.Inputs {
		if seen[in.Source] {
			return &InvalidLocalRuleError{Rule: "transaction.duplicate_input", Detail: in.Source.String()}
		}
		seen[in.Source] = true
	}
	return t.VerifySignatures()
}

var _ Document = (*Transaction)(nil)
