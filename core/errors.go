package core

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Error taxonomy, per §7. Sentinel values are used where no extra detail is
// carried; typed structs carry the offending rule/field where useful.

var (
	// Protocol
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")
	ErrWrongFormat        = errors.New("protocol: wrong format")
	ErrInvalidSignature   = errors.New("protocol: invalid signature")
	ErrInvalidHashPattern = errors.New("protocol: invalid hash pattern")

	// Chain
	ErrAlreadyHaveBlock   = errors.New("chain: already have block")
	ErrBlockOutOfForkWindow = errors.New("chain: block out of fork window")
	ErrOrphanBlock        = errors.New("chain: orphan block")
	ErrForkBlock          = errors.New("chain: fork block")

	// Storage
	ErrDbCorrupted = errors.New("storage: db corrupted")
	ErrDbIoError   = errors.New("storage: db io error")
	ErrTxConflict  = errors.New("storage: tx conflict")

	// Network
	ErrNoResponse          = errors.New("network: no response")
	ErrReceiverUnreachable = errors.New("network: receiver unreachable")

	// Config
	ErrConfVersionParse = errors.New("config: conf version parse error")
	ErrEnvy             = errors.New("config: environment error")
)

// InvalidLocalRuleError reports a failed block-only rule (§4.4).
type InvalidLocalRuleError struct {
	Rule   string
	Detail string
}

func (e *InvalidLocalRuleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("local rule failed: %s", e.Rule)
	}
	return fmt.Sprintf("local rule failed: %s (%s)", e.Rule, e.Detail)
}

// GlobalRuleKind enumerates the representative global-check failures (§4.5/§7).
type GlobalRuleKind string

const (
	IssuerNotMember      GlobalRuleKind = "IssuerNotMember"
	DuplicateCert        GlobalRuleKind = "DuplicateCert"
	ExpiredCert          GlobalRuleKind = "ExpiredCert"
	UnknownSource        GlobalRuleKind = "UnknownSource"
	SourceAlreadyConsumed GlobalRuleKind = "SourceAlreadyConsumed"
	UnlockMismatch       GlobalRuleKind = "UnlockMismatch"
	AmountMismatch       GlobalRuleKind = "AmountMismatch"
	WrongDifficulty      GlobalRuleKind = "WrongDifficulty"
	WrongMonetaryMass    GlobalRuleKind = "WrongMonetaryMass"
	WrongDividend        GlobalRuleKind = "WrongDividend"
)

// InvalidGlobalRuleError reports a failed state-dependent rule (§4.5).
type InvalidGlobalRuleError struct {
	Rule   GlobalRuleKind
	Detail string
}

func (e *InvalidGlobalRuleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("global rule failed: %s", e.Rule)
	}
	return fmt.Sprintf("global rule failed: %s (%s)", e.Rule, e.Detail)
}

// DenialError terminates a single WS2P connection without being fatal to the node.
type DenialError struct {
	Reason string
}

func (e *DenialError) Error() string { return fmt.Sprintf("network: denial (%s)", e.Reason) }

// fatalErrorFunnel is the single path through which unrecoverable errors are
// logged before the process aborts with exit code 4, per §7.
func fatalErrorFunnel(log logger, err error) {
	log.Errorf("fatal: %v", err)
}

// logger is the minimal surface this package needs from a structured logger,
// satisfied by *logrus.Entry / *logrus.Logger.
type logger interface {
	Errorf(format string, args ...interface{})
}

// LogFatal routes an unrecoverable CLI error through fatalErrorFunnel before
// the process exits with code 4 (§7).
func LogFatal(err error) {
	fatalErrorFunnel(logrus.StandardLogger(), err)
}
