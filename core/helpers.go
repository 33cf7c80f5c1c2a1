package core

import "sync"

// Package-level singleton accessors for the node's core services, mirroring
// the teacher's sync.Once-guarded global accessor pattern (helpers.go).

var (
	storeOnce   sync.Once
	globalStore *Store

	chainOnce   sync.Once
	globalChain *ChainState

	auditOnce   sync.Once
	globalAudit *AuditTrail
)

// InitStore opens the global durable store at path.
func InitStore(path string) error {
	var err error
	storeOnce.Do(func() {
		globalStore, err = OpenStore(path)
	})
	return err
}

// CurrentStore returns the global store if initialised.
func CurrentStore() *Store { return globalStore }

// InitChainState builds the global chain state bound to store, under the
// named currency, replaying any previously persisted blocks and currency
// parameters so state survives a restart (see ReplayChainState).
func InitChainState(store *Store, rules *RuleSet, currencyName string) error {
	var err error
	chainOnce.Do(func() {
		globalChain, err = ReplayChainState(store, rules, currencyName)
	})
	return err
}

// CurrentChainState returns the global chain state if initialised.
func CurrentChainState() *ChainState { return globalChain }

// InitAuditTrail opens the global audit trail log at path, anchored into
// the global store.
func InitAuditTrail(path string) error {
	var err error
	auditOnce.Do(func() {
		globalAudit, err = NewAuditTrail(path, globalStore)
	})
	return err
}

// CurrentAuditTrail returns the global audit trail if initialised.
func CurrentAuditTrail() *AuditTrail { return globalAudit }
