package core

// Typed, transactional key-value store per §4.3/§6. Three store kinds are
// supported: single-value string-key, single-value integer-key, and
// multi-value integer-key (values accumulate instead of being replaced).
// Modeled on teacher's Ledger WAL (ledger.go: bufio.Scanner replay, fsync on
// commit) and the KVStore/InMemoryStore pair in cross_chain.go, generalized
// to read/write transactions and multi-value semantics.

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// StoreKind selects how Put behaves for a given named store.
type StoreKind uint8

const (
	StoreStringKeyed  StoreKind = iota // single-value, string key
	StoreIntKeyed                     // single-value, integer key (caller encodes the key)
	StoreIntKeyedMulti                // multi-value, integer key
)

// walOp is one durable mutation record, replayed in order on open.
type walOp struct {
	Store     string
	Key       string
	Value     []byte // nil means delete
	Multi     bool
	DeleteAll bool
}

// Store holds every typed store under one on-disk WAL root. The node opens a
// single Store, for "blockchain/"; no "wot/" store is opened, the WoT graph
// is held in memory and rebuilt by block replay.
type Store struct {
	mu    sync.RWMutex
	kinds map[string]StoreKind
	data  map[string]map[string][][]byte

	wal *os.File
}

// NewStore returns a pure in-memory store with no durability.
func NewStore() *Store {
	return &Store{
		kinds: make(map[string]StoreKind),
		data:  make(map[string]map[string][][]byte),
	}
}

// OpenStore opens (creating if absent) a durable store backed by a WAL file
// at path, replaying any existing entries.
func OpenStore(path string) (*Store, error) {
	s := NewStore()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("store: open wal: %w", err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var op walOp
		if err := json.Unmarshal(sc.Bytes(), &op); err != nil {
			continue
		}
		s.applyOp(op)
	}
	if err := sc.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("store: replay wal: %w", err)
	}
	s.wal = f
	return s, nil
}

// DeclareStore registers a typed store's kind, per the typed-stores table in §6.
func (s *Store) DeclareStore(name string, kind StoreKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds[name] = kind
	if _, ok := s.data[name]; !ok {
		s.data[name] = make(map[string][][]byte)
	}
}

func (s *Store) applyOp(op walOp) {
	bucket, ok := s.data[op.Store]
	if !ok {
		bucket = make(map[string][][]byte)
		s.data[op.Store] = bucket
	}
	switch {
	case op.DeleteAll:
		delete(bucket, op.Key)
	case op.Value == nil:
		delete(bucket, op.Key)
	case op.Multi:
		bucket[op.Key] = append(bucket[op.Key], op.Value)
	default:
		bucket[op.Key] = [][]byte{op.Value}
	}
}

func (s *Store) persist(op walOp) error {
	if s.wal == nil {
		return nil
	}
	raw, err := json.Marshal(op)
	if err != nil {
		return err
	}
	if _, err := s.wal.Write(append(raw, '\n')); err != nil {
		return err
	}
	return s.wal.Sync()
}

// ReadTx is a consistent snapshot handle (begin_read, §4.3): the store's
// read lock is held from Begin until Discard, so concurrent readers see a
// stable view even while other readers come and go.
type ReadTx struct {
	s *Store
}

// BeginRead opens a read transaction.
func (s *Store) BeginRead() *ReadTx {
	s.mu.RLock()
	return &ReadTx{s: s}
}

// Get returns the most recently written value for key in store.
func (t *ReadTx) Get(store string, key []byte) ([]byte, bool) {
	vals, ok := t.s.data[store][string(key)]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals[len(vals)-1], true
}

// GetFirst returns the first value ever written for key (multi-value stores).
func (t *ReadTx) GetFirst(store string, key []byte) ([]byte, bool) {
	vals, ok := t.s.data[store][string(key)]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals[0], true
}

// All returns every value recorded for key, in write order (multi-value stores).
func (t *ReadTx) All(store string, key []byte) [][]byte {
	vals := t.s.data[store][string(key)]
	out := make([][]byte, len(vals))
	copy(out, vals)
	return out
}

// Discard releases the read transaction's snapshot.
func (t *ReadTx) Discard() { t.s.mu.RUnlock() }

// WriteTx batches mutations atomically (begin_write, §4.3): nothing is
// visible to readers until Commit; Abort discards the whole batch.
type WriteTx struct {
	s    *Store
	ops  []walOp
	done bool
}

// BeginWrite opens an exclusive write transaction.
func (s *Store) BeginWrite() *WriteTx {
	s.mu.Lock()
	return &WriteTx{s: s}
}

// Get reads the current value including this transaction's own uncommitted writes.
func (w *WriteTx) Get(store string, key []byte) ([]byte, bool) {
	for i := len(w.ops) - 1; i >= 0; i-- {
		op := w.ops[i]
		if op.Store != store || op.Key != string(key) {
			continue
		}
		if op.DeleteAll || op.Value == nil {
			return nil, false
		}
		return op.Value, true
	}
	vals, ok := w.s.data[store][string(key)]
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals[len(vals)-1], true
}

// Put writes value for key, appending for multi-value stores.
func (w *WriteTx) Put(store string, key, value []byte) {
	kind := w.s.kinds[store]
	w.ops = append(w.ops, walOp{
		Store: store,
		Key:   string(key),
		Value: append([]byte(nil), value...),
		Multi: kind == StoreIntKeyedMulti,
	})
}

// Delete removes the value(s) for key.
func (w *WriteTx) Delete(store string, key []byte) {
	w.ops = append(w.ops, walOp{Store: store, Key: string(key), Value: nil})
}

// DeleteAll removes every value recorded for key (multi-value stores).
func (w *WriteTx) DeleteAll(store string, key []byte) {
	w.ops = append(w.ops, walOp{Store: store, Key: string(key), DeleteAll: true})
}

// Commit applies and durably persists the batch, then releases the write lock.
func (w *WriteTx) Commit() error {
	if w.done {
		return errors.New("store: transaction already closed")
	}
	w.done = true
	defer w.s.mu.Unlock()
	for _, op := range w.ops {
		if err := w.s.persist(op); err != nil {
			return fmt.Errorf("store: commit: %w", err)
		}
		w.s.applyOp(op)
	}
	return nil
}

// Abort discards the batch without applying it, per §4.8 ("restore on failure").
func (w *WriteTx) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.s.mu.Unlock()
}

// Close releases the underlying WAL file handle, if any.
func (s *Store) Close() error {
	if s.wal != nil {
		return s.wal.Close()
	}
	return nil
}

// Typed store names. IINDEX/MINDEX/CINDEX/SINDEX/WoT are not given their own
// per-field stores: they are pure reductions of the main block log (§4.2's
// get_state(id) = reduce(get_events(id))), so ChainState rebuilds them by
// replaying StoreMainBlocks through Apply on startup (see ReplayChainState in
// chainstate.go) instead of duplicating their content on disk.
const (
	StoreCurrentMetadata = "current_metadata"
	StoreMainBlocks      = "main_blocks"
)

// NewBlockchainStore declares every typed store the node writes directly.
func NewBlockchainStore(s *Store) {
	s.DeclareStore(StoreCurrentMetadata, StoreIntKeyed)
	s.DeclareStore(StoreMainBlocks, StoreIntKeyed)
}
