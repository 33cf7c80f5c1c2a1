package core

// EventLog is an ordered, append-only sequence of lines for one entity.
// Lines are never rewritten; TruncateLast pops the trailing lines recorded
// for a reverted block, per §3 ("Lifecycle").
type EventLog[L any] struct {
	lines []L
}

func (e *EventLog[L]) Append(line L) { e.lines = append(e.lines, line) }
func (e *EventLog[L]) Len() int      { return len(e.lines) }

func (e *EventLog[L]) Lines() []L {
	out := make([]L, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *EventLog[L]) TruncateLast(n int) {
	if n > len(e.lines) {
		n = len(e.lines)
	}
	e.lines = e.lines[:len(e.lines)-n]
}

// Index is a keyed collection of per-entity event logs with deterministic
// left-to-right reduction, per §4.2. Grounded on
// original_source/lib/dubp/indexes/src/{iindex,mindex,cindex,sindex}/v11.rs's
// MergeIndexLine::merge_index_line semantics: for each field, the latest
// non-null value wins; some fields are always overwritten by the latest line
// regardless of nullity (see the per-index comments in iindex.go/mindex.go/
// cindex.go/sindex.go for exactly which). Reduction is associative under
// ordered concatenation and idempotent for empty updates by construction,
// since it is a pure left fold.
type Index[K comparable, L any, S any] struct {
	logs   map[K]*EventLog[L]
	reduce func(S, L) S
}

func NewIndex[K comparable, L any, S any](reduce func(S, L) S) *Index[K, L, S] {
	return &Index[K, L, S]{logs: make(map[K]*EventLog[L]), reduce: reduce}
}

// Append adds a line to key's event log (append(id, line), §4.2).
func (idx *Index[K, L, S]) Append(key K, line L) {
	log, ok := idx.logs[key]
	if !ok {
		log = &EventLog[L]{}
		idx.logs[key] = log
	}
	log.Append(line)
}

// Events returns key's full event log (get_events(id), §4.2).
func (idx *Index[K, L, S]) Events(key K) []L {
	if log, ok := idx.logs[key]; ok {
		return log.Lines()
	}
	return nil
}

// State returns reduce(events(key)) (get_state(id), §4.2).
func (idx *Index[K, L, S]) State(key K) S {
	var s S
	if log, ok := idx.logs[key]; ok {
		for _, line := range log.lines {
			s = idx.reduce(s, line)
		}
	}
	return s
}

// Has reports whether key has any recorded events.
func (idx *Index[K, L, S]) Has(key K) bool {
	log, ok := idx.logs[key]
	return ok && log.Len() > 0
}

// TruncateLast pops the last n lines appended for key (truncate_last(id,n), §4.2).
func (idx *Index[K, L, S]) TruncateLast(key K, n int) {
	if log, ok := idx.logs[key]; ok {
		log.TruncateLast(n)
	}
}

// Keys returns every entity id with a non-empty event log.
func (idx *Index[K, L, S]) Keys() []K {
	out := make([]K, 0, len(idx.logs))
	for k, log := range idx.logs {
		if log.Len() > 0 {
			out = append(out, k)
		}
	}
	return out
}
