package core

import "math"

// WotId is a compact arena index for a WoT member, per design note §9: the
// graph is addressed by dense uint32 ids instead of 32-byte pubkeys so
// adjacency can be stored as plain slices.
type WotId uint32

// wotNode holds one member's outbound certification links (issuer -> receiver).
type wotNode struct {
	pubkey  PubKey
	enabled bool
	links   []WotId // certifications this member has issued, outbound
}

// WoT is the web-of-trust graph: an arena of member nodes plus a pubkey
// lookup index, grounded on the arena + compact id design note in §9.
type WoT struct {
	nodes   []wotNode
	byPubkey map[PubKey]WotId
	maxLinks int // per-issuer outbound certification cap (sig_stock)
}

// NewWoT returns an empty graph capping each member's outbound links at maxLinks.
func NewWoT(maxLinks int) *WoT {
	return &WoT{
		byPubkey: make(map[PubKey]WotId),
		maxLinks: maxLinks,
	}
}

// AddMember inserts pk as a new node if absent, returning its WotId.
func (w *WoT) AddMember(pk PubKey) WotId {
	if id, ok := w.byPubkey[pk]; ok {
		w.nodes[id].enabled = true
		return id
	}
	id := WotId(len(w.nodes))
	w.nodes = append(w.nodes, wotNode{pubkey: pk, enabled: true})
	w.byPubkey[pk] = id
	return id
}

// RemoveMember disables a node (exclusion/revocation) without compacting the
// arena, so previously-issued WotIds stay valid.
func (w *WoT) RemoveMember(pk PubKey) {
	if id, ok := w.byPubkey[pk]; ok {
		w.nodes[id].enabled = false
	}
}

// Lookup returns the WotId for pk, if it has ever been a member.
func (w *WoT) Lookup(pk PubKey) (WotId, bool) {
	id, ok := w.byPubkey[pk]
	return id, ok
}

// IsEnabled reports whether id currently denotes an active (non-excluded,
// non-revoked) member.
func (w *WoT) IsEnabled(id WotId) bool {
	return int(id) < len(w.nodes) && w.nodes[id].enabled
}

// AddLink records that issuer certifies receiver. Returns false if issuer has
// already reached its outbound certification cap (sig_stock, §4.5).
func (w *WoT) AddLink(issuer, receiver WotId) bool {
	n := &w.nodes[issuer]
	if w.maxLinks > 0 && len(n.links) >= w.maxLinks {
		return false
	}
	for _, l := range n.links {
		if l == receiver {
			return true // already linked, idempotent
		}
	}
	n.links = append(n.links, receiver)
	return true
}

// RemoveLink drops a previously-added certification (used on revert/expiry).
func (w *WoT) RemoveLink(issuer, receiver WotId) {
	n := &w.nodes[issuer]
	for i, l := range n.links {
		if l == receiver {
			n.links = append(n.links[:i], n.links[i+1:]...)
			return
		}
	}
}

// OutboundCount returns how many certifications id has currently issued.
func (w *WoT) OutboundCount(id WotId) int {
	if int(id) >= len(w.nodes) {
		return 0
	}
	return len(w.nodes[id].links)
}

// DistanceOK implements the distance rule (§4.5/§9): receiver is reachable
// from at least one sentry within stepMax hops, where a sentry is any member
// whose outbound link count is at least ceil(1/xPercent) (MaxConnectivity).
// A BFS from receiver backwards would need the full inbound graph; instead,
// following the original's outbound-only traversal, this runs a bounded BFS
// forward from every sentry and checks reachability to receiver.
func (w *WoT) DistanceOK(receiver WotId, stepMax int, xPercent float64) bool {
	sentryMin := int(math.Ceil(1 / xPercent))
	if sentryMin < 1 {
		sentryMin = 1
	}
	for id := range w.nodes {
		sid := WotId(id)
		if !w.nodes[id].enabled || w.OutboundCount(sid) < sentryMin {
			continue
		}
		if w.reachableWithin(sid, receiver, stepMax) {
			return true
		}
	}
	return false
}

func (w *WoT) reachableWithin(from, to WotId, maxSteps int) bool {
	if from == to {
		return true
	}
	frontier := []WotId{from}
	visited := map[WotId]bool{from: true}
	for step := 0; step < maxSteps && len(frontier) > 0; step++ {
		var next []WotId
		for _, id := range frontier {
			for _, l := range w.nodes[id].links {
				if l == to {
					return true
				}
				if !visited[l] {
					visited[l] = true
					next = append(next, l)
				}
			}
		}
		frontier = next
	}
	return false
}

// MemberCount returns the number of currently enabled members.
func (w *WoT) MemberCount() int {
	n := 0
	for i := range w.nodes {
		if w.nodes[i].enabled {
			n++
		}
	}
	return n
}

// Sentries returns every enabled member whose outbound link count meets the
// MaxConnectivity threshold, per §4.5's "distance rule" sentry definition.
func (w *WoT) Sentries(xPercent float64) []PubKey {
	sentryMin := int(math.Ceil(1 / xPercent))
	if sentryMin < 1 {
		sentryMin = 1
	}
	var out []PubKey
	for id := range w.nodes {
		if w.nodes[id].enabled && len(w.nodes[id].links) >= sentryMin {
			out = append(out, w.nodes[id].pubkey)
		}
	}
	return out
}
