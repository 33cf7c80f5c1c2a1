package core

import "testing"

func pk(b byte) PubKey {
	var p PubKey
	p[0] = b
	return p
}

func TestWoTAddMemberAndLookup(t *testing.T) {
	w := NewWoT(0)
	id := w.AddMember(pk(1))
	got, ok := w.Lookup(pk(1))
	if !ok || got != id {
		t.Fatalf("Lookup = %v, %v; want %v, true", got, ok, id)
	}
	if !w.IsEnabled(id) {
		t.Fatal("freshly added member should be enabled")
	}
}

func TestWoTRemoveMemberDisables(t *testing.T) {
	w := NewWoT(0)
	id := w.AddMember(pk(1))
	w.RemoveMember(pk(1))
	if w.IsEnabled(id) {
		t.Fatal("removed member should be disabled")
	}
	if _, ok := w.Lookup(pk(1)); !ok {
		t.Fatal("Lookup should still resolve the WotId after removal")
	}
}

func TestWoTAddLinkRespectsCap(t *testing.T) {
	w := NewWoT(1)
	a := w.AddMember(pk(1))
	b := w.AddMember(pk(2))
	c := w.AddMember(pk(3))

	if !w.AddLink(a, b) {
		t.Fatal("first link should succeed")
	}
	if w.AddLink(a, c) {
		t.Fatal("second link should fail: issuer at its cap")
	}
	if w.OutboundCount(a) != 1 {
		t.Fatalf("OutboundCount = %d, want 1", w.OutboundCount(a))
	}
}

func TestWoTAddLinkIdempotent(t *testing.T) {
	w := NewWoT(5)
	a := w.AddMember(pk(1))
	b := w.AddMember(pk(2))
	w.AddLink(a, b)
	w.AddLink(a, b)
	if w.OutboundCount(a) != 1 {
		t.Fatalf("duplicate AddLink should not double-count, got %d", w.OutboundCount(a))
	}
}

func TestWoTRemoveLink(t *testing.T) {
	w := NewWoT(5)
	a := w.AddMember(pk(1))
	b := w.AddMember(pk(2))
	w.AddLink(a, b)
	w.RemoveLink(a, b)
	if w.OutboundCount(a) != 0 {
		t.Fatalf("expected link removed, OutboundCount = %d", w.OutboundCount(a))
	}
}

func TestWoTDistanceOK(t *testing.T) {
	w := NewWoT(0)
	sentry := w.AddMember(pk(1))
	hop := w.AddMember(pk(2))
	target := w.AddMember(pk(3))
	far := w.AddMember(pk(4))
	extra := w.AddMember(pk(5))

	w.AddLink(sentry, hop)
	w.AddLink(sentry, extra)
	w.AddLink(hop, target)
	_ = far

	// xPercent=0.5 -> sentryMin=2, so only sentry (two outbound links)
	// counts; hop, with its single link to target, is not a sentry.
	if !w.DistanceOK(target, 2, 0.5) {
		t.Fatal("target should be reachable from sentry within 2 steps")
	}
	if w.DistanceOK(target, 1, 0.5) {
		t.Fatal("target should not be reachable from sentry within only 1 step")
	}
	if w.DistanceOK(far, 5, 0.5) {
		t.Fatal("unlinked member should never be reachable")
	}
}

func TestWoTMemberCount(t *testing.T) {
	w := NewWoT(0)
	w.AddMember(pk(1))
	w.AddMember(pk(2))
	w.RemoveMember(pk(2))
	if got := w.MemberCount(); got != 1 {
		t.Fatalf("MemberCount = %d, want 1", got)
	}
}

func TestWoTSentries(t *testing.T) {
	w := NewWoT(0)
	a := w.AddMember(pk(1))
	b := w.AddMember(pk(2))
	w.AddLink(a, b)

	sentries := w.Sentries(1.0)
	if len(sentries) != 1 || sentries[0] != pk(1) {
		t.Fatalf("Sentries = %v, want [%v]", sentries, pk(1))
	}
}
