package core

import "testing"

func TestKademliaStoreLookup(t *testing.T) {
	k := NewKademlia(NodeID("self"))
	k.Store("name", []byte("value"))

	got, ok := k.Lookup("name")
	if !ok {
		t.Fatal("expected key to be found")
	}
	if string(got) != "value" {
		t.Fatalf("got %q, want %q", got, "value")
	}

	if _, ok := k.Lookup("missing"); ok {
		t.Fatal("expected missing key to be absent")
	}
}

func TestKademliaLookupReturnsCopy(t *testing.T) {
	k := NewKademlia(NodeID("self"))
	k.Store("name", []byte("value"))
	got, _ := k.Lookup("name")
	got[0] = 'X'

	again, _ := k.Lookup("name")
	if string(again) != "value" {
		t.Fatalf("Lookup should return an independent copy, got mutated value %q", again)
	}
}

func TestKademliaAddPeerIgnoresSelf(t *testing.T) {
	k := NewKademlia(NodeID("self"))
	k.AddPeer(NodeID("self"))
	if peers := k.Nearest(NodeID("self"), 10); len(peers) != 0 {
		t.Fatalf("expected self not to be added as a peer, got %v", peers)
	}
}

func TestKademliaNearestReturnsAddedPeers(t *testing.T) {
	k := NewKademlia(NodeID("self"))
	k.AddPeer(NodeID("peer-a"))
	k.AddPeer(NodeID("peer-b"))
	k.AddPeer(NodeID("peer-c"))

	nearest := k.Nearest(NodeID("peer-a"), 2)
	if len(nearest) != 2 {
		t.Fatalf("Nearest returned %d peers, want 2", len(nearest))
	}
}

func TestKademliaAddPeerDeduplicates(t *testing.T) {
	k := NewKademlia(NodeID("self"))
	k.AddPeer(NodeID("peer-a"))
	k.AddPeer(NodeID("peer-a"))

	nearest := k.Nearest(NodeID("peer-a"), 10)
	count := 0
	for _, p := range nearest {
		if p == NodeID("peer-a") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected peer-a to appear once, appeared %d times", count)
	}
}
