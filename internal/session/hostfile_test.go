package session

import (
	"testing"

	"github.com/golemfactory/gumpi/internal/hubapi"
)

func newView(peers ...*PeerSession) *View {
	return &View{sessionID: "1", hubAddr: "hub:1", peers: peers}
}

func TestHostfileFormat(t *testing.T) {
	v := newView(
		&PeerSession{nodeID: "a", peerAddr: "10.0.0.1:9000", hardware: hubapi.Hardware{NumCores: 4}},
		&PeerSession{nodeID: "b", peerAddr: "10.0.0.2:9000", hardware: hubapi.Hardware{NumCores: 2}},
	)

	got := v.Hostfile()
	want := "10.0.0.1 port=4222 slots=4\n10.0.0.2 port=4222 slots=2"
	if got != want {
		t.Fatalf("Hostfile() = %q, want %q", got, want)
	}
}

func TestHostfileDeterministic(t *testing.T) {
	v := newView(
		&PeerSession{nodeID: "a", peerAddr: "10.0.0.1:9000", hardware: hubapi.Hardware{NumCores: 4}},
	)
	if v.Hostfile() != v.Hostfile() {
		t.Fatal("Hostfile() is not deterministic across calls")
	}
}

func TestHostfilePreservesPeerOrder(t *testing.T) {
	v := newView(
		&PeerSession{nodeID: "z", peerAddr: "10.0.0.9:1", hardware: hubapi.Hardware{NumCores: 1}},
		&PeerSession{nodeID: "a", peerAddr: "10.0.0.1:1", hardware: hubapi.Hardware{NumCores: 1}},
	)
	got := v.Hostfile()
	want := "10.0.0.9 port=4222 slots=1\n10.0.0.1 port=4222 slots=1"
	if got != want {
		t.Fatalf("Hostfile() = %q, want %q (must preserve stored order, not sort)", got, want)
	}
}

func TestHostfileAddressWithoutPort(t *testing.T) {
	v := newView(
		&PeerSession{nodeID: "a", peerAddr: "10.0.0.1", hardware: hubapi.Hardware{NumCores: 1}},
	)
	want := "10.0.0.1 port=4222 slots=1"
	if got := v.Hostfile(); got != want {
		t.Fatalf("Hostfile() = %q, want %q", got, want)
	}
}
