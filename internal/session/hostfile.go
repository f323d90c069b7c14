package session

import (
	"net"
	"strconv"
	"strings"
)

// mpiPort is the fixed port MPI's hostfile grammar advertises for every
// host; the engine does not itself listen on it, MPI's own transport does.
const mpiPort = 4222

// Hostfile renders the MPI hostfile for the current peer set: one line per
// peer, in the stored (provisioning) order, "<ip> port=4222 slots=<n>"
// joined by "\n". It is a pure function of the peer list — hardware is
// cached at provisioning time and never re-queried — so it is deterministic
// and infallible given a View with at least one peer.
func (v *View) Hostfile() string {
	lines := make([]string, 0, len(v.peers))
	for _, p := range v.peers {
		ip := p.peerAddr
		if host, _, err := net.SplitHostPort(p.peerAddr); err == nil {
			ip = host
		}
		lines = append(lines, ip+" port="+strconv.Itoa(mpiPort)+" slots="+strconv.Itoa(p.hardware.NumCores))
	}
	return strings.Join(lines, "\n")
}
