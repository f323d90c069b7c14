package session

import (
	"context"

	"github.com/golemfactory/gumpi/internal/hubapi"
)

// PeerSession is a handle to one provisioned container on one peer. It has
// no independent lifetime beyond its owning HubSession: destroying the hub
// session implicitly destroys every peer session on the hub side.
type PeerSession struct {
	peerSessionID string
	nodeID        hubapi.NodeID
	peerAddr      string
	hardware      hubapi.Hardware

	client *hubapi.Client
}

// NodeID returns the peer's hub-assigned identifier.
func (p *PeerSession) NodeID() hubapi.NodeID { return p.nodeID }

// PeerAddr returns the peer's "host:port" address as reported by the hub.
func (p *PeerSession) PeerAddr() string { return p.peerAddr }

// Hardware returns the hardware report cached at provisioning time. It is
// never re-queried for the lifetime of the session.
func (p *PeerSession) Hardware() hubapi.Hardware { return p.hardware }

// Update forwards a command batch to this peer, returning one output string
// per command on success, or a *gerrors.ProcessingResult on partial failure.
func (p *PeerSession) Update(ctx context.Context, cmds []hubapi.Command) ([]string, error) {
	return p.client.PeerUpdate(ctx, p.nodeID, p.peerSessionID, cmds)
}

// NewPeerSession builds a PeerSession directly from its fields. Exported for
// tests in other packages that need to assemble a View against a stub hub
// server without going through the full Init provisioning fan-out.
func NewPeerSession(nodeID hubapi.NodeID, peerAddr string, hw hubapi.Hardware, peerSessionID string, client *hubapi.Client) *PeerSession {
	return &PeerSession{
		peerSessionID: peerSessionID,
		nodeID:        nodeID,
		peerAddr:      peerAddr,
		hardware:      hw,
		client:        client,
	}
}
