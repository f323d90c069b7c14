package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/golemfactory/gumpi/internal/gerrors"
	"github.com/golemfactory/gumpi/internal/hubapi"
	"k8s.io/klog/v2"
)

// HubSession owns the delete capability for a session created on the hub.
// Only the orchestrator holds a *HubSession; every pipeline stage receives
// the read-only *View instead, so "a reference to the session remains" can
// never race Close (SPEC_FULL.md §5, §9).
type HubSession struct {
	view   *View
	client *hubapi.Client

	mu     sync.Mutex
	closed bool
}

// Init provisions a hub session: it creates the session on the hub, lists
// and filters peers, registers the selected ones, and in parallel queries
// hardware and provisions a container for each. A peer is kept only if both
// calls succeed; peers that fail either are dropped with a warning. Init
// fails if zero peers survive.
//
// The fan-out here follows the teacher's own concurrency idiom (see
// pkg/exec.UploadAndExecuteOnPods / krun/krun.go): one goroutine per peer,
// joined with a sync.WaitGroup, writing into a pre-sized, index-addressed
// result slice so the final peer order never depends on completion order.
func Init(ctx context.Context, hubAddr string, filter map[hubapi.NodeID]bool) (*HubSession, error) {
	client := hubapi.NewClient(hubAddr)

	sessionID, err := client.CreateHubSession(ctx, "gumpi job", hubapi.DefaultImageSpec.EnvType)
	if err != nil {
		return nil, fmt.Errorf("creating hub session: %w", err)
	}
	klog.Infof("Created hub session %s", sessionID)

	peers, err := client.ListPeers(ctx)
	if err != nil {
		_ = client.DeleteHubSession(context.Background(), sessionID)
		return nil, fmt.Errorf("listing peers: %w", err)
	}

	selected := peers
	if len(filter) > 0 {
		selected = selected[:0]
		for _, p := range peers {
			if filter[p.NodeID] {
				selected = append(selected, p)
			} else {
				klog.Warningf("Ignoring peer %s: excluded by --providers filter", p.NodeID)
			}
		}
	}
	if len(selected) == 0 {
		_ = client.DeleteHubSession(context.Background(), sessionID)
		return nil, &gerrors.NoPeers{}
	}

	nodeIDs := make([]hubapi.NodeID, len(selected))
	for i, p := range selected {
		nodeIDs[i] = p.NodeID
	}
	if err := client.AddPeers(ctx, sessionID, nodeIDs); err != nil {
		_ = client.DeleteHubSession(context.Background(), sessionID)
		return nil, fmt.Errorf("registering peers: %w", err)
	}

	results := make([]*PeerSession, len(selected))
	var wg sync.WaitGroup
	for i, info := range selected {
		wg.Add(1)
		go func(i int, info hubapi.PeerInfo) {
			defer wg.Done()

			var hw hubapi.Hardware
			var peerSessionID string
			var hwErr, provErr error
			var inner sync.WaitGroup
			inner.Add(2)
			go func() {
				defer inner.Done()
				hw, hwErr = client.PeerHardware(ctx, info.NodeID)
			}()
			go func() {
				defer inner.Done()
				peerSessionID, provErr = client.PeerCreateSession(ctx, info.NodeID, hubapi.DefaultImageSpec)
			}()
			inner.Wait()

			if hwErr != nil {
				klog.Warningf("Dropping peer %s: hardware query failed: %v", info.NodeID, hwErr)
				return
			}
			if provErr != nil {
				klog.Warningf("Dropping peer %s: container provisioning failed: %v", info.NodeID, provErr)
				return
			}
			klog.Infof("Connected to peer %s (%s, %d cores)", info.NodeID, info.PeerAddr, hw.NumCores)
			results[i] = &PeerSession{
				peerSessionID: peerSessionID,
				nodeID:        info.NodeID,
				peerAddr:      info.PeerAddr,
				hardware:      hw,
				client:        client,
			}
		}(i, info)
	}
	wg.Wait()

	live := make([]*PeerSession, 0, len(results))
	for _, p := range results {
		if p != nil {
			live = append(live, p)
		}
	}
	if len(live) == 0 {
		_ = client.DeleteHubSession(context.Background(), sessionID)
		return nil, &gerrors.NoPeers{}
	}

	return &HubSession{
		view: &View{
			sessionID: sessionID,
			hubAddr:   hubAddr,
			client:    client,
			peers:     live,
		},
		client: client,
	}, nil
}

// View returns the read-only handle shared with pipeline stages.
func (h *HubSession) View() *View { return h.view }

// Close deletes the session on the hub. It is idempotent: calling Close
// after a prior Close returns nil without making a network call.
func (h *HubSession) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if err := h.client.DeleteHubSession(ctx, h.view.sessionID); err != nil {
		return fmt.Errorf("deleting hub session %s: %w", h.view.sessionID, err)
	}
	klog.Infof("Deleted hub session %s", h.view.sessionID)
	return nil
}
