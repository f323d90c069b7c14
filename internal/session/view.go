package session

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/golemfactory/gumpi/internal/hubapi"
)

// View is the read-only handle to a hub session shared with every pipeline
// stage (deploy, input distribution, exec, output retrieval). It exposes
// peer enumeration and blob allocation/upload, but never the session's
// delete capability — see HubSession for that. This split exists so that
// "no other references to the session remain" (SPEC_FULL.md §5) is a
// structural property of the type system rather than a racy runtime check:
// a View cannot close the session no matter how many stages hold one.
type View struct {
	sessionID string
	hubAddr   string
	client    *hubapi.Client
	peers     []*PeerSession
}

// Peers returns the ordered peer list. Index 0 is always the root peer.
func (v *View) Peers() []*PeerSession { return v.peers }

// Root returns the first peer in the ordered list, the one exec runs on.
func (v *View) Root() *PeerSession { return v.peers[0] }

// TotalCores sums the cached hardware of every peer. Computed once after
// provisioning; peers are neither added nor removed mid-session.
func (v *View) TotalCores() int {
	total := 0
	for _, p := range v.peers {
		total += p.hardware.NumCores
	}
	return total
}

// AllocateBlob reserves a new blob slot on the hub for this session.
func (v *View) AllocateBlob(ctx context.Context) (hubapi.Blob, error) {
	return v.client.AllocateBlob(ctx, v.sessionID)
}

// UploadReader allocates a blob and streams r into it, returning the blob.
func (v *View) UploadReader(ctx context.Context, r io.Reader) (hubapi.Blob, error) {
	blob, err := v.AllocateBlob(ctx)
	if err != nil {
		return hubapi.Blob{}, fmt.Errorf("allocating blob: %w", err)
	}
	if err := v.client.UploadBlob(ctx, blob.URI, r); err != nil {
		return hubapi.Blob{}, fmt.Errorf("uploading blob: %w", err)
	}
	return blob, nil
}

// UploadFile streams the content of localPath into a freshly allocated blob.
func (v *View) UploadFile(ctx context.Context, localPath string) (hubapi.Blob, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return hubapi.Blob{}, fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close() //nolint:errcheck
	return v.UploadReader(ctx, f)
}

// DownloadBlobTo streams the hub blob at uri to w, enforcing the 1 GiB limit.
func (v *View) DownloadBlobTo(ctx context.Context, uri string, w io.Writer) error {
	return v.client.DownloadBlobTo(ctx, uri, w)
}

// HubAddr returns the "host:port" of the hub this session was created on.
func (v *View) HubAddr() string { return v.hubAddr }

// NewView builds a View directly from its fields. Exported for tests in
// other packages that need to drive a pipeline stage against a stub hub
// server without going through the full Init provisioning fan-out.
func NewView(sessionID, hubAddr string, client *hubapi.Client, peers []*PeerSession) *View {
	return &View{sessionID: sessionID, hubAddr: hubAddr, client: client, peers: peers}
}
