// Package hubapi is a thin typed client over the hub's HTTP API: session and
// blob lifecycle, peer enumeration, and per-peer command-batch submission.
// It mirrors the hub's JSON wire format exactly (see SPEC_FULL.md §6) and
// leaves cancellation entirely to the caller's context.Context.
package hubapi

import "fmt"

// NodeID is the hub-assigned identifier of a peer. It is opaque to the
// engine; equality and use as a map key fall out of the underlying string.
type NodeID string

func (n NodeID) String() string { return string(n) }

// PeerInfo is one entry from GET /peers.
type PeerInfo struct {
	NodeID   NodeID `json:"node_id"`
	PeerAddr string `json:"peer_addr"`
}

// Hardware is the subset of a peer's hardware report the engine consumes.
// Additional fields the hub may send are ignored by the JSON decoder.
type Hardware struct {
	NumCores int `json:"num_cores"`
}

// Blob identifies a byte object allocated on the hub.
type Blob struct {
	ID  uint64 `json:"blob_id"`
	URI string `json:"uri"`
}

// ImageSpec is the fixed container image provisioned on every peer of a
// hub session. It is serialized byte-identically for every peer, satisfying
// the invariant that all peers in a session share one image spec.
type ImageSpec struct {
	EnvType       string            `json:"env_type"`
	ImageURL      string            `json:"image_url"`
	ImageChecksum string            `json:"image_checksum"`
	Options       ContainerOptions  `json:"options"`
	Tags          []string          `json:"tags,omitempty"`
	Env           map[string]string `json:"env,omitempty"`
}

// ContainerOptions are the per-container options required for MPI's
// shared-memory transport to work across the hub's container runtime.
type ContainerOptions struct {
	Autostart bool     `json:"autostart"`
	Network   string   `json:"network"`
	CapAdd    []string `json:"cap_add"`
}

// DefaultImageSpec is the image spec fixed at compile time (SPEC_FULL.md §6).
var DefaultImageSpec = ImageSpec{
	EnvType:       "hd",
	ImageURL:      "http://registry.gumpi.internal/images/mpi-worker:v1",
	ImageChecksum: "sha256:0000000000000000000000000000000000000000000000000000000000000",
	Options: ContainerOptions{
		Autostart: true,
		Network:   "host",
		CapAdd:    []string{"SYS_PTRACE"},
	},
}

// BlobFormat selects how a file transfer command interprets its payload.
type BlobFormat string

const (
	FormatRaw BlobFormat = "Raw"
	FormatTar BlobFormat = "Tar"
)

// Service numbers used on the hub's /peers/send-to/{node}/{service} endpoint.
const (
	ServiceCreateSession  = 37
	ServiceUpdate         = 38
	ServiceDestroySession = 40
	ServiceHardware       = 19354
)

// peerReplyError is returned when the hub's send-to envelope carries an
// "Err" field — the peer itself rejected the request (not a partial batch,
// see ProcessingResult for that case).
type peerReplyError struct {
	detail string
}

func (e *peerReplyError) Error() string {
	return fmt.Sprintf("provider replied: %s", e.detail)
}
