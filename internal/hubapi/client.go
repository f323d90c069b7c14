package hubapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/golemfactory/gumpi/internal/gerrors"
	"k8s.io/klog/v2"
)

// MaxBlobBytes is the hard ceiling on a downloaded blob (SPEC_FULL.md §4.A).
const MaxBlobBytes = 1 << 30 // 1 GiB

// SizeLimitError is returned by DownloadBlobTo when the response body
// exceeds MaxBlobBytes.
type SizeLimitError struct {
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("blob exceeds the %d byte limit", e.Limit)
}

// Client is a typed wrapper over the hub's HTTP API. It holds no session
// state of its own; every method is independently cancellable via ctx.
type Client struct {
	hubAddr    string
	httpClient *http.Client
}

// NewClient builds a Client talking to hubAddr ("host:port"). The returned
// http.Client has no Timeout: per-request cancellation goes through ctx
// alone, since jobs legitimately run for days (SPEC_FULL.md §5).
func NewClient(hubAddr string) *Client {
	return &Client{
		hubAddr:    hubAddr,
		httpClient: &http.Client{},
	}
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("http://%s%s", c.hubAddr, path)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, 0, &gerrors.TransportError{Op: method + " " + path, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	klog.V(4).Infof("hub request: %s %s", method, path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &gerrors.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &gerrors.TransportError{Op: method + " " + path, Err: err}
	}
	klog.V(5).Infof("hub response: %s %s -> %d %q", method, path, resp.StatusCode, data)
	return data, resp.StatusCode, nil
}

// jsonCall performs a JSON request and decodes the response into out, unless
// the response is empty (204/empty body), which is treated as the unit
// value and leaves out untouched.
func (c *Client) jsonCall(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &gerrors.TransportError{Op: method + " " + path, Err: err}
		}
		body = bytes.NewReader(b)
	}
	data, status, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound && method == http.MethodDelete {
		// DELETE on a session/blob that is already gone is success from the
		// caller's point of view (SPEC_FULL.md §4.A).
		return nil
	}
	if len(data) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return gerrors.NewDeserializationError(err, data)
	}
	return nil
}

// CreateHubSession creates a new session on the hub and returns its id.
func (c *Client) CreateHubSession(ctx context.Context, name, environment string) (string, error) {
	var sessionID uint64
	in := struct {
		Name        string `json:"name"`
		Environment string `json:"environment"`
	}{Name: name, Environment: environment}
	if err := c.jsonCall(ctx, http.MethodPost, "/sessions", in, &sessionID); err != nil {
		return "", err
	}
	return strconv.FormatUint(sessionID, 10), nil
}

// DeleteHubSession deletes a session. A 404 from the hub is treated as
// success (idempotent from the caller's point of view).
func (c *Client) DeleteHubSession(ctx context.Context, sessionID string) error {
	return c.jsonCall(ctx, http.MethodDelete, "/sessions/"+sessionID, nil, nil)
}

// ListPeers enumerates every peer currently known to the hub.
func (c *Client) ListPeers(ctx context.Context) ([]PeerInfo, error) {
	var peers []PeerInfo
	if err := c.jsonCall(ctx, http.MethodGet, "/peers", nil, &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

// AddPeers registers the given nodes with a hub session.
func (c *Client) AddPeers(ctx context.Context, sessionID string, nodes []NodeID) error {
	in := struct {
		NodeIDs []NodeID `json:"node_ids"`
	}{NodeIDs: nodes}
	return c.jsonCall(ctx, http.MethodPost, "/sessions/"+sessionID+"/peers", in, nil)
}

// AllocateBlob reserves a blob slot on the hub and returns its id and URI.
func (c *Client) AllocateBlob(ctx context.Context, sessionID string) (Blob, error) {
	var blobID uint64
	if err := c.jsonCall(ctx, http.MethodPost, "/sessions/"+sessionID+"/blobs", nil, &blobID); err != nil {
		return Blob{}, err
	}
	return Blob{
		ID:  blobID,
		URI: c.url(fmt.Sprintf("/sessions/%s/blobs/%d", sessionID, blobID)),
	}, nil
}

// UploadBlob PUTs the content of r to the blob's absolute URI, exactly once,
// streaming rather than buffering the whole body. uri is the value returned
// in Blob.URI, which is already an absolute hub URL: peer containers fetch
// the same URI directly from the hub, independent of this client.
func (c *Client) UploadBlob(ctx context.Context, uri string, r io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, r)
	if err != nil {
		return &gerrors.TransportError{Op: "PUT " + uri, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &gerrors.TransportError{Op: "PUT " + uri, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	if resp.StatusCode >= 300 {
		return &gerrors.TransportError{Op: "PUT " + uri, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}

// DownloadBlobTo GETs the blob's absolute uri and streams the body to w,
// enforcing MaxBlobBytes.
func (c *Client) DownloadBlobTo(ctx context.Context, uri string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return &gerrors.TransportError{Op: "GET " + uri, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &gerrors.TransportError{Op: "GET " + uri, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &gerrors.TransportError{Op: "GET " + uri, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)}
	}
	limited := io.LimitReader(resp.Body, MaxBlobBytes+1)
	n, err := io.Copy(w, limited)
	if err != nil {
		return &gerrors.TransportError{Op: "GET " + uri, Err: err}
	}
	if n > MaxBlobBytes {
		return &SizeLimitError{Limit: MaxBlobBytes}
	}
	return nil
}

// PeerCreateSession provisions a container on node from spec and returns the
// peer session id.
func (c *Client) PeerCreateSession(ctx context.Context, node NodeID, spec ImageSpec) (string, error) {
	var peerSessionID string
	if err := c.sendToPeer(ctx, node, ServiceCreateSession, spec, &peerSessionID); err != nil {
		return "", err
	}
	return peerSessionID, nil
}

// PeerDestroySession tears down a previously provisioned container.
func (c *Client) PeerDestroySession(ctx context.Context, node NodeID, peerSessionID string) error {
	in := struct {
		SessionID string `json:"session_id"`
	}{SessionID: peerSessionID}
	return c.sendToPeer(ctx, node, ServiceDestroySession, in, nil)
}

// PeerHardware queries a peer's hardware report.
func (c *Client) PeerHardware(ctx context.Context, node NodeID) (Hardware, error) {
	var hw Hardware
	if err := c.sendToPeer(ctx, node, ServiceHardware, nil, &hw); err != nil {
		return Hardware{}, err
	}
	return hw, nil
}

// PeerUpdate submits an ordered command batch to a peer session. On success
// it returns one output string per command, in submission order. On partial
// failure it returns a *gerrors.ProcessingResult carrying whatever outputs
// the peer produced before the batch failed.
func (c *Client) PeerUpdate(ctx context.Context, node NodeID, peerSessionID string, cmds []Command) ([]string, error) {
	payload := struct {
		SessionID string               `json:"session_id"`
		Commands  []map[string]Command `json:"commands"`
	}{SessionID: peerSessionID, Commands: tagCommands(cmds)}

	data, _, err := c.sendToPeerRaw(ctx, node, ServiceUpdate, payload)
	if err != nil {
		return nil, err
	}

	var env struct {
		Err *json.RawMessage `json:"Err"`
	}
	// A bare JSON array is not an object, so this unmarshal legitimately
	// fails for the success case; only inspect env.Err when it succeeds.
	if err := json.Unmarshal(data, &env); err == nil && env.Err != nil {
		var partial []string
		if perr := json.Unmarshal(*env.Err, &partial); perr == nil {
			return nil, &gerrors.ProcessingResult{Partial: partial}
		}
		return nil, &peerReplyError{detail: string(*env.Err)}
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, gerrors.NewDeserializationError(err, data)
	}
	return out, nil
}

func tagCommands(cmds []Command) []map[string]Command {
	out := make([]map[string]Command, len(cmds))
	for i, c := range cmds {
		out[i] = map[string]Command{c.commandTag(): c}
	}
	return out
}

// sendToPeer performs a send-to call and decodes the typed reply into out,
// translating a peer-side {"Err": ...} envelope into a peerReplyError.
func (c *Client) sendToPeer(ctx context.Context, node NodeID, service int, payload, out interface{}) error {
	data, _, err := c.sendToPeerRaw(ctx, node, service, payload)
	if err != nil {
		return err
	}
	var env struct {
		Err *json.RawMessage `json:"Err"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Err != nil {
		return &peerReplyError{detail: string(*env.Err)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return gerrors.NewDeserializationError(err, data)
	}
	return nil
}

func (c *Client) sendToPeerRaw(ctx context.Context, node NodeID, service int, payload interface{}) ([]byte, int, error) {
	wrapped := struct {
		B interface{} `json:"b"`
	}{B: payload}
	b, err := json.Marshal(wrapped)
	if err != nil {
		return nil, 0, &gerrors.TransportError{Op: "marshal send-to payload", Err: err}
	}
	path := fmt.Sprintf("/peers/send-to/%s/%d", node, service)
	return c.doRaw(ctx, http.MethodPost, path, bytes.NewReader(b))
}
