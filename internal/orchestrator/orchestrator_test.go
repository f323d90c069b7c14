package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golemfactory/gumpi/internal/config"
	"github.com/golemfactory/gumpi/internal/gerrors"
)

// fullStubHub serves a complete, minimal hub: one session, one peer, a
// hardware report, container provisioning, command execution, and blob
// allocate/upload/download, enough to drive Run end to end.
func fullStubHub(t *testing.T, cores int, execReply func(w http.ResponseWriter)) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(1) //nolint:errcheck
	})
	mux.HandleFunc("/sessions/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/sessions/1/peers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/sessions/1/blobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(1) //nolint:errcheck
	})
	mux.HandleFunc("/sessions/1/blobs/1", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/peers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]string{ //nolint:errcheck
			{"node_id": "node-a", "peer_addr": "10.0.0.1:1"},
		})
	})
	mux.HandleFunc("/peers/send-to/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/peers/send-to/node-a/")
		switch path {
		case "37": // create session
			json.NewEncoder(w).Encode("psess-1") //nolint:errcheck
		case "19354": // hardware
			json.NewEncoder(w).Encode(map[string]int{"num_cores": cores}) //nolint:errcheck
		case "38": // update
			execReply(w)
		case "40": // destroy session
			w.WriteHeader(http.StatusNoContent)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func writeJob(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "job.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunMinimalJobSucceeds(t *testing.T) {
	dir := t.TempDir()
	hub := fullStubHub(t, 4, func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode([]string{"OK", "done"}) //nolint:errcheck
	})
	jobPath := writeJob(t, dir, `progname = "solver"`)

	err := Run(t.Context(), &config.Options{NumProc: 2, Hub: hub, JobConfigPath: jobPath})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunInsufficientResources(t *testing.T) {
	dir := t.TempDir()
	hub := fullStubHub(t, 1, func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode([]string{"OK", "done"}) //nolint:errcheck
	})
	jobPath := writeJob(t, dir, `progname = "solver"`)

	err := Run(t.Context(), &config.Options{NumProc: 8, Hub: hub, JobConfigPath: jobPath})
	var ir *gerrors.InsufficientResources
	if err == nil {
		t.Fatal("expected an error")
	}
	if e, ok := err.(*gerrors.InsufficientResources); ok {
		ir = e
	}
	if ir == nil {
		t.Fatalf("err = %v (%T), want *gerrors.InsufficientResources", err, err)
	}
	if ir.Requested != 8 || ir.Available != 1 {
		t.Errorf("ir = %+v", ir)
	}
}

func TestRunCancelledDuringInit(t *testing.T) {
	dir := t.TempDir()
	hub := fullStubHub(t, 4, func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode([]string{"OK", "done"}) //nolint:errcheck
	})
	jobPath := writeJob(t, dir, `progname = "solver"`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, &config.Options{NumProc: 2, Hub: hub, JobConfigPath: jobPath})
	if _, ok := err.(*gerrors.CancellationEvent); !ok {
		t.Fatalf("err = %v (%T), want *gerrors.CancellationEvent", err, err)
	}
}

func TestRunPropagatesExecutionError(t *testing.T) {
	dir := t.TempDir()
	hub := fullStubHub(t, 4, func(w http.ResponseWriter) {
		json.NewEncoder(w).Encode(map[string][]string{"Err": {"OK", "segfault"}}) //nolint:errcheck
	})
	jobPath := writeJob(t, dir, `progname = "solver"`)

	err := Run(t.Context(), &config.Options{NumProc: 2, Hub: hub, JobConfigPath: jobPath})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "program execution") {
		t.Errorf("err = %v, want it annotated with the execution stage", err)
	}
}
