package pipeline

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/session"
)

func TestDistributeInputSuccess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "in.tar"), "input-bytes")
	job := writeJobConfig(t, dir, `
progname = "solver"
[input]
source = "in.tar"
`)

	client := stubHub(t, map[string]func(http.ResponseWriter){
		"node-a": func(w http.ResponseWriter) { json.NewEncoder(w).Encode([]string{"ok"}) },    //nolint:errcheck
		"node-b": func(w http.ResponseWriter) { json.NewEncoder(w).Encode([]string{"ok"}) }, //nolint:errcheck
	})
	view := session.NewView("1", "hub:1", client, []*session.PeerSession{
		session.NewPeerSession("node-a", "10.0.0.1:1", hubapi.Hardware{NumCores: 4}, "psess-1", client),
		session.NewPeerSession("node-b", "10.0.0.2:1", hubapi.Hardware{NumCores: 4}, "psess-2", client),
	})

	if err := DistributeInput(t.Context(), view, job); err != nil {
		t.Fatalf("DistributeInput: %v", err)
	}
}

func TestDistributeInputFailClosedOnSinglePeerFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "in.tar"), "input-bytes")
	job := writeJobConfig(t, dir, `
progname = "solver"
[input]
source = "in.tar"
`)

	client := stubHub(t, map[string]func(http.ResponseWriter){
		"node-a": func(w http.ResponseWriter) { json.NewEncoder(w).Encode([]string{"ok"}) }, //nolint:errcheck
		"node-b": func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
	})
	view := session.NewView("1", "hub:1", client, []*session.PeerSession{
		session.NewPeerSession("node-a", "10.0.0.1:1", hubapi.Hardware{NumCores: 4}, "psess-1", client),
		session.NewPeerSession("node-b", "10.0.0.2:1", hubapi.Hardware{NumCores: 4}, "psess-2", client),
	})

	if err := DistributeInput(t.Context(), view, job); err == nil {
		t.Fatal("expected an error when one peer fails")
	}
}
