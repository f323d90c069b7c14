package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/golemfactory/gumpi/internal/gerrors"
	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/session"
)

func rootView(t *testing.T, client *hubapi.Client) *session.View {
	return session.NewView("1", "hub:1", client, []*session.PeerSession{
		session.NewPeerSession("node-a", "10.0.0.1:1", hubapi.Hardware{NumCores: 4}, "psess-1", client),
	})
}

func TestBuildArgsOrderAndDeployedRewrite(t *testing.T) {
	got := buildArgs(4, "solver", []string{"--iters", "10"}, []string{"--bind-to", "core"}, true)
	want := []string{"-u", mpiUser, "--", "mpirun", "-n", "4", "--hostfile", "/hostfile", "--bind-to", "core", "/app/solver", "--iters", "10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildArgs() = %v, want %v", got, want)
	}
}

func TestBuildArgsUndeployedUsesBarePath(t *testing.T) {
	got := buildArgs(2, "solver", nil, nil, false)
	want := []string{"-u", mpiUser, "--", "mpirun", "-n", "2", "--hostfile", "/hostfile", "solver"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("buildArgs() = %v, want %v", got, want)
	}
}

func TestExecSuccess(t *testing.T) {
	client := stubHub(t, map[string]func(http.ResponseWriter){
		"node-a": func(w http.ResponseWriter) {
			json.NewEncoder(w).Encode([]string{"OK", "hello from mpirun"}) //nolint:errcheck
		},
	})
	out, err := Exec(t.Context(), rootView(t, client), 4, "solver", nil, nil, false)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out != "hello from mpirun" {
		t.Errorf("out = %q", out)
	}
}

func TestExecWriteFileFailureOneElement(t *testing.T) {
	client := stubHub(t, map[string]func(http.ResponseWriter){
		"node-a": func(w http.ResponseWriter) {
			json.NewEncoder(w).Encode(map[string][]string{"Err": {"disk full"}}) //nolint:errcheck
		},
	})
	_, err := Exec(t.Context(), rootView(t, client), 4, "solver", nil, nil, false)
	if err == nil || !strings.Contains(err.Error(), "WriteFile failed: disk full") {
		t.Fatalf("err = %v, want a WriteFile-failed message", err)
	}
}

func TestExecExecutionErrorTwoElementsWithOK(t *testing.T) {
	client := stubHub(t, map[string]func(http.ResponseWriter){
		"node-a": func(w http.ResponseWriter) {
			json.NewEncoder(w).Encode(map[string][]string{"Err": {"OK", "segfault"}}) //nolint:errcheck
		},
	})
	_, err := Exec(t.Context(), rootView(t, client), 4, "solver", nil, nil, false)
	var ee *gerrors.ExecutionError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want a wrapped *gerrors.ExecutionError", err)
	}
	if ee.Output != "segfault" {
		t.Errorf("Output = %q", ee.Output)
	}
}

func TestExecWriteFileFailureTwoElementsWithoutOK(t *testing.T) {
	client := stubHub(t, map[string]func(http.ResponseWriter){
		"node-a": func(w http.ResponseWriter) {
			json.NewEncoder(w).Encode(map[string][]string{"Err": {"PERMISSION DENIED", "segfault"}}) //nolint:errcheck
		},
	})
	_, err := Exec(t.Context(), rootView(t, client), 4, "solver", nil, nil, false)
	if err == nil || !strings.Contains(err.Error(), "WriteFile failed: PERMISSION DENIED") {
		t.Fatalf("err = %v, want a WriteFile-failed message", err)
	}
}
