package pipeline

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/golemfactory/gumpi/internal/gerrors"
	"github.com/golemfactory/gumpi/internal/hubapi"
	"github.com/golemfactory/gumpi/internal/session"
)

// mpiUser is the unprivileged account mpirun is invoked under on the root
// peer's container; shared-memory MPI transport does not require root.
const mpiUser = "mpirun"

const (
	hostfilePath   = "hostfile"
	hostfileOnPeer = "/hostfile"
)

// buildArgs renders the argv of the runuser invocation, in the exact order
// fixed by SPEC_FULL.md §4.G step 1.
func buildArgs(nproc int, progname string, args, mpiargs []string, deployed bool) []string {
	if deployed {
		progname = path.Join("/app", progname)
	}

	out := []string{"-u", mpiUser, "--", "mpirun", "-n", strconv.Itoa(nproc), "--hostfile", hostfileOnPeer}
	out = append(out, mpiargs...)
	out = append(out, progname)
	out = append(out, args...)
	return out
}

// Exec writes the hostfile to the root peer and invokes mpirun under an
// unprivileged user, classifying the outcome per SPEC_FULL.md §4.G step 4.
func Exec(ctx context.Context, view *session.View, nproc int, progname string, args, mpiargs []string, deployed bool) (string, error) {
	root := view.Root()

	cmds := []hubapi.Command{
		hubapi.WriteFile{Content: view.Hostfile(), FilePath: hostfilePath},
		hubapi.Exec{
			Executable: "runuser",
			Args:       buildArgs(nproc, progname, args, mpiargs, deployed),
			WorkingDir: "/output",
		},
	}

	out, err := root.Update(ctx, cmds)
	if err == nil {
		// Success: both commands returned. Element 0 is WriteFile's status
		// marker, element 1 is mpirun's captured output.
		if len(out) < 2 {
			return "", fmt.Errorf("unexpected reply length %d", len(out))
		}
		return out[1], nil
	}

	pr, ok := err.(*gerrors.ProcessingResult)
	if !ok {
		return "", err
	}

	switch len(pr.Partial) {
	case 1:
		return "", fmt.Errorf("WriteFile failed: %s", pr.Partial[0])
	case 2:
		if strings.Contains(pr.Partial[0], "OK") {
			return "", &gerrors.ExecutionError{Output: pr.Partial[1]}
		}
		return "", fmt.Errorf("WriteFile failed: %s", pr.Partial[0])
	default:
		return "", pr
	}
}
