package main

import (
	"errors"
	"fmt"

	"github.com/golemfactory/gumpi/internal/config"
	"github.com/golemfactory/gumpi/internal/gerrors"
	"github.com/golemfactory/gumpi/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	numProc       int
	hubAddr       string
	jobConfigPath string
	providers     []string
	noClean       bool
)

var rootCmd = &cobra.Command{
	Use:   "gumpi",
	Short: "gumpi runs an MPI job across hub-provisioned peers",
	Example: `  # Run a job described by job.toml against a hub at localhost:6767
  gumpi -j job.toml -h localhost:6767 -n 4

  # Restrict the run to two specific providers, and leave them running afterwards
  gumpi -j job.toml -h localhost:6767 -n 4 --providers nodeA --providers nodeB --noclean`,
	RunE: func(cmd *cobra.Command, args []string) error {
		set := make(map[string]bool, len(providers))
		for _, p := range providers {
			set[p] = true
		}
		opts := &config.Options{
			NumProc:       numProc,
			Hub:           hubAddr,
			JobConfigPath: jobConfigPath,
			Providers:     set,
			NoClean:       noClean,
		}
		return orchestrator.Run(cmd.Context(), opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().IntVarP(&numProc, "numproc", "n", 0, "number of MPI processes to run")
	rootCmd.Flags().StringVarP(&hubAddr, "hub", "h", "", "hub address, host:port")
	rootCmd.Flags().StringVarP(&jobConfigPath, "job", "j", "", "path to the job TOML config")
	rootCmd.Flags().StringArrayVar(&providers, "providers", nil, "restrict the run to this provider node id (repeatable)")
	rootCmd.Flags().BoolVar(&noClean, "noclean", false, "leave the hub session and peer containers behind on exit")
}

// describeErr renders the final error as its "%w"-built cause chain, or the
// distinct interrupt message when the failure is a user-requested
// cancellation.
func describeErr(err error) string {
	var cancel *gerrors.CancellationEvent
	if errors.As(err, &cancel) {
		return "Execution interrupted..."
	}
	return fmt.Sprintf("Error: %s", err)
}
