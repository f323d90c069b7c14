// Command gumpi runs an MPI job across a set of hub-provisioned peers: it
// provisions containers, optionally builds sources and distributes input,
// invokes mpirun on the root peer, optionally retrieves output, and tears
// the session down on exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	if v := os.Getenv("GUMPI_LOG"); v != "" {
		flag.CommandLine.Set("v", v) //nolint:errcheck
	}
	rootCmd.PersistentFlags().AddGoFlag(flag.CommandLine.Lookup("v"))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describeErr(err))
		os.Exit(1)
	}
}
