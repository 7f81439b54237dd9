package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/veloce-go/geonet/config"
)

// Run parses args, builds the command tree, and executes it, returning
// the process exit code. Splitting this from main keeps main.go a
// one-line shim and lets tests drive the command without os.Exit.
func Run(args []string) int {
	var configPath string
	var demo bool

	root := &cobra.Command{
		Use:   "geonetd",
		Short: "GeoNetworking forwarding engine daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return stageError{config.StageConfigLoad, err}
			}
			return serve(cmd.Context(), cfg, demo)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().StringVar(&configPath, "config", "", "path to geonetd configuration file")
	root.Flags().BoolVar(&demo, "demo", true, "run against an in-memory radio.Mock instead of a live peripheral")

	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "geonetd:", err)
		if se, ok := err.(stageError); ok {
			return se.stage.ExitCode()
		}
		return 1
	}
	return 0
}

type stageError struct {
	stage config.Stage
	err   error
}

func (e stageError) Error() string { return e.err.Error() }
func (e stageError) Unwrap() error { return e.err }
