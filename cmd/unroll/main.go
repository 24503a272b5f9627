// Command unroll is the minimal command-line driver over opt.UnrollLoops:
// it reads a function in the internal/irtext text format, runs the
// loop-unrolling pass, and prints a one-line summary of what changed.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/unrollir/loopunroll/internal/config"
	"github.com/unrollir/loopunroll/internal/irtext"
	"github.com/unrollir/loopunroll/internal/obslog"
	"github.com/unrollir/loopunroll/ir"
	"github.com/unrollir/loopunroll/opt"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "unroll",
		Short:         "loop-unrolling pass driver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configFile string
	var verbose bool
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional TOML config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log at debug level")

	runCmd := &cobra.Command{
		Use:   "run <ir-file>",
		Short: "unroll the loops in an IR text file and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				obslog.SetLevel(zerolog.DebugLevel)
			}
			return runUnroll(cmd.Flags(), configFile, args[0])
		},
	}
	config.BindFlags(runCmd.Flags())

	root.AddCommand(runCmd)
	return root
}

func runUnroll(fs *pflag.FlagSet, configFile, irFile string) error {
	cfg, err := config.Load(configFile, fs)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	in, err := os.Open(irFile)
	if err != nil {
		return fmt.Errorf("opening %s: %w", irFile, err)
	}
	defer in.Close()

	f, err := irtext.Parse(in)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", irFile, err)
	}

	before := countLoops(f)
	opt.UnrollLoops(f, cfg)
	after := countLoops(f)

	fmt.Printf("%s: %d loop(s) before unrolling, %d remaining\n", f.Name, before, after)
	return nil
}

func countLoops(f *ir.Func) int {
	return len(f.Loopnest().Loops())
}
