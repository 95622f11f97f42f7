// Command synccli is a minimal operator CLI for the Hub/Tracker
// reconciliation engine: it drives synccore.Plugin's Setup/Execute/Dispose
// outside of a host process, for manual runs and local diagnostics. This
// is not part of spec.md's core — §1 explicitly puts process hosting and
// scheduling out of scope — but every headless engine in the retrieval
// pack ships an equivalent thin cobra CLI alongside its core package
// (cmd/bd for the teacher), so this one follows suit.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "synccli",
	Short: "synccli - operator CLI for the Hub/Tracker reconciliation engine",
	Long: `synccli drives the reconciliation engine's Host Contract
(Setup/Execute/Dispose) for manual runs and diagnostics, outside of a
production host process.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "synccore.toml", "path to the synccli TOML configuration file")
	rootCmd.AddCommand(runCmd, dryRunCmd, probeCmd, conflictsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
