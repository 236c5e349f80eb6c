package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modelbridge/modelbridge/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "bridge-agent",
	Short:   "Run Model Bridge Agent",
	Long:    "Model Bridge Agent moves models between isolated workspaces: it copies run artifacts into a remote registry workspace, registers them as model versions and downloads registered models back out.",
	Version: fmt.Sprintf("gitVersion=%s, gitCommit=%s", version.GitVersion, version.GitCommit),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Register all agent commands
	rootCmd.AddCommand(CreateAgentCommand(NewSyncAgent()))
	rootCmd.AddCommand(CreateAgentCommand(NewPromoteAgent()))
	rootCmd.AddCommand(CreateAgentCommand(NewFetchAgent()))
}
