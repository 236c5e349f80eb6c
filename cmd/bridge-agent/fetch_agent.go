package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/modelbridge/modelbridge/internal/bridge-agent/fetch"
	"github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

// FetchAgent implements the AgentModule interface for the model download agent
type FetchAgent struct {
	agent *fetch.FetchAgent
}

// Name returns the name of the agent
func (f *FetchAgent) Name() string {
	return "fetch"
}

// ShortDescription returns a short description of the agent
func (f *FetchAgent) ShortDescription() string {
	return "Run Model Bridge Fetch Agent"
}

// LongDescription returns a detailed description of the agent
func (f *FetchAgent) LongDescription() string {
	return "Model Bridge Fetch Agent downloads a registered model's artifact tree from the registry workspace's file store into a local directory."
}

// ConfigureCommand configures the agent command
func (f *FetchAgent) ConfigureCommand(cmd *cobra.Command) {
	// Set the default action for this command
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runAgentCommand(cmd, f, f.Start)
	}
}

// FxModules returns the fx modules needed by this agent
func (f *FetchAgent) FxModules() []fx.Option {
	return []fx.Option{
		afero.Module,
		logging.Module,
		logging.ModuleNamed("another_log"),
		workspace.Module,
		fetch.Module,
		fx.Populate(&f.agent),
	}
}

// Start starts the agent
func (f *FetchAgent) Start() error {
	return f.agent.Start()
}

// NewFetchAgent creates a new fetch agent
func NewFetchAgent() *FetchAgent {
	return &FetchAgent{}
}
