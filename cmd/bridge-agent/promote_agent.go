package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/modelbridge/modelbridge/internal/bridge-agent/promote"
	"github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

// PromoteAgent implements the AgentModule interface for the model promotion agent
type PromoteAgent struct {
	agent *promote.PromoteAgent
}

// Name returns the name of the agent
func (p *PromoteAgent) Name() string {
	return "promote"
}

// ShortDescription returns a short description of the agent
func (p *PromoteAgent) ShortDescription() string {
	return "Run Model Bridge Promotion Agent"
}

// LongDescription returns a detailed description of the agent
func (p *PromoteAgent) LongDescription() string {
	return "Model Bridge Promotion Agent registers a run's model in a remote registry workspace: it copies the artifacts across, creates the model version, records lineage and transitions the stage once the version is READY."
}

// ConfigureCommand configures the agent command
func (p *PromoteAgent) ConfigureCommand(cmd *cobra.Command) {
	// Set the default action for this command
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runAgentCommand(cmd, p, p.Start)
	}
}

// FxModules returns the fx modules needed by this agent
func (p *PromoteAgent) FxModules() []fx.Option {
	return []fx.Option{
		afero.Module,
		logging.Module,
		logging.ModuleNamed("another_log"),
		workspace.Module,
		promote.Module,
		fx.Populate(&p.agent),
	}
}

// Start starts the agent
func (p *PromoteAgent) Start() error {
	return p.agent.Start()
}

// NewPromoteAgent creates a new promote agent
func NewPromoteAgent() *PromoteAgent {
	return &PromoteAgent{}
}
