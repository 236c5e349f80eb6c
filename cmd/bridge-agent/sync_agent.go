package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/modelbridge/modelbridge/internal/bridge-agent/sync"
	"github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

// SyncAgent implements the AgentModule interface for the artifact sync agent
type SyncAgent struct {
	agent *sync.SyncAgent
}

// Name returns the name of the agent
func (s *SyncAgent) Name() string {
	return "sync"
}

// ShortDescription returns a short description of the agent
func (s *SyncAgent) ShortDescription() string {
	return "Run Model Bridge Artifact Sync Agent"
}

// LongDescription returns a detailed description of the agent
func (s *SyncAgent) LongDescription() string {
	return "Model Bridge Artifact Sync Agent copies a run's artifact tree from the locally mounted source file store into the file store of a remote registry workspace."
}

// ConfigureCommand configures the agent command
func (s *SyncAgent) ConfigureCommand(cmd *cobra.Command) {
	// Set the default action for this command
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runAgentCommand(cmd, s, s.Start)
	}
}

// FxModules returns the fx modules needed by this agent
func (s *SyncAgent) FxModules() []fx.Option {
	return []fx.Option{
		afero.Module,
		logging.Module,
		logging.ModuleNamed("another_log"),
		workspace.Module,
		sync.Module,
		fx.Populate(&s.agent),
	}
}

// Start starts the agent
func (s *SyncAgent) Start() error {
	return s.agent.Start()
}

// NewSyncAgent creates a new sync agent
func NewSyncAgent() *SyncAgent {
	return &SyncAgent{}
}
