package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/modelbridge/modelbridge/pkg/logging"
)

var (
	configFilePath string
	debug          bool
)

// AgentModule is implemented by each bridge agent. The framework turns a
// module into a cobra command and runs its action inside an fx app built
// from the module's dependency graph.
type AgentModule interface {
	Name() string
	ShortDescription() string
	LongDescription() string

	// FxModules returns the fx options the agent's app is built from.
	FxModules() []fx.Option

	// ConfigureCommand lets the agent attach subcommands or extra flags.
	ConfigureCommand(*cobra.Command)

	// Start runs the agent's default action.
	Start() error
}

// CreateAgentCommand builds the cobra command for one agent module.
func CreateAgentCommand(module AgentModule) *cobra.Command {
	cmd := &cobra.Command{
		Use:   module.Name(),
		Short: module.ShortDescription(),
		Long:  module.LongDescription(),
	}

	// Persistent so subcommands added by the module inherit them.
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "path to the agent config file")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "log at debug level")

	module.ConfigureCommand(cmd)
	return cmd
}

// runAgentCommand assembles the fx app for an agent and runs action once the
// app has started. The process exits non-zero when the action fails.
func runAgentCommand(cmd *cobra.Command, module AgentModule, action func() error) {
	opts := []fx.Option{
		configProvider(cmd, module),
		// fx's own lifecycle events go through the agent logger.
		logging.UseLoggingInterface,
	}
	opts = append(opts, module.FxModules()...)
	opts = append(opts, fx.Invoke(runActionHook(module, action)))

	app := fx.New(opts...)
	app.Run()
	_ = app.Stop(context.Background())
}

// runActionHook runs the agent action in the background once the app has
// started and shuts the app down when it returns.
func runActionHook(module AgentModule, action func() error) func(fx.Lifecycle, *zap.Logger, fx.Shutdowner) {
	return func(lc fx.Lifecycle, l *zap.Logger, sh fx.Shutdowner) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					if err := action(); err != nil {
						l.Error(module.Name()+" failed", zap.Error(err))
						os.Exit(1)
					}
					if err := sh.Shutdown(); err != nil {
						l.Error("failed to shut down after "+module.Name(), zap.Error(err))
					}
				}()
				return nil
			},
		})
	}
}
