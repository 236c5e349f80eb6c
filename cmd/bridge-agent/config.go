package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/modelbridge/modelbridge/pkg/configutils"
)

// agentAppName is the env prefix all agents honor: BRIDGE_AGENT_<KEY>.
const agentAppName = "BRIDGE_AGENT"

// configProvider provides the viper instance agent configs are unmarshaled
// from. The --config file is required; BRIDGE_AGENT_* environment variables
// and the --debug flag override file values.
func configProvider(cli *cobra.Command, module AgentModule) fx.Option {
	return fx.Provide(func() (*viper.Viper, error) {
		if configFilePath == "" {
			return nil, errors.New("no config file provided")
		}

		v := viper.GetViper()
		v.SetEnvPrefix(agentAppName)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		if err := v.BindPFlag("debug", cli.Flags().Lookup("debug")); err != nil {
			return nil, err
		}

		if err := configutils.ResolveAndMergeFile(v, configFilePath); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", configFilePath, err)
		}

		// viper.UnmarshalKey reads only merged file values; re-Set every key
		// so environment overrides are visible to sub-tree unmarshals.
		for _, key := range v.AllKeys() {
			v.Set(key, v.Get(key))
		}
		return v, nil
	})
}
