package sync

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

type syncParams struct {
	fx.In

	AnotherLogger logging.Interface      `name:"another_log"`
	FileSystem    bridgeafero.Fs         `optional:"true"`
	Profiles      workspace.ProfileStore `optional:"true"`
}

// Module provides the artifact synchronizer agent.
var Module = fx.Provide(
	func(v *viper.Viper, params syncParams) (*SyncAgent, error) {
		config, err := NewSyncConfig(
			WithViper(v),
			WithAnotherLog(params.AnotherLogger),
			WithAppParams(params),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating sync config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating sync config: %+v", err)
		}
		return NewSyncAgent(config)
	})
