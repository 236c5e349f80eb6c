package promote

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

type promoteParams struct {
	fx.In

	AnotherLogger logging.Interface      `name:"another_log"`
	FileSystem    bridgeafero.Fs         `optional:"true"`
	Profiles      workspace.ProfileStore `optional:"true"`
}

// Module provides the model promotion agent.
var Module = fx.Provide(
	func(v *viper.Viper, params promoteParams) (*PromoteAgent, error) {
		config, err := NewPromoteConfig(
			WithViper(v),
			WithAnotherLog(params.AnotherLogger),
			WithAppParams(params),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating promote config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating promote config: %+v", err)
		}
		return NewPromoteAgent(config)
	})
