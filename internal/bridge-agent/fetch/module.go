package fetch

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

type fetchParams struct {
	fx.In

	AnotherLogger logging.Interface      `name:"another_log"`
	FileSystem    bridgeafero.Fs         `optional:"true"`
	Profiles      workspace.ProfileStore `optional:"true"`
}

// Module provides the model download agent.
var Module = fx.Provide(
	func(v *viper.Viper, params fetchParams) (*FetchAgent, error) {
		config, err := NewFetchConfig(
			WithViper(v),
			WithAnotherLog(params.AnotherLogger),
			WithAppParams(params),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating fetch config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating fetch config: %+v", err)
		}
		return NewFetchAgent(config)
	})
