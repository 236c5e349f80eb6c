package workspace

import (
	"github.com/spf13/viper"
	"go.uber.org/fx"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
)

// ProfileFileKey is the viper key naming the profile file to load.
// When unset, the store is loaded from DefaultPath.
const ProfileFileKey = "profile_file"

// Module provides the ProfileStore loaded from the configured profile file.
var Module fx.Option = fx.Provide(
	func(v *viper.Viper, fs bridgeafero.Fs) (ProfileStore, error) {
		path := v.GetString(ProfileFileKey)
		if path == "" {
			defaultPath, err := DefaultPath()
			if err != nil {
				return nil, err
			}
			path = defaultPath
		}

		return LoadProfiles(fs, path)
	},
)
