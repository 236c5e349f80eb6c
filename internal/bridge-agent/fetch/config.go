package fetch

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/configutils"
	"github.com/modelbridge/modelbridge/pkg/filestore"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/registry"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

// Config drives one model download.
type Config struct {
	AnotherLogger logging.Interface

	// FileSystem is where the downloaded artifacts are written. Defaults to
	// the host OS filesystem.
	FileSystem bridgeafero.Fs

	// FileStore is the workspace file-store client to download from. When
	// nil, one is built from Profiles and TargetProfile.
	FileStore filestore.Client

	// Registry is the model-registry client of the workspace. When nil, one
	// is built from Profiles and TargetProfile.
	Registry registry.Client

	// Profiles holds workspace credentials.
	Profiles workspace.ProfileStore

	// ModelName is the registered model to download.
	ModelName string `mapstructure:"model_name" validate:"required"`

	// Version pins the model version. When empty, the latest version in
	// Stage is resolved.
	Version string `mapstructure:"version"`

	// Stage resolves the version when Version is empty.
	Stage string `mapstructure:"stage"`

	// OutputPath is the local directory the artifact tree is placed in.
	OutputPath string `mapstructure:"output_path" validate:"required"`

	// StagingDir holds the partially downloaded tree. Empty uses the
	// system temp directory.
	StagingDir string `mapstructure:"staging_dir"`

	// TargetProfile names the workspace profile of the registry workspace.
	TargetProfile string `mapstructure:"target_profile"`
}

// Option mutates a Config.
type Option func(*Config) error

// Apply applies the given options to the configuration.
func (c *Config) Apply(opts ...Option) error {
	for _, o := range opts {
		if o == nil {
			continue
		}

		if err := o(c); err != nil {
			return err
		}
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Stage: registry.StageProduction,
	}
}

// NewFetchConfig builds and returns a new configuration from the given options.
func NewFetchConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// WithAppParams resolves the injected dependencies.
func WithAppParams(params fetchParams) Option {
	return func(c *Config) error {
		c.FileSystem = params.FileSystem
		c.Profiles = params.Profiles
		return nil
	}
}

// WithAnotherLog sets the logger for the configuration.
func WithAnotherLog(logger logging.Interface) Option {
	return func(c *Config) error {
		c.AnotherLogger = logger
		return nil
	}
}

// WithViper sets the viper for the configuration.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) error {
		*c = *defaultConfig()
		if err := configutils.BindEnvsRecursive(v, c, ""); err != nil {
			return fmt.Errorf("error occurred when binding environment variables: %+v", err)
		}

		if err := v.Unmarshal(c); err != nil {
			return fmt.Errorf("error occurred when unmarshalling config: %+v", err)
		}

		return nil
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Version == "" && c.Stage == "" {
		return fmt.Errorf("either version or stage is required")
	}
	if c.Registry == nil && c.TargetProfile == "" {
		return fmt.Errorf("either a registry client or a target_profile is required")
	}
	if c.FileStore == nil && c.TargetProfile == "" {
		return fmt.Errorf("either a file-store client or a target_profile is required")
	}

	return nil
}
