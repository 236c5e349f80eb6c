package sync

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/configutils"
	"github.com/modelbridge/modelbridge/pkg/filestore"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

// Config drives one artifact synchronization.
type Config struct {
	AnotherLogger logging.Interface

	// FileSystem is the filesystem holding the locally mounted source
	// artifacts. Defaults to the host OS filesystem.
	FileSystem bridgeafero.Fs

	// FileStore is the destination workspace file-store client. When nil,
	// one is built from Profiles and TargetProfile.
	FileStore filestore.Client

	// Profiles holds workspace credentials.
	Profiles workspace.ProfileStore

	SourceArtifactRoot      string `mapstructure:"source_artifact_root" validate:"required"`
	DestinationArtifactRoot string `mapstructure:"destination_artifact_root" validate:"required"`

	// ArtifactPath is the path of the artifact below the roots, e.g. "model".
	// Empty means the whole artifact tree.
	ArtifactPath string `mapstructure:"artifact_path"`

	// LocalMountPoint is where the source file store is mounted on this host.
	LocalMountPoint string `mapstructure:"local_mount_point"`

	// TargetProfile names the workspace profile of the destination registry.
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
		LocalMountPoint: "/dbfs",
	}
}

// NewSyncConfig builds and returns a new configuration from the given options.
func NewSyncConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// WithAppParams resolves the injected dependencies.
func WithAppParams(params syncParams) Option {
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

	if c.FileStore == nil && c.TargetProfile == "" {
		return fmt.Errorf("either a file-store client or a target_profile is required")
	}

	return nil
}
