package promote

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/configutils"
	"github.com/modelbridge/modelbridge/pkg/filestore"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/registry"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

// Config drives one model promotion.
type Config struct {
	AnotherLogger logging.Interface

	// FileSystem holds the locally mounted source artifacts. Defaults to the
	// host OS filesystem.
	FileSystem bridgeafero.Fs

	// FileStore is the destination workspace file-store client. When nil,
	// one is built from Profiles and TargetProfile.
	FileStore filestore.Client

	// SourceRegistry is the tracking client of the source workspace. When
	// nil, one is built from Profiles and SourceProfile.
	SourceRegistry registry.Client

	// TargetRegistry is the model-registry client of the destination
	// workspace. When nil, one is built from Profiles and TargetProfile.
	TargetRegistry registry.Client

	// Profiles holds workspace credentials.
	Profiles workspace.ProfileStore

	// ModelName is the registered model to create the version under.
	ModelName string `mapstructure:"model_name" validate:"required"`

	// RunID is the source run to promote. When empty, the latest run of
	// ExperimentName is used.
	RunID string `mapstructure:"run_id"`

	// ExperimentName resolves the run when RunID is empty.
	ExperimentName string `mapstructure:"experiment_name"`

	// ArtifactPath is the path of the model below the run's artifact root.
	ArtifactPath string `mapstructure:"artifact_path"`

	// Stage to transition the new version to once it is READY. Empty skips
	// the transition.
	Stage string `mapstructure:"stage"`

	// SourceProfile names the workspace profile of the source workspace.
	SourceProfile string `mapstructure:"source_profile"`

	// TargetProfile names the workspace profile of the destination registry.
	TargetProfile string `mapstructure:"target_profile"`

	// SourceOrgID is the source workspace org id, recorded in the model
	// version description for lineage. Empty skips the description.
	SourceOrgID string `mapstructure:"source_org_id"`

	// DestinationArtifactRoot overrides where artifacts land in the
	// destination file store. Empty mirrors the run's artifact root.
	DestinationArtifactRoot string `mapstructure:"destination_artifact_root"`

	// LocalMountPoint is where the source file store is mounted on this host.
	LocalMountPoint string `mapstructure:"local_mount_point"`

	// ReadyTimeout bounds the wait for the new version to become READY.
	ReadyTimeout time.Duration `mapstructure:"ready_timeout"`

	// ReadyPollInterval is the poll period while waiting for READY.
	ReadyPollInterval time.Duration `mapstructure:"ready_poll_interval"`
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
		ArtifactPath:      "model",
		Stage:             registry.StageProduction,
		LocalMountPoint:   "/dbfs",
		ReadyTimeout:      2 * time.Minute,
		ReadyPollInterval: 3 * time.Second,
	}
}

// NewPromoteConfig builds and returns a new configuration from the given options.
func NewPromoteConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// WithAppParams resolves the injected dependencies.
func WithAppParams(params promoteParams) Option {
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

	if c.RunID == "" && c.ExperimentName == "" {
		return fmt.Errorf("either run_id or experiment_name is required")
	}
	if c.SourceRegistry == nil && c.SourceProfile == "" {
		return fmt.Errorf("either a source registry client or a source_profile is required")
	}
	if c.TargetRegistry == nil && c.TargetProfile == "" {
		return fmt.Errorf("either a target registry client or a target_profile is required")
	}
	if c.FileStore == nil && c.TargetProfile == "" {
		return fmt.Errorf("either a file-store client or a target_profile is required")
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready_timeout must be positive")
	}
	if c.ReadyPollInterval <= 0 {
		return fmt.Errorf("ready_poll_interval must be positive")
	}

	return nil
}
