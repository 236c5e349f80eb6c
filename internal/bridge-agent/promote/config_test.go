package promote

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/registry"
)

func TestPromoteConfig_WithViper(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
model_name: my_remote_model
run_id: run123
source_profile: source
target_profile: registry
source_org_id: "12345678901234"
ready_timeout: 30s
`)))

	config, err := NewPromoteConfig(
		WithViper(v),
		WithAnotherLog(logging.NewTestLogger()),
	)
	require.NoError(t, err)

	assert.Equal(t, "my_remote_model", config.ModelName)
	assert.Equal(t, "run123", config.RunID)
	assert.Equal(t, "model", config.ArtifactPath, "artifact path defaults")
	assert.Equal(t, registry.StageProduction, config.Stage, "stage defaults")
	assert.Equal(t, 30*time.Second, config.ReadyTimeout)
	assert.Equal(t, 3*time.Second, config.ReadyPollInterval, "poll interval defaults")

	assert.NoError(t, config.Validate())
}

func TestPromoteConfig_ValidateRequiresRunOrExperiment(t *testing.T) {
	config := &Config{
		AnotherLogger: logging.NewTestLogger(),
		ModelName:     "my_remote_model",
		SourceProfile: "source",
		TargetProfile: "registry",
	}

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_id or experiment_name")
}

func TestPromoteConfig_ValidateRejectsNonPositivePollTimings(t *testing.T) {
	base := func() *Config {
		config := defaultConfig()
		config.AnotherLogger = logging.NewTestLogger()
		config.ModelName = "my_remote_model"
		config.RunID = "run123"
		config.SourceProfile = "source"
		config.TargetProfile = "registry"
		return config
	}

	config := base()
	config.ReadyPollInterval = 0
	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ready_poll_interval")

	config = base()
	config.ReadyTimeout = -time.Second
	err = config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ready_timeout")
}

func TestPromoteConfig_ValidateRequiresModelName(t *testing.T) {
	config := &Config{
		AnotherLogger: logging.NewTestLogger(),
		RunID:         "run123",
		SourceProfile: "source",
		TargetProfile: "registry",
	}

	assert.Error(t, config.Validate())
}
