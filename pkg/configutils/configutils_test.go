package configutils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutils "github.com/modelbridge/modelbridge/pkg/testing"
)

const leafConfig = `imports:
  - intermediate.yaml

a:
  b: 1
`

const intermediateConfig = `imports:
  - root.yaml
  -

a:
  c: 2
`

const rootConfig = `
a:
  b: 2
  d: 3
`

func TestConfigFileImports(t *testing.T) {
	t.Run("should import config files correctly", func(t *testing.T) {
		v := viper.New()

		tempDir, closer, err := testutils.TempDir()
		require.NoError(t, err, "should not error creating temporary directory")
		defer closer()

		leafConfigPath := filepath.Join(tempDir, "leaf.yaml")
		err = os.WriteFile(leafConfigPath, []byte(leafConfig), 0666)
		require.NoError(t, err, "should not error writing leaf config")

		intermediateConfigPath := filepath.Join(tempDir, "intermediate.yaml")
		err = os.WriteFile(intermediateConfigPath, []byte(intermediateConfig), 0666)
		require.NoError(t, err, "should not error writing intermediate config")

		rootConfigPath := filepath.Join(tempDir, "root.yaml")
		err = os.WriteFile(rootConfigPath, []byte(rootConfig), 0666)
		require.NoError(t, err, "should not error writing root config")

		err = ResolveAndMergeFile(v, leafConfigPath)
		require.NoError(t, err)

		// the leaf wins over its imports, imports win over their own imports
		assert.Equal(t, 1, v.GetInt("a.b"))
		assert.Equal(t, 2, v.GetInt("a.c"))
		assert.Equal(t, 3, v.GetInt("a.d"))
	})

	t.Run("should fail for a missing config file", func(t *testing.T) {
		v := viper.New()
		err := ResolveAndMergeFile(v, "/definitely/not/a/real/config.yaml")
		assert.Error(t, err)
	})

	t.Run("should fail for an extensionless config file", func(t *testing.T) {
		v := viper.New()

		// temp files are created without an extension
		tempFile, closer, err := testutils.TempFile()
		require.NoError(t, err)
		defer closer()

		_, err = tempFile.WriteString("a: 1\n")
		require.NoError(t, err)
		require.NoError(t, tempFile.Close())

		err = ResolveAndMergeFile(v, tempFile.Name())
		assert.Error(t, err)
	})
}

func TestBindEnvsRecursive(t *testing.T) {
	type inner struct {
		Token string `mapstructure:"token"`
	}
	type outer struct {
		Host      string `mapstructure:"host"`
		Ignored   string
		Workspace *inner `mapstructure:"workspace"`
	}

	t.Setenv("BRIDGE_HOST", "https://example.test")
	t.Setenv("BRIDGE_WORKSPACE_TOKEN", "secret")

	v := viper.New()
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &outer{}
	require.NoError(t, BindEnvsRecursive(v, cfg, ""))

	assert.Equal(t, "https://example.test", v.GetString("host"))
	assert.Equal(t, "secret", v.GetString("workspace.token"))
}
