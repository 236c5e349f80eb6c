package workspace

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
)

const profileFile = `[local]
host = https://local.workspace.example.com
token = dapi-local

[registry]
host = https://registry.workspace.example.com
token = dapi-registry
`

func TestUnmarshal(t *testing.T) {
	store, err := Unmarshal([]byte(profileFile))
	require.NoError(t, err)
	require.Len(t, store, 2)

	local, err := store.Resolve("local")
	require.NoError(t, err)
	assert.Equal(t, "https://local.workspace.example.com", local.Host)
	assert.Equal(t, "dapi-local", local.Token)

	registry, err := store.Resolve("registry")
	require.NoError(t, err)
	assert.Equal(t, "dapi-registry", registry.Token)
}

func TestResolve_MissingProfile(t *testing.T) {
	store, err := Unmarshal([]byte(profileFile))
	require.NoError(t, err)

	_, err = store.Resolve("staging")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestResolve_InvalidProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
	}{
		{name: "relative host", profile: &Profile{Host: "not-a-url", Token: "x"}},
		{name: "empty token", profile: &Profile{Host: "https://ok.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := ProfileStore{"p": tt.profile}
			_, err := store.Resolve("p")
			assert.ErrorIs(t, err, ErrProfileInvalid)
		})
	}
}

func TestLoadProfiles_NotFound(t *testing.T) {
	fs := bridgeafero.NewMemMapFs()
	_, err := LoadProfiles(fs, "/home/user/.bridgecfg")
	assert.ErrorIs(t, err, ErrProfileStoreNotFound)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	fs := bridgeafero.NewMemMapFs()

	store := ProfileStore{
		"registry": {Host: "https://registry.workspace.example.com", Token: "dapi-registry"},
		"local":    {Host: "https://local.workspace.example.com", Token: "dapi-local"},
	}
	require.NoError(t, store.Save(fs, "/home/user/.bridgecfg"))

	loaded, err := LoadProfiles(fs, "/home/user/.bridgecfg")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	p, err := loaded.Resolve("registry")
	require.NoError(t, err)
	assert.Equal(t, "dapi-registry", p.Token)

	info, err := fs.Stat("/home/user/.bridgecfg")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
