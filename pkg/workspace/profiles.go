// Package workspace manages credential profiles for tracking workspaces.
//
// Profiles live in an INI file (default ~/.bridgecfg) with one section per
// workspace:
//
//	[registry]
//	host  = https://registry.example.com
//	token = dapi...
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
)

var (
	ErrProfileStoreNotFound = errors.New("profile file is not found")
	ErrProfileNotFound      = errors.New("profile is not found")
	ErrProfileInvalid       = errors.New("workspace profile is invalid")
)

// DefaultFileName is the profile file name looked up under the home directory.
const DefaultFileName = ".bridgecfg"

// Profile holds the endpoint and access token of one workspace.
type Profile struct {
	// Host is the base URL of the workspace API.
	Host string `mapstructure:"host"`

	// Token is the personal access token used as a bearer credential.
	Token string `mapstructure:"token"`
}

// Verify returns nil if the profile is usable, otherwise ErrProfileInvalid.
func (p *Profile) Verify() error {
	u, err := url.Parse(p.Host)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("%w: host is not an absolute URL: %s", ErrProfileInvalid, p.Host)
	}
	if p.Token == "" {
		return fmt.Errorf("%w: token is empty", ErrProfileInvalid)
	}

	return nil
}

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

// DefaultPath returns the default location of the profile file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultFileName), nil
}

// LoadProfiles reads a profile store from an INI file.
func LoadProfiles(fs bridgeafero.Fs, path string) (ProfileStore, error) {
	buf, err := bridgeafero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, path)
		}
		return nil, err
	}

	return Unmarshal(buf)
}

// Unmarshal parses a profile store from INI bytes.
func Unmarshal(buf []byte) (ProfileStore, error) {
	v := viper.New()
	v.SetConfigType("ini")
	if err := v.ReadConfig(bytes.NewReader(buf)); err != nil {
		return nil, err
	}

	store := ProfileStore{}
	for name, section := range v.AllSettings() {
		if _, ok := section.(map[string]interface{}); !ok {
			// a key outside any section; not a profile
			continue
		}

		sub := v.Sub(name)
		if sub == nil {
			continue
		}

		p := &Profile{}
		if err := sub.Unmarshal(p); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
		store[name] = p
	}

	return store, nil
}

// Resolve returns the named profile after verifying it.
func (s ProfileStore) Resolve(name string) (*Profile, error) {
	p, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err := p.Verify(); err != nil {
		return nil, err
	}

	return p, nil
}

// Save writes the profile store as an INI file readable only by the owner.
// Tokens are credentials, so the permission is enforced even for an existing
// file.
func (s ProfileStore) Save(fs bridgeafero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	if err := bridgeafero.WriteFile(fs, path, s.render(), 0o600); err != nil {
		return err
	}

	return fs.Chmod(path, 0o600)
}

func (s ProfileStore) render() []byte {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&buf, "[%s]\n", name)
		fmt.Fprintf(&buf, "host = %s\n", s[name].Host)
		fmt.Fprintf(&buf, "token = %s\n", s[name].Token)
		buf.WriteString("\n")
	}

	return buf.Bytes()
}
