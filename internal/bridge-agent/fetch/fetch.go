// Package fetch downloads a registered model's artifact tree from the
// registry workspace's file store into a local directory. It resolves the
// version through the registry, walks the remote tree via the file-store
// listing API, downloads into a staging directory and installs the complete
// tree into the output path.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/otiai10/copy"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/filestore"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/registry"
	"github.com/modelbridge/modelbridge/pkg/utils/storage"
)

// FetchAgent downloads one model version's artifacts.
type FetchAgent struct {
	logger logging.Interface
	Config Config

	fs       bridgeafero.Fs
	store    filestore.Client
	registry registry.Client
}

// NewFetchAgent constructs a new fetch agent from the given configuration.
func NewFetchAgent(config *Config) (*FetchAgent, error) {
	agent := &FetchAgent{
		logger:   config.AnotherLogger,
		Config:   *config,
		fs:       config.FileSystem,
		store:    config.FileStore,
		registry: config.Registry,
	}

	if agent.fs == nil {
		agent.fs = bridgeafero.NewOsFs()
	}

	if agent.store == nil || agent.registry == nil {
		profile, err := config.Profiles.Resolve(config.TargetProfile)
		if err != nil {
			return nil, fmt.Errorf("resolving workspace profile - %w", err)
		}

		if agent.store == nil {
			agent.store, err = filestore.NewClient(profile, filestore.WithLogger(config.AnotherLogger))
			if err != nil {
				return nil, fmt.Errorf("creating file-store client - %w", err)
			}
		}
		if agent.registry == nil {
			agent.registry, err = registry.NewClient(profile, registry.WithLogger(config.AnotherLogger))
			if err != nil {
				return nil, fmt.Errorf("creating registry client - %w", err)
			}
		}
	}

	return agent, nil
}

// Start runs the download.
func (a *FetchAgent) Start() error {
	return a.Fetch(context.Background())
}

// Fetch resolves the configured model version, downloads its artifact tree
// into a staging directory and installs it under the output path. A failed
// download leaves the output path untouched.
func (a *FetchAgent) Fetch(ctx context.Context) (err error) {
	version := a.Config.Version
	if version == "" {
		mv, resolveErr := a.registry.GetLatestVersion(ctx, a.Config.ModelName, a.Config.Stage)
		if resolveErr != nil {
			return resolveErr
		}
		version = mv.Version
		a.logger.Infof("Resolved %s stage %s to version %s", a.Config.ModelName, a.Config.Stage, version)
	}

	uri, err := a.registry.GetModelVersionDownloadURI(ctx, a.Config.ModelName, version)
	if err != nil {
		return err
	}
	if _, err = storage.GetStorageType(uri); err != nil {
		return fmt.Errorf("unusable download URI %s for %s version %s - %w", uri, a.Config.ModelName, version, err)
	}

	stagingDir, err := bridgeafero.TempDir(a.fs, a.Config.StagingDir, "bridge-fetch-")
	if err != nil {
		return fmt.Errorf("creating staging directory - %w", err)
	}
	defer func() {
		if removeErr := a.fs.RemoveAll(stagingDir); removeErr != nil {
			err = multierror.Append(err, fmt.Errorf("cleaning up staging directory %s: %w", stagingDir, removeErr))
		}
	}()

	root := storage.StorePath(uri)
	a.logger.Infof("Downloading %s version %s from %s", a.Config.ModelName, version, root)

	count, err := a.downloadTree(ctx, root, root, stagingDir)
	if err != nil {
		return err
	}

	if err = a.install(stagingDir); err != nil {
		return fmt.Errorf("installing artifacts into %s - %w", a.Config.OutputPath, err)
	}

	a.logger.Infof("Downloaded %d files of %s version %s to %s", count, a.Config.ModelName, version, a.Config.OutputPath)
	return nil
}

// downloadTree recursively mirrors the remote directory at dir into
// stagingDir, preserving the layout below root. It returns the number of
// files downloaded.
func (a *FetchAgent) downloadTree(ctx context.Context, root, dir, stagingDir string) (int, error) {
	entries, err := a.store.ListDirectory(ctx, dir)
	if err != nil {
		return 0, err
	}

	var count int
	for _, entry := range entries {
		if entry.IsDir {
			n, err := a.downloadTree(ctx, root, entry.Path, stagingDir)
			if err != nil {
				return count, err
			}
			count += n
			continue
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(entry.Path, root), "/")
		if err := a.downloadFile(ctx, entry.Path, filepath.Join(stagingDir, filepath.FromSlash(rel))); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func (a *FetchAgent) downloadFile(ctx context.Context, storePath, localPath string) error {
	a.logger.Infof("Downloading %s", storePath)

	if err := a.fs.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	endpoint := path.Join(storage.FileStoreMount, storePath)
	return a.store.GetFile(ctx, endpoint, func(r io.Reader) error {
		f, err := a.fs.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}

		_, copyErr := io.Copy(f, r)
		if closeErr := f.Close(); copyErr == nil {
			copyErr = closeErr
		}
		return copyErr
	})
}

// install moves the fully downloaded tree into the output path. On the real
// filesystem this goes through copy.Copy to keep permissions; in-memory
// filesystems used by tests get a plain walk-and-write.
func (a *FetchAgent) install(stagingDir string) error {
	if _, ok := a.fs.(*bridgeafero.OsFs); ok {
		return copy.Copy(stagingDir, a.Config.OutputPath)
	}
	return a.copyTree(stagingDir, a.Config.OutputPath)
}

func (a *FetchAgent) copyTree(src, dst string) error {
	return bridgeafero.Walk(a.fs, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return a.fs.MkdirAll(target, info.Mode().Perm())
		}

		data, err := bridgeafero.ReadFile(a.fs, p)
		if err != nil {
			return err
		}
		if err := a.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return bridgeafero.WriteFile(a.fs, target, data, info.Mode().Perm())
	})
}
