// Package sync copies a run's artifact tree from the locally mounted source
// file store into the destination workspace's file store, file by file,
// preserving the relative directory structure.
package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	bridgeafero "github.com/modelbridge/modelbridge/pkg/afero"
	"github.com/modelbridge/modelbridge/pkg/apierror"
	"github.com/modelbridge/modelbridge/pkg/filestore"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/utils/storage"
)

// ErrSourceNotFound reports that the local directory backing the source
// artifact path does not exist.
var ErrSourceNotFound = errors.New("source artifact path does not exist")

// UploadStatus is the per-file outcome of a synchronization.
type UploadStatus string

const (
	// StatusUploaded means the file was written to the destination.
	StatusUploaded UploadStatus = "UPLOADED"
	// StatusAlreadyExists means the destination already had the file.
	// Synchronization continues past it.
	StatusAlreadyExists UploadStatus = "ALREADY_EXISTS"
	// StatusFailed means the upload failed fatally.
	StatusFailed UploadStatus = "FAILED"
)

// FileResult records what happened to one file.
type FileResult struct {
	LocalPath string
	Endpoint  string
	Status    UploadStatus
	Err       error
}

// SyncAgent synchronizes one artifact tree between two workspace file stores.
type SyncAgent struct {
	logger logging.Interface
	Config Config

	fs    bridgeafero.Fs
	store filestore.Client
}

// NewSyncAgent constructs a new sync agent from the given configuration.
func NewSyncAgent(config *Config) (*SyncAgent, error) {
	if _, err := storage.GetStorageType(config.SourceArtifactRoot); err != nil {
		return nil, fmt.Errorf("invalid source artifact root %s - %w", config.SourceArtifactRoot, err)
	}
	if _, err := storage.GetStorageType(config.DestinationArtifactRoot); err != nil {
		return nil, fmt.Errorf("invalid destination artifact root %s - %w", config.DestinationArtifactRoot, err)
	}

	fs := config.FileSystem
	if fs == nil {
		fs = bridgeafero.NewOsFs()
	}

	store := config.FileStore
	if store == nil {
		profile, err := config.Profiles.Resolve(config.TargetProfile)
		if err != nil {
			return nil, fmt.Errorf("resolving target workspace profile - %w", err)
		}
		store, err = filestore.NewClient(profile, filestore.WithLogger(config.AnotherLogger))
		if err != nil {
			return nil, fmt.Errorf("creating destination file-store client - %w", err)
		}
	}

	return &SyncAgent{
		logger: config.AnotherLogger,
		Config: *config,
		fs:     fs,
		store:  store,
	}, nil
}

// Start runs the synchronization and logs a summary.
func (a *SyncAgent) Start() error {
	results, err := a.Synchronize(context.Background())
	if err != nil {
		return err
	}

	var uploaded, skipped int
	for _, r := range results {
		switch r.Status {
		case StatusUploaded:
			uploaded++
		case StatusAlreadyExists:
			skipped++
		}
	}
	a.logger.Infof("Synchronized %d files to %s (%d uploaded, %d already present)",
		len(results), a.Config.DestinationArtifactRoot, uploaded, skipped)

	return nil
}

// Synchronize copies every file under the configured artifact path to the
// destination artifact root, one file at a time. The first fatal upload
// failure aborts the walk; files already present at the destination are
// skipped. The returned results cover every file handled up to that point.
//
// Upload order across siblings is implementation-defined; callers must not
// depend on it. Files uploaded before a fatal failure stay at the
// destination, there is no rollback.
func (a *SyncAgent) Synchronize(ctx context.Context) ([]FileResult, error) {
	localDir := storage.LocalPath(a.Config.LocalMountPoint, a.Config.SourceArtifactRoot, a.Config.ArtifactPath)
	a.logger.Infof("Synchronizing %s to %s", localDir, a.Config.DestinationArtifactRoot)

	var results []FileResult

	err := bridgeafero.Walk(a.fs, localDir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return fmt.Errorf("%w: %s", ErrSourceNotFound, p)
			}
			return walkErr
		}
		if info.IsDir() {
			return nil
		}

		artifactSubdir := a.Config.ArtifactPath
		if dir := filepath.Dir(p); dir != localDir {
			rel, relErr := filepath.Rel(localDir, dir)
			if relErr != nil {
				return relErr
			}
			artifactSubdir = storage.JoinArtifactPath(a.Config.ArtifactPath, storage.ToSlashPath(rel))
		}

		endpoint := storage.FileEndpoint(
			a.Config.DestinationArtifactRoot,
			storage.JoinArtifactPath(artifactSubdir, info.Name()),
		)

		result := a.uploadOne(ctx, p, endpoint, info.Size())
		results = append(results, result)

		if result.Status == StatusFailed {
			return result.Err
		}
		return nil
	})
	if err != nil {
		return results, err
	}

	return results, nil
}

// uploadOne copies a single local file to the destination endpoint.
//
// Zero-length files are posted with an empty body instead of a streamed file
// handle; some transport layers mishandle streaming an empty payload, and the
// destination API is known to be one of them.
func (a *SyncAgent) uploadOne(ctx context.Context, localPath, endpoint string, size int64) FileResult {
	a.logger.Infof("Copying file to %s in destination workspace", endpoint)

	var err error
	if size == 0 {
		err = a.store.PutFile(ctx, endpoint, nil, 0)
	} else {
		err = a.streamFile(ctx, localPath, endpoint, size)
	}

	if err != nil {
		if apierror.IsAlreadyExists(err) {
			a.logger.Infof("File already exists at %s - continuing to the next file", endpoint)
			return FileResult{LocalPath: localPath, Endpoint: endpoint, Status: StatusAlreadyExists, Err: err}
		}
		return FileResult{
			LocalPath: localPath,
			Endpoint:  endpoint,
			Status:    StatusFailed,
			Err:       fmt.Errorf("uploading %s to %s: %w", localPath, endpoint, err),
		}
	}

	return FileResult{LocalPath: localPath, Endpoint: endpoint, Status: StatusUploaded}
}

func (a *SyncAgent) streamFile(ctx context.Context, localPath, endpoint string, size int64) error {
	f, err := a.fs.Open(localPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return a.store.PutFile(ctx, endpoint, f, size)
}
