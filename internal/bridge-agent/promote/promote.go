// Package promote registers a run's model from a source tracking workspace
// as a new model version in the destination workspace's registry: it copies
// the artifacts across, creates the version pointing at the copy, records
// lineage, waits for the version to become READY and transitions its stage.
package promote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/modelbridge/modelbridge/internal/bridge-agent/sync"
	"github.com/modelbridge/modelbridge/pkg/apierror"
	"github.com/modelbridge/modelbridge/pkg/filestore"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/registry"
	"github.com/modelbridge/modelbridge/pkg/utils/storage"
)

// PromoteAgent promotes one model from a source workspace into the
// destination registry.
type PromoteAgent struct {
	logger logging.Interface
	Config Config

	source     registry.Client
	target     registry.Client
	store      filestore.Client
	sourceHost string
}

// NewPromoteAgent constructs a new promotion agent from the given configuration.
func NewPromoteAgent(config *Config) (*PromoteAgent, error) {
	agent := &PromoteAgent{
		logger: config.AnotherLogger,
		Config: *config,
		source: config.SourceRegistry,
		target: config.TargetRegistry,
		store:  config.FileStore,
	}

	if agent.source == nil || config.SourceProfile != "" {
		profile, err := config.Profiles.Resolve(config.SourceProfile)
		if err != nil {
			return nil, fmt.Errorf("resolving source workspace profile - %w", err)
		}
		agent.sourceHost = strings.TrimSuffix(profile.Host, "/")

		if agent.source == nil {
			agent.source, err = registry.NewClient(profile, registry.WithLogger(config.AnotherLogger))
			if err != nil {
				return nil, fmt.Errorf("creating source tracking client - %w", err)
			}
		}
	}

	if agent.target == nil {
		profile, err := config.Profiles.Resolve(config.TargetProfile)
		if err != nil {
			return nil, fmt.Errorf("resolving target workspace profile - %w", err)
		}
		target, err := registry.NewClient(profile, registry.WithLogger(config.AnotherLogger))
		if err != nil {
			return nil, fmt.Errorf("creating destination registry client - %w", err)
		}
		agent.target = target
	}

	return agent, nil
}

// Start runs the promotion.
func (a *PromoteAgent) Start() error {
	mv, err := a.Promote(context.Background())
	if err != nil {
		return err
	}

	a.logger.Infof("Model %s version %s is %s in the destination registry (stage %s)",
		mv.Name, mv.Version, mv.Status, mv.Stage)
	return nil
}

// Promote runs the full promotion workflow and returns the final model
// version as reported by the destination registry.
func (a *PromoteAgent) Promote(ctx context.Context) (*registry.ModelVersion, error) {
	run, err := a.resolveRun(ctx)
	if err != nil {
		return nil, err
	}
	log := a.logger.WithField("run_id", run.Info.RunID)
	if commit := run.Tag(registry.TagSourceGitCommit); commit != "" {
		log = log.WithField("git_commit", commit)
	}
	log.Info("Resolved source run")

	artifactRoot := run.Info.ArtifactURI
	destinationRoot := a.Config.DestinationArtifactRoot
	if destinationRoot == "" {
		// The copy keeps the source dbfs path, so the version's source URI
		// stays meaningful in both workspaces.
		destinationRoot = artifactRoot
	}

	if err := a.copyArtifacts(ctx, artifactRoot, destinationRoot); err != nil {
		return nil, err
	}

	if err := a.ensureRegisteredModel(ctx); err != nil {
		return nil, err
	}

	source := modelSourceURI(destinationRoot, a.Config.ArtifactPath)
	mv, err := a.target.CreateModelVersion(ctx, a.Config.ModelName, source, run.Info.RunID)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("Created model version %s of %s from %s", mv.Version, mv.Name, source)

	if description := a.lineageDescription(run.Info.RunID); description != "" {
		if mv, err = a.target.UpdateModelVersionDescription(ctx, mv.Name, mv.Version, description); err != nil {
			return nil, err
		}
	}

	if mv, err = a.awaitReady(ctx, mv.Name, mv.Version); err != nil {
		return nil, err
	}

	if a.Config.Stage != "" {
		if mv, err = a.target.TransitionModelVersionStage(ctx, mv.Name, mv.Version, a.Config.Stage); err != nil {
			return nil, err
		}
		a.logger.Infof("Transitioned %s version %s to %s", mv.Name, mv.Version, mv.Stage)
	}

	return mv, nil
}

// resolveRun picks the configured run, or the latest run of the configured
// experiment when no run id is set.
func (a *PromoteAgent) resolveRun(ctx context.Context) (*registry.Run, error) {
	if a.Config.RunID != "" {
		return a.source.GetRun(ctx, a.Config.RunID)
	}

	experiment, err := a.source.GetExperimentByName(ctx, a.Config.ExperimentName)
	if err != nil {
		return nil, err
	}
	return a.source.LatestRun(ctx, experiment.ExperimentID)
}

func (a *PromoteAgent) copyArtifacts(ctx context.Context, artifactRoot, destinationRoot string) error {
	syncAgent, err := sync.NewSyncAgent(&sync.Config{
		AnotherLogger:           a.logger,
		FileSystem:              a.Config.FileSystem,
		FileStore:               a.store,
		Profiles:                a.Config.Profiles,
		SourceArtifactRoot:      artifactRoot,
		DestinationArtifactRoot: destinationRoot,
		ArtifactPath:            a.Config.ArtifactPath,
		LocalMountPoint:         a.Config.LocalMountPoint,
		TargetProfile:           a.Config.TargetProfile,
	})
	if err != nil {
		return err
	}

	_, err = syncAgent.Synchronize(ctx)
	return errors.Wrap(err, "copying artifacts to the destination file store")
}

// ensureRegisteredModel creates the registered model, treating an existing
// model of the same name as success.
func (a *PromoteAgent) ensureRegisteredModel(ctx context.Context) error {
	_, err := a.target.CreateRegisteredModel(ctx, a.Config.ModelName)
	if err != nil {
		if apierror.IsAlreadyExists(err) {
			a.logger.Infof("Registered model %s already exists", a.Config.ModelName)
			return nil
		}
		return err
	}

	a.logger.Infof("Created registered model %s", a.Config.ModelName)
	return nil
}

// lineageDescription renders the source-workspace pointer stored on the model
// version, or "" when the source workspace identity is not configured.
func (a *PromoteAgent) lineageDescription(runID string) string {
	if a.sourceHost == "" || a.Config.SourceOrgID == "" {
		return ""
	}
	return fmt.Sprintf("Remote source workspace: %s/?o=%s, run: %s.",
		a.sourceHost, a.Config.SourceOrgID, runID)
}

// awaitReady polls the destination registry until the version leaves
// PENDING_REGISTRATION, or the configured timeout elapses.
func (a *PromoteAgent) awaitReady(ctx context.Context, name, version string) (*registry.ModelVersion, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Config.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(a.Config.ReadyPollInterval)
	defer ticker.Stop()

	for {
		mv, err := a.target.GetModelVersion(ctx, name, version)
		if err != nil {
			return nil, err
		}

		switch mv.Status {
		case registry.StatusReady:
			return mv, nil
		case registry.StatusFailedRegistration:
			return nil, fmt.Errorf("registration of %s version %s failed in the destination registry", name, version)
		}

		a.logger.Infof("Model version %s/%s is %s - waiting", name, version, mv.Status)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for %s version %s to become READY: %w", name, version, ctx.Err())
		case <-ticker.C:
		}
	}
}

// modelSourceURI joins the destination artifact root and the model's relative
// path with forward slashes, the form the registry stores as the version
// source.
func modelSourceURI(destinationRoot, artifactPath string) string {
	root := strings.TrimSuffix(destinationRoot, "/")
	if artifactPath == "" {
		return root
	}
	return root + "/" + storage.JoinArtifactPath(strings.TrimPrefix(artifactPath, "/"))
}
