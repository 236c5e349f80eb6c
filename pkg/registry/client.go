// Package registry is a REST client for the tracking and model-registry API
// of a workspace.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/modelbridge/modelbridge/pkg/apierror"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

const apiPrefix = "/api/2.0/mlflow"

// RequestIDHeader carries a per-request client id for server-side correlation.
const RequestIDHeader = "X-Request-ID"

const defaultRequestTimeout = 30 * time.Second

// Client talks to the tracking and model-registry API of one workspace.
type Client interface {
	// GetRun fetches a run by id.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// GetExperimentByName fetches an experiment by its full name.
	GetExperimentByName(ctx context.Context, name string) (*Experiment, error)

	// LatestRun returns the most recently ended run of an experiment.
	LatestRun(ctx context.Context, experimentID string) (*Run, error)

	// CreateRegisteredModel creates a named model in the registry.
	// The registry answers RESOURCE_ALREADY_EXISTS if the name is taken;
	// callers decide whether that is tolerable.
	CreateRegisteredModel(ctx context.Context, name string) (*RegisteredModel, error)

	// CreateModelVersion registers a new version of a named model pointing
	// at source, recording runID for lineage.
	CreateModelVersion(ctx context.Context, name, source, runID string) (*ModelVersion, error)

	// UpdateModelVersionDescription sets the description of a model version.
	UpdateModelVersionDescription(ctx context.Context, name, version, description string) (*ModelVersion, error)

	// TransitionModelVersionStage moves a model version to the given stage.
	// The version must be READY.
	TransitionModelVersionStage(ctx context.Context, name, version, stage string) (*ModelVersion, error)

	// GetModelVersion fetches a model version, including its status.
	GetModelVersion(ctx context.Context, name, version string) (*ModelVersion, error)

	// GetLatestVersion returns the newest model version in the given stage.
	GetLatestVersion(ctx context.Context, name, stage string) (*ModelVersion, error)

	// GetModelVersionDownloadURI returns the artifact URI backing a version.
	GetModelVersionDownloadURI(ctx context.Context, name, version string) (string, error)
}

type client struct {
	httpClient *http.Client
	host       string
	token      string
	logger     logging.Interface
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient overrides the HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Interface) Option {
	return func(c *client) { c.logger = logger }
}

// NewClient creates a registry client for the given workspace profile.
func NewClient(profile *workspace.Profile, opts ...Option) (Client, error) {
	if err := profile.Verify(); err != nil {
		return nil, err
	}

	c := &client{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		host:       strings.TrimSuffix(profile.Host, "/"),
		token:      profile.Token,
		logger:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

func (c *client) GetRun(ctx context.Context, runID string) (*Run, error) {
	var out getRunResponse
	query := url.Values{"run_id": {runID}}
	if err := c.doGet(ctx, "/runs/get", query, &out); err != nil {
		return nil, errors.Wrapf(err, "getting run %s", runID)
	}
	return &out.Run, nil
}

func (c *client) GetExperimentByName(ctx context.Context, name string) (*Experiment, error) {
	var out getExperimentResponse
	query := url.Values{"experiment_name": {name}}
	if err := c.doGet(ctx, "/experiments/get-by-name", query, &out); err != nil {
		return nil, errors.Wrapf(err, "getting experiment %q", name)
	}
	return &out.Experiment, nil
}

func (c *client) LatestRun(ctx context.Context, experimentID string) (*Run, error) {
	in := searchRunsRequest{
		ExperimentIDs: []string{experimentID},
		OrderBy:       []string{"attributes.end_time DESC"},
		MaxResults:    1,
	}
	var out searchRunsResponse
	if err := c.doPost(ctx, "/runs/search", in, &out); err != nil {
		return nil, errors.Wrapf(err, "searching runs of experiment %s", experimentID)
	}
	if len(out.Runs) == 0 {
		return nil, apierror.New(apierror.CodeResourceDoesNotExist,
			"experiment "+experimentID+" has no runs")
	}
	return &out.Runs[0], nil
}

func (c *client) CreateRegisteredModel(ctx context.Context, name string) (*RegisteredModel, error) {
	in := createRegisteredModelRequest{Name: name}
	var out createRegisteredModelResponse
	if err := c.doPost(ctx, "/registered-models/create", in, &out); err != nil {
		return nil, errors.Wrapf(err, "creating registered model %q", name)
	}
	return &out.RegisteredModel, nil
}

func (c *client) CreateModelVersion(ctx context.Context, name, source, runID string) (*ModelVersion, error) {
	in := createModelVersionRequest{Name: name, Source: source, RunID: runID}
	var out modelVersionResponse
	if err := c.doPost(ctx, "/model-versions/create", in, &out); err != nil {
		return nil, errors.Wrapf(err, "creating model version of %q from %s", name, source)
	}
	return &out.ModelVersion, nil
}

func (c *client) UpdateModelVersionDescription(ctx context.Context, name, version, description string) (*ModelVersion, error) {
	in := updateModelVersionRequest{Name: name, Version: version, Description: description}
	var out modelVersionResponse
	if err := c.doPatch(ctx, "/model-versions/update", in, &out); err != nil {
		return nil, errors.Wrapf(err, "updating model version %s/%s", name, version)
	}
	return &out.ModelVersion, nil
}

func (c *client) TransitionModelVersionStage(ctx context.Context, name, version, stage string) (*ModelVersion, error) {
	in := transitionStageRequest{Name: name, Version: version, Stage: stage}
	var out modelVersionResponse
	if err := c.doPost(ctx, "/model-versions/transition-stage", in, &out); err != nil {
		return nil, errors.Wrapf(err, "transitioning model version %s/%s to %s", name, version, stage)
	}
	return &out.ModelVersion, nil
}

func (c *client) GetModelVersion(ctx context.Context, name, version string) (*ModelVersion, error) {
	var out modelVersionResponse
	query := url.Values{"name": {name}, "version": {version}}
	if err := c.doGet(ctx, "/model-versions/get", query, &out); err != nil {
		return nil, errors.Wrapf(err, "getting model version %s/%s", name, version)
	}
	return &out.ModelVersion, nil
}

func (c *client) GetLatestVersion(ctx context.Context, name, stage string) (*ModelVersion, error) {
	in := latestVersionsRequest{Name: name, Stages: []string{stage}}
	var out latestVersionsResponse
	if err := c.doPost(ctx, "/registered-models/get-latest-versions", in, &out); err != nil {
		return nil, errors.Wrapf(err, "getting latest %s version of %q", stage, name)
	}
	if len(out.ModelVersions) == 0 {
		return nil, apierror.New(apierror.CodeResourceDoesNotExist,
			"model "+name+" has no versions in stage "+stage)
	}
	return &out.ModelVersions[0], nil
}

func (c *client) GetModelVersionDownloadURI(ctx context.Context, name, version string) (string, error) {
	var out downloadURIResponse
	query := url.Values{"name": {name}, "version": {version}}
	if err := c.doGet(ctx, "/model-versions/get-download-uri", query, &out); err != nil {
		return "", errors.Wrapf(err, "getting download URI of %s/%s", name, version)
	}
	return out.ArtifactURI, nil
}

func (c *client) doGet(ctx context.Context, endpoint string, query url.Values, out interface{}) error {
	u := c.host + apiPrefix + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

func (c *client) doPost(ctx context.Context, endpoint string, in, out interface{}) error {
	return c.send(ctx, http.MethodPost, endpoint, in, out)
}

func (c *client) doPatch(ctx context.Context, endpoint string, in, out interface{}) error {
	return c.send(ctx, http.MethodPatch, endpoint, in, out)
}

func (c *client) send(ctx context.Context, method, endpoint string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+apiPrefix+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
