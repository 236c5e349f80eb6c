package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelbridge/modelbridge/pkg/apierror"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

func newTestClient(t *testing.T, handler http.Handler) Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(
		&workspace.Profile{Host: server.URL, Token: "dapi-test"},
		WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	return c
}

func TestGetRun(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/runs/get", r.URL.Path)
		assert.Equal(t, "run-123", r.URL.Query().Get("run_id"))
		assert.Equal(t, "Bearer dapi-test", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(getRunResponse{Run: Run{
			Info: RunInfo{
				RunID:       "run-123",
				ArtifactURI: "dbfs:/tracking/run-123/artifacts",
			},
			Data: RunData{Tags: []RunTag{{Key: "mlflow.source.git.commit", Value: "abc123"}}},
		}})
	}))

	run, err := c.GetRun(context.Background(), "run-123")
	require.NoError(t, err)
	assert.Equal(t, "dbfs:/tracking/run-123/artifacts", run.Info.ArtifactURI)
	assert.Equal(t, "abc123", run.Tag("mlflow.source.git.commit"))
	assert.Equal(t, "", run.Tag("absent"))
}

func TestLatestRun(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/runs/search", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req searchRunsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"exp-1"}, req.ExperimentIDs)
		assert.Equal(t, 1, req.MaxResults)

		_ = json.NewEncoder(w).Encode(searchRunsResponse{Runs: []Run{
			{Info: RunInfo{RunID: "run-latest", EndTime: 1700000000}},
		}})
	}))

	run, err := c.LatestRun(context.Background(), "exp-1")
	require.NoError(t, err)
	assert.Equal(t, "run-latest", run.Info.RunID)
}

func TestLatestRun_NoRuns(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchRunsResponse{})
	}))

	_, err := c.LatestRun(context.Background(), "exp-empty")
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
}

func TestCreateRegisteredModel_AlreadyExists(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code": "RESOURCE_ALREADY_EXISTS", "message": "model exists"}`))
	}))

	_, err := c.CreateRegisteredModel(context.Background(), "churn-model")
	require.Error(t, err)
	assert.True(t, apierror.IsAlreadyExists(err), "wrapped API errors must keep their code: %v", err)
}

func TestCreateModelVersion(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/model-versions/create", r.URL.Path)

		var req createModelVersionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "churn-model", req.Name)
		assert.Equal(t, "dbfs:/registry/run-123/model", req.Source)
		assert.Equal(t, "run-123", req.RunID)

		_ = json.NewEncoder(w).Encode(modelVersionResponse{ModelVersion: ModelVersion{
			Name:    "churn-model",
			Version: "4",
			Status:  StatusPendingRegistration,
		}})
	}))

	mv, err := c.CreateModelVersion(context.Background(), "churn-model", "dbfs:/registry/run-123/model", "run-123")
	require.NoError(t, err)
	assert.Equal(t, "4", mv.Version)
	assert.Equal(t, StatusPendingRegistration, mv.Status)
}

func TestTransitionModelVersionStage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req transitionStageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, StageProduction, req.Stage)

		_ = json.NewEncoder(w).Encode(modelVersionResponse{ModelVersion: ModelVersion{
			Name: req.Name, Version: req.Version, Stage: req.Stage, Status: StatusReady,
		}})
	}))

	mv, err := c.TransitionModelVersionStage(context.Background(), "churn-model", "4", StageProduction)
	require.NoError(t, err)
	assert.Equal(t, StageProduction, mv.Stage)
}

func TestGetLatestVersion(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/registered-models/get-latest-versions", r.URL.Path)

		var req latestVersionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "churn-model", req.Name)
		assert.Equal(t, []string{StageProduction}, req.Stages)

		_ = json.NewEncoder(w).Encode(latestVersionsResponse{ModelVersions: []ModelVersion{
			{Name: "churn-model", Version: "4", Stage: StageProduction, Status: StatusReady},
		}})
	}))

	mv, err := c.GetLatestVersion(context.Background(), "churn-model", StageProduction)
	require.NoError(t, err)
	assert.Equal(t, "4", mv.Version)
}

func TestGetLatestVersion_NoneInStage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(latestVersionsResponse{})
	}))

	_, err := c.GetLatestVersion(context.Background(), "churn-model", StageStaging)
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
}

func TestGetModelVersionDownloadURI(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/2.0/mlflow/model-versions/get-download-uri", r.URL.Path)
		_ = json.NewEncoder(w).Encode(downloadURIResponse{ArtifactURI: "dbfs:/registry/run-123/model"})
	}))

	uri, err := c.GetModelVersionDownloadURI(context.Background(), "churn-model", "4")
	require.NoError(t, err)
	assert.Equal(t, "dbfs:/registry/run-123/model", uri)
}

func TestNewClient_RejectsInvalidProfile(t *testing.T) {
	_, err := NewClient(&workspace.Profile{Host: "", Token: ""})
	assert.ErrorIs(t, err, workspace.ErrProfileInvalid)
}
