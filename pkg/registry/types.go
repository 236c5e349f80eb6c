package registry

// Stages a model version can be transitioned to.
const (
	StageNone       = "None"
	StageStaging    = "Staging"
	StageProduction = "Production"
	StageArchived   = "Archived"
)

// ModelVersionStatus values reported by the registry.
const (
	StatusPendingRegistration = "PENDING_REGISTRATION"
	StatusFailedRegistration  = "FAILED_REGISTRATION"
	StatusReady               = "READY"
)

// Experiment is a named collection of runs.
type Experiment struct {
	ExperimentID string `json:"experiment_id"`
	Name         string `json:"name"`
}

// TagSourceGitCommit is the run tag recording the git commit the run was
// logged from.
const TagSourceGitCommit = "mlflow.source.git.commit"

// RunTag is a key-value annotation on a run.
type RunTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RunInfo is the metadata of a tracked run.
type RunInfo struct {
	RunID        string `json:"run_id"`
	ExperimentID string `json:"experiment_id"`
	Status       string `json:"status"`
	EndTime      int64  `json:"end_time"`

	// ArtifactURI is the base URI under which the run's artifacts live.
	ArtifactURI string `json:"artifact_uri"`
}

// RunData holds the logged content of a run.
type RunData struct {
	Tags []RunTag `json:"tags"`
}

// Run is a single tracked run.
type Run struct {
	Info RunInfo `json:"info"`
	Data RunData `json:"data"`
}

// Tag returns the value of the named run tag, or "" if absent.
func (r *Run) Tag(key string) string {
	for _, t := range r.Data.Tags {
		if t.Key == key {
			return t.Value
		}
	}
	return ""
}

// RegisteredModel is a named model in the registry.
type RegisteredModel struct {
	Name string `json:"name"`
}

// ModelVersion is a registered, versioned pointer to an artifact location.
type ModelVersion struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Source      string `json:"source"`
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
	Stage       string `json:"current_stage"`
	Description string `json:"description"`
}

type getRunResponse struct {
	Run Run `json:"run"`
}

type getExperimentResponse struct {
	Experiment Experiment `json:"experiment"`
}

type searchRunsRequest struct {
	ExperimentIDs []string `json:"experiment_ids"`
	OrderBy       []string `json:"order_by,omitempty"`
	MaxResults    int      `json:"max_results,omitempty"`
}

type searchRunsResponse struct {
	Runs []Run `json:"runs"`
}

type createRegisteredModelRequest struct {
	Name string `json:"name"`
}

type createRegisteredModelResponse struct {
	RegisteredModel RegisteredModel `json:"registered_model"`
}

type createModelVersionRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	RunID  string `json:"run_id,omitempty"`
}

type modelVersionResponse struct {
	ModelVersion ModelVersion `json:"model_version"`
}

type updateModelVersionRequest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type transitionStageRequest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Stage   string `json:"stage"`
}

type downloadURIResponse struct {
	ArtifactURI string `json:"artifact_uri"`
}

type latestVersionsRequest struct {
	Name   string   `json:"name"`
	Stages []string `json:"stages,omitempty"`
}

type latestVersionsResponse struct {
	ModelVersions []ModelVersion `json:"model_versions"`
}
