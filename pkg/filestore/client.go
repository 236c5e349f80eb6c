// Package filestore is a client for the workspace artifact file-store API.
//
// The API is a plain HTTP surface: POST writes the raw request body to the
// path named by the endpoint, GET streams it back. Structured errors are
// decoded via pkg/apierror.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/modelbridge/modelbridge/pkg/apierror"
	"github.com/modelbridge/modelbridge/pkg/logging"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

// RequestIDHeader carries a per-request client id for server-side correlation.
const RequestIDHeader = "X-Request-ID"

const listEndpoint = "/api/2.0/dbfs/list"

// FileStatus describes one entry of a file-store directory.
type FileStatus struct {
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	FileSize int64  `json:"file_size"`
}

// Client reads and writes files in a workspace file store.
type Client interface {
	// PutFile writes size bytes from body to the file named by endpoint.
	// A nil body writes an empty file. The destination directories are
	// created by the remote side.
	PutFile(ctx context.Context, endpoint string, body io.Reader, size int64) error

	// GetFile streams the file named by endpoint to handler. If handler
	// returns an error, the download stops and that error is returned.
	GetFile(ctx context.Context, endpoint string, handler func(io.Reader) error) error

	// ListDirectory returns the entries directly under the given file-store
	// path (not an endpoint, the bare store path such as /registry/run123).
	ListDirectory(ctx context.Context, path string) ([]FileStatus, error)
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

// NewClient creates a file-store client for the given workspace profile.
func NewClient(profile *workspace.Profile, opts ...Option) (Client, error) {
	if err := profile.Verify(); err != nil {
		return nil, err
	}

	c := &client{
		httpClient: GetHTTPClient(),
		host:       strings.TrimSuffix(profile.Host, "/"),
		token:      profile.Token,
		logger:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}

	return c, nil
}

func (c *client) PutFile(ctx context.Context, endpoint string, body io.Reader, size int64) error {
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(endpoint), body)
	if err != nil {
		return fmt.Errorf("building upload request for %s: %w", endpoint, err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	c.decorate(req)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading to %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp)
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *client) GetFile(ctx context.Context, endpoint string, handler func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(endpoint), nil)
	if err != nil {
		return fmt.Errorf("building download request for %s: %w", endpoint, err)
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apierror.FromResponse(resp)
	}

	return handler(resp.Body)
}

func (c *client) ListDirectory(ctx context.Context, path string) ([]FileStatus, error) {
	u := c.host + listEndpoint + "?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building list request for %s: %w", path, err)
	}
	c.decorate(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierror.FromResponse(resp)
	}

	var out struct {
		Files []FileStatus `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding listing of %s: %w", path, err)
	}
	return out.Files, nil
}

func (c *client) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set(RequestIDHeader, uuid.NewString())
}

func (c *client) url(endpoint string) string {
	return c.host + "/" + strings.TrimPrefix(endpoint, "/")
}
