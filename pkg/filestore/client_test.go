package filestore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelbridge/modelbridge/pkg/apierror"
	"github.com/modelbridge/modelbridge/pkg/workspace"
)

func newTestClient(t *testing.T, handler http.Handler) (Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	profile := &workspace.Profile{Host: server.URL, Token: "dapi-test"}
	c, err := NewClient(profile, WithHTTPClient(server.Client()))
	require.NoError(t, err)

	return c, server
}

func TestPutFile_SendsBodyAndAuth(t *testing.T) {
	var (
		gotPath   string
		gotBody   []byte
		gotAuth   string
		gotReqID  string
		gotLength int64
	)

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(RequestIDHeader)
		gotLength = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.PutFile(context.Background(), "/dbfs/registry/run1/model/MLmodel", strings.NewReader("metadata"), 8)
	require.NoError(t, err)

	assert.Equal(t, "/dbfs/registry/run1/model/MLmodel", gotPath)
	assert.Equal(t, []byte("metadata"), gotBody)
	assert.Equal(t, "Bearer dapi-test", gotAuth)
	assert.NotEmpty(t, gotReqID)
	assert.Equal(t, int64(8), gotLength)
}

func TestPutFile_NilBodyIsEmptyUpload(t *testing.T) {
	var gotBody []byte

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.PutFile(context.Background(), "/dbfs/registry/run1/model/empty.bin", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, gotBody)
}

func TestPutFile_ConflictIsStructured(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error_code": "RESOURCE_ALREADY_EXISTS", "message": "File already exists"}`))
	}))

	err := c.PutFile(context.Background(), "/dbfs/x", strings.NewReader("y"), 1)
	require.Error(t, err)
	assert.True(t, apierror.IsAlreadyExists(err))
}

func TestPutFile_DoesNotFollowRedirects(t *testing.T) {
	var uploadsToTrap int

	mux := http.NewServeMux()
	mux.HandleFunc("/dbfs/original", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dbfs/trap", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/dbfs/trap", func(w http.ResponseWriter, r *http.Request) {
		uploadsToTrap++
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	profile := &workspace.Profile{Host: server.URL, Token: "dapi-test"}
	// the default shared client carries the redirect policy under test
	c, err := NewClient(profile)
	require.NoError(t, err)

	err = c.PutFile(context.Background(), "/dbfs/original", strings.NewReader("y"), 1)
	require.Error(t, err, "a redirect answer must surface as an error, not be followed")
	assert.Zero(t, uploadsToTrap)
}

func TestGetFile_StreamsBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("weights"))
	}))

	var got []byte
	err := c.GetFile(context.Background(), "/dbfs/registry/run1/model/data/model.h5", func(r io.Reader) error {
		var readErr error
		got, readErr = io.ReadAll(r)
		return readErr
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), got)
}

func TestGetFile_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": "no such file"}`))
	}))

	err := c.GetFile(context.Background(), "/dbfs/missing", func(io.Reader) error { return nil })
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
}

func TestListDirectory_DecodesEntries(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Query().Get("path")
		_, _ = w.Write([]byte(`{"files": [
			{"path": "/registry/run1/model/MLmodel", "is_dir": false, "file_size": 4},
			{"path": "/registry/run1/model/data", "is_dir": true, "file_size": 0}
		]}`))
	}))

	entries, err := c.ListDirectory(context.Background(), "/registry/run1/model")
	require.NoError(t, err)
	assert.Equal(t, "/registry/run1/model", gotPath)
	require.Len(t, entries, 2)
	assert.Equal(t, FileStatus{Path: "/registry/run1/model/MLmodel", FileSize: 4}, entries[0])
	assert.True(t, entries[1].IsDir)
}

func TestListDirectory_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error_code": "RESOURCE_DOES_NOT_EXIST", "message": "no such directory"}`))
	}))

	_, err := c.ListDirectory(context.Background(), "/registry/missing")
	require.Error(t, err)
	assert.True(t, apierror.IsNotFound(err))
}

func TestNewClient_RejectsInvalidProfile(t *testing.T) {
	_, err := NewClient(&workspace.Profile{Host: "not-a-url", Token: "x"})
	assert.ErrorIs(t, err, workspace.ErrProfileInvalid)
}
