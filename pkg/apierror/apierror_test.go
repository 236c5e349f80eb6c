package apierror

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseWithBody(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFromResponse_StructuredPayload(t *testing.T) {
	resp := responseWithBody(409, `{"error_code": "RESOURCE_ALREADY_EXISTS", "message": "File already exists"}`)

	err := FromResponse(resp)
	require.NotNil(t, err)

	assert.Equal(t, CodeResourceAlreadyExists, err.Code)
	assert.Equal(t, "File already exists", err.Message)
	assert.Equal(t, 409, err.StatusCode)
	assert.True(t, IsAlreadyExists(err))
	assert.False(t, IsNotFound(err))
}

func TestFromResponse_NonJSONBody(t *testing.T) {
	resp := responseWithBody(503, "upstream unavailable")

	err := FromResponse(resp)
	require.NotNil(t, err)

	assert.Equal(t, CodeTemporarilyUnavailable, err.Code)
	assert.Equal(t, "upstream unavailable", err.Message)
	assert.True(t, IsTemporarilyUnavailable(err))
}

func TestFromResponse_StatusFallbackCodes(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{status: 404, code: CodeResourceDoesNotExist},
		{status: 401, code: CodeUnauthenticated},
		{status: 403, code: CodePermissionDenied},
		{status: 429, code: CodeRequestLimitExceeded},
		{status: 500, code: ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP %d", tt.status), func(t *testing.T) {
			err := FromResponse(responseWithBody(tt.status, "nope"))
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

func TestPredicates_WrappedErrors(t *testing.T) {
	base := New(CodeResourceDoesNotExist, "run not found")
	wrapped := fmt.Errorf("resolving run: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsAlreadyExists(wrapped))
	assert.False(t, IsNotFound(fmt.Errorf("plain error")))
}

func TestError_Error(t *testing.T) {
	assert.Equal(t, "RESOURCE_ALREADY_EXISTS: dup", New(CodeResourceAlreadyExists, "dup").Error())

	codeless := &Error{StatusCode: 502, Message: "bad gateway"}
	assert.Equal(t, "workspace API error (HTTP 502): bad gateway", codeless.Error())
}
