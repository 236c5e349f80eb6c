// Package apierror decodes structured errors returned by workspace REST APIs.
//
// Both the tracking/registry API and the artifact file-store API answer
// failing requests with a JSON payload of the form
//
//	{"error_code": "RESOURCE_ALREADY_EXISTS", "message": "..."}
//
// Matching on the error_code field keeps callers away from fragile
// message-text comparisons.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Well-known error codes shared by workspace APIs.
const (
	CodeResourceAlreadyExists   = "RESOURCE_ALREADY_EXISTS"
	CodeResourceDoesNotExist    = "RESOURCE_DOES_NOT_EXIST"
	CodePermissionDenied        = "PERMISSION_DENIED"
	CodeInvalidParameterValue   = "INVALID_PARAMETER_VALUE"
	CodeTemporarilyUnavailable  = "TEMPORARILY_UNAVAILABLE"
	CodeInternalError           = "INTERNAL_ERROR"
	CodeRequestLimitExceeded    = "REQUEST_LIMIT_EXCEEDED"
	CodeEndpointNotFound        = "ENDPOINT_NOT_FOUND"
	CodeInvalidState            = "INVALID_STATE"
	CodeUnauthenticated         = "UNAUTHENTICATED"
	CodeResourceConflictGeneric = "RESOURCE_CONFLICT"
)

// Error is a structured error from a workspace API.
type Error struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("workspace API error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New constructs an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// FromResponse builds an Error from a non-2xx HTTP response. The response
// body is consumed. A body that is not the expected JSON shape still yields
// an Error carrying the raw text, so the status code is never lost.
func FromResponse(resp *http.Response) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		apiErr.Message = fmt.Sprintf("failed to read error response body: %v", err)
		return apiErr
	}

	if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Code == "" && apiErr.Message == "" {
		apiErr.Message = string(body)
		apiErr.Code = codeForStatus(resp.StatusCode)
	}

	if apiErr.Code == "" {
		apiErr.Code = codeForStatus(resp.StatusCode)
	}

	return apiErr
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusConflict:
		return CodeResourceAlreadyExists
	case http.StatusNotFound:
		return CodeResourceDoesNotExist
	case http.StatusUnauthorized:
		return CodeUnauthenticated
	case http.StatusForbidden:
		return CodePermissionDenied
	case http.StatusTooManyRequests:
		return CodeRequestLimitExceeded
	case http.StatusServiceUnavailable:
		return CodeTemporarilyUnavailable
	default:
		return ""
	}
}

// IsAlreadyExists reports whether err is a structured conflict: the remote
// object or entity already exists.
func IsAlreadyExists(err error) bool {
	return hasCode(err, CodeResourceAlreadyExists) || hasCode(err, CodeResourceConflictGeneric)
}

// IsNotFound reports whether err says the remote entity does not exist.
func IsNotFound(err error) bool {
	return hasCode(err, CodeResourceDoesNotExist) || hasCode(err, CodeEndpointNotFound)
}

// IsTemporarilyUnavailable reports whether err is a transient availability
// failure.
func IsTemporarilyUnavailable(err error) bool {
	return hasCode(err, CodeTemporarilyUnavailable)
}

func hasCode(err error, code string) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == code
}
