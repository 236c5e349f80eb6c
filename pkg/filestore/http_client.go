package filestore

import (
	"net"
	"net/http"
	"sync"
	"time"
)

var (
	// defaultHTTPClient is the shared HTTP client with connection pooling.
	defaultHTTPClient *http.Client
	clientOnce        sync.Once
)

// GetHTTPClient returns the shared HTTP client used for file-store requests.
//
// Redirect following is disabled: file-store endpoints are expected to answer
// directly, and silently following a redirect could land an upload at an
// unintended location.
func GetHTTPClient() *http.Client {
	clientOnce.Do(func() {
		transport := &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			MaxConnsPerHost:     20,
			IdleConnTimeout:     90 * time.Second,

			ForceAttemptHTTP2: true,

			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,

			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		}

		defaultHTTPClient = &http.Client{
			Transport: transport,
			// Uploads stream arbitrarily large files, so there is no overall
			// client timeout; cancellation comes from the request context.
			Timeout: 0,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	})

	return defaultHTTPClient
}
