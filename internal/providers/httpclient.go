// internal/providers/httpclient.go
package providers

import (
	"net"
	"net/http"
	"time"
)

// requestTimeout bounds a whole exchange; callers usually set a shorter context deadline
const requestTimeout = 120 * time.Second

// NewHTTPClient returns the shared transport used by every adapter.
// Retries are disabled at the SDK level, so this client is the only layer.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   5,
		},
	}
}

var sharedClient = NewHTTPClient()
