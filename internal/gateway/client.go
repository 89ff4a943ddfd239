// internal/gateway/client.go
package gateway

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// NewUpstreamClient builds the HTTP client used for relaying to the
// upstream API. By default the client refuses private, loopback and
// link-local destinations so a misconfigured upstream URL cannot be used
// to reach internal infrastructure; allowPrivate disables the guard for
// development setups where the upstream runs on localhost.
func NewUpstreamClient(timeout time.Duration, allowPrivate bool) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if allowPrivate {
		return &http.Client{Timeout: timeout}
	}

	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(cfg).Client
}
