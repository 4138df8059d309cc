package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused across all pooled clients so scoring and
// embedding calls to the same backend reuse TCP connections instead of
// paying a handshake per candidate.
var sharedTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
	DisableKeepAlives:   false,
}

// NewPooledClient creates an http.Client that shares a connection pool
// with the other scoring clients.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
