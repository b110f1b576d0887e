// Package httpc builds HTTP clients for local sidecar services.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Dial and pool defaults.
const (
	DefaultConnectTimeout  = 2 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// NewClient returns a client for a single per-frame sidecar. timeout bounds
// each request; a zero timeout leaves requests bounded only by their
// context.
//
// The pool keeps a couple of warm connections to the one host, so a frame
// never pays for a TCP handshake.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(),
	}
}

// NewTransport returns the transport used by NewClient. Proxies are ignored:
// sidecars run on the loopback interface.
func NewTransport() *http.Transport {
	return &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  true,
	}
}
