package proxy

import (
	"io"
	"net/http"

	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
)

// requestContext is the per-request mutable bag threaded through a single
// pipeline run. It is built once per inbound request and reused across
// retry attempts of the same logical request.
type requestContext struct {
	method       string
	originalPath string
	forwardPath  string
	query        string

	requestHeaders http.Header
	requestBody    io.ReadCloser

	remoteAddr string
	tls        bool
	listenPort int

	group  *router.TargetGroup
	target *types.Target
}

func newRequestContext(r *http.Request, listenPort int) *requestContext {
	headers := r.Header.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	// net/http moves an inbound Host header into r.Host; put it back so the
	// header stage and the upstream client see the original Host.
	if r.Host != "" {
		headers.Set("Host", r.Host)
	}
	return &requestContext{
		method:         r.Method,
		originalPath:   r.URL.Path,
		query:          r.URL.RawQuery,
		requestHeaders: headers,
		requestBody:    r.Body,
		remoteAddr:     r.RemoteAddr,
		tls:            r.TLS != nil,
		listenPort:     listenPort,
	}
}
