package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/songzhibin97/lbgate/internal/types"
)

// maxConnectTimeout bounds how much of the overall request timeout can be
// spent establishing the TCP connection, per the Open Question resolution
// in SPEC_FULL.md: connect timeout is derived as min(connectionTimeoutMillis, 2s).
const maxConnectTimeout = 2 * time.Second

// upstreamResponse is what a successful dispatch produces: an upstream
// status is not an error from the client's perspective, 4xx and 5xx
// included.
type upstreamResponse struct {
	status        int
	statusMessage string
	headers       http.Header
	body          []byte
}

// upstreamClient wraps a single shared *http.Transport, grounded on the
// teacher's reverse-proxy transport construction, but drops
// httputil.ReverseProxy in favor of a direct Do call so the pipeline can
// classify connect errors and timeouts distinctly from a relayed response.
type upstreamClient struct {
	httpClient              *http.Client
	connectionTimeoutMillis int
}

func newUpstreamClient(connectionTimeoutMillis int) *upstreamClient {
	connectTimeout := time.Duration(connectionTimeoutMillis) * time.Millisecond
	if connectTimeout > maxConnectTimeout {
		connectTimeout = maxConnectTimeout
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: connectTimeout,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &upstreamClient{
		connectionTimeoutMillis: connectionTimeoutMillis,
		httpClient:              &http.Client{Transport: transport},
	}
}

func (c *upstreamClient) overallTimeout() time.Duration {
	return time.Duration(c.connectionTimeoutMillis) * time.Millisecond
}

// close releases pooled idle connections, used on server shutdown.
func (c *upstreamClient) close() {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// send forwards one attempt to target and classifies the result into an
// (upstreamResponse, outcome) pair. It never returns a Go error crossing
// into the pipeline's retry logic; transport failures are folded into the
// outcome classification instead.
func (c *upstreamClient) send(ctx context.Context, target *types.Target, rc *requestContext) (*upstreamResponse, outcome) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.overallTimeout())
	defer cancel()

	targetURL := *target.URL
	targetURL.Path = joinPath(target.URL.Path, rc.forwardPath)
	targetURL.RawQuery = rc.query

	var bodyReader io.Reader
	if rc.requestBody != nil {
		bodyReader = rc.requestBody
	}

	req, err := http.NewRequestWithContext(timeoutCtx, rc.method, targetURL.String(), bodyReader)
	if err != nil {
		return nil, outcomeConnectError
	}
	req.Header = rc.requestHeaders.Clone()
	if host := rc.requestHeaders.Get("Host"); host != "" {
		req.Host = host
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err)
		return nil, classify(0, err, timedOut)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err)
		return nil, classify(0, err, timedOut)
	}

	result := &upstreamResponse{
		status:        resp.StatusCode,
		statusMessage: http.StatusText(resp.StatusCode),
		headers:       resp.Header,
		body:          body,
	}
	return result, classify(resp.StatusCode, nil, false)
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// joinPath concatenates a target's base path and the forwarded request
// path, inserting or collapsing a single '/' at the join.
func joinPath(base, path string) string {
	if base == "" || base == "/" {
		if path == "" {
			return "/"
		}
		return path
	}
	trimmedBase := trimTrailingSlash(base)
	if path == "" || path == "/" {
		return trimmedBase
	}
	if path[0] != '/' {
		return trimmedBase + "/" + path
	}
	return trimmedBase + path
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
