// Package proxy implements the request pipeline: routing, path rewrite,
// header conventions, target selection, upstream dispatch with retry, and
// response relay.
package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/songzhibin97/lbgate/internal/config"
	"github.com/songzhibin97/lbgate/internal/loadbalancer"
	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/pkg/log"
)

// Pipeline is the single http.Handler the listener dispatches every
// inbound request to, grounded on the teacher's internal/proxy/pipeline.go
// stage ordering but trimmed to the five stages this system specifies.
type Pipeline struct {
	router                  *router.Router
	algorithms              *loadbalancer.Registry
	client                  *upstreamClient
	logger                  log.Logger
	listenPort              int
	headerConventionEnabled bool
	retryEnabled            bool
	retryBackoffMillis      int
	retryCount              int
}

// New builds a Pipeline from its resolved dependencies.
func New(cfg *config.Config, rt *router.Router, algorithms *loadbalancer.Registry, logger log.Logger) *Pipeline {
	return &Pipeline{
		router:                  rt,
		algorithms:              algorithms,
		client:                  newUpstreamClient(cfg.ConnectionTimeoutMillis),
		logger:                  logger,
		listenPort:              cfg.ListenerPort,
		headerConventionEnabled: cfg.HeaderConventionEnabled,
		retryEnabled:            cfg.RetryEnabled,
		retryBackoffMillis:      cfg.RetryBackoffMillis,
		retryCount:              cfg.RetryCount,
	}
}

// Close releases the pipeline's pooled upstream connections.
func (p *Pipeline) Close() {
	p.client.close()
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Stage 1: context init.
	ctx := newRequestContext(r, p.listenPort)

	group, ok := p.router.Match(ctx.originalPath)
	if !ok {
		w.WriteHeader(statusNoRouteMatch)
		return
	}
	ctx.group = group
	ctx.forwardPath = rewritePath(ctx.originalPath, group.PathRewrite)

	// Stage 2: header conventions.
	applyHeaderConventions(ctx, p.headerConventionEnabled)

	// Stage 3: selection.
	algorithm, err := p.algorithms.Get(group.AlgorithmName)
	if err != nil {
		p.logger.Error("unknown algorithm for group", log.String("group", group.Name), log.Error(err))
		w.WriteHeader(statusNoHealthyTarget)
		return
	}
	target, ok := algorithm.Select(group, selectionInfo(ctx))
	if !ok {
		w.WriteHeader(statusNoHealthyTarget)
		return
	}
	ctx.target = target

	// Stage 4: dispatch with retry.
	resp, oc := p.executeWithRetry(r.Context(), ctx, 0)

	// Stage 5: response relay.
	p.relay(w, resp, oc)
}

func selectionInfo(ctx *requestContext) loadbalancer.RequestInfo {
	cookies, _ := http.ParseCookie(ctx.requestHeaders.Get("Cookie"))
	cookieMap := make(map[string]string, len(cookies))
	for _, c := range cookies {
		cookieMap[c.Name] = c.Value
	}
	return loadbalancer.RequestInfo{
		Cookies:      cookieMap,
		ForwardedFor: ctx.requestHeaders.Get("X-Forwarded-For"),
		RealIP:       ctx.requestHeaders.Get("X-Real-IP"),
	}
}

// executeWithRetry implements the INIT -> DISPATCHED -> (RESPONDED |
// CONNECT_FAILED | TIMED_OUT) -> CLASSIFIED -> (SURFACE | BACKOFF) state
// machine of a single logical request. activeConnections is incremented on
// entry to DISPATCHED and decremented on entry to CLASSIFIED, on every exit
// path including a cancelled client.
func (p *Pipeline) executeWithRetry(ctx context.Context, rc *requestContext, attempt int) (*upstreamResponse, outcome) {
	rc.target.IncActiveConnections()
	resp, oc := p.client.send(ctx, rc.target, rc)
	rc.target.DecActiveConnections()

	if oc == outcomeSuccess {
		return resp, oc
	}

	retryCandidate := oc == outcomeRetryableStatus || oc == outcomeConnectError || oc == outcomeTimeout
	if !retryCandidate || !p.retryEnabled || attempt >= p.retryCount {
		return resp, oc
	}

	backoff := time.Duration(p.retryBackoffMillis) * time.Millisecond * time.Duration(1<<uint(attempt))
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return resp, oc
	case <-timer.C:
	}

	return p.executeWithRetry(ctx, rc, attempt+1)
}

func (p *Pipeline) relay(w http.ResponseWriter, resp *upstreamResponse, oc outcome) {
	if resp != nil && (oc == outcomeSuccess || oc == outcomeRetryableStatus) {
		for key, values := range resp.headers {
			for _, v := range values {
				w.Header().Add(key, v)
			}
		}
		w.WriteHeader(resp.status)
		w.Write(resp.body)
		return
	}

	switch oc {
	case outcomeTimeout:
		w.WriteHeader(statusUpstreamTimeout)
	default:
		w.WriteHeader(statusConnectError)
	}
}
