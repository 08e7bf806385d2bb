package proxy

import "net/http"

// outcome classifies the result of a single upstream dispatch attempt. A
// 5xx upstream response is not a Go error, so it is represented here
// alongside the transport-level failures rather than crossing the retry
// boundary as an error value.
type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryableStatus
	outcomeConnectError
	outcomeTimeout
)

func classify(status int, err error, timedOut bool) outcome {
	if err != nil {
		if timedOut {
			return outcomeTimeout
		}
		return outcomeConnectError
	}
	if status >= 500 && status < 600 {
		return outcomeRetryableStatus
	}
	return outcomeSuccess
}

// canonical status codes emitted by the proxy itself, never by an upstream.
const (
	statusNoRouteMatch    = http.StatusNotFound
	statusNoHealthyTarget = http.StatusServiceUnavailable
	statusConnectError    = http.StatusBadGateway
	statusUpstreamTimeout = http.StatusGatewayTimeout
)
