package proxy

import (
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// applyHeaderConventions mutates ctx.requestHeaders in place to attach the
// standard forwarding headers, grounded on the teacher's reverse-proxy
// director but generalized to the client-IP derivation order below. It is
// a no-op when header conventions are disabled.
func applyHeaderConventions(ctx *requestContext, enabled bool) {
	if !enabled {
		return
	}

	clientIP := deriveClientIP(ctx)

	if existing := ctx.requestHeaders.Get("X-Forwarded-For"); existing != "" {
		ctx.requestHeaders.Set("X-Forwarded-For", existing+", "+clientIP)
	} else {
		ctx.requestHeaders.Set("X-Forwarded-For", clientIP)
	}

	if host := ctx.requestHeaders.Get("Host"); host != "" {
		ctx.requestHeaders.Set("X-Forwarded-Host", host)
	}

	ctx.requestHeaders.Set("X-Forwarded-Port", strconv.Itoa(ctx.listenPort))

	proto := "http"
	if ctx.tls {
		proto = "https"
	}
	ctx.requestHeaders.Set("X-Forwarded-Proto", proto)

	ctx.requestHeaders.Set("X-Real-IP", clientIP)

	ctx.requestHeaders.Set("X-Request-Id", uuid.NewString())
}

// deriveClientIP implements the spec's explicitly non-standard precedence:
// the LAST entry of an incoming X-Forwarded-For (not the first, as most
// conventions take it), then X-Real-IP, then the TCP peer address.
func deriveClientIP(ctx *requestContext) string {
	if xff := ctx.requestHeaders.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		last := strings.TrimSpace(parts[len(parts)-1])
		if last != "" {
			return last
		}
	}
	if xri := ctx.requestHeaders.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(ctx.remoteAddr); err == nil {
		return host
	}
	return ctx.remoteAddr
}
