package proxy

import "strings"

// rewritePath computes the forwarded path given the original request path
// and a target group's optional rewrite prefix.
func rewritePath(originalPath, rewritePrefix string) string {
	if rewritePrefix == "" {
		return originalPath
	}
	if !strings.HasPrefix(originalPath, rewritePrefix) {
		return originalPath
	}
	remainder := originalPath[len(rewritePrefix):]
	if remainder == "" {
		return "/"
	}
	if !strings.HasPrefix(remainder, "/") {
		remainder = "/" + remainder
	}
	return remainder
}
