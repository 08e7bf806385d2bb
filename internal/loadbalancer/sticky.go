package loadbalancer

import (
	"sync"

	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
)

// Sticky binds a session id to a target for the lifetime of that target's
// health. The session map is process-wide and unbounded, per spec; callers
// wanting bounded growth under adversarial clients should wrap Sticky with
// their own TTL eviction rather than extend this type.
type Sticky struct {
	sessions sync.Map // session id string -> *types.Target
	fallback *RoundRobin
}

func NewSticky() *Sticky {
	return &Sticky{fallback: NewRoundRobin()}
}

// Select extracts a session id from, in order: cookie JSESSIONID, cookie
// LB_SESSION, header X-Forwarded-For, header X-Real-IP. With no session id
// it delegates to round-robin and records no mapping. With a session id
// it looks up the map: a healthy hit is returned as-is; a stale hit is
// evicted before falling through to round-robin, which (on success) is
// recorded against the session id.
func (s *Sticky) Select(group *router.TargetGroup, req RequestInfo) (*types.Target, bool) {
	sessionID := extractSessionID(req)
	if sessionID == "" {
		return s.fallback.Select(group, req)
	}

	if value, ok := s.sessions.Load(sessionID); ok {
		target := value.(*types.Target)
		if target.Healthy() && isInHealthySet(target, group) {
			return target, true
		}
		s.sessions.Delete(sessionID)
	}

	target, ok := s.fallback.Select(group, req)
	if !ok {
		return nil, false
	}
	s.sessions.Store(sessionID, target)
	return target, true
}

func extractSessionID(req RequestInfo) string {
	if v := req.Cookies["JSESSIONID"]; v != "" {
		return v
	}
	if v := req.Cookies["LB_SESSION"]; v != "" {
		return v
	}
	if req.ForwardedFor != "" {
		return req.ForwardedFor
	}
	return req.RealIP
}

func isInHealthySet(target *types.Target, group *router.TargetGroup) bool {
	for _, t := range group.GetHealthyTargets() {
		if t == target {
			return true
		}
	}
	return false
}
