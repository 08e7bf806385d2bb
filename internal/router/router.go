// Package router matches an inbound request path to the TargetGroup that
// should serve it. Matching is longest-prefix over a fixed, sorted table
// built once at startup; there is no mutation once the process is serving.
package router

import (
	"sort"
	"strings"

	"github.com/songzhibin97/lbgate/internal/types"
)

// TargetGroup bundles a set of backend Targets with the routing metadata
// that applies to all of them: path prefix, selection algorithm, optional
// path rewrite, optional health check. It is immutable after construction.
type TargetGroup struct {
	Name          string
	PathPrefix    string
	AlgorithmName string
	Targets       []*types.Target
	PathRewrite   string
	HealthCheck   *types.HealthCheck
}

// GetHealthyTargets returns the subset of Targets currently healthy,
// preserving the configured order.
func (g *TargetGroup) GetHealthyTargets() []*types.Target {
	healthy := make([]*types.Target, 0, len(g.Targets))
	for _, t := range g.Targets {
		if t.Healthy() {
			healthy = append(healthy, t)
		}
	}
	return healthy
}

// Router holds the fixed table of groups, sorted longest-prefix-first so
// Match can return on the first hit.
type Router struct {
	groups []*TargetGroup
}

// New builds a Router from an unordered set of groups. Prefixes are
// required to be distinct by the caller (the config loader enforces this),
// so no two entries can tie for longest match.
func New(groups []*TargetGroup) *Router {
	sorted := make([]*TargetGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].PathPrefix) > len(sorted[j].PathPrefix)
	})
	return &Router{groups: sorted}
}

// Match returns the longest-prefix TargetGroup whose PathPrefix is a
// literal byte-sequence prefix of path, or (nil, false) if none matches.
func (r *Router) Match(path string) (*TargetGroup, bool) {
	for _, g := range r.groups {
		if strings.HasPrefix(path, g.PathPrefix) {
			return g, true
		}
	}
	return nil, false
}
