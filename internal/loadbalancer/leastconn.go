package loadbalancer

import (
	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
)

// LeastConnections returns the healthy target with the fewest active
// connections, breaking ties by list order (first wins).
type LeastConnections struct{}

func NewLeastConnections() *LeastConnections {
	return &LeastConnections{}
}

func (lc *LeastConnections) Select(group *router.TargetGroup, _ RequestInfo) (*types.Target, bool) {
	healthy := group.GetHealthyTargets()
	if len(healthy) == 0 {
		return nil, false
	}

	best := healthy[0]
	bestCount := best.ActiveConnections()
	for _, t := range healthy[1:] {
		if count := t.ActiveConnections(); count < bestCount {
			best, bestCount = t, count
		}
	}
	return best, true
}
