package loadbalancer

import (
	"math/rand/v2"

	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
)

// Weighted draws a target with probability proportional to its weight: sum
// the healthy targets' weights, draw uniformly in [0, W), and return the
// first target whose cumulative weight exceeds the draw. It carries no
// state between calls, so there is nothing to guard with a lock; each
// goroutine's math/rand/v2 source avoids the contention a single shared
// RNG would cause under concurrent selection.
type Weighted struct{}

func NewWeighted() *Weighted {
	return &Weighted{}
}

func (w *Weighted) Select(group *router.TargetGroup, _ RequestInfo) (*types.Target, bool) {
	healthy := group.GetHealthyTargets()
	if len(healthy) == 0 {
		return nil, false
	}

	total := 0
	for _, t := range healthy {
		total += t.Weight
	}
	if total == 0 {
		return healthy[rand.IntN(len(healthy))], true
	}

	draw := rand.IntN(total)
	cumulative := 0
	for _, t := range healthy {
		cumulative += t.Weight
		if draw < cumulative {
			return t, true
		}
	}
	// unreachable unless weights are inconsistent with total
	return healthy[len(healthy)-1], true
}
