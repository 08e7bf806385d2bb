package loadbalancer

import (
	"sync/atomic"

	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
)

// RoundRobin maintains one monotonic counter shared across every group it
// is asked to select from — not one counter per group, matching the
// teacher's single shared state.counter and the default spec.md permits.
type RoundRobin struct {
	counter atomic.Uint64
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Select picks healthy[counter mod n], n evaluated at selection time so a
// health-set change between calls never indexes out of range.
func (rr *RoundRobin) Select(group *router.TargetGroup, _ RequestInfo) (*types.Target, bool) {
	healthy := group.GetHealthyTargets()
	if len(healthy) == 0 {
		return nil, false
	}
	n := uint64(len(healthy))
	index := (rr.counter.Add(1) - 1) % n
	return healthy[index], true
}
