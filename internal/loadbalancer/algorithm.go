// Package loadbalancer implements the four selection algorithms — round
// robin, weighted random, least-connections and sticky-session — plus the
// name-keyed registry the request pipeline looks them up from.
package loadbalancer

import (
	"fmt"

	"github.com/songzhibin97/lbgate/internal/config"
	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
)

// RequestInfo is the subset of an inbound request an algorithm may need to
// make its decision: STICKY inspects cookies and forwarding headers,
// ROUND_ROBIN/WEIGHTED/LRT ignore it entirely.
type RequestInfo struct {
	Cookies           map[string]string
	ForwardedFor      string
	RealIP            string
}

// Algorithm picks one healthy Target from a group. Implementations must
// consider only group.GetHealthyTargets() and return (nil, false) when
// that set is empty.
type Algorithm interface {
	Select(group *router.TargetGroup, req RequestInfo) (*types.Target, bool)
}

// Registry is a name -> Algorithm lookup populated once at startup and
// read-only thereafter, mirroring the teacher's "built once, read without
// synchronisation" convention for its router tables.
type Registry struct {
	algorithms map[string]Algorithm
	def        string
}

// NewRegistry builds the standard four-algorithm registry. def is the
// name returned when a group names no algorithm of its own.
func NewRegistry(def string) *Registry {
	return &Registry{
		algorithms: map[string]Algorithm{
			config.AlgorithmRoundRobin: NewRoundRobin(),
			config.AlgorithmWeighted:   NewWeighted(),
			config.AlgorithmLRT:        NewLeastConnections(),
			config.AlgorithmSticky:     NewSticky(),
		},
		def: def,
	}
}

// Get looks up an algorithm by name, falling back to the registry's
// default if name is empty.
func (r *Registry) Get(name string) (Algorithm, error) {
	if name == "" {
		name = r.def
	}
	algorithm, ok := r.algorithms[name]
	if !ok {
		return nil, fmt.Errorf("unknown load-balancing algorithm: %s", name)
	}
	return algorithm, nil
}
