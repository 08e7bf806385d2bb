// Package health drives periodic active probing of targets and feeds the
// resulting pass/fail streaks back into their healthy flag.
package health

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
	"github.com/songzhibin97/lbgate/pkg/log"
)

// probeTimeout bounds a single health-check request, independent of the
// request pipeline's own timeouts.
const probeTimeout = 5 * time.Second

// tickInterval is the scheduler's uniform driver frequency. Each tick it
// decides, per target, whether that target's own interval has elapsed.
const tickInterval = 1 * time.Second

// Scheduler drives all enabled target groups' health checks off a single
// shared ticker, so there is one driver goroutine regardless of how many
// groups or targets are configured. Each due probe runs in its own
// short-lived goroutine.
type Scheduler struct {
	groups []*router.TargetGroup
	client *http.Client
	logger log.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Scheduler over groups. Groups without healthCheck.enabled
// are accepted but never probed.
func New(groups []*router.TargetGroup, logger log.Logger) *Scheduler {
	return &Scheduler{
		groups: groups,
		client: &http.Client{Timeout: probeTimeout},
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start launches the driver goroutine. It returns immediately; call Stop
// to shut it down.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stopCh:
				return
			}
		}
	}()
}

// Stop halts the driver and waits for the in-flight tick, if any, to
// finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) tick() {
	now := time.Now()
	for _, group := range s.groups {
		if group.HealthCheck == nil || !group.HealthCheck.Enabled {
			continue
		}
		intervalNanos := int64(group.HealthCheck.IntervalMillis) * int64(time.Millisecond)
		for _, target := range group.Targets {
			if now.UnixNano()-target.LastHealthCheckNanos() < intervalNanos {
				continue
			}
			// Stamped before the probe runs so a slow probe can't cause a
			// concurrent tick to fire a second one for the same target.
			target.MarkHealthCheckStarted(now.UnixNano())
			go s.probe(target, group.HealthCheck, group.Name)
		}
	}
}

func (s *Scheduler) probe(target *types.Target, check *types.HealthCheck, groupName string) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	url := joinURL(target.URL.String(), check.Path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		s.recordFailure(target, groupName, check)
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.recordFailure(target, groupName, check)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		s.recordSuccess(target, groupName, check)
	} else {
		s.recordFailure(target, groupName, check)
	}
}

func (s *Scheduler) recordSuccess(target *types.Target, groupName string, check *types.HealthCheck) {
	successes := target.RecordSuccess()
	if !target.Healthy() && successes >= int64(check.SuccessThreshold) {
		target.SetHealthy(true)
		if s.logger != nil {
			s.logger.Info("target recovered",
				log.String("group", groupName),
				log.String("target", target.URL.String()),
				log.Int64("consecutiveSuccesses", successes),
			)
		}
	}
}

func (s *Scheduler) recordFailure(target *types.Target, groupName string, check *types.HealthCheck) {
	failures := target.RecordFailure()
	if target.Healthy() && failures >= int64(check.FailureThreshold) {
		target.SetHealthy(false)
		if s.logger != nil {
			s.logger.Warn("target quarantined",
				log.String("group", groupName),
				log.String("target", target.URL.String()),
				log.Int64("consecutiveFailures", failures),
			)
		}
	}
}

// joinURL concatenates a target's base URL and the health-check path,
// collapsing a doubled '/' at the join and inserting one if neither side
// has it.
func joinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
