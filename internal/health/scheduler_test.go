package health

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/songzhibin97/lbgate/internal/router"
	"github.com/songzhibin97/lbgate/internal/types"
)

func newProbeTarget(t *testing.T, srv *httptest.Server) *types.Target {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", srv.URL, err)
	}
	return types.NewTarget(u, 1)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestScheduler_AllTargetsStartHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := newProbeTarget(t, srv)
	if !target.Healthy() {
		t.Fatal("newly constructed target should start healthy")
	}
}

func TestScheduler_QuarantinesAfterFailureThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	target := newProbeTarget(t, srv)
	check := &types.HealthCheck{Enabled: true, Path: "/healthz", IntervalMillis: 1, SuccessThreshold: 1, FailureThreshold: 2}
	group := &router.TargetGroup{Name: "g", Targets: []*types.Target{target}, HealthCheck: check}

	s := New([]*router.TargetGroup{group}, nil)
	s.tick()
	waitFor(t, time.Second, func() bool { return target.ConsecutiveFailures() >= 1 })
	if !target.Healthy() {
		t.Fatal("target should still be healthy below the failure threshold")
	}

	target.MarkHealthCheckStarted(0)
	s.tick()
	waitFor(t, time.Second, func() bool { return !target.Healthy() })
}

func TestScheduler_ReintegratesAfterSuccessThreshold(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	target := newProbeTarget(t, srv)
	check := &types.HealthCheck{Enabled: true, Path: "/healthz", IntervalMillis: 1, SuccessThreshold: 2, FailureThreshold: 1}
	group := &router.TargetGroup{Name: "g", Targets: []*types.Target{target}, HealthCheck: check}

	s := New([]*router.TargetGroup{group}, nil)

	s.tick()
	waitFor(t, time.Second, func() bool { return !target.Healthy() })

	healthy.Store(true)

	target.MarkHealthCheckStarted(0)
	s.tick()
	waitFor(t, time.Second, func() bool { return target.ConsecutiveSuccesses() >= 1 })
	if target.Healthy() {
		t.Fatal("target should still be quarantined below the success threshold")
	}

	target.MarkHealthCheckStarted(0)
	s.tick()
	waitFor(t, time.Second, func() bool { return target.Healthy() })
}

func TestScheduler_SkipsTargetsNotYetDue(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := newProbeTarget(t, srv)
	check := &types.HealthCheck{Enabled: true, Path: "/healthz", IntervalMillis: 60_000, SuccessThreshold: 1, FailureThreshold: 1}
	group := &router.TargetGroup{Name: "g", Targets: []*types.Target{target}, HealthCheck: check}

	s := New([]*router.TargetGroup{group}, nil)
	target.MarkHealthCheckStarted(time.Now().UnixNano())

	s.tick()
	time.Sleep(50 * time.Millisecond)
	if hits.Load() != 0 {
		t.Errorf("probe fired for a target whose interval has not elapsed")
	}
}

func TestScheduler_SkipsDisabledGroups(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := newProbeTarget(t, srv)
	group := &router.TargetGroup{Name: "g", Targets: []*types.Target{target}, HealthCheck: &types.HealthCheck{Enabled: false}}

	s := New([]*router.TargetGroup{group}, nil)
	s.tick()
	time.Sleep(50 * time.Millisecond)
	if hits.Load() != 0 {
		t.Errorf("probe fired for a group with health checks disabled")
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://10.0.0.1:8080", "/healthz", "http://10.0.0.1:8080/healthz"},
		{"http://10.0.0.1:8080/", "/healthz", "http://10.0.0.1:8080/healthz"},
		{"http://10.0.0.1:8080", "healthz", "http://10.0.0.1:8080/healthz"},
		{"http://10.0.0.1:8080/", "healthz", "http://10.0.0.1:8080/healthz"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
