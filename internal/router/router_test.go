package router

import (
	"net/url"
	"testing"

	"github.com/songzhibin97/lbgate/internal/types"
)

func mustGroup(name, prefix string) *TargetGroup {
	u, _ := url.Parse("http://127.0.0.1:9000")
	return &TargetGroup{
		Name:       name,
		PathPrefix: prefix,
		Targets:    []*types.Target{types.NewTarget(u, 1)},
	}
}

func TestRouter_Match_LongestPrefix(t *testing.T) {
	r := New([]*TargetGroup{
		mustGroup("api", "/api/"),
		mustGroup("api-v2", "/api/v2/"),
		mustGroup("root", "/"),
	})

	tests := []struct {
		path string
		want string
	}{
		{"/api/v2/users", "api-v2"},
		{"/api/v1/users", "api"},
		{"/other", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			g, ok := r.Match(tt.path)
			if !ok {
				t.Fatalf("Match(%q) returned no match", tt.path)
			}
			if g.Name != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.path, g.Name, tt.want)
			}
		})
	}
}

func TestRouter_Match_NoRuleMatches(t *testing.T) {
	r := New([]*TargetGroup{mustGroup("echo", "/echo/")})

	_, ok := r.Match("/nope")
	if ok {
		t.Error("Match(/nope) should not match /echo/")
	}
}

func TestTargetGroup_GetHealthyTargets_PreservesOrder(t *testing.T) {
	u1, _ := url.Parse("http://10.0.0.1:80")
	u2, _ := url.Parse("http://10.0.0.2:80")
	u3, _ := url.Parse("http://10.0.0.3:80")
	t1, t2, t3 := types.NewTarget(u1, 1), types.NewTarget(u2, 1), types.NewTarget(u3, 1)
	t2.SetHealthy(false)

	g := &TargetGroup{Targets: []*types.Target{t1, t2, t3}}
	healthy := g.GetHealthyTargets()

	if len(healthy) != 2 || healthy[0] != t1 || healthy[1] != t3 {
		t.Errorf("GetHealthyTargets() = %v, want [t1, t3]", healthy)
	}
}
