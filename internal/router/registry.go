package router

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/songzhibin97/lbgate/internal/config"
	"github.com/songzhibin97/lbgate/internal/types"
)

// Build turns a validated config.Config's target groups into TargetGroups,
// expanding each configured target's host to its IPv4 addresses via
// resolver (one Target per address). The returned slice owns its Targets;
// nothing else constructs or destroys them for the life of the process.
func Build(ctx context.Context, cfg *config.Config, resolver *net.Resolver) ([]*TargetGroup, error) {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	groups := make([]*TargetGroup, 0, len(cfg.TargetGroups))
	for name, groupCfg := range cfg.TargetGroups {
		algorithm := groupCfg.Algorithm
		if algorithm == "" {
			algorithm = cfg.Algorithm
		}

		var healthCheck *types.HealthCheck
		if groupCfg.HealthCheck.Enabled {
			healthCheck = &types.HealthCheck{
				Enabled:          true,
				Path:             groupCfg.HealthCheck.Path,
				IntervalMillis:   groupCfg.HealthCheck.IntervalMillis,
				SuccessThreshold: groupCfg.HealthCheck.SuccessThreshold,
				FailureThreshold: groupCfg.HealthCheck.FailureThreshold,
			}
		}

		var targets []*types.Target
		for _, targetCfg := range groupCfg.Targets {
			expanded, err := expandTarget(ctx, resolver, targetCfg.URL, targetCfg.Weight)
			if err != nil {
				return nil, fmt.Errorf("target group %s: %w", name, err)
			}
			targets = append(targets, expanded...)
		}

		groups = append(groups, &TargetGroup{
			Name:          name,
			PathPrefix:    groupCfg.Path,
			AlgorithmName: algorithm,
			Targets:       targets,
			PathRewrite:   groupCfg.PathRewrite,
			HealthCheck:   healthCheck,
		})
	}

	return groups, nil
}

// expandTarget resolves rawURL's host to its IPv4 addresses and returns one
// Target per address, each an absolute http URL with the literal IPv4 host
// substituted in and the original path prefix preserved.
func expandTarget(ctx context.Context, resolver *net.Resolver, rawURL string, weight int) ([]*types.Target, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse target url %q: %w", rawURL, err)
	}

	host := parsed.Hostname()
	if ip := net.ParseIP(host); ip != nil && ip.To4() != nil {
		return []*types.Target{types.NewTarget(parsed, weight)}, nil
	}

	ips, err := resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, fmt.Errorf("resolve target host %q: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("target host %q has no IPv4 addresses", host)
	}

	targets := make([]*types.Target, 0, len(ips))
	for _, ip := range ips {
		u := *parsed
		if port := parsed.Port(); port != "" {
			u.Host = net.JoinHostPort(ip.String(), port)
		} else {
			u.Host = ip.String()
		}
		targets = append(targets, types.NewTarget(&u, weight))
	}
	return targets, nil
}
