package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads configFile (if non-empty) as YAML into the default Config,
// overlays recognised environment variables, validates the result, and
// returns it. A malformed file, bad env value, or failed validation is
// fatal to the caller — Load never returns a partially-usable Config.
func Load(configFile string) (*Config, error) {
	cfg := defaults()

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}
	applyGroupDefaults(cfg)

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnv applies the environment-variable overrides named in spec.md
// §6. Only LISTENER_PORT, CONNECTION_TIMEOUT, LOAD_BALANCING_ALGORITHM,
// HEADER_CONVENTION_ENABLE, RETRY_ENABLE, RETRY_BACKOFF and RETRY_COUNT are
// recognised; target groups are file-only.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("LISTENER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LISTENER_PORT: %w", err)
		}
		cfg.ListenerPort = port
	}
	if v := os.Getenv("CONNECTION_TIMEOUT"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONNECTION_TIMEOUT: %w", err)
		}
		cfg.ConnectionTimeoutMillis = ms
	}
	if v := os.Getenv("LOAD_BALANCING_ALGORITHM"); v != "" {
		cfg.Algorithm = strings.ToUpper(v)
	}
	if v := os.Getenv("HEADER_CONVENTION_ENABLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HEADER_CONVENTION_ENABLE: %w", err)
		}
		cfg.HeaderConventionEnabled = b
	}
	if v := os.Getenv("RETRY_ENABLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RETRY_ENABLE: %w", err)
		}
		cfg.RetryEnabled = b
	}
	if v := os.Getenv("RETRY_BACKOFF"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RETRY_BACKOFF: %w", err)
		}
		cfg.RetryBackoffMillis = ms
	}
	if v := os.Getenv("RETRY_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RETRY_COUNT: %w", err)
		}
		cfg.RetryCount = n
	}
	return nil
}

// applyGroupDefaults fills in the per-group health-check and weight
// defaults from spec.md §6 that YAML unmarshalling leaves as zero values.
func applyGroupDefaults(cfg *Config) {
	for name, group := range cfg.TargetGroups {
		if group.HealthCheck.Path == "" {
			group.HealthCheck.Path = "/"
		}
		if group.HealthCheck.IntervalMillis == 0 {
			group.HealthCheck.IntervalMillis = 5000
		}
		if group.HealthCheck.SuccessThreshold == 0 {
			group.HealthCheck.SuccessThreshold = 1
		}
		if group.HealthCheck.FailureThreshold == 0 {
			group.HealthCheck.FailureThreshold = 3
		}
		for i, target := range group.Targets {
			if target.Weight == 0 {
				group.Targets[i].Weight = 1
			}
		}
		cfg.TargetGroups[name] = group
	}
}

func validate(cfg *Config) error {
	if !validAlgorithm(cfg.Algorithm) {
		return fmt.Errorf("invalid default algorithm: %s", cfg.Algorithm)
	}
	if cfg.ConnectionTimeoutMillis <= 0 {
		return fmt.Errorf("connectionTimeoutMillis must be positive")
	}
	if cfg.RetryCount < 0 {
		return fmt.Errorf("retryCount cannot be negative")
	}
	if cfg.RetryBackoffMillis < 0 {
		return fmt.Errorf("retryBackoffMillis cannot be negative")
	}
	if len(cfg.TargetGroups) == 0 {
		return fmt.Errorf("at least one target group is required")
	}

	seenPaths := make(map[string]string, len(cfg.TargetGroups))
	for name, group := range cfg.TargetGroups {
		if !strings.HasPrefix(group.Path, "/") {
			return fmt.Errorf("target group %s: path must start with '/'", name)
		}
		if other, ok := seenPaths[group.Path]; ok {
			return fmt.Errorf("target groups %s and %s: duplicate path %s", other, name, group.Path)
		}
		seenPaths[group.Path] = name
		algorithm := group.Algorithm
		if algorithm == "" {
			algorithm = cfg.Algorithm
		}
		if !validAlgorithm(algorithm) {
			return fmt.Errorf("target group %s: invalid algorithm %s", name, algorithm)
		}
		if len(group.Targets) == 0 {
			return fmt.Errorf("target group %s: must have at least one target", name)
		}
		for i, target := range group.Targets {
			if target.URL == "" {
				return fmt.Errorf("target group %s: target %d: url is required", name, i)
			}
			if target.Weight < 0 {
				return fmt.Errorf("target group %s: target %d: weight cannot be negative", name, i)
			}
		}
		if group.HealthCheck.Enabled {
			if !strings.HasPrefix(group.HealthCheck.Path, "/") && group.HealthCheck.Path != "" {
				return fmt.Errorf("target group %s: healthCheck.path must start with '/'", name)
			}
			if group.HealthCheck.IntervalMillis < 0 {
				return fmt.Errorf("target group %s: healthCheck.interval cannot be negative", name)
			}
		}
	}

	return nil
}
