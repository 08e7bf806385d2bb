// Package config defines the lbgate configuration tree and loads it from
// a YAML file overlaid with environment-variable overrides.
package config

// Config is the root of the lbConfig tree.
type Config struct {
	Algorithm               string                      `yaml:"algorithm"`
	ConnectionTimeoutMillis int                         `yaml:"connectionTimeoutMillis"`
	HeaderConventionEnabled bool                        `yaml:"headerConventionEnabled"`
	RetryEnabled            bool                        `yaml:"retryEnabled"`
	RetryBackoffMillis      int                         `yaml:"retryBackoffMillis"`
	RetryCount              int                         `yaml:"retryCount"`
	ListenerPort            int                         `yaml:"listenerPort"`
	TargetGroups            map[string]TargetGroupConfig `yaml:"targetGroups"`
}

// TargetGroupConfig is one entry under targetGroups.
type TargetGroupConfig struct {
	Path        string            `yaml:"path"`
	Algorithm   string            `yaml:"algorithm"`
	PathRewrite string            `yaml:"pathRewrite"`
	HealthCheck HealthCheckConfig `yaml:"healthCheck"`
	Targets     []TargetConfig    `yaml:"targets"`
}

// HealthCheckConfig mirrors types.HealthCheck, YAML-shaped.
type HealthCheckConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Path             string `yaml:"path"`
	IntervalMillis   int    `yaml:"interval"`
	SuccessThreshold int    `yaml:"successThreshold"`
	FailureThreshold int    `yaml:"failureThreshold"`
}

// TargetConfig is one backend entry before DNS expansion.
type TargetConfig struct {
	URL    string `yaml:"url"`
	Weight int    `yaml:"weight"`
}

// Algorithm name constants, the only valid values for Algorithm fields.
const (
	AlgorithmRoundRobin = "ROUND_ROBIN"
	AlgorithmWeighted   = "WEIGHTED"
	AlgorithmSticky     = "STICKY"
	AlgorithmLRT        = "LRT"
)

func validAlgorithm(name string) bool {
	switch name {
	case AlgorithmRoundRobin, AlgorithmWeighted, AlgorithmSticky, AlgorithmLRT:
		return true
	default:
		return false
	}
}

// defaults returns the configuration lbgate starts with before any file or
// environment overlay is applied.
func defaults() *Config {
	return &Config{
		Algorithm:               AlgorithmRoundRobin,
		ConnectionTimeoutMillis: 2000,
		HeaderConventionEnabled: true,
		RetryEnabled:            false,
		RetryBackoffMillis:      100,
		RetryCount:              3,
		ListenerPort:            8080,
		TargetGroups:            map[string]TargetGroupConfig{},
	}
}
