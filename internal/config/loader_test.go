package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lbgate.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const minimalYAML = `
targetGroups:
  echo:
    path: /echo/
    targets:
      - url: http://127.0.0.1:9001
`

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Algorithm != AlgorithmRoundRobin {
		t.Errorf("Algorithm = %s, want %s", cfg.Algorithm, AlgorithmRoundRobin)
	}
	if cfg.ConnectionTimeoutMillis != 2000 {
		t.Errorf("ConnectionTimeoutMillis = %d, want 2000", cfg.ConnectionTimeoutMillis)
	}
	if !cfg.HeaderConventionEnabled {
		t.Error("HeaderConventionEnabled should default true")
	}
	if cfg.RetryEnabled {
		t.Error("RetryEnabled should default false")
	}

	echo := cfg.TargetGroups["echo"]
	if echo.Targets[0].Weight != 1 {
		t.Errorf("target weight = %d, want default 1", echo.Targets[0].Weight)
	}
	if echo.HealthCheck.Path != "/" {
		t.Errorf("healthCheck.Path = %q, want default /", echo.HealthCheck.Path)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)

	t.Setenv("LISTENER_PORT", "9999")
	t.Setenv("CONNECTION_TIMEOUT", "5000")
	t.Setenv("LOAD_BALANCING_ALGORITHM", "weighted")
	t.Setenv("RETRY_ENABLE", "true")
	t.Setenv("RETRY_COUNT", "5")
	t.Setenv("RETRY_BACKOFF", "250")
	t.Setenv("HEADER_CONVENTION_ENABLE", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenerPort != 9999 {
		t.Errorf("ListenerPort = %d, want 9999", cfg.ListenerPort)
	}
	if cfg.ConnectionTimeoutMillis != 5000 {
		t.Errorf("ConnectionTimeoutMillis = %d, want 5000", cfg.ConnectionTimeoutMillis)
	}
	if cfg.Algorithm != AlgorithmWeighted {
		t.Errorf("Algorithm = %s, want %s", cfg.Algorithm, AlgorithmWeighted)
	}
	if !cfg.RetryEnabled || cfg.RetryCount != 5 || cfg.RetryBackoffMillis != 250 {
		t.Errorf("retry overrides not applied: %+v", cfg)
	}
	if cfg.HeaderConventionEnabled {
		t.Error("HeaderConventionEnabled should be overridden to false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with a missing file should return an error")
	}
}

func TestLoad_NoTargetGroups(t *testing.T) {
	path := writeTempConfig(t, "algorithm: ROUND_ROBIN\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() with no target groups should return an error")
	}
}

func TestLoad_InvalidAlgorithm(t *testing.T) {
	path := writeTempConfig(t, minimalYAML)
	t.Setenv("LOAD_BALANCING_ALGORITHM", "NOT_A_REAL_ALGORITHM")

	if _, err := Load(path); err == nil {
		t.Error("Load() with an invalid algorithm should return an error")
	}
}

func TestLoad_PathMustStartWithSlash(t *testing.T) {
	path := writeTempConfig(t, `
targetGroups:
  bad:
    path: echo/
    targets:
      - url: http://127.0.0.1:9001
`)
	if _, err := Load(path); err == nil {
		t.Error("Load() with a path not starting with '/' should return an error")
	}
}
