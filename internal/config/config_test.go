package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resolve.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad_Defaults verifies defaults without a file.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FailurePolicy != PolicyPropagate || cfg.MasksFailures() {
		t.Fatalf("expected propagate policy by default, got %q", cfg.FailurePolicy)
	}
	if cfg.Log.Level != "info" || cfg.Log.Console {
		t.Fatalf("unexpected log defaults %#v", cfg.Log)
	}
	if len(cfg.Validation.RequiredArgs) != 0 || cfg.Batch.Parallel {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
}

// TestLoad_YAMLFile verifies file values are decoded.
func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfig(t, `
failure_policy: MASK
opaque_error_type: InternalError
validation:
  required_args: [id, tenant]
batch:
  parallel: true
log:
  level: debug
  console: true
`)

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.MasksFailures() || cfg.OpaqueErrorType != "InternalError" {
		t.Fatalf("unexpected policy settings %#v", cfg)
	}
	if strings.Join(cfg.Validation.RequiredArgs, ",") != "id,tenant" {
		t.Fatalf("unexpected required args %#v", cfg.Validation.RequiredArgs)
	}
	if !cfg.Batch.Parallel || cfg.Log.Level != "debug" || !cfg.Log.Console {
		t.Fatalf("unexpected settings %#v", cfg)
	}
}

// TestLoad_EnvOverridesFile verifies RESOLVE_ENVELOPE_* variables win.
func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "failure_policy: propagate\nlog:\n  level: info\n")
	t.Setenv("RESOLVE_ENVELOPE_FAILURE_POLICY", "mask")
	t.Setenv("RESOLVE_ENVELOPE_LOG_LEVEL", "error")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.MasksFailures() {
		t.Fatalf("expected env to select mask policy, got %q", cfg.FailurePolicy)
	}
	if cfg.Log.Level != "error" {
		t.Fatalf("expected env log level, got %q", cfg.Log.Level)
	}
}

// TestLoad_InvalidPolicy verifies unknown policies are rejected.
func TestLoad_InvalidPolicy(t *testing.T) {
	path := writeConfig(t, "failure_policy: swallow\n")

	_, err := Load(viper.New(), path)
	if err == nil || !strings.Contains(err.Error(), "failure_policy") {
		t.Fatalf("expected failure_policy error, got %v", err)
	}
}

// TestLoad_MissingFile verifies an unreadable file is reported with its path.
func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(nil, path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected read error naming %s, got %v", path, err)
	}
}

// TestValidate_RejectsBlankRequiredArg verifies blank argument names are invalid.
func TestValidate_RejectsBlankRequiredArg(t *testing.T) {
	cfg := Config{
		FailurePolicy: PolicyPropagate,
		Log:           LogConfig{Level: "info"},
		Validation:    ValidationConfig{RequiredArgs: []string{"id", " "}},
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "required_args[1]") {
		t.Fatalf("expected required_args error, got %v", err)
	}
}
