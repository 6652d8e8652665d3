package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
server:
  port: 9090
  read_timeout: 15s
identity:
  issuer: https://auth.example.com
  audience: curate
  jwks_url: https://auth.example.com/.well-known/jwks.json
  algorithms: [RS256, ES256]
services:
  orcid:
    base_url: https://orcid.internal
    timeout: 10s
    circuit_breaker:
      failure_threshold: 5
      success_threshold: 2
      timeout: 30s
  ror:
    base_url: https://ror.internal
  vocabulary:
    base_url: https://vocab.internal
  registry:
    base_url: https://registry.internal
session:
  driver: memory
  ttl: 12h
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Identity.Issuer != "https://auth.example.com" {
		t.Errorf("Identity.Issuer = %q", cfg.Identity.Issuer)
	}
	if len(cfg.Identity.Algorithms) != 2 {
		t.Errorf("Identity.Algorithms = %v, want 2 entries", cfg.Identity.Algorithms)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Errorf("Session.TTL = %v, want 12h", cfg.Session.TTL)
	}

	svc, ok := cfg.Services[ServiceORCID]
	if !ok {
		t.Fatal("Services[orcid] not found")
	}
	if svc.BaseURL != "https://orcid.internal" {
		t.Errorf("orcid.BaseURL = %q", svc.BaseURL)
	}
	if svc.Timeout != 10*time.Second {
		t.Errorf("orcid.Timeout = %v, want 10s", svc.Timeout)
	}
	if svc.CircuitBreaker.FailureThreshold != 5 {
		t.Errorf("orcid.CircuitBreaker.FailureThreshold = %d, want 5", svc.CircuitBreaker.FailureThreshold)
	}
}

func TestLoad_keepsDefaultsForUnsetFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HandlerTimeout != 25*time.Second {
		t.Errorf("HandlerTimeout = %v, want default 25s", cfg.Server.HandlerTimeout)
	}
	if cfg.Lookup.ORCIDDebounce != 800*time.Millisecond {
		t.Errorf("ORCIDDebounce = %v, want default 800ms", cfg.Lookup.ORCIDDebounce)
	}
	if cfg.Form.MaxTitles != 10 {
		t.Errorf("MaxTitles = %d, want default 10", cfg.Form.MaxTitles)
	}
}

func TestLoad_missing_file(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load() with missing file should return error")
	}
}

func TestLoad_missing_identity(t *testing.T) {
	content := `
services:
  orcid: {base_url: https://orcid.internal}
  ror: {base_url: https://ror.internal}
  vocabulary: {base_url: https://vocab.internal}
  registry: {base_url: https://registry.internal}
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() with missing identity should return error")
	}
}

func TestLoad_missing_service(t *testing.T) {
	content := `
identity:
  issuer: https://auth.example.com
  jwks_url: https://auth.example.com/.well-known/jwks.json
services:
  orcid: {base_url: https://orcid.internal}
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() with missing services should return error")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Port != 8080 {
		t.Errorf("default Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("default LogLevel = %q, want info", cfg.Observability.LogLevel)
	}
	if cfg.Session.Driver != "memory" {
		t.Errorf("default Session.Driver = %q, want memory", cfg.Session.Driver)
	}
	if len(cfg.Form.PersonRoles) == 0 {
		t.Error("default PersonRoles should not be empty")
	}
	if len(cfg.Form.MSLTriggerKeywords) == 0 {
		t.Error("default MSLTriggerKeywords should not be empty")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CURATE_SERVER_PORT", "3000")
	t.Setenv("CURATE_IDENTITY_ISSUER", "https://env-issuer.com")
	t.Setenv("CURATE_IDENTITY_AUDIENCE", "env-audience")
	t.Setenv("CURATE_OBSERVABILITY_LOG_LEVEL", "error")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000 (env override)", cfg.Server.Port)
	}
	if cfg.Identity.Issuer != "https://env-issuer.com" {
		t.Errorf("Identity.Issuer = %q, want env override", cfg.Identity.Issuer)
	}
	if cfg.Identity.Audience != "env-audience" {
		t.Errorf("Identity.Audience = %q, want env override", cfg.Identity.Audience)
	}
	if cfg.Observability.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error (env override)", cfg.Observability.LogLevel)
	}
}

func TestValidate_invalid_port(t *testing.T) {
	cfg := Defaults()
	cfg.Identity.Issuer = "https://auth.example.com"
	cfg.Identity.JWKSURL = "https://auth.example.com/.well-known/jwks.json"
	for _, id := range []string{ServiceORCID, ServiceROR, ServiceVocabulary, ServiceRegistry} {
		cfg.Services[id] = ServiceConfig{BaseURL: "https://" + id + ".internal"}
	}
	cfg.Server.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with port 0 should return error")
	}
}

func TestValidate_unknown_session_driver(t *testing.T) {
	cfg := Defaults()
	cfg.Identity.Issuer = "https://auth.example.com"
	cfg.Identity.JWKSURL = "https://auth.example.com/.well-known/jwks.json"
	for _, id := range []string{ServiceORCID, ServiceROR, ServiceVocabulary, ServiceRegistry} {
		cfg.Services[id] = ServiceConfig{BaseURL: "https://" + id + ".internal"}
	}
	cfg.Session.Driver = "redis"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() with unknown driver should return error")
	}
}
