// Package config loads and validates application configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig             `yaml:"server"`
	Identity      IdentityConfig           `yaml:"identity"`
	Services      map[string]ServiceConfig `yaml:"services"`
	Form          FormConfig               `yaml:"form"`
	Lookup        LookupConfig             `yaml:"lookup"`
	Session       SessionConfig            `yaml:"session"`
	Observability ObservabilityConfig      `yaml:"observability"`
}

// Well-known service IDs expected in the Services map.
const (
	ServiceORCID      = "orcid"
	ServiceROR        = "ror"
	ServiceVocabulary = "vocabulary"
	ServiceRegistry   = "registry"
)

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// IdentityConfig describes JWT validation settings.
type IdentityConfig struct {
	Issuer       string        `yaml:"issuer"`
	Audience     string        `yaml:"audience"`
	JWKSURL      string        `yaml:"jwks_url"`
	JWKSCacheTTL time.Duration `yaml:"jwks_cache_ttl"`
	Algorithms   []string      `yaml:"algorithms"`
}

// ServiceConfig describes one backend collaborator (ORCID, ROR, vocabulary
// server, registry).
type ServiceConfig struct {
	BaseURL        string               `yaml:"base_url"`
	Timeout        time.Duration        `yaml:"timeout"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Retry          RetryConfig          `yaml:"retry"`
}

// CircuitBreakerConfig describes circuit breaker settings per service.
type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// RetryConfig describes retry settings per service. Retries apply to
// idempotent requests only unless IdempotentOnly is disabled.
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	BackoffInitial    time.Duration `yaml:"backoff_initial"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	IdempotentOnly    bool          `yaml:"idempotent_only"`
}

// FormConfig carries the list limits and role vocabularies injected into
// the form engine.
type FormConfig struct {
	MaxTitles          int      `yaml:"max_titles"`
	MaxLicenses        int      `yaml:"max_licenses"`
	MaxDates           int      `yaml:"max_dates"`
	PersonRoles        []string `yaml:"person_roles"`
	InstitutionRoles   []string `yaml:"institution_roles"`
	MSLTriggerKeywords []string `yaml:"msl_trigger_keywords"`
}

// LookupConfig describes debounce windows for the external lookups.
type LookupConfig struct {
	ORCIDDebounce time.Duration `yaml:"orcid_debounce"`
}

// SessionConfig describes the draft session store.
type SessionConfig struct {
	Driver        string        `yaml:"driver"` // "memory" or "postgres"
	DSNEnv        string        `yaml:"dsn_env"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxOpenConns  int           `yaml:"max_open_conns"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		Identity: IdentityConfig{
			JWKSCacheTTL: 1 * time.Hour,
			Algorithms:   []string{"RS256"},
		},
		Services: map[string]ServiceConfig{},
		Form: FormConfig{
			MaxTitles:   10,
			MaxLicenses: 10,
			MaxDates:    11,
			PersonRoles: []string{
				"ContactPerson", "DataCollector", "DataCurator", "DataManager",
				"Editor", "ProjectLeader", "ProjectManager", "ProjectMember",
				"RelatedPerson", "Researcher", "RightsHolder", "Supervisor",
				"WorkPackageLeader", "Other",
			},
			InstitutionRoles: []string{
				"DataCollector", "DataCurator", "DataManager", "Distributor",
				"HostingInstitution", "RegistrationAgency", "RegistrationAuthority",
				"ResearchGroup", "RightsHolder", "Sponsor", "Other",
			},
			MSLTriggerKeywords: []string{"msl", "epos", "multi-scale laboratories"},
		},
		Lookup: LookupConfig{
			ORCIDDebounce: 800 * time.Millisecond,
		},
		Session: SessionConfig{
			Driver:        "memory",
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
			MaxOpenConns:  10,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Identity.Issuer == "" {
		errs = append(errs, "identity.issuer is required")
	}
	if c.Identity.JWKSURL == "" {
		errs = append(errs, "identity.jwks_url is required")
	}
	for _, id := range []string{ServiceORCID, ServiceROR, ServiceVocabulary, ServiceRegistry} {
		if svc, ok := c.Services[id]; !ok || svc.BaseURL == "" {
			errs = append(errs, fmt.Sprintf("services.%s.base_url is required", id))
		}
	}
	switch c.Session.Driver {
	case "memory", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("session.driver %q is not supported", c.Session.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads CURATE_* environment variables and overrides
// config values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CURATE_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CURATE_IDENTITY_ISSUER"); v != "" {
		cfg.Identity.Issuer = v
	}
	if v := os.Getenv("CURATE_IDENTITY_JWKS_URL"); v != "" {
		cfg.Identity.JWKSURL = v
	}
	if v := os.Getenv("CURATE_IDENTITY_AUDIENCE"); v != "" {
		cfg.Identity.Audience = v
	}
	if v := os.Getenv("CURATE_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("CURATE_SESSION_DRIVER"); v != "" {
		cfg.Session.Driver = v
	}
}
