package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	LLM    LLMConfig    `yaml:"llm"`
	Logger LoggerConfig `yaml:"logger"`
	Tracer TracerConfig `yaml:"tracer"`
	Server ServerConfig `yaml:"server"`
}

// EngineConfig holds orchestration engine settings.
type EngineConfig struct {
	// DefaultModels answer requests that name no models of their own,
	// as "<vendor>/<model>" identifiers.
	DefaultModels []string `yaml:"default_models"`
	// MaxConcurrent bounds parallel model calls in flight at once.
	MaxConcurrent int `yaml:"max_concurrent"`
	// MaxRounds bounds debate iterations.
	MaxRounds int `yaml:"max_rounds"`
	// Temperature for regular model calls; zero leaves vendor defaults.
	Temperature float64 `yaml:"temperature"`
	// SynthesisTemperature for merge and analysis calls.
	SynthesisTemperature float64 `yaml:"synthesis_temperature"`
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
	// Fallbacks maps a model identifier to the single alternative tried
	// when it fails retryably, e.g. "openai/gpt-4o" -> "anthropic/claude-sonnet-4-5".
	Fallbacks      map[string]string    `yaml:"fallbacks,omitempty"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
}

// ProviderConfig holds settings for a single LLM provider, keyed by the
// vendor prefix of model identifiers.
type ProviderConfig struct {
	Vendor      string        `yaml:"vendor"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	Model       string        `yaml:"model,omitempty"`
	Region      string        `yaml:"region,omitempty"`
	ConnTimeout time.Duration `yaml:"conn_timeout,omitempty"`
	RespTimeout time.Duration `yaml:"resp_timeout,omitempty"`
	Pool        PoolConfig    `yaml:"pool,omitempty"`
}

// PoolConfig holds HTTP connection pool settings for LLM providers.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// CircuitBreakerConfig holds circuit breaker settings for LLM providers.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// RateLimitConfig holds client-side request throttling settings.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// ServerConfig holds MCP server settings. RateLimit throttles HTTP clients
// per peer address and is ignored on stdio.
type ServerConfig struct {
	Transport string          `yaml:"transport"` // "stdio" or "http"
	Addr      string          `yaml:"addr"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxConcurrent:        5,
			MaxRounds:            3,
			SynthesisTemperature: 0.3,
		},
		LLM: LLMConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
		Server: ServerConfig{
			Transport: "stdio",
			Addr:      ":8421",
		},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file is not an error: defaults plus environment cover the zero-config
// case.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// wellKnownKeyEnvs maps vendor names to the conventional API key env vars
// their SDKs document.
var wellKnownKeyEnvs = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"google":     "GEMINI_API_KEY",
	"deepseek":   "DEEPSEEK_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// ApplyEnvOverrides maps ENSEMBLE_* env vars to config fields. Provider
// API keys also fall back to each vendor's conventional variable
// (OPENAI_API_KEY and friends) when the config leaves them empty.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ENSEMBLE_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("ENSEMBLE_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("ENSEMBLE_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("ENSEMBLE_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("ENSEMBLE_ENGINE_DEFAULT_MODELS"); v != "" {
		cfg.Engine.DefaultModels = splitAndTrim(v, ",")
	}
	if v := os.Getenv("ENSEMBLE_ENGINE_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Engine.MaxConcurrent = n
		}
	}
	if v := os.Getenv("ENSEMBLE_ENGINE_MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Engine.MaxRounds = n
		}
	}
	if v := os.Getenv("ENSEMBLE_ENGINE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Engine.Temperature = f
		}
	}
	if v := os.Getenv("ENSEMBLE_ENGINE_SYNTHESIS_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.Engine.SynthesisTemperature = f
		}
	}
	if v := os.Getenv("ENSEMBLE_SERVER_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("ENSEMBLE_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	// Per-provider API key overrides: ENSEMBLE_LLM_PROVIDER_<VENDOR>_API_KEY
	// wins, then the vendor's conventional variable fills remaining gaps.
	for i := range cfg.LLM.Providers {
		p := &cfg.LLM.Providers[i]
		envKey := fmt.Sprintf("ENSEMBLE_LLM_PROVIDER_%s_API_KEY", strings.ToUpper(p.Vendor))
		if v := os.Getenv(envKey); v != "" {
			p.APIKey = v
			continue
		}
		if p.APIKey != "" {
			continue
		}
		if wellKnown, ok := wellKnownKeyEnvs[p.Vendor]; ok {
			if v := os.Getenv(wellKnown); v != "" {
				p.APIKey = v
			}
		}
	}
}

// splitAndTrim splits s by sep and trims whitespace from each element.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validatePermissions checks the config file has restrictive permissions.
// API keys may live in the file, so group/other write bits are rejected.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	// Allow 0600 and 0644 (readable by others but not writable).
	if mode&0o077 > 0o044 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
