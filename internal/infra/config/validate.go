package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...interface{}) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a
// *ValidationError when one or more problems are found, allowing callers
// to report all issues at once.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateEngine(cfg, ve)
	validateLLM(cfg, ve)
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateServer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateEngine(cfg *Config, ve *ValidationError) {
	if cfg.Engine.MaxConcurrent <= 0 {
		ve.Add("engine.max_concurrent must be > 0")
	}
	if cfg.Engine.MaxRounds <= 0 {
		ve.Add("engine.max_rounds must be > 0")
	}
	if cfg.Engine.Temperature < 0 || cfg.Engine.Temperature > 2 {
		ve.Add("engine.temperature must be within [0, 2]")
	}
	if cfg.Engine.SynthesisTemperature < 0 || cfg.Engine.SynthesisTemperature > 2 {
		ve.Add("engine.synthesis_temperature must be within [0, 2]")
	}
	for i, m := range cfg.Engine.DefaultModels {
		if !isModelID(m) {
			ve.Add("engine.default_models[%d] %q must be \"<vendor>/<model>\"", i, m)
		}
	}
}

// knownVendors are the vendors the composition root can construct without
// extra hints. Unknown vendors are still allowed when they point at an
// OpenAI-compatible base URL.
var knownVendors = map[string]bool{
	"openai":     true,
	"anthropic":  true,
	"google":     true,
	"deepseek":   true,
	"ollama":     true,
	"openrouter": true,
	"bedrock":    true,
}

// keylessVendors need no API key: Ollama is unauthenticated, Bedrock uses
// the AWS credential chain.
var keylessVendors = map[string]bool{
	"ollama":  true,
	"bedrock": true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	seen := make(map[string]bool)
	for i, p := range cfg.LLM.Providers {
		if p.Vendor == "" {
			ve.Add("llm.providers[%d].vendor must not be empty", i)
			continue
		}
		if seen[p.Vendor] {
			ve.Add("llm.providers[%d]: duplicate vendor %q", i, p.Vendor)
		}
		seen[p.Vendor] = true

		if !knownVendors[p.Vendor] && p.BaseURL == "" {
			ve.Add("llm.providers[%d] (%s): unknown vendor needs base_url for an OpenAI-compatible endpoint", i, p.Vendor)
		}
		if p.APIKey == "" && !keylessVendors[p.Vendor] {
			ve.Add("llm.providers[%d] (%s): api_key is empty (set via ENSEMBLE_LLM_PROVIDER_%s_API_KEY)",
				i, p.Vendor, strings.ToUpper(p.Vendor))
		}
	}

	for from, to := range cfg.LLM.Fallbacks {
		if !isModelID(from) {
			ve.Add("llm.fallbacks: key %q must be \"<vendor>/<model>\"", from)
		}
		if !isModelID(to) {
			ve.Add("llm.fallbacks[%s]: value %q must be \"<vendor>/<model>\"", from, to)
		}
		if from == to {
			ve.Add("llm.fallbacks[%s]: a model cannot fall back to itself", from)
		}
	}

	if cfg.LLM.RateLimit.Enabled && cfg.LLM.RateLimit.RPS <= 0 {
		ve.Add("llm.rate_limit.rps must be > 0 when rate limiting is enabled")
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLogLevels[cfg.Logger.Level] {
		ve.Add("logger.level %q is invalid (want: debug, info, warn, error)", cfg.Logger.Level)
	}
	if cfg.Logger.Format != "text" && cfg.Logger.Format != "json" {
		ve.Add("logger.format %q is invalid (want: text, json)", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	if cfg.Tracer.Exporter != "noop" && cfg.Tracer.Exporter != "stdout" {
		ve.Add("tracer.exporter %q is invalid (want: noop, stdout)", cfg.Tracer.Exporter)
	}
}

func validateServer(cfg *Config, ve *ValidationError) {
	switch cfg.Server.Transport {
	case "stdio":
	case "http":
		if cfg.Server.Addr == "" {
			ve.Add("server.addr must not be empty for the http transport")
		}
	default:
		ve.Add("server.transport %q is invalid (want: stdio, http)", cfg.Server.Transport)
	}
	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RPS <= 0 {
		ve.Add("server.rate_limit.rps must be > 0 when rate limiting is enabled")
	}
}

// isModelID reports whether s looks like "<vendor>/<model>". The domain
// package owns the authoritative parser; this duplicate keeps config free
// of domain imports.
func isModelID(s string) bool {
	vendor, name, ok := strings.Cut(s, "/")
	return ok && vendor != "" && name != ""
}
