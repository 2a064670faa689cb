package domain

import (
	"fmt"
	"strings"
)

// Vendor identifies the backend a model identifier is routed to. The
// provider registry is keyed by Vendor and built once at startup; resolution
// never parses vendor semantics beyond this prefix.
type Vendor string

// Known vendors. Configuration may introduce others; the registry accepts
// any non-empty vendor key.
const (
	VendorOpenAI     Vendor = "openai"
	VendorAnthropic  Vendor = "anthropic"
	VendorGoogle     Vendor = "google"
	VendorDeepSeek   Vendor = "deepseek"
	VendorOllama     Vendor = "ollama"
	VendorOpenRouter Vendor = "openrouter"
	VendorBedrock    Vendor = "bedrock"
)

// ModelID names a specific backend model, namespaced by vendor:
// "<vendor>/<model-name>". The engine treats it as an atomic key; only the
// vendor prefix is ever interpreted, for routing.
type ModelID string

// ParseModelID splits a model identifier into its vendor prefix and the
// wire-level model name passed to the provider. The model name may itself
// contain slashes (OpenRouter-style identifiers).
func ParseModelID(id ModelID) (Vendor, string, error) {
	s := string(id)
	vendor, name, ok := strings.Cut(s, "/")
	if !ok || vendor == "" || name == "" {
		return "", "", fmt.Errorf("%w: model identifier %q must be \"<vendor>/<model>\"", ErrInvalidRequest, s)
	}
	return Vendor(vendor), name, nil
}

// Vendor returns the vendor prefix, or "" when the identifier is malformed.
func (id ModelID) Vendor() Vendor {
	v, _, err := ParseModelID(id)
	if err != nil {
		return ""
	}
	return v
}

// Name returns the wire-level model name, or "" when malformed.
func (id ModelID) Name() string {
	_, n, err := ParseModelID(id)
	if err != nil {
		return ""
	}
	return n
}

func (id ModelID) String() string { return string(id) }
