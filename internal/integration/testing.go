// Package integration exercises the full orchestration stack the way the
// composition root wires it: provider adapters, registry, router, and
// engine together. Live tests against real vendor endpoints sit behind the
// "integration" build tag and skip themselves without credentials.
package integration

import (
	"context"
	"os"
	"testing"
	"time"
)

// Keys holds live-provider credentials pulled from the environment.
type Keys struct {
	OpenAI    string
	Anthropic string
	Timeout   time.Duration
}

// LoadKeys reads credentials from the conventional env vars.
func LoadKeys() Keys {
	return Keys{
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		Timeout:   60 * time.Second,
	}
}

// SkipWithoutKey skips the test unless the credential is set.
func SkipWithoutKey(t *testing.T, key, envVar string) {
	t.Helper()
	if key == "" {
		t.Skipf("skipping live test: %s not set", envVar)
	}
}

// SkipIfShort skips live tests in short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
}

// NewTestContext returns a context canceled automatically at test cleanup.
func NewTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}
