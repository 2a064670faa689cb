package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
)

// roundTripFunc is a function type that implements http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"404 is model not found", http.StatusNotFound, `{"error":"no such model"}`, domain.ErrModelNotFound},
		{"429 is rate limited", http.StatusTooManyRequests, `{"error":"rate limit exceeded"}`, domain.ErrRateLimited},
		{"401 is auth", http.StatusUnauthorized, `{"error":"invalid api key"}`, domain.ErrAuthInvalid},
		{"403 is auth", http.StatusForbidden, `{"error":"forbidden"}`, domain.ErrAuthInvalid},
		{"413 is context overflow", http.StatusRequestEntityTooLarge, `{"error":"payload too large"}`, domain.ErrContextOverflow},
		{"500 is transient", http.StatusInternalServerError, `{"error":"internal"}`, domain.ErrProviderTransient},
		{"502 is transient", http.StatusBadGateway, `bad gateway`, domain.ErrProviderTransient},
		{"503 is transient", http.StatusServiceUnavailable, `service unavailable`, domain.ErrProviderTransient},
		{"plain 400 is invalid request", http.StatusBadRequest, `{"error":"messages must not be empty"}`, domain.ErrInvalidRequest},
		{"400 naming a missing model", http.StatusBadRequest, `{"error":"models/gemini-1.0 is not found"}`, domain.ErrModelNotFound},
		{"400 for oversized prompt", http.StatusBadRequest, `{"error":"prompt is too long: 250000 tokens"}`, domain.ErrContextOverflow},
		{"400 exceeding context length", http.StatusBadRequest, `{"error":"maximum context length is 128000 tokens"}`, domain.ErrContextOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapHTTPError(tt.status, []byte(tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("mapHTTPError(%d) = %v, want %v", tt.status, err, tt.want)
			}
			if !strings.Contains(err.Error(), strings.TrimSpace(tt.body)) {
				t.Errorf("error %q should include the response body", err)
			}
		})
	}
}

func TestMapHTTPErrorUnknownStatus(t *testing.T) {
	err := mapHTTPError(418, []byte(`teapot`))
	if err == nil {
		t.Fatal("expected error")
	}
	for _, sentinel := range []error{
		domain.ErrModelNotFound, domain.ErrRateLimited, domain.ErrAuthInvalid,
		domain.ErrContextOverflow, domain.ErrProviderTransient, domain.ErrInvalidRequest,
	} {
		if errors.Is(err, sentinel) {
			t.Errorf("unknown status should not map to %v", sentinel)
		}
	}
}

func TestDoJSONRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Custom") != "yes" {
			t.Errorf("custom header = %q, want %q", r.Header.Get("X-Custom"), "yes")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"hello"`) {
			t.Errorf("request body %q missing payload", body)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	body, err := doJSONRequest(context.Background(), server.Client(), server.URL,
		map[string]string{"X-Custom": "yes"},
		map[string]string{"msg": "hello"})
	if err != nil {
		t.Fatalf("doJSONRequest: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}
}

func TestDoJSONRequestMapsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`slow down`))
	}))
	defer server.Close()

	_, err := doJSONRequest(context.Background(), server.Client(), server.URL, nil, map[string]string{})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestDoJSONRequestContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := doJSONRequest(ctx, server.Client(), server.URL, nil, map[string]string{})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNewHTTPClientTimeouts(t *testing.T) {
	client := NewHTTPClient(config.ProviderConfig{
		ConnTimeout: 2 * time.Second,
		RespTimeout: 3 * time.Second,
	})
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}

	defaulted := NewHTTPClient(config.ProviderConfig{})
	if defaulted.Timeout != defaultConnTimeout+defaultRespTimeout {
		t.Errorf("default Timeout = %v, want %v", defaulted.Timeout, defaultConnTimeout+defaultRespTimeout)
	}
}
