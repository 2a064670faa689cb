package middleware

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "http://example.com/mcp", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHeaders(t *testing.T) {
	rec := doRequest(Headers(okHandler()), "203.0.113.7:4242")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'",
		"Referrer-Policy":         "no-referrer",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("header %s = %q, want %q", name, got, value)
		}
	}

	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set on plain HTTP: %q", got)
	}
}

func TestHeadersTLS(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "https://example.com/mcp", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	Headers(okHandler()).ServeHTTP(rec, req)

	if got := rec.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("HSTS missing on TLS request")
	}
}

func TestPerClientLimitSharesBucketPerHost(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := PerClientLimit(ctx, 0.001, 2)(okHandler())

	// Same host on different source ports must share one bucket.
	for i, addr := range []string{"203.0.113.7:1001", "203.0.113.7:1002"} {
		if rec := doRequest(handler, addr); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}

	if rec := doRequest(handler, "203.0.113.7:1003"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestPerClientLimitSeparatesPeers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := PerClientLimit(ctx, 0.001, 1)(okHandler())

	if rec := doRequest(handler, "203.0.113.7:1001"); rec.Code != http.StatusOK {
		t.Fatalf("peer A first request: status = %d", rec.Code)
	}
	if rec := doRequest(handler, "203.0.113.7:1002"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("peer A second request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// A different host gets its own bucket.
	if rec := doRequest(handler, "198.51.100.9:1001"); rec.Code != http.StatusOK {
		t.Errorf("peer B first request: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestPerClientLimitCoercesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := PerClientLimit(ctx, 0.001, 0)(okHandler())

	if rec := doRequest(handler, "203.0.113.7:1001"); rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := doRequest(handler, "203.0.113.7:1002"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

func TestPeerAddr(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"10.0.0.1:9999", "10.0.0.1"},
		{"[::1]:8080", "::1"},
		{"no-port-here", "no-port-here"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
		req.RemoteAddr = tt.remoteAddr
		if got := peerAddr(req); got != tt.want {
			t.Errorf("peerAddr(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}
