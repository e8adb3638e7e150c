package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobrunner/geocat/internal/config"
)

func TestOriginHost(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"https://example.com", "example.com"},
		{"https://example.com:8080", "example.com"},
		{"https://example.com:443/path", "example.com"},
		{"http://localhost:3000", "localhost"},
		{"http://192.168.1.1:8080", "192.168.1.1"},
		{"example.com", "example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := originHost(tt.origin); got != tt.want {
				t.Errorf("originHost(%q) = %q, want %q", tt.origin, got, tt.want)
			}
		})
	}
}

func TestMatchOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		pattern string
		want    bool
	}{
		{"exact", "https://example.com", "https://example.com", true},
		{"exact with port", "https://example.com:8080", "https://example.com:8080", true},
		{"scheme differs", "http://example.com", "https://example.com", false},
		{"wildcard subdomain", "https://app.example.com", "*.example.com", true},
		{"wildcard deep subdomain", "https://a.b.example.com:8443", "*.example.com", true},
		{"wildcard excludes apex", "https://example.com", "*.example.com", false},
		{"wildcard suffix trick", "https://evilexample.com", "*.example.com", false},
		{"star without dot", "https://app.example.com", "*example.com", false},
		{"no match", "https://other.com", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchOrigin(tt.origin, tt.pattern); got != tt.want {
				t.Errorf("matchOrigin(%q, %q) = %v, want %v", tt.origin, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		wantHeaders bool
		wantStatus  int
	}{
		{"allowed GET", []string{"https://example.com"}, "https://example.com", http.MethodGet, true, http.StatusOK},
		{"allowed DELETE", []string{"https://example.com"}, "https://example.com", http.MethodDelete, true, http.StatusOK},
		{"preflight", []string{"https://example.com"}, "https://example.com", http.MethodOptions, true, http.StatusNoContent},
		{"wildcard", []string{"*.example.com"}, "https://app.example.com", http.MethodGet, true, http.StatusOK},
		{"foreign origin", []string{"https://example.com"}, "https://evil.com", http.MethodGet, false, http.StatusOK},
		{"no origin", []string{"https://example.com"}, "", http.MethodGet, false, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})
			s := &Server{config: config.ServerConfig{CORS: config.CORSConfig{AllowedOrigins: tt.allowed}}}

			req := httptest.NewRequest(tt.method, "/api/v1/workspaces", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			s.corsMiddleware(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.method == http.MethodOptions && nextCalled {
				t.Error("preflight request must not reach the next handler")
			}

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if !tt.wantHeaders {
				if got != "" {
					t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
				}
				return
			}
			if got != tt.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.origin)
			}
			if m := rec.Header().Get("Access-Control-Allow-Methods"); m != corsMethods {
				t.Errorf("Access-Control-Allow-Methods = %q", m)
			}
			if v := rec.Header().Get("Vary"); v != "Origin" {
				t.Errorf("Vary = %q, want Origin", v)
			}
		})
	}
}
