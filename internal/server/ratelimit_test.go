package server

import (
	"net/http/httptest"
	"testing"

	"resumetrack/internal/config"
)

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RateLimitConfig
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "user key preferred over everything",
			cfg:     config.RateLimitConfig{ByUser: true, ByAPIKey: true, ByIP: true},
			headers: map[string]string{"X-User-ID": "user-1", "X-API-Key": "key-1"},
			remote:  "10.0.0.5:1234",
			want:    "user:user-1",
		},
		{
			name:    "api key when user header absent",
			cfg:     config.RateLimitConfig{ByUser: true, ByAPIKey: true, ByIP: true},
			headers: map[string]string{"X-API-Key": "key-1"},
			remote:  "10.0.0.5:1234",
			want:    "api:key-1",
		},
		{
			name:    "bearer token counts as api key",
			cfg:     config.RateLimitConfig{ByAPIKey: true},
			headers: map[string]string{"Authorization": "Bearer key-2"},
			remote:  "10.0.0.5:1234",
			want:    "api:key-2",
		},
		{
			name:   "falls back to client ip",
			cfg:    config.RateLimitConfig{ByUser: true, ByAPIKey: true, ByIP: true},
			remote: "10.0.0.5:1234",
			want:   "ip:10.0.0.5",
		},
		{
			name:    "user keying disabled ignores header",
			cfg:     config.RateLimitConfig{ByIP: true},
			headers: map[string]string{"X-User-ID": "user-1"},
			remote:  "10.0.0.5:1234",
			want:    "ip:10.0.0.5",
		},
		{
			name:   "nothing enabled yields empty key",
			cfg:    config.RateLimitConfig{},
			remote: "10.0.0.5:1234",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/analyses", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := getRateLimitKey(r, &tt.cfg); got != tt.want {
				t.Errorf("getRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for first hop wins",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			remote:  "10.0.0.2:9999",
			want:    "203.0.113.7",
		},
		{
			name:    "invalid forwarded entries skipped",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip, 203.0.113.7"},
			remote:  "10.0.0.2:9999",
			want:    "203.0.113.7",
		},
		{
			name:    "x-real-ip honored",
			headers: map[string]string{"X-Real-IP": "203.0.113.9"},
			remote:  "10.0.0.2:9999",
			want:    "203.0.113.9",
		},
		{
			name:   "remote addr fallback",
			remote: "10.0.0.2:9999",
			want:   "10.0.0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/health", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
