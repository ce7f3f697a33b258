package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/api/v1/requests", "/api/v1/requests"},
		{"/api/v1/requests/", "/api/v1/requests/"},
		{"/api/v1/requests/abc-123", "/api/v1/requests/{id}"},
		{"/api/v1/requests/abc-123/status", "/api/v1/requests/{id}/status"},
		{"/api/v1/requests/abc-123/artifacts", "/api/v1/requests/{id}/artifacts"},
	}
	for _, tc := range cases {
		if got := normalizePath(tc.path); got != tc.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
