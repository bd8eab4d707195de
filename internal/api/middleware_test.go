package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthRoutesAreRateLimited(t *testing.T) {
	ts := setupTestServerWith(t, Options{CORSOrigins: []string{"*"}, AuthRate: 1, AuthBurst: 2})

	signIn := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin",
			strings.NewReader(`{"email":"nobody@example.com","password":"whatever"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		ts.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, signIn("203.0.113.7").Code)
	assert.Equal(t, http.StatusUnauthorized, signIn("203.0.113.7").Code)

	w := signIn("203.0.113.7")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	env := decodeEnvelope[any](t, w.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)
	// One request per minute: the next token is a minute away.
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 60, retry, 5)

	// Other clients and other routes are unaffected.
	assert.Equal(t, http.StatusUnauthorized, signIn("198.51.100.1").Code)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	w = httptest.NewRecorder()
	ts.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote addr", nil, "1.2.3.4:5678", "1.2.3.4"},
		{"remote addr without port", nil, "1.2.3.4", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", bearerToken(req))

	// Query tokens are only honored on the event stream.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me?access_token=abc", nil)
	assert.Empty(t, bearerToken(req))

	req = httptest.NewRequest(http.MethodGet, eventsPath+"?access_token=abc", nil)
	assert.Equal(t, "abc", bearerToken(req))
}

func TestMetricsRoute(t *testing.T) {
	ts := setupTestServer(t)

	// Touch the persistence layer so the remote metrics have samples.
	ts.api.Get("/api/v1/books")
	ts.api.Get("/health")

	w := httptest.NewRecorder()
	ts.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pagebound_remote_calls_total")
}
