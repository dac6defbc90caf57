package httpx_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"lead-gateway/internal/httpx"
)

func TestClientIPPrecedence(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	require.Equal(t, "10.0.0.9", httpx.ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	require.Equal(t, "198.51.100.4", httpx.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 70.41.3.18, 150.172.238.178")
	require.Equal(t, "203.0.113.7", httpx.ClientIP(req))
}

func TestForwardedOrRemoteKeepsWholeHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	require.Equal(t, "10.0.0.9", httpx.ForwardedOrRemote(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 70.41.3.18")
	require.Equal(t, "203.0.113.7, 70.41.3.18", httpx.ForwardedOrRemote(req))
}

func TestBaseURL(t *testing.T) {
	req := httptest.NewRequest("POST", "http://internal:8080/api/submit-lead", nil)
	require.Equal(t, "https://internal:8080", httpx.BaseURL(req))

	req.Header.Set("X-Forwarded-Proto", "http")
	req.Header.Set("X-Forwarded-Host", "landing.example.com")
	require.Equal(t, "http://landing.example.com", httpx.BaseURL(req))
}
