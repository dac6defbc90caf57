package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"lead-gateway/internal/httpx"
)

func newCORSRouter(allowed []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpx.CORSMiddleware(allowed))
	r.OPTIONS("/api/submit-lead", httpx.Preflight)
	r.POST("/api/submit-lead", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func preflight(r http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/submit-lead", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowListWithoutOrigin(t *testing.T) {
	r := newCORSRouter([]string{"https://landing.example"})

	rec := preflight(r, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	require.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSAllowListEchoesListedOrigin(t *testing.T) {
	r := newCORSRouter([]string{"https://landing.example"})

	rec := preflight(r, "https://LANDING.example")
	require.Equal(t, "https://LANDING.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))

	rec = preflight(r, "https://evil.example")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDefaultAllowsAny(t *testing.T) {
	for _, allowed := range [][]string{nil, {"*"}} {
		rec := preflight(newCORSRouter(allowed), "https://anywhere.example")
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
