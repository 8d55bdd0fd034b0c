package server_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agency-portal/internal/config"
	"agency-portal/internal/handlers"
	"agency-portal/internal/ratelimit"
	"agency-portal/internal/server"
	"agency-portal/internal/testutil"
	"agency-portal/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		SessionSecret:  "secret",
		AllowedOrigins: []string{"https://agency.example.com"},
	}
	return newRouterWith(t, cfg, ratelimit.NewMemory(60, 10))
}

func newRouterWith(t *testing.T, cfg *config.Config, limiter ratelimit.Limiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.NewDB(t)

	catalog, err := wizard.DefaultCatalog(zap.NewNop())
	require.NoError(t, err)

	h := &handlers.Handler{
		Catalog: catalog,
		Wizards: wizard.NewMemoryStore(time.Hour),
		Log:     zap.NewNop(),
	}
	return server.NewRouter(cfg, h, limiter, zap.NewNop())
}

func TestHealth(t *testing.T) {
	r := newRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func loginStatuses(r *gin.Engine, n int) []int {
	codes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.9.9.%d", i))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	return codes
}

func TestRateLimit_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := &config.Config{SessionSecret: "secret"}
	r := newRouterWith(t, cfg, ratelimit.NewMemory(1, 1))

	codes := loginStatuses(r, 4)
	assert.NotEqual(t, http.StatusTooManyRequests, codes[0])
	for _, code := range codes[1:] {
		assert.Equal(t, http.StatusTooManyRequests, code)
	}
}

func TestRateLimit_TrustedProxyForwardsClientIP(t *testing.T) {
	cfg := &config.Config{SessionSecret: "secret", TrustedProxies: []string{"198.51.100.0/24"}}
	r := newRouterWith(t, cfg, ratelimit.NewMemory(1, 1))

	for _, code := range loginStatuses(r, 4) {
		assert.NotEqual(t, http.StatusTooManyRequests, code)
	}
}

func TestMetricsExposed(t *testing.T) {
	r := newRouter(t)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/send-email", nil)
	req.Header.Set("Origin", "https://agency.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://agency.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/send-email", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminRequiresSession(t *testing.T) {
	r := newRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/projects", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
