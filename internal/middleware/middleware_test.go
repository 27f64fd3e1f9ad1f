package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router
}

func request(router *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS_AnyOrigin(t *testing.T) {
	router := okRouter(CORS(nil))

	w := request(router, http.MethodGet, "https://example.org")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Plan-Kind")
}

func TestCORS_AllowList(t *testing.T) {
	router := okRouter(CORS([]string{"https://portal.example.org"}))

	w := request(router, http.MethodGet, "https://portal.example.org")
	assert.Equal(t, "https://portal.example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = request(router, http.MethodGet, "https://evil.example.org")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	router := okRouter(CORS(nil))

	w := request(router, http.MethodOptions, "https://example.org")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimiter_Middleware(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	router := okRouter(limiter.Middleware(zap.NewNop()))

	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "").Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "").Code)

	w := request(router, http.MethodGet, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// a second later one token has refilled
	fixed = fixed.Add(time.Second)
	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "").Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))
}

func TestRateLimiter_Sweep(t *testing.T) {
	limiter := NewRateLimiter(5, 5)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	limiter.Allow("a")
	fixed = fixed.Add(idleClientTTL / 2)
	limiter.Allow("b")
	fixed = fixed.Add(idleClientTTL/2 + time.Second)

	assert.Equal(t, 1, limiter.Sweep())
	assert.Len(t, limiter.clients, 1)
}
