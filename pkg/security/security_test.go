package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestCORSAllowList(t *testing.T) {
	r := newEngine(CORS([]string{"https://app.example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	r := newEngine(RateLimiter(context.Background(), 2, time.Hour))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimiterSweeperStopsWithContext(t *testing.T) {
	store := &limiterStore{visitors: make(map[string]*visitor), limit: rate.Inf, burst: 1}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.get("10.0.0.1", start)
	store.get("10.0.0.2", start.Add(50*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan time.Time)
	stopped := make(chan struct{})
	go store.run(ctx, ticks, time.Minute, func() { close(stopped) })

	ticks <- start.Add(90 * time.Second)
	// unbuffered, so the first sweep is done once the second tick is taken
	ticks <- start.Add(90 * time.Second)
	store.mu.Lock()
	assert.Len(t, store.visitors, 1)
	assert.Contains(t, store.visitors, "10.0.0.2")
	store.mu.Unlock()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper still running after cancel")
	}
}

func TestSecureHeaders(t *testing.T) {
	r := newEngine(Secure())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
