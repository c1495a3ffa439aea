package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func get(h http.Handler, remoteAddr string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(ctx, RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

	for i := range 2 {
		w := get(h, "10.0.0.1:9999")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"1", "0"}[i], w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := get(h, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var message string
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "message" {
			return d.Skip()
		}
		var err error
		message, err = d.Str()
		return err
	}))
	assert.Equal(t, "rate limit exceeded", message)

	assert.Equal(t, http.StatusOK, get(h, "10.0.0.2:1234").Code, "clients are independent")
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(context.Background(), RateLimitConfig{})(okHandler())
	for range 10 {
		w := get(h, "10.0.0.1:1")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimit_KeyFuncAndSkip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(ctx, RateLimitConfig{
		Max:     1,
		Window:  time.Minute,
		KeyFunc: func(r *http.Request) string { return r.Header.Get("X-API-Key") },
		Skip:    func(r *http.Request) bool { return r.Header.Get("X-Internal") != "" },
	})(okHandler())

	assert.Equal(t, http.StatusOK, get(h, "a:1", "X-API-Key", "key-a").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "b:1", "X-API-Key", "key-a").Code)
	assert.Equal(t, http.StatusOK, get(h, "a:1", "X-API-Key", "key-b").Code)
	assert.Equal(t, http.StatusOK, get(h, "a:1", "X-API-Key", "key-a", "X-Internal", "1").Code)
}

func TestLimiter_WindowResets(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 1, Window: time.Second})
	now := time.Unix(1000, 0)

	_, _, ok := l.take("k", now)
	require.True(t, ok)
	_, reset, ok := l.take("k", now.Add(500*time.Millisecond))
	require.False(t, ok)
	assert.Equal(t, now.Add(time.Second), reset)

	remaining, _, ok := l.take("k", now.Add(time.Second))
	require.True(t, ok)
	assert.Zero(t, remaining)

	l.evict(now.Add(3 * time.Second))
	assert.Empty(t, l.clients)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		header []string
		want   string
	}{
		{name: "remote addr", remote: "192.168.1.1:4444", want: "192.168.1.1"},
		{name: "remote without port", remote: "pipe", want: "pipe"},
		{name: "forwarded for", remote: "192.168.1.1:4444", header: []string{"X-Forwarded-For", "203.0.113.50, 70.41.3.18"}, want: "203.0.113.50"},
		{name: "real ip", remote: "192.168.1.1:4444", header: []string{"X-Real-IP", "198.51.100.7"}, want: "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if len(tt.header) == 2 {
				req.Header.Set(tt.header[0], tt.header[1])
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
