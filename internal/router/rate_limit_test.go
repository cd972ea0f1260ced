package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func TestKeyByIPAndJSONField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{"code":" save20 ","cartValue":100}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("code")(c)
	if key != "SAVE20|1.2.3.4" {
		t.Fatalf("key want SAVE20|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "save20") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func newLimitedEngine(client *redis.Client, rule RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(client, rule, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimitMiddlewareLocalFallback(t *testing.T) {
	r := newLimitedEngine(nil, RateLimitRule{Name: "test", WindowSeconds: 60, MaxRequests: 2})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status want 200 got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status want 429 got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
}

func TestRateLimitMiddlewareRedisFailureFallsBack(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	r := newLimitedEngine(client, RateLimitRule{Name: "test", Prefix: "vt:rate:test", WindowSeconds: 60, MaxRequests: 1})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass through local limiter, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited locally, got %d", w.Code)
	}
}

func TestRateLimitMiddlewareDisabledRule(t *testing.T) {
	r := newLimitedEngine(nil, RateLimitRule{})
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("disabled rule must not limit, got %d", w.Code)
		}
	}
}

func TestLocalLimiterEvictsIdleKeys(t *testing.T) {
	limiter := newLocalLimiter(RateLimitRule{WindowSeconds: 1, MaxRequests: 1})
	start := time.Now()
	if ok, _ := limiter.allow("a", start); !ok {
		t.Fatalf("first request should pass")
	}
	if ok, wait := limiter.allow("a", start); ok || wait < 1 {
		t.Fatalf("second request should be limited with wait, got ok=%v wait=%d", ok, wait)
	}
	limiter.allow("b", start.Add(5*time.Second))
	if _, exists := limiter.entries["a"]; exists {
		t.Fatalf("idle key should be evicted")
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("want (%d,%v) got (%d,%v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}

func TestKeyByIPAndJSONFieldKeepsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	payload := `{"code":"BIG","pad":"` + strings.Repeat("a", maxJSONKeyBytes) + `"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(payload))
	c.Request.RemoteAddr = "1.2.3.4:5678"

	if key := KeyByIPAndJSONField("code")(c); key != "1.2.3.4" {
		t.Fatalf("oversized body should fall back to ip key, got %s", key)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read restored body failed: %v", err)
	}
	if string(body) != payload {
		t.Fatalf("restored body truncated: want %d bytes got %d", len(payload), len(body))
	}
}
