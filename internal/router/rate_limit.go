package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/i18n"
	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Name          string
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

func (r RateLimitRule) valid() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware 固定窗口限流：优先 Redis，Redis 未启用或故障时退回进程内令牌桶
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if !rule.valid() {
		return func(c *gin.Context) { c.Next() }
	}
	local := newLocalLimiter(rule)
	return func(c *gin.Context) {
		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}

		allowed, wait := true, 0
		if client != nil {
			var err error
			allowed, wait, err = redisAllow(c.Request.Context(), client, rule, key)
			if err != nil {
				logger.Warnw("rate_limit_redis_failed", "rule", rule.Name, "error", err)
				allowed, wait = local.allow(key, time.Now())
			}
		} else {
			allowed, wait = local.allow(key, time.Now())
		}

		if !allowed {
			metrics.RecordRateLimited(rule.Name)
			c.Header("Retry-After", strconv.Itoa(wait))
			response.AbortWithError(c, response.CodeTooManyRequests, i18n.T(i18n.ResolveLocale(c), "error.too_many_requests"))
			return
		}
		c.Next()
	}
}

func redisAllow(ctx context.Context, client *redis.Client, rule RateLimitRule, key string) (bool, int, error) {
	if rule.Prefix != "" {
		key = fmt.Sprintf("%s:%s", rule.Prefix, key)
	}
	result, err := rateLimitScript.Run(ctx, client, []string{key}, rule.WindowSeconds).Result()
	if err != nil {
		return false, 0, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply %T", result)
	}
	count, ok := toInt64(values[0])
	if !ok {
		return false, 0, fmt.Errorf("unexpected rate limit counter %T", values[0])
	}
	if count <= int64(rule.MaxRequests) {
		return true, 0, nil
	}
	ttlSeconds, _ := toInt64(values[1])
	wait := int(ttlSeconds)
	if wait < 1 {
		wait = rule.WindowSeconds
	}
	return false, wait, nil
}

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter 单实例兜底，按 key 维护令牌桶，空闲条目定期清理
type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	entries   map[string]*localEntry
	lastSweep time.Time
}

func newLocalLimiter(rule RateLimitRule) *localLimiter {
	window := time.Duration(rule.WindowSeconds) * time.Second
	return &localLimiter{
		limit:   rate.Limit(float64(rule.MaxRequests) / window.Seconds()),
		burst:   rule.MaxRequests,
		idle:    2 * window,
		entries: make(map[string]*localEntry),
	}
}

func (l *localLimiter) allow(key string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idle {
		for k, entry := range l.entries {
			if now.Sub(entry.lastSeen) > l.idle {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 1
	}
	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return true, 0
	}
	reservation.CancelAt(now)
	wait := int(math.Ceil(delay.Seconds()))
	if wait < 1 {
		wait = 1
	}
	return false, wait
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToUpper(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

// maxJSONKeyBytes 提取限流 key 时最多读取的请求体大小
const maxJSONKeyBytes = 1 << 20

// readJSONField 读取请求体中的字符串字段，并把完整请求体还原给后续处理器
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	original := c.Request.Body
	body, err := io.ReadAll(io.LimitReader(original, maxJSONKeyBytes+1))
	// 未读完的部分接在已读内容之后，处理器看到的仍是原始请求体
	c.Request.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(body), original), Closer: original}
	if err != nil || len(body) == 0 || len(body) > maxJSONKeyBytes {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if text, ok := payload[field].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

type readCloser struct {
	io.Reader
	io.Closer
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
