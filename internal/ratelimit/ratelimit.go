// Package ratelimit throttles evaluation requests per tenant with a token
// bucket kept in Redis, so every API replica shares the same budget.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mark3748/helpdesk-sla/internal/metrics"
)

// Limiter hands out limit tokens per window for each key. Tokens refill one
// at a time, every window/limit.
type Limiter struct {
	rdb      *redis.Client
	limit    int
	interval time.Duration
	prefix   string
}

// Decision is the outcome of taking one token.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the next token when Allowed is false.
	RetryAfter time.Duration
}

// New returns a Limiter. Keys are stored under "rl:"+prefix.
func New(rdb *redis.Client, limit int, window time.Duration, prefix string) *Limiter {
	if !strings.HasPrefix(prefix, "rl:") {
		prefix = "rl:" + prefix
	}
	l := &Limiter{rdb: rdb, limit: limit, prefix: prefix}
	if limit > 0 {
		l.interval = window / time.Duration(limit)
	}
	return l
}

// Take consumes a token for key if one is available. A nil client or a
// non-positive limit allows everything.
func (l *Limiter) Take(ctx context.Context, key string) (Decision, error) {
	if l.rdb == nil || l.limit <= 0 {
		return Decision{Allowed: true, Remaining: l.limit}, nil
	}
	res, err := l.rdb.Eval(ctx, bucketScript, []string{l.prefix + key},
		l.limit, l.interval.Milliseconds(), time.Now().UnixMilli()).Int64Slice()
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:    res[0] == 1,
		Remaining:  int(res[1]),
		RetryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Allow reports whether a token for key was available.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	d, err := l.Take(ctx, key)
	return d.Allowed, err
}

// Middleware rejects requests whose bucket, chosen by keyFunc, is empty. It
// fails closed: a Redis error rejects the request.
func (l *Limiter) Middleware(keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)
		d, err := l.Take(c.Request.Context(), key)
		if err != nil {
			log.Ctx(c.Request.Context()).Error().Err(err).Str("key", key).Msg("rate limiter unavailable")
			d.RetryAfter = l.interval
		}
		if !d.Allowed {
			metrics.RateLimitRejectionsTotal.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(seconds(d.RetryAfter)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Next()
	}
}

// TenantKey keys the bucket on the :tenant route parameter.
func TenantKey(c *gin.Context) string {
	return "tenant:" + c.Param("tenant")
}

// seconds rounds d up to whole seconds, at least one.
func seconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	return max(s, 1)
}

// bucketScript keeps {tokens, ts} in a hash per key and returns
// {allowed, remaining, wait_ms}.
const bucketScript = `
local capacity = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now
local refill = math.floor((now - ts) / interval)
if refill > 0 then
  tokens = math.min(tokens + refill, capacity)
  ts = ts + refill * interval
end
if tokens >= capacity then
  ts = now
end
local allowed = 0
local wait = 0
if tokens > 0 then
  tokens = tokens - 1
  allowed = 1
else
  wait = ts + interval - now
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('PEXPIRE', KEYS[1], interval * capacity)
return {allowed, tokens, wait}
`
