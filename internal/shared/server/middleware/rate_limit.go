package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"readify-backend/internal/shared/server/respond"
)

// Rate limit groups used by the router.
const (
	RateGroupDefault   = "DEFAULT"
	RateGroupUpload    = "UPLOAD"
	RateGroupSynthesis = "SYNTHESIS"
)

// RateLimitRule is a token bucket refilled at Rate tokens per second up to Burst.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

// RateLimitConfig selects a rule per request group. Groups without a rule are not limited.
type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

const (
	bucketIdleTTL    = 10 * time.Minute
	bucketSweepEvery = 1024
)

// RateLimiter keeps one token bucket per caller and group. Buckets untouched for
// bucketIdleTTL are dropped every bucketSweepEvery calls.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
	calls   int
}

type rateBucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter builds a limiter. A nil clock uses time.Now.
func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		buckets: make(map[string]*rateBucket),
		now:     now,
	}
}

// RouteGroups maps "METHOD /full/path" route patterns to a group name.
func RouteGroups(routes map[string]string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		return routes[c.Request.Method+" "+c.FullPath()]
	}
}

// RateDecision is the outcome of taking one token from a bucket.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimit rejects callers that exhausted their bucket with 429 and a Retry-After header.
// Every limited response carries X-RateLimit-Limit and X-RateLimit-Remaining.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limiter == nil {
		cfg.Limiter = NewRateLimiter(nil)
	}
	if cfg.DefaultGroup == "" {
		cfg.DefaultGroup = RateGroupDefault
	}
	return func(c *gin.Context) {
		group := cfg.groupFor(c)
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}

		d := cfg.Limiter.Take(callerKey(c)+"|"+group, rule)
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rule.Burst))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if d.Allowed {
			c.Next()
			return
		}

		wait := d.RetryAfter
		if wait <= 0 {
			wait = time.Second
		}
		h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "too many requests", gin.H{
			"group":        group,
			"retryAfterMs": wait.Milliseconds(),
		})
	}
}

func (cfg RateLimitConfig) groupFor(c *gin.Context) string {
	if cfg.GroupFor != nil {
		if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
			return g
		}
	}
	return cfg.DefaultGroup
}

// callerKey identifies the caller by user id, or by client IP before identity is known.
func callerKey(c *gin.Context) string {
	if id := strings.TrimSpace(UserIDFromContext(c)); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}

// Allow takes one token for key and reports how long to wait when none is left.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	d := l.Take(key, rule)
	return d.Allowed, d.RetryAfter
}

// Take refills the bucket for the time elapsed since its last use and consumes one token.
// A nil limiter or a rule without capacity allows everything.
func (l *RateLimiter) Take(key string, rule RateLimitRule) RateDecision {
	if l == nil || rule.Rate <= 0 || rule.Burst <= 0 {
		return RateDecision{Allowed: true, Remaining: max(rule.Burst, 0)}
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%bucketSweepEvery == 0 {
		l.evictIdle(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &rateBucket{tokens: float64(rule.Burst), last: now}
		l.buckets[key] = b
	}
	b.refill(now, rule)

	if b.tokens >= 1 {
		b.tokens--
		return RateDecision{Allowed: true, Remaining: int(b.tokens)}
	}
	missing := (1 - b.tokens) / rule.Rate
	return RateDecision{RetryAfter: time.Duration(math.Ceil(missing*1000)) * time.Millisecond}
}

func (b *rateBucket) refill(now time.Time, rule RateLimitRule) {
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	b.tokens = min(float64(rule.Burst), b.tokens+elapsed.Seconds()*rule.Rate)
	b.last = now
}

func (l *RateLimiter) evictIdle(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.last) > bucketIdleTTL {
			delete(l.buckets, key)
		}
	}
}
