package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ctxUserID is the Gin context key auth.Identify stores the GitHub login
// under. It is repeated here so middleware does not import auth.
const ctxUserID = "userID"

// keyFunc maps a request to the bucket it draws tokens from.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP buckets signed-in visitors by GitHub login ("user:<login>")
// and everyone else by client IP ("ip:<addr>").
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if login := c.GetString(ctxUserID); login != "" {
			return "user:" + login
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter is a process-local token-bucket limiter with one bucket per
// key. Buckets idle for longer than idleTTL are swept at most once per
// sweepEvery. Safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn keyFunc

	mu         sync.Mutex
	buckets    map[string]*bucket
	idleTTL    time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time

	// Skip exempts matching requests from limiting.
	Skip func(*gin.Context) bool
}

// NewRateLimiter returns a limiter refilling rps tokens per second with room
// for burst requests at once. burst values below 1 become 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:      rate.Limit(rps),
		burst:      burst,
		keyFn:      keyFn,
		buckets:    make(map[string]*bucket),
		idleTTL:    10 * time.Minute,
		sweepEvery: time.Minute,
		now:        time.Now,
	}
}

// limiterFor returns the bucket for key, creating it on first use. Stale
// buckets are swept before the lookup so a long-idle key starts full.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.seen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.seen = now
	return b.lim
}

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// SkipPaths matches requests whose path equals one of paths, or starts with
// it when the entry ends in "/".
func SkipPaths(paths ...string) func(*gin.Context) bool {
	return func(c *gin.Context) bool {
		p := c.Request.URL.Path
		for _, sp := range paths {
			if p == sp || (strings.HasSuffix(sp, "/") && strings.HasPrefix(p, sp)) {
				return true
			}
		}
		return false
	}
}

// Handler enforces the limits. A rejected request gets 429 with the usual
// error envelope and a Retry-After header holding the whole seconds until
// a token is available.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Skip != nil && rl.Skip(c) {
			c.Next()
			return
		}

		key := rl.keyFn(c)
		lim := rl.limiterFor(key)

		now := rl.now()
		res := lim.ReserveN(now, 1)
		if res.OK() {
			wait := res.DelayFrom(now)
			if wait == 0 {
				c.Next()
				return
			}
			res.CancelAt(now)
			c.Header("Retry-After", retryAfter(wait))
		} else {
			c.Header("Retry-After", "60")
		}

		identity := "ip"
		if strings.HasPrefix(key, "user:") {
			identity = "user"
		}
		rateLimited.WithLabelValues(identity).Inc()

		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}

func retryAfter(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
