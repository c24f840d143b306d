// Package ratelimit limits how many requests each client may make per minute.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

const window = time.Minute

// Limiter counts requests per client IP in fixed one-minute windows.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	now     func() time.Time

	hits         atomic.Int64
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientWindow struct {
	start    time.Time
	requests int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a background sweep of idle clients. Call Stop to end it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		clients:     make(map[string]*clientWindow),
		limit:       config.RequestsPerMinute,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.sweepEvery(config.CleanupInterval)
	return rl
}

// take returns whether the request is allowed and, when it is not, how long until the window resets.
func (rl *Limiter) take(clientIP string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[clientIP]
	if !ok || now.Sub(w.start) >= window {
		rl.clients[clientIP] = &clientWindow{start: now, requests: 1}
		return true, 0
	}
	w.requests++
	if w.requests <= rl.limit {
		return true, 0
	}
	return false, w.start.Add(window).Sub(now)
}

func (rl *Limiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCleanup:
			return
		}
	}
}

// sweep forgets clients whose window has closed.
func (rl *Limiter) sweep() int {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, w := range rl.clients {
		if now.Sub(w.start) >= window {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop ends the background sweep. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   rl.hits.Load(),
		ClientCount: int64(rl.ActiveClients()),
	}
}

// Handler returns gin middleware that rejects clients over the limit with a
// Retry-After header. Only methods listed in methods are counted; none means every request.
func (rl *Limiter) Handler(onLimit gin.HandlerFunc, methods ...string) gin.HandlerFunc {
	counted := make(map[string]bool, len(methods))
	for _, m := range methods {
		counted[m] = true
	}

	return func(c *gin.Context) {
		if len(counted) > 0 && !counted[c.Request.Method] {
			c.Next()
			return
		}

		ok, wait := rl.take(c.ClientIP())
		if ok {
			c.Next()
			return
		}

		rl.hits.Add(1)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		if onLimit != nil {
			onLimit(c)
		} else {
			c.String(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
		}
		c.Abort()
	}
}
