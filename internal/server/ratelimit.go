package server

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go-shortlink/internal/conf"
	"go-shortlink/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = time.Hour
	limiterSweepEvery = 10 * time.Minute
	reasonRateLimited = "RATE_LIMITED"
	headerLimit       = "X-RateLimit-Limit"
	headerRemaining   = "X-RateLimit-Remaining"
	headerReset       = "X-RateLimit-Reset"
)

// entry holds a rate limiter and last seen timestamp for cleanup
type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-client token buckets. A limiter created with a
// zero rate lets every request through.
type RateLimiter struct {
	limiters  map[string]*entry
	mu        sync.Mutex
	rateLimit rate.Limit
	burst     int
	addrs     *service.AddressResolver
	stop      chan struct{}
	once      sync.Once
}

// NewRateLimiter builds the limiter from server.rate_limit and starts the
// sweep of idle clients. HTTP clients are keyed by the address addrs
// resolves. The returned func stops the sweep.
func NewRateLimiter(c *conf.Server, addrs *service.AddressResolver) (*RateLimiter, func()) {
	perMinute := 0
	if c != nil && c.RateLimit != nil {
		perMinute = c.RateLimit.RequestsPerMinute
	}
	rl := newRateLimiter(perMinute)
	rl.addrs = addrs
	if rl.burst > 0 {
		go rl.sweep(limiterSweepEvery)
	}
	return rl, rl.Stop
}

func newRateLimiter(requestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*entry),
		stop:     make(chan struct{}),
	}
	if requestsPerMinute > 0 {
		rl.rateLimit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
		rl.burst = requestsPerMinute
	}
	return rl
}

// getLimiter returns the rate limiter for the given client, creating one if it doesn't exist
func (rl *RateLimiter) getLimiter(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, exists := rl.limiters[client]
	if !exists {
		limiter := rate.NewLimiter(rl.rateLimit, rl.burst)
		rl.limiters[client] = &entry{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	e.lastSeen = time.Now()
	return e.limiter
}

// Middleware enforces the limit per client address and reports it in the
// X-RateLimit headers.
func (rl *RateLimiter) Middleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if rl.burst == 0 {
				return handler(ctx, req)
			}
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}

			client := tr.Endpoint()
			if ht, ok := tr.(*http.Transport); ok && rl.addrs != nil {
				client = rl.addrs.Resolve(ht.Request())
			}

			limiter := rl.getLimiter(client)
			header := tr.ReplyHeader()
			header.Set(headerLimit, strconv.Itoa(rl.burst))

			if !limiter.Allow() {
				header.Set(headerRemaining, "0")
				header.Set(headerReset, strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
				return nil, kerrors.New(429, reasonRateLimited, "too many requests, please try again later")
			}

			header.Set(headerRemaining, strconv.Itoa(int(limiter.Tokens())))
			return handler(ctx, req)
		}
	}
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for client, e := range rl.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, client)
		}
	}
}

// Stop ends the idle sweep. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}
