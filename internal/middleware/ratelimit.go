// Package middleware holds echo middleware shared by every route group.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const defaultIdleTTL = 10 * time.Minute

// LimiterStore hands out one token bucket per key. A janitor goroutine drops
// buckets that have been idle longer than idleTTL until Stop is called.
type LimiterStore struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket
	idleTTL time.Duration

	every    time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore allows limitPerMinute events per key with the given burst.
// Non-positive arguments fall back to 60/min, a burst of 1 and a one minute sweep.
func NewLimiterStore(limitPerMinute int, burst int, sweepEvery time.Duration) *LimiterStore {
	if limitPerMinute <= 0 {
		limitPerMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	s := &LimiterStore{
		limit:   rate.Every(time.Minute / time.Duration(limitPerMinute)),
		burst:   burst,
		buckets: make(map[string]*bucket),
		idleTTL: defaultIdleTTL,
		every:   sweepEvery,
		stopCh:  make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *LimiterStore) janitor() {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.sweep(now)
		case <-s.stopCh:
			return
		}
	}
}

// sweep drops buckets not used since now-idleTTL.
func (s *LimiterStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.idleTTL)
	for key, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}

// Stop ends the janitor. It is safe to call more than once.
func (s *LimiterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Len reports how many keys are currently tracked.
func (s *LimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func (s *LimiterStore) limiterFor(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Allow reports whether one more event for key fits in its bucket.
func (s *LimiterStore) Allow(key string) bool {
	ok, _ := s.Take(key)
	return ok
}

// Take consumes a token for key. When the bucket is empty it returns false and
// how long until the next token is available; nothing is consumed in that case.
func (s *LimiterStore) Take(key string) (bool, time.Duration) {
	now := time.Now()
	r := s.limiterFor(key, now).ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// KeyFunc derives the limiter key of a request.
type KeyFunc func(c echo.Context) string

// ByIP keys requests by client address.
func ByIP(c echo.Context) string {
	return "ip:" + c.RealIP()
}

// RateLimit rejects requests over the store's rate with 429, a Retry-After
// header in whole seconds and the standard error envelope.
func RateLimit(store *LimiterStore, key KeyFunc, message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := store.Take(key(c))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"success": false,
					"message": message,
				})
			}
			return next(c)
		}
	}
}
