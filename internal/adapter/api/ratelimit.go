package api

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	perHour  int
}

// NewLimiter allows requestsPerHour per key with bursts of up to burst requests.
// A non-positive requestsPerHour disables limiting.
func NewLimiter(requestsPerHour, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerHour) / 3600.0),
		burst:    burst,
		perHour:  requestsPerHour,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	key = strings.ToLower(strings.TrimSpace(key))

	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

func (l *Limiter) Allow(key string) bool {
	if l == nil || l.perHour <= 0 {
		return true
	}
	return l.get(key).Allow()
}

// Remaining is the whole number of requests key may still make right now.
func (l *Limiter) Remaining(key string) int {
	if l == nil || l.perHour <= 0 {
		return -1
	}
	return int(l.get(key).Tokens())
}

func (l *Limiter) PerHour() int {
	if l == nil {
		return 0
	}
	return l.perHour
}
