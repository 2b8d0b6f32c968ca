package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/edubrain/answer-backend/internal/entity"
	"github.com/edubrain/answer-backend/internal/pkg/response"
)

// RateLimiter is an in-memory sliding-window limiter keyed by client
// identifier. Request timestamps older than the window are discarded on
// every check, so memory stays proportional to active clients.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	requests    map[string][]time.Time

	totalRequests   int64
	blockedRequests int64
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make(map[string][]time.Time),
	}
}

// Allow reports whether one more request from identifier fits in the
// window. The second return value carries the client-facing message
// when the request is rejected.
func (rl *RateLimiter) Allow(identifier string) (bool, string) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	queue := rl.prune(identifier, now)
	rl.totalRequests++

	if len(queue) >= rl.maxRequests {
		rl.blockedRequests++
		return false, fmt.Sprintf("请求频率过高，请稍后再试。限制：%d次/%d秒",
			rl.maxRequests, int64(rl.window.Seconds()))
	}

	rl.requests[identifier] = append(queue, now)
	return true, ""
}

// Remaining returns how many requests identifier may still make in the
// current window.
func (rl *RateLimiter) Remaining(identifier string) int {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	queue := rl.prune(identifier, now)
	if remaining := rl.maxRequests - len(queue); remaining > 0 {
		return remaining
	}
	return 0
}

func (rl *RateLimiter) Stats() *entity.RateLimitStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return &entity.RateLimitStats{
		TotalRequests:     rl.totalRequests,
		BlockedRequests:   rl.blockedRequests,
		ActiveIdentifiers: len(rl.requests),
		MaxRequests:       rl.maxRequests,
		WindowSeconds:     int64(rl.window.Seconds()),
	}
}

// prune drops expired timestamps for identifier and returns the live
// queue. Callers must hold rl.mu. Emptied entries are removed from the
// map so long-gone clients do not pin memory.
func (rl *RateLimiter) prune(identifier string, now time.Time) []time.Time {
	queue := rl.requests[identifier]
	cutoff := now.Add(-rl.window)

	kept := 0
	for _, ts := range queue {
		if ts.After(cutoff) {
			queue[kept] = ts
			kept++
		}
	}
	queue = queue[:kept]

	if len(queue) == 0 {
		delete(rl.requests, identifier)
	} else {
		rl.requests[identifier] = queue
	}

	return queue
}

// Middleware enforces the limit per client IP and mirrors the remaining
// quota in the X-RateLimit-Remaining header.
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := clientIP(r)

			allowed, message := rl.Allow(identifier)
			if !allowed {
				ctxzap.Warn(r.Context(), "request rate limited",
					zap.String("client_ip", identifier),
					zap.Int("max_requests", rl.maxRequests),
				)
				response.JSON(w, http.StatusTooManyRequests, entity.FailureResponse{
					Code: 0,
					Msg:  message,
				})
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(identifier)))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. The RealIP middleware runs
// earlier in the chain, so RemoteAddr already reflects proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
