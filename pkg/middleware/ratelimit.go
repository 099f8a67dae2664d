package middleware

import (
	"net/http"
	"strings"

	"github.com/freshmart/grocery-api/pkg/logger"
	"github.com/freshmart/grocery-api/pkg/ratelimit"
)

// RateLimiter applies a global token bucket plus a per-IP bucket to every
// request passing through it.
type RateLimiter struct {
	global            *ratelimit.TokenBucket
	perIP             *ratelimit.IPRateLimiter
	logger            logger.Logger
	trustForwardedFor bool
}

// RateLimiterConfig configures the middleware.
type RateLimiterConfig struct {
	GlobalCapacity    float64
	GlobalRefillRate  float64
	IPCapacity        float64
	IPRefillRate      float64
	TrustForwardedFor bool
}

// NewRateLimiter creates the rate-limiting middleware.
func NewRateLimiter(cfg *RateLimiterConfig, logger logger.Logger) *RateLimiter {
	return &RateLimiter{
		global:            ratelimit.NewTokenBucket(cfg.GlobalCapacity, cfg.GlobalRefillRate),
		perIP:             ratelimit.NewIPRateLimiter(cfg.IPCapacity, cfg.IPRefillRate),
		logger:            logger,
		trustForwardedFor: cfg.TrustForwardedFor,
	}
}

// Middleware returns the mux-compatible middleware function.
func (m *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.global.Allow() {
			m.logger.Warn("Global rate limit exceeded", "method", r.Method, "path", r.URL.Path)
			m.reject(w, "10")
			return
		}

		ip := m.clientIP(r)
		if !m.perIP.Allow(ip) {
			m.logger.Warn("IP rate limit exceeded", "ip", ip, "method", r.Method, "path", r.URL.Path)
			m.reject(w, "60")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop releases limiter resources.
func (m *RateLimiter) Stop() {
	m.perIP.Stop()
}

func (m *RateLimiter) reject(w http.ResponseWriter, retryAfter string) {
	w.Header().Set("Retry-After", retryAfter)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"success":false,"error":"rate limit exceeded, please try again later"}`))
}

func (m *RateLimiter) clientIP(r *http.Request) string {
	if m.trustForwardedFor {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			return strings.TrimSpace(strings.Split(forwarded, ",")[0])
		}
	}

	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}
	return ip
}
