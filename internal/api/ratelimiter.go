package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter decides whether a request may proceed
type RateLimiter interface {
	Allow() bool
}

type limiterAdapter struct {
	limiter *rate.Limiter
}

// NewTokenBucketLimiter returns a global token bucket. A non-positive rate
// disables limiting.
func NewTokenBucketLimiter(ratePerSecond float64, burst int) RateLimiter {
	if ratePerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &limiterAdapter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (l *limiterAdapter) Allow() bool {
	if l == nil || l.limiter == nil {
		return true
	}
	return l.limiter.Allow()
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	limiter := s.limiter
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow() {
			c.Next()
			return
		}
		s.errorResponse(c, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	}
}
