package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiters lazily creates one token bucket per client address.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter
}

// RateLimiter limits requests per client IP. When ipHeader is set the named
// header (e.g. a reverse proxy's real-IP header) identifies the client
// instead of the connection address.
func RateLimiter(limit rate.Limit, burst int, ipHeader string) gin.HandlerFunc {
	limiters := &ipLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ipHeader != "" {
			if fromHeader := c.GetHeader(ipHeader); fromHeader != "" {
				ip = fromHeader
			}
		}

		if !limiters.get(ip).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
