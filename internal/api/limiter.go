package api

import (
	"net"
	"net/http"
	"sync"

	"github.com/tammmikel/task-botv2/internal/config"

	"golang.org/x/time/rate"
)

// clientLimiter ограничивает частоту запросов по адресу клиента.
type clientLimiter struct {
	cfg      config.APIRateLimitConfig
	limiters sync.Map // map[string]*rate.Limiter
}

func newClientLimiter(cfg config.APIRateLimitConfig) *clientLimiter {
	return &clientLimiter{cfg: cfg}
}

func (c *clientLimiter) allow(r *http.Request) bool {
	if c.cfg.RPS <= 0 {
		return true
	}
	return c.getLimiter(clientKey(r)).Allow()
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (c *clientLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := c.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := c.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(c.cfg.RPS), burst)
	actual, loaded := c.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}
