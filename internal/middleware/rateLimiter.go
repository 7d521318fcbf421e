package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/akolanti/TenthLine/internal/config"
	"golang.org/x/time/rate"
)

var limiterInstance = NewClientRateLimiter(config.Default().Server)

// InitRateLimiter replaces the package limiter. Call it before the server starts.
func InitRateLimiter(settings config.ServerSettings) {
	limiterInstance = NewClientRateLimiter(settings)
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client address and forgets
// clients that have been quiet for longer than idleTTL.
type ClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rateLimit rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewClientRateLimiter(settings config.ServerSettings) *ClientRateLimiter {
	return &ClientRateLimiter{
		clients:   make(map[string]*clientLimiter),
		rateLimit: rate.Limit(settings.RateLimitPerSecond),
		burst:     settings.RateLimitBurst,
		idleTTL:   settings.LimiterIdleTTL,
		now:       time.Now,
	}
}

// Allow spends one token from the client's bucket.
func (c *ClientRateLimiter) Allow(client string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)
	cl, ok := c.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(c.rateLimit, c.burst)}
		c.clients[client] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Len reports how many clients are currently tracked.
func (c *ClientRateLimiter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// sweep scans the map at most once per idleTTL.
func (c *ClientRateLimiter) sweep(now time.Time) {
	if c.idleTTL <= 0 || now.Sub(c.lastSweep) < c.idleTTL {
		return
	}
	c.lastSweep = now
	for client, cl := range c.clients {
		if now.Sub(cl.lastSeen) >= c.idleTTL {
			delete(c.clients, client)
		}
	}
}

func clientKey(req *http.Request) string {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return ip
}
