// Copyright (c) 2025 Siteman Authors
// Siteman - site bootstrap and management CLI
// This source code is licensed under the MIT license found in the LICENSE file.

package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"siteman/internal/auth"
	"siteman/internal/config"
	"siteman/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// contextUserKey carries the authenticated user through the gin context.
const contextUserKey = "siteman.user"

// requestIDMiddleware tags every request with an ID, honoring one supplied
// by an upstream proxy.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

// requestLogMiddleware routes access logs through the application logger.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debugf("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// securityHeadersMiddleware sets the headers the framework's security
// middleware used to add.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "same-origin")
		c.Next()
	}
}

// allowedHostsMiddleware rejects requests whose Host header is not in the
// allowed hosts list. Debug settings allow everything via "*".
func allowedHostsMiddleware(settings *config.Settings) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if !settings.HostAllowed(host) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "disallowed host"})
			return
		}
		c.Next()
	}
}

const (
	// maxTrackedClients bounds the limiter map; once reached, idle
	// entries are pruned before new clients are admitted.
	maxTrackedClients = 1024
	// limiterIdleTTL is how long a client limiter may sit unused before
	// pruning reclaims it.
	limiterIdleTTL = 3 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a map of client IPs to their rate limiters. Each
// Server owns one, so limits never leak across instances.
type rateLimiterStore struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
}

func newRateLimiterStore() *rateLimiterStore {
	return &rateLimiterStore{clients: make(map[string]*clientLimiter)}
}

func (s *rateLimiterStore) getLimiter(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, exists := s.clients[ip]
	if !exists {
		if len(s.clients) >= maxTrackedClients {
			s.pruneLocked(now)
		}
		// 200 requests per minute with matching burst capacity.
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(time.Minute/200), 200)}
		s.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// pruneLocked drops limiters that have been idle past the TTL. Callers
// must hold mu.
func (s *rateLimiterStore) pruneLocked(now time.Time) {
	for ip, cl := range s.clients {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(s.clients, ip)
		}
	}
}

// rateLimitMiddleware limits requests per client IP.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !s.limiters.getLimiter(ip, time.Now()).Allow() {
			logging.Warnf("rate limit exceeded for %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}

// sessionMiddleware resolves the session cookie to a user and aborts with
// 401 when no valid session is present.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		user, err := auth.ValidateSession(s.store, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or invalid"})
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// requireSuperuser gates a route on the authenticated user being a
// superuser. Must run after sessionMiddleware.
func (s *Server) requireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "superuser required"})
			return
		}
		c.Next()
	}
}
