package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"budgetbook/internal/ledger"
	applog "budgetbook/internal/log"
)

type Server struct {
	http.Server
	ledger       *ledger.Service
	logger       *applog.StructuredLogger
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// startCleanup runs periodic cleanup to remove stale client entries
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, svc *ledger.Service) *Server {
	mux := http.NewServeMux()

	httpLogger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentHTTP,
	})

	// Every request carries a context logger tagged with a request ID.
	handler := applog.Middleware(httpLogger)(applog.RequestIDMiddleware(requestIDFrom)(mux))

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: handler,
		},
		ledger:      svc,
		logger:      applog.NewStructuredLogger(httpLogger),
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/v1/budget", s.withSecurityHeaders(s.handleSetBudget))
	mux.HandleFunc("/api/v1/subdivisions", s.withSecurityHeaders(s.handleSubDivisions))
	mux.HandleFunc("/api/v1/spend/subdivision", s.withSecurityHeaders(s.handleSpendFromSubDivision))
	mux.HandleFunc("/api/v1/spend/category", s.withSecurityHeaders(s.handleSpendFromCategory))
	mux.HandleFunc("/api/v1/spend/general", s.withSecurityHeaders(s.handleSpendFromGeneral))
	mux.HandleFunc("/api/v1/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("/api/v1/stats", s.withSecurityHeaders(s.handleStats))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
