// Package http exposes the ledger and budget over a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"kakeibo/internal/budget"
	"kakeibo/internal/cache"
	"kakeibo/internal/currency"
	applog "kakeibo/internal/log"
	"kakeibo/internal/shifts"
)

type Server struct {
	http.Server
	ledger      *shifts.Repository
	budget      *budget.Repository
	rates       *currency.Service
	rateLimiter *rateLimiter
	slogger     *applog.StructuredLogger

	// Cached read models with eviction policy
	summaryCache  *cache.LRUCache[SummaryResponse]
	calendarCache *cache.LRUCache[map[string]float64]
	cacheManager  *cache.Manager

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

// NewServer configures routes and middleware, returning a ready-to-run server.
// The rates service may be nil, summaries then report plain JPY.
func NewServer(addr string, ledger *shifts.Repository, budgetRepo *budget.Repository, rates *currency.Service) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:        ledger,
		budget:        budgetRepo,
		rates:         rates,
		rateLimiter:   newRateLimiter(),
		slogger: applog.NewStructuredLogger(applog.New(applog.Config{
			Level:     slog.LevelInfo,
			Component: applog.ComponentHTTP,
		})),
		summaryCache:  cache.NewLRUCache[SummaryResponse](10, 1*time.Minute),
		calendarCache: cache.NewLRUCache[map[string]float64](50, 1*time.Minute),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.calendarCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /jobs", s.withMiddleware(s.handleListJobs))
	mux.HandleFunc("POST /jobs", s.withMiddleware(s.handleCreateJob))
	mux.HandleFunc("DELETE /jobs/{id}", s.withMiddleware(s.handleDeleteJob))
	mux.HandleFunc("POST /jobs/{id}/shifts", s.withMiddleware(s.handleCreateShift))
	mux.HandleFunc("DELETE /jobs/{id}/shifts/{sid}", s.withMiddleware(s.handleDeleteShift))

	mux.HandleFunc("GET /categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.withMiddleware(s.handleDeleteCategory))
	mux.HandleFunc("POST /categories/{id}/spend", s.withMiddleware(s.handleSpend))

	mux.HandleFunc("PUT /income", s.withMiddleware(s.handleSetIncome))
	mux.HandleFunc("PUT /limit", s.withMiddleware(s.handleSetLimit))
	mux.HandleFunc("PUT /currency", s.withMiddleware(s.handleSetCurrency))

	mux.HandleFunc("GET /summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /calendar", s.withMiddleware(s.handleCalendar))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.slogger.LogHTTPStart(ctx, r, clientIP)

		// Rate limit mutating methods only.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Capture the status code for the completion log
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.slogger.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) invalidateSummary() {
	s.summaryCache.Delete(summaryCacheKey)
}

func (s *Server) invalidateCalendar(year, month int) {
	s.calendarCache.Delete(strconv.Itoa(year) + "-" + strconv.Itoa(month))
}
