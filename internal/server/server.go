// Package server exposes the idea generation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/idea-studio/internal/config"
	"github.com/jonathan/idea-studio/internal/db"
	"github.com/jonathan/idea-studio/internal/ideas"
	"github.com/jonathan/idea-studio/internal/server/middleware"
	"github.com/jonathan/idea-studio/internal/server/ratelimit"
)

// DefaultMaxBodyBytes caps the size of a generation request body.
const DefaultMaxBodyBytes = 64 << 10

// Generator runs the idea pipeline.
type Generator interface {
	Generate(ctx context.Context, req ideas.GenerationRequest) (*ideas.GenerationResult, error)
}

// HistoryStore records generation runs. *db.DB satisfies it.
type HistoryStore interface {
	CreateGeneration(ctx context.Context, niche, provider string, request any) (uuid.UUID, error)
	CompleteGeneration(ctx context.Context, id uuid.UUID, ideaCount int, result any) error
	FailGeneration(ctx context.Context, id uuid.UUID, kind, message string) error
	GetGeneration(ctx context.Context, id uuid.UUID) (*db.Generation, error)
	ListGenerations(ctx context.Context, limit, offset int) ([]db.Generation, error)
}

// Config holds server configuration
type Config struct {
	Port         int
	Provider     string            // recorded with each history entry
	MaxBodyBytes int64             // defaults to DefaultMaxBodyBytes
	RateLimit    *ratelimit.Config // nil uses ratelimit defaults
	JWT          *config.JWTConfig // nil disables authentication
	History      HistoryStore      // nil disables history routes and recording
}

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	generator    Generator
	history      HistoryStore
	provider     string
	maxBodyBytes int64
	rateLimiter  *ratelimit.Limiter
	jwtService   *JWTService
}

// New creates a server that serves gen.
func New(cfg Config, gen Generator) (*Server, error) {
	if gen == nil {
		return nil, fmt.Errorf("server requires a generator")
	}

	s := &Server{
		generator:    gen,
		history:      cfg.History,
		provider:     cfg.Provider,
		maxBodyBytes: cfg.MaxBodyBytes,
		rateLimiter:  ratelimit.NewLimiter(cfg.RateLimit),
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/content/generate", s.handleGenerate)
	if s.history != nil {
		mux.HandleFunc("GET /api/content/generations", s.handleListGenerations)
		mux.HandleFunc("GET /api/content/generations/{id}", s.handleGetGeneration)
	}

	var handler http.Handler = mux
	if s.jwtService != nil {
		handler = middleware.AuthMiddleware(s.jwtService.AsTokenValidator(), "/api/")(handler)
	}
	handler = s.withCORS(s.withRateLimit(s.withLogging(handler)))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      180 * time.Second, // provider calls can be slow
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[server] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("[server] stopped")
	return nil
}

// withCORS adds CORS headers and answers preflight requests
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed their budget
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// statusRecorder captures the status code for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging tags each request with an ID and logs its outcome
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Printf("[server] %s %s request_id=%s status=%d duration=%v",
			r.Method, r.URL.Path, requestID, rec.status, time.Since(start))
	})
}

// RequestID returns the ID assigned by the logging middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "message": "API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID uses the peer IP as the client identifier.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Seconds())
	if info.RetryAfter > 0 && retryAfter == 0 {
		retryAfter = 1
	}
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	log.Printf("[rate-limit] limit exceeded: limit=%d reset=%s",
		info.Limit, info.ResetTime.Format(time.RFC3339))

	response := map[string]any{
		"error": "rate limit exceeded, please try again later",
		"limit": info.Limit,
	}
	if retryAfter > 0 {
		response["retry_after"] = retryAfter
	}
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
