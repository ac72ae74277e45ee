// Package http implements the bot's HTTP surface: the signed interactions
// endpoint commands arrive on, plus health and status endpoints for
// operators.
package http

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/B-Eddie/WOSSIB/internal/domain/focus"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/scheduler"
	discordui "github.com/B-Eddie/WOSSIB/internal/interface/discord"
	"github.com/B-Eddie/WOSSIB/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxBodyBytes - maximum interactions request body size.
	MaxBodyBytes int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxBodyBytes: 1 << 20,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains everything the HTTP handlers reach into.
type Dependencies struct {
	// Router dispatches parsed commands.
	Router *discordui.Router

	// PublicKey verifies interactions request signatures.
	PublicKey ed25519.PublicKey

	// Scheduler and Sessions feed the status endpoint. Either may be nil.
	Scheduler *scheduler.Scheduler
	Sessions  *focus.SessionManager

	// Logger for structured logging.
	Logger *logger.Logger
}

// Server is the HTTP server.
type Server struct {
	config    Config
	deps      Dependencies
	logger    *logger.Logger
	server    *http.Server
	startedAt time.Time
}

// NewServer creates the server and wires its routes.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger,
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /interactions", s.handleInteractions)

	s.server = &http.Server{
		Addr:         config.Address(),
		Handler:      s.withRecovery(s.withLogging(mux)),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.startedAt = time.Now()
	s.logger.Info("http server listening", logger.String("addr", s.config.Address()))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.server.Shutdown(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"uptime": time.Since(s.startedAt).String(),
	}
	if s.deps.Sessions != nil {
		status["active_sessions"] = len(s.deps.Sessions.List())
	}
	if s.deps.Scheduler != nil {
		jobs := make([]map[string]any, 0)
		for _, info := range s.deps.Scheduler.ListJobs() {
			jobs = append(jobs, map[string]any{
				"name":       info.Name,
				"schedule":   info.Schedule,
				"run_count":  info.RunCount,
				"fail_count": info.FailCount,
				"next_run":   info.NextRun.Format(time.RFC3339),
			})
		}
		status["jobs"] = jobs
	}
	writeJSON(w, http.StatusOK, status)
}

// handleInteractions is the signed command entrypoint. Bad signatures are
// rejected with 401 as the platform requires; pings get pongs; commands get
// inline message responses.
func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	sig := r.Header.Get("X-Signature-Ed25519")
	ts := r.Header.Get("X-Signature-Timestamp")
	if !discordui.VerifySignature(s.deps.PublicKey, ts, body, sig) {
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var interaction discordui.Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		http.Error(w, "malformed interaction", http.StatusBadRequest)
		return
	}

	switch interaction.Type {
	case discordui.InteractionPing:
		writeJSON(w, http.StatusOK, discordui.Pong())

	case discordui.InteractionApplicationCommand:
		cmd, err := interaction.Command()
		if err != nil {
			http.Error(w, "malformed command", http.StatusBadRequest)
			return
		}
		reply := s.deps.Router.Dispatch(r.Context(), cmd)
		writeJSON(w, http.StatusOK, discordui.ResponseFor(reply))

	default:
		http.Error(w, "unsupported interaction type", http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in http handler",
					logger.Any("panic", rec),
					logger.String("path", r.URL.Path),
					logger.String("stack", string(debug.Stack())),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
