// Package server exposes habits, completions and streaks as a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rnwolfe/habit/internal/auth"
	"github.com/rnwolfe/habit/internal/daykey"
	"github.com/rnwolfe/habit/internal/habit"
	"github.com/rnwolfe/habit/internal/logger"
	"github.com/rnwolfe/habit/internal/version"
)

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Habits   *habit.Store
	Verifier auth.Verifier
	// Location decides which calendar day "today" is. Nil means time.Local.
	Location *time.Location
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// Server hosts the habit API.
type Server struct {
	habits   *habit.Store
	verifier auth.Verifier
	loc      *time.Location
	now      func() time.Time
	handler  http.Handler
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	if opts.Habits == nil {
		return nil, errors.New("server: habit store is required")
	}
	if opts.Verifier == nil {
		return nil, errors.New("server: token verifier is required")
	}
	s := &Server{
		habits:   opts.Habits,
		verifier: opts.Verifier,
		loc:      opts.Location,
		now:      opts.Now,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /api/habits", s.listHabits)
	api.HandleFunc("POST /api/habits", s.createHabit)
	api.HandleFunc("PATCH /api/habits", s.renameHabit)
	api.HandleFunc("DELETE /api/habits", s.deleteHabit)
	api.HandleFunc("GET /api/completions", s.listCompletions)
	api.HandleFunc("POST /api/completions", s.createCompletion)
	api.HandleFunc("DELETE /api/completions", s.deleteCompletion)
	api.HandleFunc("GET /api/streaks", s.getStreaks)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: version.Get()})
	})
	mux.Handle("/api/", auth.Middleware(s.verifier, func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, err)
	}, api))
	return logRequests(mux)
}

type healthResponse struct {
	Status string       `json:"status"`
	Build  version.Info `json:"build"`
}

// today is the current calendar day in the server's location.
func (s *Server) today() daykey.Key {
	return daykey.In(s.now(), s.loc)
}

// Serve accepts connections on ln until ctx ends, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		logger.Info("api stopped")
		return nil
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(start),
		)
	})
}
