package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/antsif-a/schizontology-bot/internal/domain/model"
	"github.com/antsif-a/schizontology-bot/internal/infra/logging"
)

// Resolver is the part of the recipient resolver the admin API exposes.
type Resolver interface {
	Resolve(ctx context.Context) []model.Resolution
	Invalidate(ctx context.Context, identifier string)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server is the admin HTTP surface: liveness, readiness, metrics and a view of
// how the configured recipients currently resolve.
type Server struct {
	resolver Resolver
	checks   map[string]HealthCheck
	log      *zerolog.Logger
	timeout  time.Duration
}

func NewServer(resolver Resolver, checks map[string]HealthCheck, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{resolver: resolver, checks: checks, log: logger, timeout: 10 * time.Second}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recipients", s.handleRecipients)
		r.Delete("/recipients/{id}/cache", s.handleInvalidate)
	})
	return Chain(r, TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))
}

// Run serves on addr until ctx is done, then shuts down within grace.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("admin http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := readyResponse{Status: "ok", Checks: map[string]string{}}
	code := http.StatusOK
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, code, resp)
}

type recipientView struct {
	Identifier string `json:"identifier"`
	ChatID     int64  `json:"chat_id,omitempty"`
	Title      string `json:"title,omitempty"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

func (s *Server) handleRecipients(w http.ResponseWriter, r *http.Request) {
	res := s.resolver.Resolve(r.Context())
	out := make([]recipientView, 0, len(res))
	for _, it := range res {
		v := recipientView{Identifier: it.Identifier, OK: it.OK()}
		if it.OK() {
			v.ChatID = it.Destination.ChatID
			v.Title = it.Destination.Title
		} else {
			v.Error = it.Err.Error()
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}
	s.resolver.Invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Addr formats the admin listen address for a port.
func Addr(port int) string { return ":" + strconv.Itoa(port) }
