// Package server exposes the dispatcher over HTTP.
//
//	POST /v1/actions/{action}   body is the action payload
//	GET  /healthz
//	GET  /metrics
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/dbagent/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxBody caps a request payload.
const DefaultMaxBody = 1 << 20

const shutdownTimeout = 10 * time.Second

// Runner is the part of the dispatcher the server needs.
type Runner interface {
	Run(ctx context.Context, action string, payload []byte) (string, error)
}

// Config holds the server dependencies.
type Config struct {
	Addr     string
	Runner   Runner
	Log      *logger.Logger
	Gatherer prometheus.Gatherer // nil serves the default registry
	MaxBody  int64               // 0 means DefaultMaxBody
}

// Server serves dispatcher actions over HTTP.
type Server struct {
	addr     string
	runner   Runner
	log      *logger.Logger
	gatherer prometheus.Gatherer
	maxBody  int64
}

// New creates a server. Nothing listens until Serve is called.
func New(cfg Config) *Server {
	s := &Server{
		addr:     cfg.Addr,
		runner:   cfg.Runner,
		log:      logger.OrNop(cfg.Log),
		gatherer: cfg.Gatherer,
		maxBody:  cfg.MaxBody,
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBody
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.accessLog,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/actions/{action}", s.handleAction)
	})
	return r
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.log.Infof("listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeEnvelope(w, http.StatusRequestEntityTooLarge, action, "invalid_input", "payload too large")
			return
		}
		writeEnvelope(w, http.StatusBadRequest, action, "invalid_input", "failed to read payload")
		return
	}

	out, err := s.runner.Run(r.Context(), action, payload)
	if err != nil {
		writeError(w, action, err)
		return
	}
	writeJSON(w, http.StatusOK, []byte(out))
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("elapsed_ms", int(time.Since(start).Milliseconds())).
			Logger().
			Debug("http request")
	})
}
