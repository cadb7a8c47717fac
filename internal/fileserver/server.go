// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package fileserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests may run after a stop
// request.
const ShutdownTimeout = 3 * time.Second

// Options configure a Server.
type Options struct {
	// Dir is the directory to serve.
	Dir string
	// Addr is the listen address, e.g. ":8000".
	Addr string
	// Limiter caps per-client request rate; nil uses DefaultRateLimiter.
	Limiter *RateLimiter
	// Logger receives request logs.
	Logger zerolog.Logger
}

// Server serves one directory.
type Server struct {
	dir     string
	addr    string
	log     zerolog.Logger
	handler http.Handler
}

// New validates opts.Dir and builds the handler chain.
func New(opts Options) (*Server, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot serve %s: %w", opts.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot serve %s: not a directory", opts.Dir)
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = DefaultRateLimiter()
	}

	handler := Chain(
		Recovery(opts.Logger),
		SecurityHeaders(),
		Logging(opts.Logger),
		RateLimit(limiter, opts.Logger),
	)(http.FileServer(http.Dir(opts.Dir)))

	return &Server{dir: opts.Dir, addr: opts.Addr, log: opts.Logger, handler: handler}, nil
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", ln.Addr().String()).Str("dir", s.dir).Msg("FILESERVER_START")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.log.Info().Err(err).Msg("FILESERVER_STOP")
		return err
	})
	return g.Wait()
}
