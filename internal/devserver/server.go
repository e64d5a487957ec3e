// Package devserver runs the local household backend: the REST surface and
// the Socket.IO hub on one listener.
package devserver

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/forttask/internal/errors"
	"github.com/dmitrijs2005/forttask/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address string
	handler http.Handler
	onStop  func()
	logger  logging.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewHTTPServer serves handler on address. onStop, when set, runs once the
// listener stops accepting, before in-flight requests are drained.
func NewHTTPServer(address string, handler http.Handler, onStop func(), l logging.Logger) *HTTPServer {
	return &HTTPServer{
		address: address,
		handler: handler,
		onStop:  onStop,
		logger:  l.With("module", "http_server"),
	}
}

// Addr is the bound address once Run is listening, or nil.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run listens and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.address)
	}
	s.mu.Lock()
	s.addr = listen.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		if s.onStop != nil {
			s.onStop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "HTTP shutdown incomplete", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}
	<-stopped
	return nil
}
