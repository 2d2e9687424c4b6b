package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rzbill/commlog/internal/runtime"
	"github.com/rzbill/commlog/internal/server/http/controllers"
	logsvc "github.com/rzbill/commlog/internal/services/logs"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

// Server is the REST gateway for log queries.
type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New builds a server with its own logs service.
func New(rt *runtime.Runtime, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	return NewWithService(rt, logsvc.NewWithLogger(rt, logger.With(logpkg.Component("logs"))), logger)
}

// NewWithService builds a server around an existing logs service.
func NewWithService(rt *runtime.Runtime, svc *logsvc.Service, logger logpkg.Logger) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	logger = logger.With(logpkg.Component("http"))
	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, svc, logger).RegisterAllRoutes(mux)
	s := &Server{rt: rt, logger: logger}
	s.srv = &http.Server{
		Handler:           cors(requestID(s.accessLog(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr returns the bound listener address, once listening.
func (s *Server) Addr() string {
	if s.lis == nil {
		return ""
	}
	return s.lis.Addr().String()
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
