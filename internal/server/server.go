package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/xid"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"

	"github.com/go-sod/wknn/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-Id"

type Server struct {
	addr     string
	listener net.Listener
}

// New listens on addr. maxConns > 0 caps the number of simultaneously
// accepted connections.
func New(addr string, maxConns int) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener on %s: %w", addr, err)
	}
	if maxConns > 0 {
		listener = netutil.LimitListener(listener, maxConns)
	}

	return &Server{
		addr:     listener.Addr().String(),
		listener: listener,
	}, nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) ServeHTTP(ctx context.Context, srv *http.Server) error {
	logger := logging.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		<-ctx.Done()

		logger.Debugf("server.Serve: context closed")
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()

		logger.Debugf("server.Serve: shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}

	logger.Debugf("server.Serve: serving stopped")

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to shutdown: %w", err)
	default:
		return nil
	}
}

func (s *Server) ServeHTTPHandler(ctx context.Context, handler http.Handler) error {
	return s.ServeHTTP(ctx, &http.Server{
		Handler:           WithRequestID(ctx, handler),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	})
}

// ServeGRPC serves srv on the server listener until ctx is done, then stops
// it gracefully.
func (s *Server) ServeGRPC(ctx context.Context, srv *grpc.Server) error {
	logger := logging.FromContext(ctx)
	logger.Debugf("server: grpc serving on %s", s.addr)

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			logger.Debugf("server: grpc context closed")
			srv.GracefulStop()
		case <-stopped:
		}
	}()
	defer close(stopped)

	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve grpc: %w", err)
	}

	logger.Debugf("server: grpc serving stopped")
	return nil
}

// WithRequestID tags every request with an xid, echoes it in the response
// and attaches a logger carrying it to the request context.
func WithRequestID(ctx context.Context, next http.Handler) http.Handler {
	base := logging.FromContext(ctx)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := base.With("request_id", id, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
	})
}

func HandleHealth(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, `{"status": "ok"}`)
	})
}
