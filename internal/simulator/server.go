package simulator

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"
)

const (
	maxHeaderBytes    = 1 << 20 // 1 MB
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server wraps an *http.Server to provide start/shutdown lifecycle.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// newHTTPServer builds a configured *http.Server for the given handler.
func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Listen binds addr for handler. Split from Serve so callers can learn the
// bound address (useful with port 0) before serving.
func (s *Server) Listen(addr string, handler http.Handler) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	s.httpServer = newHTTPServer(handler)
	return ln.Addr(), nil
}

// Serve handles requests until Shutdown. Returns nil after a clean shutdown.
func (s *Server) Serve() error {
	if s.httpServer == nil {
		return stderrors.New("simulator: Serve called before Listen")
	}
	err := s.httpServer.Serve(s.listener)
	if stderrors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, allowing in-flight requests to complete.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	// Serve may not have taken ownership of the listener yet.
	if cerr := s.listener.Close(); cerr != nil && !stderrors.Is(cerr, net.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}
