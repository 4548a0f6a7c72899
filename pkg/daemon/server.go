package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds daemon server configuration.
type Config struct {
	SocketPath string
	DataDir    string
}

// Server exposes the index over HTTP on a Unix socket.
type Server struct {
	cfg      Config
	svc      *Service
	http     *http.Server
	listener net.Listener

	// shutdown, when set, is invoked on a shutdown request.
	shutdown func()
}

// NewServer creates a server for the given service and binds the
// socket. Stale sockets from a previous run are removed.
func NewServer(cfg Config, svc *Service) (*Server, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(cfg.SocketPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SocketPath), 0o755); err != nil {
		return nil, err
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(context.Background(), "unix", cfg.SocketPath)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:      cfg,
		svc:      svc,
		listener: listener,
	}

	r := mux.NewRouter()
	r.HandleFunc("/v1/status", srv.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/years", srv.handleYears).Methods(http.MethodGet)
	r.HandleFunc("/v1/places", srv.handlePlaces).Methods(http.MethodGet)
	r.HandleFunc("/v1/people", srv.handlePeople).Methods(http.MethodGet)
	r.HandleFunc("/v1/top", srv.handleTop).Methods(http.MethodGet)
	r.HandleFunc("/v1/rebuild", srv.handleRebuild).Methods(http.MethodPost)
	r.HandleFunc("/v1/shutdown", srv.handleShutdown).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	srv.http = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv, nil
}

// SetShutdownFunc installs the callback invoked by a shutdown request.
func (s *Server) SetShutdownFunc(fn func()) {
	s.shutdown = fn
}

// Serve starts the HTTP server. Blocks until Close is called.
func (s *Server) Serve() error {
	err := s.http.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close stops the server and removes the socket.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.http.Shutdown(ctx)
	return os.RemoveAll(s.cfg.SocketPath)
}
