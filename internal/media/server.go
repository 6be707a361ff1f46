package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes a local media directory over HTTP so the flashcard
// application can fetch attachments referenced by localhost URLs.
type Server struct {
	dir    string
	addr   string
	logger *slog.Logger

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a media server for dir. It does not bind until Listen.
func NewServer(dir, addr string, logger *slog.Logger) *Server {
	s := &Server{dir: dir, addr: addr, logger: logger}
	s.httpServer = &http.Server{Handler: s.Router()}
	return s
}

// Router returns the chi router serving the media directory.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	files := http.FileServer(http.Dir(s.dir))
	r.Handle("/*", files)
	return r
}

// Listen binds the listen address. Once it returns nil the server is
// reachable even though Serve has not been called yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("media server listen %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Serve accepts connections until Shutdown is called.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("Media server listening",
		slog.String("address", s.Addr()),
		slog.String("dir", s.dir))
	if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("media server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
