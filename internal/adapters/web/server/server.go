// Package server exposes the read-only/control HTTP surface (§6): /status
// and /endpoints for monitoring, /control for operator intervention, a
// websocket push of report_status and lifecycle events, operator
// login/logout, a PDF session report download, and Prometheus /metrics.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/eapolsupd/internal/adapters/transport"
	"github.com/lcalzada-xor/eapolsupd/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/eapolsupd/internal/core/ports"
)

// Server handles the control HTTP surface for one transport source.
type Server struct {
	Addr    string
	Source  *transport.Source
	Auth    ports.AuthService
	Store   ports.SessionStore
	WSManager *websocket.Manager

	srv *http.Server
}

// NewServer creates a new control server bound to a running transport source.
func NewServer(addr string, source *transport.Source, auth ports.AuthService, store ports.SessionStore) *Server {
	s := &Server{
		Addr:      addr,
		Source:    source,
		Auth:      auth,
		Store:     store,
		WSManager: websocket.NewManager(),
	}
	source.SetNotifier(s.onSessionEvent)
	return s
}

func (s *Server) onSessionEvent(endpoint, kind, detail string) {
	if kind == "report_status" {
		s.WSManager.BroadcastReportStatus(s.Source.IfName(), endpoint, detail, "")
		return
	}
	s.WSManager.BroadcastLifecycle(s.Source.IfName(), endpoint, kind)
}

// Handler returns the routed HTTP handler, exported for testing.
func (s *Server) Handler() http.Handler {
	return setupRoutes(s)
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	handler := setupRoutes(s)
	instrumented := otelhttp.NewHandler(handler, "eapolsupd-control-server")

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           instrumented,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("control server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("control server shutdown error: %v", err)
		}
	}()

	log.Printf("control server listening on %s", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
