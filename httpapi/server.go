package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"estate-chat/auth"
	"estate-chat/observability"
	"estate-chat/services"
)

// NewRouter wires the HTTP routes to the services. Everything under /api
// except registration and login requires a bearer token.
func NewRouter(
	log *slog.Logger,
	messaging services.IMessagingService,
	accounts services.IAuthService,
	tokens *auth.TokenManager,
	monitoring *observability.MonitoringManager,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	handler := NewHandler(messaging, accounts)
	wsHandler := NewWebSocketHandler(log, messaging)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/debug/stats", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, monitoring.Snapshot())
	})

	r.Route("/api", func(api chi.Router) {
		handler.RegisterPublicRoutes(api)

		api.Group(func(authed chi.Router) {
			authed.Use(auth.Middleware(tokens))
			handler.RegisterAuthedRoutes(authed)
			authed.Get("/ws", wsHandler.HandleWebSocket)
		})
	})

	return r
}

// Server owns the HTTP listener lifecycle.
type Server struct {
	log  *slog.Logger
	http *http.Server
}

func NewServer(log *slog.Logger, addr string, router http.Handler) *Server {
	return &Server{
		log: log,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
