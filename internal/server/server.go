package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/termitary/apiserver/config"
	"github.com/termitary/apiserver/internal/db"
	"github.com/termitary/apiserver/internal/events"
	"github.com/termitary/apiserver/internal/handlers"
	"github.com/termitary/apiserver/internal/hasher"
	"github.com/termitary/apiserver/internal/services"
	"github.com/termitary/apiserver/internal/store"
)

// Server wraps the HTTP server and its dependencies. All shared handles
// (database, event bus) are owned here: opened in New, closed in Shutdown.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        events.Bus
	cancelSink context.CancelFunc
}

// New constructs a Server with all dependencies wired explicitly.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	secretHasher, err := hasher.New(cfg.Hash.Algorithm)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	bus, err := openEventBus(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	sessionRepo := store.NewSessionRepository(dbConn)
	todoRepo := store.NewTodoRepository(dbConn)

	sessionService := services.NewSessionService(sessionRepo, secretHasher)
	authService := services.NewAuthService(userRepo, sessionService, secretHasher, bus)
	userService := services.NewUserService(userRepo)
	todoService := services.NewTodoService(todoRepo, bus)

	authMiddleware := handlers.RequireAuth(sessionService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authService, sessionService, userService)
		})
		r.Route("/todos", func(r chi.Router) {
			handlers.TodoRouter(r, todoService, authMiddleware)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService, authMiddleware)
		})
	})

	var cancelSink context.CancelFunc
	if bus != nil {
		var sinkCtx context.Context
		sinkCtx, cancelSink = context.WithCancel(context.Background())
		events.LogSink(sinkCtx, bus, services.UserCreatedChannel, services.TodoCreatedChannel)
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
		cancelSink: cancelSink,
	}, nil
}

func openEventBus(ctx context.Context, cfg config.EventsConfig) (events.Bus, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		return events.NewRabbitMQBus(cfg.RabbitMQ)
	case "pubsub":
		return events.NewPubSubBus(ctx, cfg.PubSub)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown releases every shared resource the server owns.
func (s *Server) Shutdown() error {
	if s.cancelSink != nil {
		s.cancelSink()
	}
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
