package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/exercise-tracker/apiserver/config"
	"github.com/exercise-tracker/apiserver/internal/db"
	"github.com/exercise-tracker/apiserver/internal/handlers"
	"github.com/exercise-tracker/apiserver/internal/mq"
	"github.com/exercise-tracker/apiserver/internal/services"
	"github.com/exercise-tracker/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

// Server wraps the HTTP server, router and the backends it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	closeStore func()
	queue      *mq.MQ
	closeOnce  sync.Once
}

// Repositories bundles the storage backend selected by configuration.
type Repositories struct {
	Users     services.UserRepository
	Exercises services.ExerciseRepository
}

// New opens the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	repos, closeStore, err := OpenRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	s := &Server{logger: logger, closeStore: closeStore}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		s.closeBackends()
		return nil, err
	}
	s.queue = queue

	var events services.EventPublisher
	if queue != nil {
		events = mq.NewEventPublisher(queue)
	}

	s.router = NewRouter(cfg, repos, events, logger)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		"store_backend", cfg.StoreBackend,
		"mq_backend", cfg.MQ.Backend,
		"port", cfg.ServerPort)
	return s, nil
}

// OpenRepositories connects to the configured store backend. The returned
// func releases the connection.
func OpenRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (Repositories, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return Repositories{}, nil, err
		}
		return Repositories{
			Users:     store.NewUserRepository(conn),
			Exercises: store.NewExerciseRepository(conn),
		}, closeSQL(conn), nil
	case config.StoreBackendMongo:
		client, database, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return Repositories{}, nil, err
		}
		if err := store.EnsureMongoIndexes(ctx, database); err != nil {
			closeMongo(client)()
			return Repositories{}, nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return Repositories{
			Users:     store.NewMongoUserRepository(database),
			Exercises: store.NewMongoExerciseRepository(database),
		}, closeMongo(client), nil
	case config.StoreBackendMemory:
		if logger != nil {
			logger.Warn("using in-memory store; data is lost on restart")
		}
		return Repositories{
			Users:     store.NewInMemoryUserRepository(),
			Exercises: store.NewInMemoryExerciseRepository(),
		}, func() {}, nil
	default:
		return Repositories{}, nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func closeSQL(conn *sql.DB) func() {
	return func() { _ = conn.Close() }
}

func closeMongo(client *mongo.Client) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
}

// NewRouter builds the HTTP routes over the given repositories.
func NewRouter(cfg config.Config, repos Repositories, events services.EventPublisher, logger *slog.Logger) *chi.Mux {
	userService := services.NewUserService(repos.Users, events, logger)
	exerciseService := services.NewExerciseService(userService, repos.Exercises, events, logger)
	logService := services.NewLogService(userService, repos.Exercises, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(logger),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}),
		middleware.Timeout(60*time.Second),
	)

	router.Get("/", handlers.Index)
	router.Handle("/public/*", handlers.PublicAssets())
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, exerciseService, logService, logger)
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or the listener fails. The backends are
// closed on either path.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		s.closeBackends()
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown drains in-flight requests and then closes the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeBackends()
	return err
}

func (s *Server) closeBackends() {
	s.closeOnce.Do(func() {
		if s.queue != nil {
			if err := s.queue.Close(); err != nil {
				s.logger.Warn("failed to close message queue", "error", err)
			}
		}
		if s.closeStore != nil {
			s.closeStore()
		}
	})
}
