package tripagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripagent/agent"
	"tripagent/checkpoint"
	"tripagent/handlers"
	"tripagent/llm"
	"tripagent/tools"
)

// Server is the trip-agent service instance. Create one with New(), then
// call Start() to load config, build the planner and run the HTTP server.
type Server struct {
	configFile string
	host       string
	port       int

	extraTools []agent.Tool

	cfg  *Config
	deps *handlers.Deps
	srv  *http.Server
	log  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithConfigFile sets the path to config.yaml (default "config.yaml").
func WithConfigFile(path string) Option {
	return func(s *Server) { s.configFile = path }
}

// WithHost overrides the listen host from config.
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// WithPort overrides the listen port from config.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithTool registers an additional tool alongside the built-in suite.
func WithTool(t agent.Tool) Option {
	return func(s *Server) { s.extraTools = append(s.extraTools, t) }
}

// New creates a new Server with the given options.
func New(opts ...Option) *Server {
	s := &Server{
		configFile: "config.yaml",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start loads config, builds dependencies, and runs the HTTP server. It
// blocks until the server is shut down via signal or Shutdown().
func (s *Server) Start() error {
	cfg, err := LoadConfig(s.configFile)
	if err != nil {
		return err
	}
	s.cfg = cfg
	if s.host == "" {
		s.host = cfg.Server.Host
	}
	if s.port == 0 {
		s.port = cfg.Server.Port
	}

	level, err := ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return &ConfigError{Message: err.Error()}
	}
	s.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(s.log)

	gateway, err := llm.NewGateway(cfg.Agent.Provider, cfg.ProviderConfig())
	if err != nil {
		return &ConfigError{Message: err.Error()}
	}

	suite := tools.All(cfg.ToolKeys())
	registry, err := agent.NewRegistry(append(suite, s.extraTools...)...)
	if err != nil {
		return &ConfigError{Message: err.Error()}
	}

	store, closeStore, err := s.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	planner := agent.NewPlanner(gateway, registry, store, cfg.Agent.MaxHops, s.log)
	s.deps = &handlers.Deps{
		Planner:  planner,
		Registry: registry,
		Store:    store,
		Log:      s.log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"provider": cfg.Agent.Provider,
			"tools":    registry.Len(),
		})
	})
	handlers.RegisterRoutes(mux, s.deps)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // disable for SSE
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on signal
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		s.log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}()

	s.log.Info("tripagent starting",
		"addr", addr,
		"provider", cfg.Agent.Provider,
		"model", cfg.ProviderConfig().Model,
		"tools", registry.Len(),
		"checkpoint", cfg.Checkpoint.Backend)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) openStore() (agent.Checkpointer, func(), error) {
	switch s.cfg.Checkpoint.Backend {
	case "memory":
		store := checkpoint.NewMemoryStore()
		return store, func() { store.Close() }, nil
	case "sqlite":
		path := s.cfg.Checkpoint.Path
		if path == "" {
			path = "tripagent.db"
		}
		store, err := checkpoint.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open checkpoint db: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, &ConfigError{Message: fmt.Sprintf("unknown checkpoint backend %q", s.cfg.Checkpoint.Backend)}
	}
}

// corsMiddleware allows browser clients on other origins to call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
