package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/tendant/content-dimension/pkg/dimension/api"
	"github.com/tendant/content-dimension/pkg/dimension/config"
	"github.com/tendant/content-dimension/pkg/dimension/presets"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	helpEnv := flag.Bool("help-env", false, "print the supported environment variables and exit")
	dev := flag.Bool("dev", false, "serve ./forms and ./fixtures.yaml from memory with debug logging")
	flag.Parse()

	if *helpEnv {
		fmt.Println(config.EnvUsage())
		return
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, serverConfig, err := buildServices(ctx, *configFile, *dev)
	if err != nil {
		slog.Error("Failed to build services", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	logger := newLogger(serverConfig)
	slog.SetDefault(logger)

	server := NewHTTPServer(services, serverConfig, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Content dimension server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"search", serverConfig.SearchEngine,
			"forms", len(services.Forms.Keys()))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}

func buildServices(ctx context.Context, configFile string, dev bool) (*config.Services, *config.ServerConfig, error) {
	if dev {
		return presets.NewDevelopment(ctx)
	}

	opts := []config.Option{}
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	opts = append(opts, config.WithEnv())

	serverConfig, err := config.Load(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load server configuration: %w", err)
	}

	services, err := serverConfig.BuildServices(ctx, newLogger(serverConfig))
	if err != nil {
		return nil, nil, err
	}
	return services, serverConfig, nil
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// HTTPServer exposes the resolution pipeline over HTTP
type HTTPServer struct {
	services *config.Services
	config   *config.ServerConfig
	logger   *slog.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(services *config.Services, serverConfig *config.ServerConfig, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPServer{
		services: services,
		config:   serverConfig,
		logger:   logger,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(api.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware(s.logger))
	r.Use(api.RecoveryMiddleware(s.logger))
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if s.config.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", s.handleHealth)

	content := api.NewContentHandler(
		s.services.Aggregator,
		s.services.Resolver,
		s.services.Indexer,
		s.services.Repository,
		s.logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/forms", s.handleListForms)
		r.Mount("/content", content.Routes())
	})

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleListForms(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"forms":   s.services.Forms.Keys(),
		"locales": s.config.Locales,
	})
}
