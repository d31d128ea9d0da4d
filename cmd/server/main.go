// Stylist - conversational outfit assistant server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/itpurple/stylist/internal/api"
	"github.com/itpurple/stylist/internal/assistant"
	"github.com/itpurple/stylist/internal/catalog"
	"github.com/itpurple/stylist/internal/chat"
	"github.com/itpurple/stylist/internal/config"
	"github.com/itpurple/stylist/internal/dialog"
	"github.com/itpurple/stylist/internal/identity"
	"github.com/itpurple/stylist/internal/middleware"
	"github.com/itpurple/stylist/internal/schema"
	"github.com/itpurple/stylist/internal/session"
	"github.com/itpurple/stylist/internal/store"
	"github.com/itpurple/stylist/internal/stylist"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	client := newCatalogClient(cfg)

	var generator stylist.TextGenerator = stylist.NoopGenerator{}
	if cfg.Generation.APIKey != "" {
		generator = stylist.NewOpenAIGenerator(stylist.OpenAIConfig{
			APIKey:    cfg.Generation.APIKey,
			BaseURL:   cfg.Generation.BaseURL,
			Model:     cfg.Generation.Model,
			MaxTokens: cfg.Generation.MaxTokens,
		})
		slog.Info("Text generation enabled", "model", cfg.Generation.Model)
	} else {
		slog.Info("Text generation disabled (GENERATION_API_KEY not set), descriptions will use the fallback")
	}
	describer := stylist.NewDescriber(generator, cfg.Generation.Timeout)

	// Initialize services.
	engine := dialog.NewEngine(schema.StylistFlow(schema.DefaultCatalog()))
	sessions := session.NewStore()
	svc := assistant.NewService(engine, sessions, client, repo, describer, cfg.Catalog.Timeout)

	// Initialize handlers.
	handler := api.NewHandler(svc)
	cm := chat.NewConnManager()
	wsHandler := chat.NewWebSocketHandler(svc, cm, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	handler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout, WebSocket conversations are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartTTLWorker(ctx, sessions, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cm.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server stopped")
}

func newCatalogClient(cfg *config.Config) *catalog.Client {
	httpClient := &http.Client{Timeout: cfg.Catalog.Timeout}
	if cfg.Catalog.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.Catalog.ProxyURL)
		if err != nil {
			slog.Warn("Invalid CATALOG_PROXY_URL, continuing without proxy", "error", err)
		} else {
			httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	return catalog.NewClient(cfg.Catalog.BaseURL, catalog.WithHTTPClient(httpClient))
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}
