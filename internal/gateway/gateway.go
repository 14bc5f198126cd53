// ABOUTME: Gateway orchestrator wiring store, engine, webhook and HTTP server
// ABOUTME: Owns component lifecycle from construction through graceful shutdown

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/caribefreight/regina-gateway/internal/ai"
	"github.com/caribefreight/regina-gateway/internal/config"
	"github.com/caribefreight/regina-gateway/internal/dedupe"
	"github.com/caribefreight/regina-gateway/internal/engine"
	"github.com/caribefreight/regina-gateway/internal/ledger"
	"github.com/caribefreight/regina-gateway/internal/metrics"
	"github.com/caribefreight/regina-gateway/internal/rates"
	"github.com/caribefreight/regina-gateway/internal/session"
	"github.com/caribefreight/regina-gateway/internal/store"
	"github.com/caribefreight/regina-gateway/internal/whatsapp"
)

// Gateway orchestrates the regina-gateway server components: the SQLite
// store, the conversation engine and the HTTP surface the platform delivers
// to.
type Gateway struct {
	config     *config.Config
	store      store.Store
	dedupe     *dedupe.Cache
	engine     *engine.Engine
	httpServer *http.Server
	router     chi.Router
	logger     *slog.Logger
}

// New wires all gateway components from configuration. The returned gateway
// owns the store and dedupe cache; Run releases them on shutdown.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	aiOpts := []ai.Option{ai.WithModel(cfg.OpenAI.Model)}
	if cfg.OpenAI.Timeout > 0 {
		aiOpts = append(aiOpts, ai.WithTimeout(cfg.OpenAI.Timeout))
	}
	collaborator := ai.NewClient(cfg.OpenAI.APIKey, logger, aiOpts...)

	var transportOpts []whatsapp.ClientOption
	if cfg.WhatsApp.BaseURL != "" {
		transportOpts = append(transportOpts, whatsapp.WithBaseURL(cfg.WhatsApp.BaseURL))
	}
	transport := whatsapp.NewClient(cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID, cfg.WhatsApp.APIVersion, logger, transportOpts...)

	eng := engine.New(
		session.NewStore(),
		st,
		ledger.NewAllocator(st, logger),
		rates.NewEngine(),
		transport,
		collaborator,
		logger,
	)

	cache := dedupe.New(cfg.Dedupe.TTL, cfg.Dedupe.MaxEntries)
	webhook := whatsapp.NewWebhook(cfg.WhatsApp.VerifyToken, cfg.WhatsApp.AppSecret, cache, eng, logger)

	g := &Gateway{
		config: cfg,
		store:  st,
		dedupe: cache,
		engine: eng,
		logger: logger,
	}
	g.router = g.buildRouter(webhook)
	g.httpServer = &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      g.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return g, nil
}

// initStore creates the SQLite store based on config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	dbPath := cfg.Database.Path
	if envPath := os.Getenv("REGINA_DB_PATH"); envPath != "" {
		dbPath = envPath
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// buildRouter assembles the HTTP routes: webhook, health and optionally
// metrics.
func (g *Gateway) buildRouter(webhook *whatsapp.Webhook) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	webhook.Routes(r)
	r.Get("/health", g.handleHealth)

	if g.config.Metrics.Enabled {
		r.Handle(g.config.Metrics.Path, metrics.Handler())
	}
	return r
}

// handleHealth reports process liveness and store reachability.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if _, err := g.store.ReadSequenceTokens(r.Context()); err != nil {
		g.logger.Error("health check store probe failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// Handler exposes the assembled routes, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

// Run serves HTTP until the context is canceled, then shuts down gracefully
// and releases the store and dedupe cache.
func (g *Gateway) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", g.httpServer.Addr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	g.dedupe.Close()
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}
