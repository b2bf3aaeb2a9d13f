package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"jobhunter/internal/agents"
	"jobhunter/internal/auth"
	"jobhunter/internal/capabilities"
	"jobhunter/internal/config"
	agentRepo "jobhunter/internal/domain/repositories/agent"
	"jobhunter/internal/handler"
	"jobhunter/internal/handler/sse"
	"jobhunter/internal/middleware"
	"jobhunter/internal/repository/memory"
	"jobhunter/internal/repository/postgres"
	postgresAgent "jobhunter/internal/repository/postgres/agent"
	"jobhunter/internal/service/agent/chat"
	"jobhunter/internal/service/agent/orchestrator"
	"jobhunter/internal/service/agent/providers"
	"jobhunter/internal/service/agent/tools"
	"jobhunter/internal/service/agent/tools/external"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server stopped", "error", err)
	}
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	history, closeStore, err := setupHistory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		return fmt.Errorf("load model capabilities: %w", err)
	}

	catalog, err := loadAgents(cfg)
	if err != nil {
		return err
	}

	providerNames := make([]string, 0, len(catalog.List()))
	for _, p := range catalog.List() {
		providerNames = append(providerNames, p.Provider)
	}
	modelClients := providers.NewFactory(cfg, logger).BuildAll(providerNames)

	// search_jobs is always registered; without a key every call fails
	// with a tool error the model can report.
	if cfg.TavilyAPIKey == "" {
		logger.Warn("TAVILY_API_KEY not set; search_jobs will report that search is unavailable")
	}
	toolRegistry, err := tools.NewRegistryBuilder().
		WithJobSearch(external.NewTavilyClient(cfg.TavilyAPIKey)).
		Build()
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}

	chatService, err := chat.NewService(chat.Deps{
		Agents:       catalog,
		Providers:    modelClients,
		Tools:        toolRegistry,
		Capabilities: capabilityRegistry,
		History:      history,
		Orchestrator: orchestrator.New(cfg.BudgetThreshold, logger),
		Config: chat.Config{
			DefaultContextWindow: cfg.DefaultContextWindow,
			MaxOutputTokens:      cfg.MaxOutputTokens,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("set up chat service: %w", err)
	}

	agentHandler := handler.NewAgentHandler(chatService, &sse.Config{
		KeepAliveInterval: sse.DefaultConfig().KeepAliveInterval,
		EventIDs:          cfg.Debug,
	}, logger)
	modelsHandler := handler.NewModelsHandler(capabilityRegistry, slices.Sorted(maps.Keys(modelClients)), logger)

	logger.Info("services initialized",
		"agents", len(catalog.List()),
		"providers", len(modelClients),
		"tools", toolRegistry.Names(),
	)

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.HandleFunc("GET /api/agents", agentHandler.ListAgents)
	mux.HandleFunc("POST /api/agents/{agentId}/chat", agentHandler.Chat)
	mux.HandleFunc("GET /api/sessions/{id}/turns", agentHandler.SessionTurns)
	mux.HandleFunc("GET /api/models", modelsHandler.GetCapabilities)

	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	if cfg.AuthJWKSURL != "" {
		verifier, err := auth.NewJWTVerifier(ctx, cfg.AuthJWKSURL, logger)
		if err != nil {
			return fmt.Errorf("create JWT verifier: %w", err)
		}
		defer func() { _ = verifier.Close() }()
		h = middleware.Auth(verifier, logger, "/health")(h)
	} else {
		logger.Warn("AUTH_JWKS_URL not set; API is unauthenticated")
	}
	h = middleware.Recovery(logger)(h)

	// CORS must wrap auth so OPTIONS pre-flight requests get through
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// setupHistory picks the conversation store: PostgreSQL when DATABASE_URL is
// set, process memory otherwise.
func setupHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (agentRepo.HistoryStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set; conversation history is kept in memory")
		return memory.NewHistoryStore(), func() {}, nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	store := postgresAgent.NewHistoryStore(repoConfig, postgres.NewTransactionManager(pool, logger))
	return store, pool.Close, nil
}

func loadAgents(cfg *config.Config) (*agents.Catalog, error) {
	defaults := agents.Defaults{Provider: cfg.DefaultProvider, Model: cfg.DefaultModel}
	if cfg.AgentsFile != "" {
		catalog, err := agents.LoadFile(cfg.AgentsFile, defaults)
		if err != nil {
			return nil, fmt.Errorf("load agents from %s: %w", cfg.AgentsFile, err)
		}
		return catalog, nil
	}
	catalog, err := agents.LoadDefault(defaults)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	return catalog, nil
}
