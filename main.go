// resumescout — resume parsing and multi-ATS job recommendation service.
//
// Parses uploaded resumes (PDF/DOCX/TXT) into structured records, ranks
// career fields by affinity, and aggregates matching job listings from
// Greenhouse, Lever, Workday and generic careers pages. Runs as an HTTP API
// by default, or as a stdio MCP server with -mcp.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"resumescout/internal/engine"
	"resumescout/internal/engine/ats"
	"resumescout/internal/engine/enrich"
	"resumescout/internal/env"
	"resumescout/internal/jobserver"
	"resumescout/internal/server"
	"resumescout/internal/store"
)

var version = "dev"

func main() {
	mcpMode := flag.Bool("mcp", false, "run as a stdio MCP server instead of the HTTP API")
	flag.Parse()

	level := slog.LevelInfo
	if env.Bool("DEBUG", false) {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := loadConfig()
	engine.Init(cfg)
	engine.InitCache(cfg.CacheRedisURL, cfg.CacheTTL, cfg.CacheMaxEntries)

	st, err := store.Open(env.Str("DB_PATH", filepath.Join(dataDir(), "resumescout.db")))
	if err != nil {
		slog.Error("store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.Close()

	enricher := enrich.New(cfg.EnrichURL, cfg.EnrichModel, cfg.EnrichTimeout)
	if enricher.Enabled() {
		slog.Info("enrichment enabled", slog.String("url", cfg.EnrichURL), slog.String("model", cfg.EnrichModel))
	}

	providers, err := ats.NewRegistry(cfg.Providers, enricher)
	if err != nil {
		slog.Error("provider config invalid", slog.Any("error", err))
		os.Exit(1)
	}
	agg := ats.NewAggregator(providers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *mcpMode {
		runMCP(ctx, st, agg)
		return
	}
	runHTTP(ctx, st, agg, enricher)
}

func runMCP(ctx context.Context, st *store.Store, agg *ats.Aggregator) {
	srv := mcp.NewServer(&mcp.Implementation{Name: "resumescout", Version: version}, nil)
	jobserver.RegisterTools(srv, jobserver.Deps{Store: st, Agg: agg})
	slog.Info("starting resumescout MCP server", slog.String("version", version))

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		slog.Error("mcp server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func runHTTP(ctx context.Context, st *store.Store, agg *ats.Aggregator, enricher *enrich.Client) {
	addr := ":" + env.Str("PORT", "8890")
	api := server.New(st, agg, enricher)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", slog.Any("error", err))
		}
	}()

	slog.Info("starting resumescout HTTP API",
		slog.String("version", version),
		slog.String("addr", addr))
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func loadConfig() engine.Config {
	return engine.Config{
		HTTPClient: &http.Client{
			Timeout: env.Duration("FETCH_TIMEOUT", 15*time.Second),
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		ProviderTimeout: env.Duration("PROVIDER_TIMEOUT", 10*time.Second),
		RequestDeadline: env.Duration("REQUEST_DEADLINE", 25*time.Second),
		DedupeWindow:    env.Duration("DEDUPE_WINDOW", 72*time.Hour),
		MaxJobs:         env.Int("MAX_JOBS", 200),
		Providers:       loadProviders(),
		EnrichURL:       env.Str("OLLAMA_URL", ""),
		EnrichModel:     env.Str("OLLAMA_MODEL", "llama3.2"),
		EnrichTimeout:   env.Duration("OLLAMA_TIMEOUT", 30*time.Second),
		CacheTTL:        env.Duration("CACHE_TTL", time.Hour),
		CacheRedisURL:   env.Str("REDIS_URL", ""),
		CacheMaxEntries: env.Int("CACHE_MAX_ENTRIES", 256),
	}
}

// loadProviders builds the provider set from comma-separated board lists.
// Trust follows data quality: Workday tenants publish the richest records,
// generic scraping the poorest.
func loadProviders() []engine.ProviderConfig {
	var configs []engine.ProviderConfig
	if tenants := env.List("WORKDAY_TENANTS", ""); len(tenants) > 0 {
		configs = append(configs, engine.ProviderConfig{
			Kind: "workday", Name: "workday", Trust: 4, Boards: tenants,
			Rate: env.Float("WORKDAY_RATE", 2),
		})
	}
	if boards := env.List("GREENHOUSE_BOARDS", ""); len(boards) > 0 {
		configs = append(configs, engine.ProviderConfig{
			Kind: "greenhouse", Name: "greenhouse", Trust: 3, Boards: boards,
			Rate: env.Float("GREENHOUSE_RATE", 5),
		})
	}
	if boards := env.List("LEVER_BOARDS", ""); len(boards) > 0 {
		configs = append(configs, engine.ProviderConfig{
			Kind: "lever", Name: "lever", Trust: 2, Boards: boards,
			Rate: env.Float("LEVER_RATE", 5),
		})
	}
	if urls := env.List("GENERIC_CAREER_URLS", ""); len(urls) > 0 {
		configs = append(configs, engine.ProviderConfig{
			Kind: "generic", Name: "generic", Trust: 1, Boards: urls,
			Rate: env.Float("GENERIC_RATE", 1),
		})
	}
	if len(configs) == 0 {
		slog.Warn("no providers configured; job_search will return empty results")
	}
	return configs
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".resumescout")
}
