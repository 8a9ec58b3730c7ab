// Command dbgm is the anonymization and search service for Italian
// judicial ordinances.
//
// Usage:
//
//	dbgm -config dbgm.yaml
//
// Environment overrides: PORT, LOG_LEVEL, DOCUMENTS_DB, SEARCH_DB,
// NER_ENDPOINT, DICTIONARY, MCP_TRANSPORT=stdio.
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

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/karjudev/dbgm/dbopen"
	"github.com/karjudev/dbgm/docpipe"
	"github.com/karjudev/dbgm/docstore"
	"github.com/karjudev/dbgm/keywords"
	"github.com/karjudev/dbgm/ner"
	"github.com/karjudev/dbgm/pipeline"
	"github.com/karjudev/dbgm/searchindex"
)

func main() {
	configPath := flag.String("config", "", "path to dbgm.yaml config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		slog.Error("dbgm: config", "error", err)
		os.Exit(1)
	}
	applyEnv(cfg)

	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("dbgm: fatal", "error", err)
		os.Exit(1)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Listen = ":" + v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DOCUMENTS_DB"); v != "" {
		cfg.DocumentsDB = v
	}
	if v := os.Getenv("SEARCH_DB"); v != "" {
		cfg.SearchDB = v
	}
	if v := os.Getenv("NER_ENDPOINT"); v != "" {
		cfg.NER.Endpoint = v
	}
	if v := os.Getenv("DICTIONARY"); v != "" {
		cfg.Dictionary = v
	}
}

func run(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	docsDB, err := dbopen.Open(cfg.DocumentsDB, dbopen.WithMkdirAll())
	if err != nil {
		return fmt.Errorf("documents db: %w", err)
	}
	defer docsDB.Close()
	docs, err := docstore.New(docsDB)
	if err != nil {
		return fmt.Errorf("documents schema: %w", err)
	}

	searchDB, err := dbopen.Open(cfg.SearchDB, dbopen.WithMkdirAll())
	if err != nil {
		return fmt.Errorf("search db: %w", err)
	}
	defer searchDB.Close()
	index, err := searchindex.New(searchDB,
		searchindex.WithCommitCheck(docs.Exists),
		searchindex.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("search schema: %w", err)
	}

	dictionary, err := keywords.Load(cfg.Dictionary)
	if err != nil {
		return fmt.Errorf("dictionary: %w", err)
	}
	logger.Info("dictionary loaded", "path", cfg.Dictionary, "terms", dictionary.Len())

	recognizer := ner.New(ner.Config{
		Endpoint: cfg.NER.Endpoint,
		Timeout:  cfg.NER.Timeout,
		Logger:   logger,
	})
	checkCtx, checkCancel := context.WithTimeout(ctx, 10*time.Second)
	defer checkCancel()
	if err := recognizer.Check(checkCtx); err != nil {
		return fmt.Errorf("annotation service: %w", err)
	}
	logger.Info("annotation service reachable", "endpoint", cfg.NER.Endpoint)

	extractor := docpipe.New(docpipe.Config{
		MaxFileSize: cfg.MaxUploadBytes,
		Logger:      logger,
	})

	svc := pipeline.New(extractor, recognizer, dictionary, docs, index,
		pipeline.WithLogger(logger),
		pipeline.WithPolicy(cfg.Policy()),
		pipeline.WithKeywordOptions(cfg.Keywords),
		pipeline.WithReconcileGrace(cfg.Reconcile.Grace))
	svc.StartSweeper(ctx, cfg.Reconcile.Interval)

	// MCP over stdio when requested; the HTTP server still runs.
	if os.Getenv("MCP_TRANSPORT") == "stdio" {
		srv := mcp.NewServer(&mcp.Implementation{Name: "dbgm", Version: "1.0.0"}, nil)
		svc.RegisterMCP(srv)
		go func() {
			if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
				logger.Error("mcp server", "error", err)
			}
		}()
		logger.Info("mcp server listening on stdio")
	}

	api := newAPI(svc, docs, index, cfg, logger)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dbgm: listening", "addr", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("dbgm: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
