// Command server runs the pipeline (unless told not to) and then serves the
// warehouse over HTTP: browsing and filtering from the relational backend,
// full-text search from the bleve index rebuilt after each load.
//
// Usage:
//
//	server -config config.json
//	server -config config.json -skip-etl
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moviedw/internal/api"
	"moviedw/internal/config"
	"moviedw/internal/moviestore"
	"moviedw/internal/pipeline"
	"moviedw/internal/search"
	_ "moviedw/internal/warehouse/all"
)

func main() {
	var (
		configPath = flag.String("config", "config.json", "path to the pipeline config file")
		skipETL    = flag.Bool("skip-etl", false, "serve an already-loaded warehouse without running the pipeline")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "server ", log.LstdFlags|log.Lmsgprefix)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	for _, is := range config.Validate(cfg) {
		logger.Printf("config %s path=%s: %s", is.Severity, is.Path, is.Message)
		if is.Severity == config.SeverityError {
			logger.Fatal("config has errors; aborting")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*skipETL {
		runner := &pipeline.Runner{Config: &cfg, Logger: logger}
		if err := runner.Run(ctx); err != nil {
			logger.Fatalf("pipeline: %v", err)
		}
	}

	store, err := moviestore.Open(ctx, cfg.Warehouse.Kind, cfg.Warehouse.DSN)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer store.Close()

	var searcher api.Searcher
	if cfg.Search.Enabled {
		movies, err := store.All(ctx)
		if err != nil {
			logger.Fatalf("search: read warehouse: %v", err)
		}
		idx, err := search.Rebuild(cfg.Search.IndexPath, movies)
		if err != nil {
			logger.Fatalf("search: %v", err)
		}
		defer idx.Close()
		searcher = idx
		logger.Printf("search index ready path=%s documents=%d", cfg.Search.IndexPath, len(movies))
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: (&api.Server{
			Store:    store,
			Search:   searcher,
			Logger:   logger,
			Accounts: cfg.Server.Accounts,
		}).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening addr=%s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	case <-ctx.Done():
		logger.Print("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}
}
