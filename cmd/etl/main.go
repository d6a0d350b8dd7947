// Command etl runs the movie warehouse pipeline once: read the raw extracts,
// build the star schema, snapshot silver and gold, and load the configured
// warehouse backend.
//
// Usage:
//
//	etl -config config.json
//	etl -config config.json -validate
//	etl -config config.json -metrics-backend datadog -metrics-tags env:prod
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moviedw/internal/config"
	"moviedw/internal/metrics"
	"moviedw/internal/metrics/datadog"
	"moviedw/internal/pipeline"
	_ "moviedw/internal/warehouse/all"
)

func main() {
	var (
		configPath     = flag.String("config", "config.json", "path to the pipeline config file")
		validateOnly   = flag.Bool("validate", false, "validate the config and exit")
		metricsBackend = flag.String("metrics-backend", "none", "metrics backend: none or datadog")
		metricsTags    = flag.String("metrics-tags", "", "extra metrics tags, comma-separated k:v pairs")
		verbose        = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "etl ", log.LstdFlags|log.Lmsgprefix)
	if *verbose {
		logger.SetFlags(log.LstdFlags | log.Lmsgprefix | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	issues := config.Validate(cfg)
	fatal := false
	for _, is := range issues {
		logger.Printf("config %s path=%s: %s", is.Severity, is.Path, is.Message)
		if is.Severity == config.SeverityError {
			fatal = true
		}
	}
	if *validateOnly {
		if fatal {
			os.Exit(1)
		}
		fmt.Println("config ok")
		return
	}
	if fatal {
		logger.Fatal("config has errors; aborting")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *metricsBackend {
	case "none":
	case "datadog":
		backend, err := datadog.NewBackend(ctx, datadog.Options{
			JobName: cfg.Job,
			Tags:    datadog.ParseTagsCSV(*metricsTags),
		})
		if err != nil {
			logger.Fatalf("metrics: %v", err)
		}
		metrics.SetBackend(backend)
		defer func() {
			if err := backend.Close(); err != nil {
				logger.Printf("metrics flush: %v", err)
			}
		}()
	default:
		logger.Fatalf("metrics: unknown backend %q", *metricsBackend)
	}

	start := time.Now()
	runner := &pipeline.Runner{Config: &cfg, Logger: logger}
	if err := runner.Run(ctx); err != nil {
		metrics.IncCounter("etl.runs", 1, "status:error")
		_ = metrics.Flush()
		logger.Fatalf("pipeline: %v", err)
	}
	metrics.IncCounter("etl.runs", 1, "status:ok")
	logger.Printf("done duration=%s", time.Since(start).Round(time.Millisecond))
}
