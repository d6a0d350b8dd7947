// Package pipeline runs the ETL end to end: raw extracts in, cleaned silver
// snapshot, star schema build, gold snapshot, warehouse load. Stages run in
// order; each is timed and logged, and any stage error aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"moviedw/internal/config"
	"moviedw/internal/metrics"
	"moviedw/internal/snapshot"
	"moviedw/internal/source"
	"moviedw/internal/star"
	"moviedw/internal/warehouse"
)

// Runner executes one pipeline run. Logger defaults to the standard logger.
type Runner struct {
	Config *config.Config
	Logger *log.Logger
}

// Run executes every stage. The returned error names the stage that failed.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()

	var (
		rawMovies  []source.RawMovie
		rawCredits []source.RawCredit
	)
	err := r.stage(ctx, "extract", func() error {
		var err error
		if rawMovies, err = source.ReadMovies(r.Config.MoviesPath()); err != nil {
			return err
		}
		if rawCredits, err = source.ReadCredits(r.Config.CreditsPath()); err != nil {
			return err
		}
		metrics.IncCounter("etl.rows.read", float64(len(rawMovies)), "table:movies")
		metrics.IncCounter("etl.rows.read", float64(len(rawCredits)), "table:credits")
		r.logf("stage=extract movies=%d credits=%d", len(rawMovies), len(rawCredits))
		return nil
	})
	if err != nil {
		return err
	}

	builder := &star.Builder{Logger: r.logger()}

	var (
		movies  []star.Movie
		credits []star.Credit
	)
	err = r.stage(ctx, "clean", func() error {
		movies = builder.CleanMovies(rawMovies)
		credits = builder.CleanCredits(rawCredits)
		r.logf("stage=clean movies=%d credits=%d", len(movies), len(credits))
		return nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, "silver_snapshot", func() error {
		return snapshot.WriteSilver(r.Config.Layers.Silver, movies, credits)
	})
	if err != nil {
		return err
	}

	var schema *star.Schema
	err = r.stage(ctx, "build", func() error {
		schema = builder.Build(movies, credits)
		return nil
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, "gold_snapshot", func() error {
		return snapshot.WriteGold(r.Config.Layers.Gold, schema)
	})
	if err != nil {
		return err
	}

	err = r.stage(ctx, "load", func() error {
		// Load from the gold snapshot rather than memory; the load path is
		// then identical for fresh runs and replays of an existing snapshot.
		loaded, err := snapshot.ReadGold(r.Config.Layers.Gold)
		if err != nil {
			return err
		}

		repo, err := warehouse.New(ctx, warehouse.Config{
			Kind: r.Config.Warehouse.Kind,
			DSN:  r.Config.Warehouse.DSN,
		})
		if err != nil {
			return err
		}
		defer repo.Close()

		loader := &warehouse.Loader{Repo: repo, Logger: r.logger()}
		return loader.Load(ctx, loaded)
	})
	if err != nil {
		return err
	}

	r.logf("stage=pipeline ok duration=%s", time.Since(start).Round(time.Millisecond))
	return nil
}

func (r *Runner) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage %s: %w", name, err)
	}

	start := time.Now()
	if err := fn(); err != nil {
		metrics.IncCounter("etl.stage.errors", 1, "stage:"+name)
		return fmt.Errorf("stage %s: %w", name, err)
	}

	elapsed := time.Since(start)
	metrics.ObserveStage(name, elapsed.Seconds())
	r.logf("stage=%s ok duration=%s", name, elapsed.Round(time.Millisecond))
	return nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func (r *Runner) logf(format string, v ...any) {
	r.logger().Printf(format, v...)
}
