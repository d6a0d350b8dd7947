package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"moviedw/internal/config"
	"moviedw/internal/moviestore"
	"moviedw/internal/snapshot"
	_ "moviedw/internal/warehouse/all"
)

func writeCSV(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Config{
		Job: "movie_dw_test",
		Layers: config.Layers{
			Bronze: filepath.Join(root, "bronze"),
			Silver: filepath.Join(root, "silver"),
			Gold:   filepath.Join(root, "gold"),
		},
		Source: config.Source{MoviesFile: "movies.csv", CreditsFile: "credits.csv"},
		Warehouse: config.Warehouse{
			Kind: "sqlite",
			DSN:  filepath.Join(root, "warehouse.db"),
		},
	}
	if err := os.MkdirAll(cfg.Layers.Bronze, 0o755); err != nil {
		t.Fatal(err)
	}

	writeCSV(t, cfg.MoviesPath(), [][]string{
		{"id", "title", "overview", "tagline", "status", "runtime",
			"original_language", "budget", "revenue", "popularity", "vote_average",
			"vote_count", "release_date", "genres", "production_companies",
			"production_countries", "spoken_languages"},
		{"19995", "Avatar", "A paraplegic Marine.", "Enter the World of Pandora.",
			"Released", "162", "en", "237000000", "2787965087", "150.437577", "7.2",
			"11800", "2009-12-10",
			`[{'id': 28, 'name': 'Action'}, {'id': 12, 'name': 'Adventure'}]`,
			`[{'id': 289, 'name': 'Ingenious Film Partners'}]`,
			`[{'iso_3166_1': 'US', 'name': 'United States of America'}]`,
			`[{'iso_639_1': 'en', 'name': 'English'}]`},
		{"285", "Pirates of the Caribbean: At World's End", "", "", "Released",
			"169", "en", "300000000", "961000000", "139.082615", "6.9", "4500",
			"2007-05-19",
			`[{'id': 12, 'name': 'Adventure'}, {'id': 14, 'name': 'Fantasy'}]`,
			"[]", "[]", "[]"},
	})
	writeCSV(t, cfg.CreditsPath(), [][]string{
		{"movie_id", "title", "cast", "crew"},
		{"19995", "Avatar", "[]",
			`[{'id': 2710, 'job': 'Director', 'name': 'James Cameron'}]`},
		{"285", "Pirates of the Caribbean: At World's End", "[]",
			`[{'id': 1704, 'job': 'Director', 'name': 'Gore Verbinski'}]`},
	})
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	r := &Runner{Config: &cfg}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Snapshots landed on disk.
	gold, err := snapshot.ReadGold(cfg.Layers.Gold)
	if err != nil {
		t.Fatalf("ReadGold: %v", err)
	}
	if len(gold.Movies) != 2 || len(gold.Facts) != 2 {
		t.Errorf("gold movies=%d facts=%d", len(gold.Movies), len(gold.Facts))
	}
	if len(gold.Genres) != 3 {
		t.Errorf("gold genres=%d, want 3", len(gold.Genres))
	}

	movies, credits, err := snapshot.ReadSilver(cfg.Layers.Silver)
	if err != nil {
		t.Fatalf("ReadSilver: %v", err)
	}
	if len(movies) != 2 || len(credits) != 2 {
		t.Errorf("silver movies=%d credits=%d", len(movies), len(credits))
	}

	// The warehouse answers queries.
	store, err := moviestore.Open(ctx, cfg.Warehouse.Kind, cfg.Warehouse.DSN)
	if err != nil {
		t.Fatalf("moviestore.Open: %v", err)
	}
	defer store.Close()

	m, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Title != "Avatar" || m.Director != "James Cameron" {
		t.Errorf("movie = %+v", m)
	}
	if len(m.Genres) != 2 {
		t.Errorf("genres = %v", m.Genres)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	r := &Runner{Config: &cfg}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := r.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	store, err := moviestore.Open(ctx, cfg.Warehouse.Kind, cfg.Warehouse.DSN)
	if err != nil {
		t.Fatalf("moviestore.Open: %v", err)
	}
	defer store.Close()

	movies, err := store.List(ctx, 0, 100)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(movies) != 2 {
		t.Errorf("after rerun movies = %d, want 2", len(movies))
	}
}

func TestRunFailsOnMissingExtract(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Remove(cfg.CreditsPath()); err != nil {
		t.Fatal(err)
	}

	r := &Runner{Config: &cfg}
	if err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing extract")
	}
}
