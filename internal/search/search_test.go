package search

import (
	"context"
	"testing"

	"moviedw/internal/moviestore"
)

func f(v float64) *float64 { return &v }

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(idx.Close)

	err = idx.IndexMovies([]moviestore.Movie{
		{ID: 1, Title: "Avatar", Overview: "A paraplegic Marine on Pandora.",
			Director: "James Cameron", Genres: []string{"Action", "Adventure"},
			ReleaseDate: "2009-12-10", Popularity: 150.437577, VoteAverage: 7.2},
		{ID: 2, Title: "Titanic", Overview: "A seventeen-year-old aristocrat.",
			Director: "James Cameron", Genres: []string{"Drama", "Romance"},
			ReleaseDate: "1997-11-18", Popularity: 100.25, VoteAverage: 7.5},
		{ID: 3, Title: "Alien", Overview: "The crew of a commercial spacecraft.",
			Director: "Ridley Scott", Genres: []string{"Horror", "Science Fiction"},
			ReleaseDate: "1979-05-25", Popularity: 80.5, VoteAverage: 7.9},
	})
	if err != nil {
		t.Fatalf("IndexMovies: %v", err)
	}
	return idx
}

func TestSearchText(t *testing.T) {
	idx := testIndex(t)

	hits, total, err := idx.Search(context.Background(), Query{Text: "pandora"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 || len(hits) != 1 {
		t.Fatalf("total = %d, hits = %d", total, len(hits))
	}
	h := hits[0]
	if h.ID != 1 || h.Title != "Avatar" || h.Director != "James Cameron" {
		t.Errorf("hit = %+v", h)
	}
	if len(h.Genres) != 2 {
		t.Errorf("genres = %v", h.Genres)
	}
	if h.Popularity != 150.437577 {
		t.Errorf("popularity = %v", h.Popularity)
	}
}

func TestSearchNumericFilters(t *testing.T) {
	idx := testIndex(t)
	ctx := context.Background()

	hits, _, err := idx.Search(ctx, Query{MinPopularity: f(90), MaxPopularity: f(200)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("popularity range hits = %d, want 2", len(hits))
	}

	hits, _, err = idx.Search(ctx, Query{Text: "cameron", MinVote: f(7.4)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Title != "Titanic" {
		t.Errorf("combined query hits = %+v", hits)
	}
}

func TestSearchMatchAllAndPagination(t *testing.T) {
	idx := testIndex(t)

	hits, total, err := idx.Search(context.Background(), Query{Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(hits) != 2 {
		t.Errorf("hits = %d, want 2", len(hits))
	}
}

func TestDocCount(t *testing.T) {
	idx := testIndex(t)

	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if n != 3 {
		t.Errorf("DocCount = %d, want 3", n)
	}
}
