// Package search maintains a full-text index over the warehouse's movies.
// The index is embedded (bleve) and rebuilt from the read store after each
// pipeline run, so it never drifts from the warehouse for longer than a run.
package search

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"moviedw/internal/moviestore"
)

// Doc is the indexed shape of a movie.
type Doc struct {
	Title            string   `json:"title"`
	Overview         string   `json:"overview"`
	Tagline          string   `json:"tagline"`
	Director         string   `json:"director"`
	Genres           []string `json:"genres"`
	OriginalLanguage string   `json:"original_language"`
	ReleaseDate      string   `json:"release_date"`
	Popularity       float64  `json:"popularity"`
	VoteAverage      float64  `json:"vote_average"`
}

// Query describes one search: free text over the text fields plus optional
// numeric range filters. Nil bounds mean unbounded.
type Query struct {
	Text          string
	MinPopularity *float64
	MaxPopularity *float64
	MinVote       *float64
	MaxVote       *float64
	Offset        int
	Limit         int
}

// Hit is one search result.
type Hit struct {
	ID          int64    `json:"id"`
	Score       float64  `json:"score"`
	Title       string   `json:"title"`
	Director    string   `json:"director,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Popularity  float64  `json:"popularity"`
	VoteAverage float64  `json:"vote_average"`
}

// Index wraps a bleve index over movie documents.
type Index struct {
	idx bleve.Index
}

func indexMapping() mapping.IndexMapping {
	return bleve.NewIndexMapping()
}

// Open opens the index at path, creating it when absent.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, indexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("search: open %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// Rebuild removes any index at path and builds a fresh one from the movies.
func Rebuild(path string, movies []moviestore.Movie) (*Index, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("search: clear %s: %w", path, err)
	}
	idx, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := idx.IndexMovies(movies); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

// OpenMemory builds an in-memory index; tests and ad-hoc runs use it.
func OpenMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(indexMapping())
	if err != nil {
		return nil, fmt.Errorf("search: open in-memory: %w", err)
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Close() { _ = i.idx.Close() }

// IndexMovies (re)indexes the given movies in batches.
func (i *Index) IndexMovies(movies []moviestore.Movie) error {
	const batchSize = 500

	b := i.idx.NewBatch()
	for n, m := range movies {
		doc := Doc{
			Title:            m.Title,
			Overview:         m.Overview,
			Tagline:          m.Tagline,
			Director:         m.Director,
			Genres:           m.Genres,
			OriginalLanguage: m.OriginalLanguage,
			ReleaseDate:      m.ReleaseDate,
			Popularity:       m.Popularity,
			VoteAverage:      m.VoteAverage,
		}
		if err := b.Index(strconv.FormatInt(m.ID, 10), doc); err != nil {
			return fmt.Errorf("search: index movie %d: %w", m.ID, err)
		}
		if b.Size() >= batchSize || n == len(movies)-1 {
			if err := i.idx.Batch(b); err != nil {
				return fmt.Errorf("search: batch: %w", err)
			}
			b = i.idx.NewBatch()
		}
	}
	return nil
}

// Search runs a query and returns hits plus the total match count.
func (i *Index) Search(ctx context.Context, q Query) ([]Hit, uint64, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, q.Offset, false)
	req.Fields = []string{"*"}

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{
			ID:          id,
			Score:       h.Score,
			Title:       fieldString(h.Fields, "title"),
			Director:    fieldString(h.Fields, "director"),
			Genres:      fieldStrings(h.Fields, "genres"),
			ReleaseDate: fieldString(h.Fields, "release_date"),
			Popularity:  fieldFloat(h.Fields, "popularity"),
			VoteAverage: fieldFloat(h.Fields, "vote_average"),
		})
	}
	return hits, res.Total, nil
}

// DocCount reports how many movies are indexed.
func (i *Index) DocCount() (uint64, error) {
	return i.idx.DocCount()
}

func buildQuery(q Query) query.Query {
	var parts []query.Query

	if q.Text != "" {
		m := bleve.NewMatchQuery(q.Text)
		parts = append(parts, m)
	}
	if q.MinPopularity != nil || q.MaxPopularity != nil {
		r := bleve.NewNumericRangeQuery(q.MinPopularity, q.MaxPopularity)
		r.SetField("popularity")
		parts = append(parts, r)
	}
	if q.MinVote != nil || q.MaxVote != nil {
		r := bleve.NewNumericRangeQuery(q.MinVote, q.MaxVote)
		r.SetField("vote_average")
		parts = append(parts, r)
	}

	switch len(parts) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return parts[0]
	default:
		return bleve.NewConjunctionQuery(parts...)
	}
}

func fieldString(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func fieldFloat(fields map[string]any, name string) float64 {
	if v, ok := fields[name].(float64); ok {
		return v
	}
	return 0
}

// fieldStrings handles bleve returning a single value as a bare string and
// multiple values as a slice.
func fieldStrings(fields map[string]any, name string) []string {
	switch v := fields[name].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
