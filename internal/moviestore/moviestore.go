// Package moviestore is the read side of the warehouse: denormalized movie
// records for the API and the search indexer, served from the same star
// schema the loader wrote.
//
// All three warehouse kinds are supported through database/sql; queries are
// written with ? placeholders and rebound per dialect.
package moviestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup for a movie id the warehouse does not hold.
var ErrNotFound = errors.New("moviestore: movie not found")

// Movie is the denormalized read model: one fact row joined to its
// dimensions, with genre names resolved through the bridge.
type Movie struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview,omitempty"`
	Tagline          string   `json:"tagline,omitempty"`
	Status           string   `json:"status,omitempty"`
	OriginalLanguage string   `json:"original_language,omitempty"`
	Runtime          *int32   `json:"runtime,omitempty"`
	ReleaseDate      string   `json:"release_date,omitempty"`
	Budget           int64    `json:"budget"`
	Revenue          int64    `json:"revenue"`
	Popularity       float64  `json:"popularity"`
	VoteAverage      float64  `json:"vote_average"`
	Director         string   `json:"director,omitempty"`
	Genres           []string `json:"genres"`
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
	dialectMSSQL
)

// Store reads movies from a loaded warehouse.
type Store struct {
	db *sql.DB
	d  dialect
}

// Open connects to the warehouse identified by kind ("sqlite", "postgres",
// "mssql") and DSN.
func Open(ctx context.Context, kind, dsn string) (*Store, error) {
	var (
		driver string
		d      dialect
	)
	switch kind {
	case "sqlite":
		driver, d = "sqlite", dialectSQLite
	case "postgres":
		driver, d = "pgx", dialectPostgres
	case "mssql":
		driver, d = "sqlserver", dialectMSSQL
	default:
		return nil, fmt.Errorf("moviestore: unsupported kind=%s", kind)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, d: d}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const baseSelect = `
SELECT m.id, m.title, m.overview, m.tagline, m.status, m.original_language,
       m.runtime, d.date, f.budget, f.revenue, f.popularity, f.vote_average,
       dir.name
FROM fact_movie_release f
JOIN dim_movie m ON m.id = f.movie_info_id
JOIN dim_date d ON d.id = f.release_date_id
LEFT JOIN dim_director dir ON dir.id = f.director_id`

// List returns movies ordered by id, paginated by skip/limit.
func (s *Store) List(ctx context.Context, skip, limit int) ([]Movie, error) {
	q := baseSelect + " ORDER BY m.id" + s.pageClause()
	return s.queryMovies(ctx, q, s.pageArgs(skip, limit)...)
}

// Get returns one movie by surrogate id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*Movie, error) {
	movies, err := s.queryMovies(ctx, baseSelect+" WHERE m.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, ErrNotFound
	}
	return &movies[0], nil
}

// ByTitle returns movies whose title contains q, case-insensitively.
func (s *Store) ByTitle(ctx context.Context, title string, skip, limit int) ([]Movie, error) {
	q := baseSelect + " WHERE LOWER(m.title) LIKE LOWER(?) ORDER BY m.id" + s.pageClause()
	args := append([]any{"%" + title + "%"}, s.pageArgs(skip, limit)...)
	return s.queryMovies(ctx, q, args...)
}

// ByGenre returns movies carrying the named genre, matched case-insensitively.
func (s *Store) ByGenre(ctx context.Context, genre string, skip, limit int) ([]Movie, error) {
	q := baseSelect + `
 WHERE m.id IN (
   SELECT b.movie_id FROM bridge_movie_genre b
   JOIN dim_genre g ON g.id = b.genre_id
   WHERE LOWER(g.name) = LOWER(?)
 ) ORDER BY m.id` + s.pageClause()
	args := append([]any{genre}, s.pageArgs(skip, limit)...)
	return s.queryMovies(ctx, q, args...)
}

// ByPopularity returns movies with popularity in [min, max], most popular
// first.
func (s *Store) ByPopularity(ctx context.Context, min, max float64, skip, limit int) ([]Movie, error) {
	q := baseSelect + " WHERE f.popularity >= ? AND f.popularity <= ? ORDER BY f.popularity DESC, m.id" + s.pageClause()
	args := append([]any{min, max}, s.pageArgs(skip, limit)...)
	return s.queryMovies(ctx, q, args...)
}

// ByVoteAverage returns movies with vote average in [min, max], best rated
// first.
func (s *Store) ByVoteAverage(ctx context.Context, min, max float64, skip, limit int) ([]Movie, error) {
	q := baseSelect + " WHERE f.vote_average >= ? AND f.vote_average <= ? ORDER BY f.vote_average DESC, m.id" + s.pageClause()
	args := append([]any{min, max}, s.pageArgs(skip, limit)...)
	return s.queryMovies(ctx, q, args...)
}

// All streams every movie, for building the search index.
func (s *Store) All(ctx context.Context) ([]Movie, error) {
	return s.queryMovies(ctx, baseSelect+" ORDER BY m.id")
}

func (s *Store) queryMovies(ctx context.Context, q string, args ...any) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movie
	for rows.Next() {
		var (
			m        Movie
			runtime  sql.NullInt64
			date     any
			director sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.Overview, &m.Tagline, &m.Status,
			&m.OriginalLanguage, &runtime, &date, &m.Budget, &m.Revenue,
			&m.Popularity, &m.VoteAverage, &director); err != nil {
			return nil, err
		}
		if runtime.Valid {
			r := int32(runtime.Int64)
			m.Runtime = &r
		}
		m.ReleaseDate = scanDate(date)
		m.Director = director.String
		m.Genres = []string{}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.fillGenres(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// genreBatchSize bounds ids per IN query so placeholder counts stay inside
// driver limits (SQL Server caps at 2100 parameters); All hands the whole
// warehouse to fillGenres at once.
const genreBatchSize = 500

// fillGenres resolves genre names for the movies with batched IN queries.
func (s *Store) fillGenres(ctx context.Context, movies []Movie) error {
	if len(movies) == 0 {
		return nil
	}

	byID := make(map[int64]*Movie, len(movies))
	for i := range movies {
		byID[movies[i].ID] = &movies[i]
	}

	for start := 0; start < len(movies); start += genreBatchSize {
		end := start + genreBatchSize
		if end > len(movies) {
			end = len(movies)
		}
		if err := s.fillGenresBatch(ctx, byID, movies[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) fillGenresBatch(ctx context.Context, byID map[int64]*Movie, movies []Movie) error {
	ids := make([]any, 0, len(movies))
	ph := make([]string, 0, len(movies))
	for i := range movies {
		ids = append(ids, movies[i].ID)
		ph = append(ph, "?")
	}

	q := fmt.Sprintf(`SELECT b.movie_id, g.name
FROM bridge_movie_genre b
JOIN dim_genre g ON g.id = b.genre_id
WHERE b.movie_id IN (%s)
ORDER BY b.movie_id, b.genre_id`, strings.Join(ph, ", "))

	rows, err := s.db.QueryContext(ctx, s.rebind(q), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			movieID int64
			name    string
		)
		if err := rows.Scan(&movieID, &name); err != nil {
			return err
		}
		if m := byID[movieID]; m != nil {
			m.Genres = append(m.Genres, name)
		}
	}
	return rows.Err()
}

// rebind rewrites ? placeholders into the dialect's positional form. Queries
// here never embed literal question marks, so a straight scan suffices.
func (s *Store) rebind(q string) string {
	if s.d == dialectSQLite {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] != '?' {
			b.WriteByte(q[i])
			continue
		}
		n++
		if s.d == dialectPostgres {
			b.WriteString("$" + strconv.Itoa(n))
		} else {
			b.WriteString("@p" + strconv.Itoa(n))
		}
	}
	return b.String()
}

func (s *Store) pageClause() string {
	if s.d == dialectMSSQL {
		return " OFFSET ? ROWS FETCH NEXT ? ROWS ONLY"
	}
	return " LIMIT ? OFFSET ?"
}

func (s *Store) pageArgs(skip, limit int) []any {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if s.d == dialectMSSQL {
		return []any{skip, limit}
	}
	return []any{limit, skip}
}

// scanDate normalizes the release date column across backends: SQLite hands
// back the loaded ISO string, Postgres and SQL Server hand back time.Time.
func scanDate(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case []byte:
		return string(d)
	case time.Time:
		return d.Format("2006-01-02")
	default:
		return ""
	}
}
