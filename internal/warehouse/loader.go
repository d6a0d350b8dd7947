package warehouse

import (
	"context"
	"fmt"
	"log"

	"moviedw/internal/metrics"
	"moviedw/internal/star"
)

// Logger is the subset of *log.Logger the loader uses.
type Logger interface {
	Printf(format string, v ...any)
}

// Loader writes a built star schema into a Repository.
//
// The load is idempotent at run granularity: when the fact table already
// holds rows the whole load is skipped, so re-running the pipeline against a
// populated warehouse is a no-op rather than a duplication.
type Loader struct {
	Repo   Repository
	Logger Logger

	// BatchSize bounds rows per INSERT so placeholder counts stay inside
	// driver limits (SQL Server caps at 2100 parameters). Defaults to 100.
	BatchSize int
}

type loadTable struct {
	name    string
	columns []string
	rows    [][]any
}

// Load ensures the schema and bulk-inserts every table in dependency order.
//
// Failure granularity: a table that fails to insert is logged and counted,
// and the remaining tables are still attempted; only schema creation and the
// idempotency check are fatal. A partially loaded warehouse must be cleared
// before retrying, same as any interrupted run.
func (l *Loader) Load(ctx context.Context, s *star.Schema) error {
	if err := l.Repo.EnsureSchema(ctx, Tables()); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	existing, err := l.Repo.CountRows(ctx, FactTable)
	if err != nil {
		return fmt.Errorf("count %s: %w", FactTable, err)
	}
	if existing > 0 {
		l.logf("stage=load skipped=true reason=fact_rows_exist count=%d", existing)
		metrics.IncCounter("etl.load.skipped", 1)
		return nil
	}

	for _, t := range tablesFromSchema(s) {
		written, err := l.insertBatched(ctx, t)
		if err != nil {
			l.logf("stage=load table=%s error=%v", t.name, err)
			metrics.IncCounter("etl.load.errors", 1, "table:"+t.name)
			continue
		}
		l.logf("stage=load table=%s rows=%d written=%d", t.name, len(t.rows), written)
		metrics.IncCounter("etl.rows.loaded", float64(written), "table:"+t.name)
	}
	return nil
}

func (l *Loader) insertBatched(ctx context.Context, t loadTable) (int64, error) {
	batch := l.BatchSize
	if batch <= 0 {
		batch = 100
	}

	var written int64
	for start := 0; start < len(t.rows); start += batch {
		end := start + batch
		if end > len(t.rows) {
			end = len(t.rows)
		}
		n, err := l.Repo.InsertRows(ctx, t.name, t.columns, t.rows[start:end])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

func (l *Loader) logf(format string, v ...any) {
	if l.Logger != nil {
		l.Logger.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

// tablesFromSchema flattens the star schema into column/row form, in the same
// order as Tables().
func tablesFromSchema(s *star.Schema) []loadTable {
	dates := loadTable{
		name: "dim_date",
		columns: []string{"id", "date", "year", "month", "month_name", "day",
			"day_of_week", "day_of_week_name", "quarter", "week", "is_weekend"},
	}
	for _, r := range s.Dates {
		dates.rows = append(dates.rows, []any{
			r.ID, r.Date.Format("2006-01-02"), r.Year, r.Month, r.MonthName,
			r.Day, r.DayOfWeek, r.DayOfWeekName, r.Quarter, r.Week, r.IsWeekend,
		})
	}

	movies := loadTable{
		name: "dim_movie",
		columns: []string{"id", "original_id", "title", "original_language",
			"overview", "tagline", "status", "runtime"},
	}
	for _, r := range s.Movies {
		movies.rows = append(movies.rows, []any{
			r.ID, r.OriginalID, r.Title, r.OriginalLanguage, r.Overview,
			r.Tagline, r.Status, nullableInt32(r.Runtime),
		})
	}

	genres := loadTable{name: "dim_genre", columns: []string{"id", "original_id", "name"}}
	for _, r := range s.Genres {
		genres.rows = append(genres.rows, []any{r.ID, r.OriginalID, r.Name})
	}

	directors := loadTable{name: "dim_director", columns: []string{"id", "original_id", "name", "profile_path"}}
	for _, r := range s.Directors {
		directors.rows = append(directors.rows, []any{r.ID, r.OriginalID, r.Name, nullableString(r.ProfilePath)})
	}

	companies := loadTable{name: "dim_production_company", columns: []string{"id", "original_id", "name", "origin_country"}}
	for _, r := range s.Companies {
		companies.rows = append(companies.rows, []any{r.ID, r.OriginalID, r.Name, nullableString(r.OriginCountry)})
	}

	languages := loadTable{name: "dim_language", columns: []string{"id", "iso_639_1", "language_name"}}
	for _, r := range s.Languages {
		languages.rows = append(languages.rows, []any{r.ID, r.ISO6391, r.LanguageName})
	}

	countries := loadTable{name: "dim_country", columns: []string{"id", "iso_3166_1", "country_name"}}
	for _, r := range s.Countries {
		countries.rows = append(countries.rows, []any{r.ID, r.ISO31661, r.CountryName})
	}

	bridge := loadTable{name: "bridge_movie_genre", columns: []string{"movie_id", "genre_id"}}
	for _, r := range s.Bridge {
		bridge.rows = append(bridge.rows, []any{r.MovieID, r.GenreID})
	}

	facts := loadTable{
		name: "fact_movie_release",
		columns: []string{"id", "movie_info_id", "release_date_id", "date_id",
			"director_id", "language_id", "company_id", "country_id",
			"budget", "revenue", "popularity", "vote_average", "runtime"},
	}
	for _, r := range s.Facts {
		facts.rows = append(facts.rows, []any{
			r.ID, r.MovieInfoID, r.ReleaseDateID, r.DateID,
			nullableInt64(r.DirectorID), nullableInt64(r.LanguageID),
			nullableInt64(r.CompanyID), nullableInt64(r.CountryID),
			r.Budget, r.Revenue, r.Popularity, r.VoteAverage,
			nullableInt32(r.Runtime),
		})
	}

	return []loadTable{dates, movies, genres, directors, companies, languages, countries, bridge, facts}
}

func nullableInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableInt32(p *int32) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
