package warehouse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"moviedw/internal/star"
)

type fakeRepo struct {
	factCount   int64
	countErr    error
	insertErr   map[string]error
	ensured     []string
	inserts     map[string][][]any
	insertCalls map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		inserts:     map[string][][]any{},
		insertCalls: map[string]int{},
		insertErr:   map[string]error{},
	}
}

func (f *fakeRepo) Close() {}

func (f *fakeRepo) EnsureSchema(ctx context.Context, tables []TableSpec) error {
	for _, t := range tables {
		f.ensured = append(f.ensured, t.Name)
	}
	return nil
}

func (f *fakeRepo) CountRows(ctx context.Context, table string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.factCount, nil
}

func (f *fakeRepo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if err := f.insertErr[table]; err != nil {
		return 0, err
	}
	f.insertCalls[table]++
	f.inserts[table] = append(f.inserts[table], rows...)
	return int64(len(rows)), nil
}

func sampleSchema() *star.Schema {
	d := time.Date(2009, time.December, 10, 0, 0, 0, 0, time.UTC)
	dirID := int64(1)
	return &star.Schema{
		Dates:  []star.DimDate{{ID: 1, Date: d, Year: 2009, Month: 12, MonthName: "December", Day: 10, DayOfWeek: 3, DayOfWeekName: "Thursday", Quarter: 4, Week: 50}},
		Movies: []star.DimMovie{{ID: 1, OriginalID: 19995, Title: "Avatar", OriginalLanguage: "en"}},
		Genres: []star.DimGenre{{ID: 1, OriginalID: 28, Name: "Action"}, {ID: 2, OriginalID: 12, Name: "Adventure"}},
		Directors: []star.DimDirector{
			{ID: 1, OriginalID: 2710, Name: "James Cameron"},
		},
		Companies: []star.DimProductionCompany{{ID: 1, OriginalID: 289, Name: "Ingenious Film Partners"}},
		Languages: []star.DimLanguage{{ID: 1, ISO6391: "en", LanguageName: "English"}},
		Countries: []star.DimCountry{{ID: 1, ISO31661: "US", CountryName: "United States of America"}},
		Bridge:    []star.BridgeMovieGenre{{MovieID: 1, GenreID: 1}, {MovieID: 1, GenreID: 2}},
		Facts: []star.FactMovieRelease{{
			ID: 1, MovieInfoID: 1, ReleaseDateID: 1, DateID: 1,
			DirectorID: &dirID, Budget: 237000000, Popularity: 150.437577,
		}},
	}
}

func TestLoaderWritesAllTables(t *testing.T) {
	repo := newFakeRepo()
	l := &Loader{Repo: repo}

	if err := l.Load(context.Background(), sampleSchema()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(repo.ensured) != 9 {
		t.Fatalf("ensured %d tables, want 9", len(repo.ensured))
	}
	for _, name := range []string{
		"dim_date", "dim_movie", "dim_genre", "dim_director",
		"dim_production_company", "dim_language", "dim_country",
		"bridge_movie_genre", "fact_movie_release",
	} {
		if _, ok := repo.inserts[name]; !ok {
			t.Errorf("table %s never inserted", name)
		}
	}
	if n := len(repo.inserts["bridge_movie_genre"]); n != 2 {
		t.Errorf("bridge rows = %d, want 2", n)
	}

	// Dates travel as ISO strings so every backend binds them the same way.
	dateRow := repo.inserts["dim_date"][0]
	if dateRow[1] != "2009-12-10" {
		t.Errorf("date column = %v", dateRow[1])
	}

	// Nil foreign keys must arrive as SQL NULL, not typed pointers.
	factRow := repo.inserts["fact_movie_release"][0]
	if factRow[5] != nil {
		t.Errorf("language_id = %v, want nil", factRow[5])
	}
	if factRow[4] != int64(1) {
		t.Errorf("director_id = %v, want 1", factRow[4])
	}
}

func TestLoaderSkipsPopulatedWarehouse(t *testing.T) {
	repo := newFakeRepo()
	repo.factCount = 4803

	l := &Loader{Repo: repo}
	if err := l.Load(context.Background(), sampleSchema()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(repo.inserts) != 0 {
		t.Errorf("populated warehouse should skip inserts, got %v", repo.inserts)
	}
}

func TestLoaderContinuesAfterTableFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr["dim_genre"] = errors.New("boom")

	l := &Loader{Repo: repo}
	if err := l.Load(context.Background(), sampleSchema()); err != nil {
		t.Fatalf("table failure must not abort the load: %v", err)
	}
	if _, ok := repo.inserts["dim_genre"]; ok {
		t.Error("failed table should not record inserts")
	}
	if _, ok := repo.inserts["fact_movie_release"]; !ok {
		t.Error("remaining tables must still be attempted")
	}
}

func TestLoaderFatalOnCountFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.countErr = errors.New("no connection")

	l := &Loader{Repo: repo}
	err := l.Load(context.Background(), sampleSchema())
	if err == nil || !strings.Contains(err.Error(), "fact_movie_release") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoaderBatchesRows(t *testing.T) {
	repo := newFakeRepo()
	s := sampleSchema()
	for i := int64(2); i <= 250; i++ {
		s.Dates = append(s.Dates, star.DimDate{ID: i, Date: s.Dates[0].Date.AddDate(0, 0, int(i))})
	}

	l := &Loader{Repo: repo, BatchSize: 100}
	if err := l.Load(context.Background(), s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if calls := repo.insertCalls["dim_date"]; calls != 3 {
		t.Errorf("dim_date insert calls = %d, want 3", calls)
	}
	if rows := len(repo.inserts["dim_date"]); rows != 250 {
		t.Errorf("dim_date rows = %d, want 250", rows)
	}
}
